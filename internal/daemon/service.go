// Package daemon provides the long-running poller and the read-only HTTP
// query surface over the traffic store.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/collector"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
}

// Event is emitted after every collection run that touched the store.
type Event struct {
	ID        int64               `json:"id"`
	Timestamp time.Time           `json:"timestamp"`
	Run       collector.RunResult `json:"run"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time           `json:"started_at"`
	LastRunAt       time.Time           `json:"last_run_at"`
	PollIntervalSec int                 `json:"poll_interval_sec"`
	RunCount        int64               `json:"run_count"`
	LastRun         collector.RunResult `json:"last_run"`
	LastError       string              `json:"last_error,omitempty"`
	Entities        int                 `json:"entities"`
	EventCount      int                 `json:"event_count"`
	SubscriberCount int                 `json:"subscriber_count"`
}

// Service runs the scheduler loop and the HTTP API. The collector is the
// only writer; every HTTP handler reads the store independently.
type Service struct {
	cfg   Config
	coll  *collector.Collector
	store *store.Store
	log   *zap.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	runCount    int64
	lastError   string
	lastRun     collector.RunResult
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service over an open store.
func New(cfg Config, coll *collector.Collector, st *store.Store, log *zap.Logger) *Service {
	if cfg.Interval < time.Minute {
		cfg.Interval = time.Hour
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8687"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		coll:      coll,
		store:     st,
		log:       log,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled. Runs are
// strictly sequential: the next tick waits for the previous run to finish.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/wan", s.handleWAN)
	mux.HandleFunc("/v1/clients", s.handleClients)
	mux.HandleFunc("/v1/leases", s.handleLeases)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Run once immediately so status is useful before the first tick.
	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.runOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	run, err := s.coll.Run(ctx)

	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.runCount++
	s.lastRun = run
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}

	var ev Event
	publish := run.Cycle.Entities > 0 || run.Cycle.Leases > 0
	if publish {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Timestamp: s.lastRunAt, Run: run}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities, _ := s.store.EntityCount()

	return Status{
		StartedAt:       s.startedAt,
		LastRunAt:       s.lastRunAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		RunCount:        s.runCount,
		LastRun:         s.lastRun,
		LastError:       s.lastError,
		Entities:        entities,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleWAN(w http.ResponseWriter, r *http.Request) {
	month := monthParam(r)
	sum, _, err := s.store.WANSummary(month)
	if err != nil {
		s.serveError(w, err)
		return
	}
	writeJSON(w, sum)
}

func (s *Service) handleClients(w http.ResponseWriter, r *http.Request) {
	month := monthParam(r)
	clients, err := s.store.ListClients(month)
	if err != nil {
		s.serveError(w, err)
		return
	}
	if clients == nil {
		clients = []model.ClientUsage{}
	}
	writeJSON(w, clients)
}

func (s *Service) handleLeases(w http.ResponseWriter, _ *http.Request) {
	leases, err := s.store.ListLeases()
	if err != nil {
		s.serveError(w, err)
		return
	}
	if leases == nil {
		leases = []model.LeaseRecord{}
	}
	writeJSON(w, leases)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func (s *Service) serveError(w http.ResponseWriter, err error) {
	s.log.Error("query failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: cycle\n")
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func monthParam(r *http.Request) model.YearMonth {
	if m := r.URL.Query().Get("month"); m != "" {
		return model.YearMonth(m)
	}
	return model.MonthOf(time.Now())
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
