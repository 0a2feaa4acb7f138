package daemon

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/store"
)

func newTestService(t *testing.T, cfg Config) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "traffic.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(cfg, nil, st, nil), st
}

func TestNewAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	if svc.cfg.Interval != time.Hour {
		t.Errorf("Interval = %v, want 1h default", svc.cfg.Interval)
	}
	if svc.cfg.EventsBuffer != 200 {
		t.Errorf("EventsBuffer = %d, want 200", svc.cfg.EventsBuffer)
	}
	if svc.cfg.Addr != "127.0.0.1:8687" {
		t.Errorf("Addr = %q", svc.cfg.Addr)
	}
}

func TestPublishEventBoundsBuffer(t *testing.T) {
	svc, _ := newTestService(t, Config{EventsBuffer: 3})

	for i := 1; i <= 5; i++ {
		svc.publishEvent(Event{ID: int64(i), Timestamp: time.Now()})
	}

	if len(svc.events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(svc.events))
	}
	if svc.events[0].ID != 3 || svc.events[2].ID != 5 {
		t.Errorf("events kept IDs %d..%d, want 3..5", svc.events[0].ID, svc.events[2].ID)
	}
}

func TestPublishEventFansOutToSubscribers(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	ch := make(chan Event, 1)
	id := svc.addSubscriber(ch)
	defer svc.removeSubscriber(id)

	svc.publishEvent(Event{ID: 7})

	select {
	case ev := <-ch:
		if ev.ID != 7 {
			t.Errorf("received event %d, want 7", ev.ID)
		}
	default:
		t.Fatal("subscriber never received the event")
	}
}

func TestPublishEventSkipsFullSubscriber(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	ch := make(chan Event) // unbuffered and never drained
	id := svc.addSubscriber(ch)
	defer svc.removeSubscriber(id)

	done := make(chan struct{})
	go func() {
		svc.publishEvent(Event{ID: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishEvent blocked on a slow subscriber")
	}
}

func TestHandleStatus(t *testing.T) {
	svc, _ := newTestService(t, Config{Interval: 30 * time.Minute})

	w := httptest.NewRecorder()
	svc.handleStatus(w, httptest.NewRequest("GET", "/v1/status", nil))

	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	var got Status
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if got.PollIntervalSec != 1800 {
		t.Errorf("PollIntervalSec = %d, want 1800", got.PollIntervalSec)
	}
	if got.Entities != 0 {
		t.Errorf("Entities = %d on empty store", got.Entities)
	}
}

func TestHandleWANAndClients(t *testing.T) {
	svc, st := newTestService(t, Config{})

	at := time.Date(2026, 7, 15, 8, 0, 0, 0, time.UTC)
	tx, err := st.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.AddMonthlyUsage(model.WANKey, "2026-07", 1000, 500, at); err != nil {
		t.Fatalf("add wan: %v", err)
	}
	if err := tx.AddMonthlyUsage("aa:bb:cc:dd:ee:ff", "2026-07", 300, 100, at); err != nil {
		t.Fatalf("add client: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	w := httptest.NewRecorder()
	svc.handleWAN(w, httptest.NewRequest("GET", "/v1/wan?month=2026-07", nil))
	var sum model.WANSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decoding wan: %v", err)
	}
	if sum.RxBytes != 1000 || sum.TxBytes != 500 {
		t.Errorf("wan = %d/%d, want 1000/500", sum.RxBytes, sum.TxBytes)
	}

	w = httptest.NewRecorder()
	svc.handleClients(w, httptest.NewRequest("GET", "/v1/clients?month=2026-07", nil))
	var clients []model.ClientUsage
	if err := json.Unmarshal(w.Body.Bytes(), &clients); err != nil {
		t.Fatalf("decoding clients: %v", err)
	}
	if len(clients) != 1 || clients[0].EntityKey != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("clients = %+v, want the one non-WAN entity", clients)
	}
}

func TestHandleClientsEmptyIsJSONArray(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	w := httptest.NewRecorder()
	svc.handleClients(w, httptest.NewRequest("GET", "/v1/clients?month=2026-07", nil))

	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestMonthParamDefaultsToCurrent(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/wan", nil)
	if got, want := monthParam(r), model.MonthOf(time.Now()); got != want {
		t.Errorf("monthParam = %q, want %q", got, want)
	}

	r = httptest.NewRequest("GET", "/v1/wan?month=2025-12", nil)
	if got := monthParam(r); got != "2025-12" {
		t.Errorf("monthParam = %q, want 2025-12", got)
	}
}
