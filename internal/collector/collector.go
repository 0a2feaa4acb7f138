// Package collector runs one poll cycle per configured router: fetch the
// batch, reconcile it against the store in a single transaction, commit.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/config"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/engine"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/source"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/store"
)

// RunResult aggregates the outcome of one collection run across all routers.
type RunResult struct {
	At          time.Time          `json:"at"`
	Routers     int                `json:"routers"`
	Failed      int                `json:"failed"`
	Skipped     int                `json:"skipped"`
	Cycle       engine.CycleResult `json:"cycle"`
	ParseErrors int                `json:"parse_errors"`
}

// Collector polls every configured router and feeds the engine.
type Collector struct {
	routers    []config.RouterConfig
	client     *source.Client
	store      *store.Store
	reconciler *engine.Reconciler
	log        *zap.Logger
	timeout    time.Duration
}

// New wires a collector over an open store.
func New(cfg config.Config, st *store.Store, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		routers:    cfg.Routers,
		client:     source.NewClient(cfg.FetchTimeout()),
		store:      st,
		reconciler: engine.New(log),
		log:        log,
		timeout:    cfg.FetchTimeout(),
	}
}

// Run executes one collection cycle for every router, sequentially. One
// router failing is logged and does not stop the others; each router's
// batch is its own transaction. The returned error is the first router
// failure, for the scheduler to surface as a failed run.
func (c *Collector) Run(ctx context.Context) (RunResult, error) {
	res := RunResult{At: time.Now(), Routers: len(c.routers)}
	var firstErr error

	for _, rc := range c.routers {
		cycle, err := c.runRouter(ctx, rc, &res)
		if err != nil {
			res.Failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("router %s: %w", rc.Name, err)
			}
			c.log.Error("cycle failed", zap.String("router", rc.Name), zap.Error(err))
			continue
		}

		res.Cycle.Entities += cycle.Entities
		res.Cycle.NewEntities += cycle.NewEntities
		res.Cycle.Resets += cycle.Resets
		res.Cycle.Regressions += cycle.Regressions
		res.Cycle.Leases += cycle.Leases
		res.Cycle.RxDelta += cycle.RxDelta
		res.Cycle.TxDelta += cycle.TxDelta
	}

	return res, firstErr
}

func (c *Collector) runRouter(ctx context.Context, rc config.RouterConfig, res *RunResult) (engine.CycleResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fr, err := c.client.FetchBatch(fetchCtx, rc)
	if err != nil {
		// Fetch failed before the engine ran: the store was never touched,
		// and the stale checkpoints stay valid for the next interval.
		if errors.Is(err, source.ErrWANUnavailable) {
			return engine.CycleResult{}, fmt.Errorf("batch unavailable: %w", err)
		}
		return engine.CycleResult{}, err
	}

	for _, w := range fr.Warnings {
		c.log.Warn("partial fetch", zap.String("router", rc.Name), zap.Error(w))
	}
	res.ParseErrors += fr.Batch.ClientParseErrors
	if fr.Batch.ClientParseErrors > 0 {
		c.log.Warn("skipped malformed client rows",
			zap.String("router", rc.Name),
			zap.Int("rows", fr.Batch.ClientParseErrors),
		)
	}

	if fr.Batch.IsEmpty() {
		res.Skipped++
		c.log.Info("empty batch, skipping cycle", zap.String("router", rc.Name))
		return engine.CycleResult{}, nil
	}

	return c.applyBatch(ctx, rc.Name, fr.Batch)
}

func (c *Collector) applyBatch(ctx context.Context, router string, batch model.Batch) (engine.CycleResult, error) {
	tx, err := c.store.Begin(ctx)
	if err != nil {
		return engine.CycleResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cycle, err := c.reconciler.Apply(tx, batch)
	if err != nil {
		return engine.CycleResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return engine.CycleResult{}, fmt.Errorf("commit cycle: %w", err)
	}

	c.log.Info("cycle committed",
		zap.String("router", router),
		zap.Int("entities", cycle.Entities),
		zap.Int("new", cycle.NewEntities),
		zap.Int("resets", cycle.Resets),
		zap.Int("regressions", cycle.Regressions),
		zap.Int("leases", cycle.Leases),
		zap.Uint64("rx_delta", cycle.RxDelta),
		zap.Uint64("tx_delta", cycle.TxDelta),
	)
	return cycle, nil
}
