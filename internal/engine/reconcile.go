// Package engine turns batches of cumulative counter snapshots into
// monotone monthly totals. It carries the reset rule that makes the totals
// reboot-tolerant: a counter that went backwards restarted from zero, so
// the new raw value is itself the increment since the reset.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
)

// Tx is the store contract one reconciliation cycle writes through. All
// mutations made via one Tx commit or roll back together; the caller owns
// the transaction lifecycle.
type Tx interface {
	Checkpoint(entityKey string) (model.Checkpoint, bool, error)
	PutCheckpoint(cp model.Checkpoint) error
	AddMonthlyUsage(entityKey string, month model.YearMonth, rxDelta, txDelta uint64, at time.Time) error
	ReplaceLeases(leases []model.LeaseRecord, at time.Time) error
}

// CycleResult summarizes what one applied batch did.
type CycleResult struct {
	Entities    int    `json:"entities"`
	NewEntities int    `json:"new_entities"`
	Resets      int    `json:"resets"`
	Regressions int    `json:"regressions"`
	Leases      int    `json:"leases"`
	RxDelta     uint64 `json:"rx_delta"`
	TxDelta     uint64 `json:"tx_delta"`
}

// Reconciler applies poll batches against the store.
type Reconciler struct {
	log *zap.Logger
}

// New returns a reconciler that logs per-entity anomalies to the given logger.
func New(log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{log: log}
}

// Apply reconciles one batch inside the caller's transaction. Any returned
// error means the transaction must be rolled back; nothing is ever partially
// applied. Entities absent from the batch are not touched, so a client that
// disconnects keeps its checkpoint as a valid baseline until it reappears.
func (r *Reconciler) Apply(tx Tx, batch model.Batch) (CycleResult, error) {
	var res CycleResult

	if batch.WAN != nil {
		if err := r.applyEntity(tx, *batch.WAN, batch.ObservedAt, &res); err != nil {
			return CycleResult{}, err
		}
	}

	for _, c := range batch.Clients {
		if err := r.applyEntity(tx, c, batch.ObservedAt, &res); err != nil {
			return CycleResult{}, err
		}
	}

	if batch.HasLeaseSnapshot {
		if err := tx.ReplaceLeases(batch.Leases, batch.ObservedAt); err != nil {
			return CycleResult{}, err
		}
		res.Leases = len(batch.Leases)
	}

	return res, nil
}

func (r *Reconciler) applyEntity(tx Tx, reading model.RawReading, observedAt time.Time, res *CycleResult) error {
	cp, found, err := tx.Checkpoint(reading.EntityKey)
	if err != nil {
		return err
	}

	var rxDelta, txDelta uint64
	switch {
	case !found:
		// First sighting: the device has been accumulating since its own
		// boot, so the full raw value is the increment to capture.
		rxDelta = reading.RxBytes
		txDelta = reading.TxBytes
		res.NewEntities++

	case !observedAt.After(cp.ObservedAt):
		// Clock regression: never produce a contribution for a sample that
		// isn't newer than the baseline, and keep the baseline as-is.
		r.log.Warn("clock regression, skipping entity",
			zap.String("entity", reading.EntityKey),
			zap.Time("observed_at", observedAt),
			zap.Time("checkpoint_at", cp.ObservedAt),
		)
		res.Regressions++
		return nil

	default:
		reset := false
		if reading.RxBytes >= cp.RxBytes {
			rxDelta = reading.RxBytes - cp.RxBytes
		} else {
			rxDelta = reading.RxBytes
			reset = true
		}
		// rx and tx reset independently; some drivers clear one direction
		// without the other.
		if reading.TxBytes >= cp.TxBytes {
			txDelta = reading.TxBytes - cp.TxBytes
		} else {
			txDelta = reading.TxBytes
			reset = true
		}
		if reset {
			res.Resets++
			r.log.Info("counter reset detected",
				zap.String("entity", reading.EntityKey),
				zap.Uint64("rx", reading.RxBytes),
				zap.Uint64("tx", reading.TxBytes),
			)
		}
	}

	month := model.MonthOf(observedAt)
	if err := tx.AddMonthlyUsage(reading.EntityKey, month, rxDelta, txDelta, observedAt); err != nil {
		return err
	}

	// The checkpoint always advances when the entity is observed, whatever
	// the delta was.
	err = tx.PutCheckpoint(model.Checkpoint{
		EntityKey:  reading.EntityKey,
		RxBytes:    reading.RxBytes,
		TxBytes:    reading.TxBytes,
		ObservedAt: observedAt,
	})
	if err != nil {
		return err
	}

	res.Entities++
	res.RxDelta += rxDelta
	res.TxDelta += txDelta
	return nil
}
