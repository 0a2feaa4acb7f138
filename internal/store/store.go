// Package store provides the SQLite-backed persistent state: counter
// checkpoints, monthly accumulators, and the DHCP lease table.
//
// Writes happen through one exclusive transaction per poll cycle (Begin);
// readers always observe either the pre-cycle or post-cycle state thanks to
// SQLite WAL snapshot isolation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store wraps the traffic database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is one reconciliation cycle's write transaction. All mutations commit
// or roll back together.
type Tx struct {
	tx *sql.Tx
}

// Begin starts the cycle's write transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cycle transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the cycle.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the cycle. Safe to call after Commit.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Checkpoint returns the stored baseline for an entity, if any.
func (t *Tx) Checkpoint(entityKey string) (model.Checkpoint, bool, error) {
	var cp model.Checkpoint
	var rx, tx int64
	var observedAt string

	err := t.tx.QueryRow(
		"SELECT entity_key, rx_bytes, tx_bytes, observed_at FROM checkpoints WHERE entity_key = ?",
		entityKey,
	).Scan(&cp.EntityKey, &rx, &tx, &observedAt)
	if err == sql.ErrNoRows {
		return model.Checkpoint{}, false, nil
	}
	if err != nil {
		return model.Checkpoint{}, false, err
	}

	cp.RxBytes = uint64(rx)
	cp.TxBytes = uint64(tx)
	cp.ObservedAt, err = time.Parse(time.RFC3339, observedAt)
	if err != nil {
		return model.Checkpoint{}, false, fmt.Errorf("checkpoint %s: bad observed_at: %w", entityKey, err)
	}
	return cp, true, nil
}

// PutCheckpoint overwrites the entity's baseline with the latest reading.
func (t *Tx) PutCheckpoint(cp model.Checkpoint) error {
	_, err := t.tx.Exec(`INSERT OR REPLACE INTO checkpoints (entity_key, rx_bytes, tx_bytes, observed_at)
		VALUES (?, ?, ?, ?)`,
		cp.EntityKey, int64(cp.RxBytes), int64(cp.TxBytes), cp.ObservedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// AddMonthlyUsage credits a non-negative delta to the entity's accumulator
// for the given month, creating the row if the month is new. Rows for past
// months are never touched.
func (t *Tx) AddMonthlyUsage(entityKey string, month model.YearMonth, rxDelta, txDelta uint64, at time.Time) error {
	_, err := t.tx.Exec(`INSERT INTO monthly_usage (entity_key, year_month, rx_bytes, tx_bytes, last_update)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_key, year_month) DO UPDATE SET
			rx_bytes = rx_bytes + excluded.rx_bytes,
			tx_bytes = tx_bytes + excluded.tx_bytes,
			last_update = excluded.last_update`,
		entityKey, string(month), int64(rxDelta), int64(txDelta), at.UTC().Format(time.RFC3339),
	)
	return err
}

// ReplaceLeases swaps the whole lease table for the new snapshot. No merge,
// no history: the table never grows past the current lease count.
func (t *Tx) ReplaceLeases(leases []model.LeaseRecord, at time.Time) error {
	if _, err := t.tx.Exec("DELETE FROM dhcp_leases"); err != nil {
		return err
	}

	now := at.UTC().Format(time.RFC3339)
	for _, l := range leases {
		_, err := t.tx.Exec(`INSERT OR REPLACE INTO dhcp_leases (mac, hostname, ip_address, client_id, expires_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.MAC, l.Hostname, l.IP, l.ClientID, l.ExpiresAt, now,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// WANSummary returns the WAN totals for one month.
func (s *Store) WANSummary(month model.YearMonth) (model.WANSummary, bool, error) {
	var rx, tx int64
	var lastUpdate string

	err := s.db.QueryRow(
		"SELECT rx_bytes, tx_bytes, last_update FROM monthly_usage WHERE entity_key = ? AND year_month = ?",
		model.WANKey, string(month),
	).Scan(&rx, &tx, &lastUpdate)
	if err == sql.ErrNoRows {
		return model.WANSummary{Month: month}, false, nil
	}
	if err != nil {
		return model.WANSummary{}, false, err
	}

	sum := model.WANSummary{Month: month, RxBytes: uint64(rx), TxBytes: uint64(tx)}
	sum.LastUpdate, _ = time.Parse(time.RFC3339, lastUpdate)
	return sum, true, nil
}

// ListClients returns per-client totals for one month, hostnames resolved
// from the lease table where a lease exists. Clients without a current
// lease are still reported, hostname left empty.
func (s *Store) ListClients(month model.YearMonth) ([]model.ClientUsage, error) {
	rows, err := s.db.Query(`SELECT u.entity_key, u.rx_bytes, u.tx_bytes,
			COALESCE(l.hostname, ''), COALESCE(l.ip_address, '')
		FROM monthly_usage u
		LEFT JOIN dhcp_leases l ON l.mac = u.entity_key
		WHERE u.year_month = ? AND u.entity_key != ?
		ORDER BY u.rx_bytes + u.tx_bytes DESC`,
		string(month), model.WANKey,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var clients []model.ClientUsage
	for rows.Next() {
		var c model.ClientUsage
		var rx, tx int64
		if err := rows.Scan(&c.EntityKey, &rx, &tx, &c.Hostname, &c.IP); err != nil {
			return nil, err
		}
		c.RxBytes = uint64(rx)
		c.TxBytes = uint64(tx)
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// ListLeases returns the current lease snapshot.
func (s *Store) ListLeases() ([]model.LeaseRecord, error) {
	rows, err := s.db.Query(
		"SELECT mac, hostname, ip_address, client_id, expires_at FROM dhcp_leases ORDER BY ip_address",
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var leases []model.LeaseRecord
	for rows.Next() {
		var l model.LeaseRecord
		if err := rows.Scan(&l.MAC, &l.Hostname, &l.IP, &l.ClientID, &l.ExpiresAt); err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

// MonthlyHistory returns up to limit months of totals for one entity, most
// recent first. limit <= 0 means no limit.
func (s *Store) MonthlyHistory(entityKey string, limit int) ([]model.MonthlyUsage, error) {
	q := `SELECT entity_key, year_month, rx_bytes, tx_bytes, last_update
		FROM monthly_usage WHERE entity_key = ? ORDER BY year_month DESC`
	args := []any{entityKey}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var history []model.MonthlyUsage
	for rows.Next() {
		var u model.MonthlyUsage
		var rx, tx int64
		var month, lastUpdate string
		if err := rows.Scan(&u.EntityKey, &month, &rx, &tx, &lastUpdate); err != nil {
			return nil, err
		}
		u.Month = model.YearMonth(month)
		u.RxBytes = uint64(rx)
		u.TxBytes = uint64(tx)
		u.LastUpdate, _ = time.Parse(time.RFC3339, lastUpdate)
		history = append(history, u)
	}
	return history, rows.Err()
}

// EntityCount returns the number of tracked entities.
func (s *Store) EntityCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM checkpoints").Scan(&count)
	return count, err
}

// PurgeBefore removes accumulator rows for months strictly older than the
// given month. Administrative use only; normal cycles never delete history.
func (s *Store) PurgeBefore(month model.YearMonth) (int64, error) {
	res, err := s.db.Exec("DELETE FROM monthly_usage WHERE year_month < ?", string(month))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
