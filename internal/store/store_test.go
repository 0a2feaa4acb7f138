package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "traffic.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func mustBegin(t *testing.T, st *Store) *Tx {
	t.Helper()
	tx, err := st.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

var testTime = time.Date(2026, 7, 15, 8, 0, 0, 0, time.UTC)

func TestCheckpointRoundtrip(t *testing.T) {
	st := openTest(t)

	tx := mustBegin(t, st)
	defer func() { _ = tx.Rollback() }()

	if _, found, err := tx.Checkpoint("aa:bb:cc:dd:ee:ff"); err != nil || found {
		t.Fatalf("unseen entity: found=%v err=%v, want absent", found, err)
	}

	want := model.Checkpoint{
		EntityKey:  "aa:bb:cc:dd:ee:ff",
		RxBytes:    123,
		TxBytes:    456,
		ObservedAt: testTime,
	}
	if err := tx.PutCheckpoint(want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, found, err := tx.Checkpoint(want.EntityKey)
	if err != nil || !found {
		t.Fatalf("get after put: found=%v err=%v", found, err)
	}
	if got.RxBytes != want.RxBytes || got.TxBytes != want.TxBytes {
		t.Errorf("counters = %d/%d, want %d/%d", got.RxBytes, got.TxBytes, want.RxBytes, want.TxBytes)
	}
	if !got.ObservedAt.Equal(want.ObservedAt) {
		t.Errorf("ObservedAt = %v, want %v", got.ObservedAt, want.ObservedAt)
	}

	// Overwrite, still one row per entity.
	want.RxBytes = 999
	if err := tx.PutCheckpoint(want); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = tx.Checkpoint(want.EntityKey)
	if got.RxBytes != 999 {
		t.Errorf("RxBytes = %d after overwrite, want 999", got.RxBytes)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestAddMonthlyUsageAccumulates(t *testing.T) {
	st := openTest(t)
	month := model.YearMonth("2026-07")

	tx := mustBegin(t, st)
	if err := tx.AddMonthlyUsage(model.WANKey, month, 100, 200, testTime); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := tx.AddMonthlyUsage(model.WANKey, month, 50, 25, testTime.Add(time.Hour)); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	sum, found, err := st.WANSummary(month)
	if err != nil || !found {
		t.Fatalf("summary: found=%v err=%v", found, err)
	}
	if sum.RxBytes != 150 || sum.TxBytes != 225 {
		t.Errorf("totals = %d/%d, want 150/225", sum.RxBytes, sum.TxBytes)
	}
}

func TestRollbackLeavesNoTrace(t *testing.T) {
	st := openTest(t)
	month := model.YearMonth("2026-07")

	tx := mustBegin(t, st)
	if err := tx.AddMonthlyUsage(model.WANKey, month, 100, 100, testTime); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tx.PutCheckpoint(model.Checkpoint{EntityKey: model.WANKey, ObservedAt: testTime}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if _, found, _ := st.WANSummary(month); found {
		t.Error("summary present after rollback")
	}

	count, err := st.EntityCount()
	if err != nil {
		t.Fatalf("entity count: %v", err)
	}
	if count != 0 {
		t.Errorf("EntityCount = %d after rollback, want 0", count)
	}
}

func TestListClientsResolvesHostnames(t *testing.T) {
	st := openTest(t)
	month := model.YearMonth("2026-07")

	tx := mustBegin(t, st)
	_ = tx.AddMonthlyUsage(model.WANKey, month, 9_999, 9_999, testTime)
	_ = tx.AddMonthlyUsage("aa:bb:cc:dd:ee:ff", month, 5_000, 1_000, testTime)
	_ = tx.AddMonthlyUsage("11:22:33:44:55:66", month, 100, 100, testTime)
	_ = tx.ReplaceLeases([]model.LeaseRecord{
		{MAC: "aa:bb:cc:dd:ee:ff", Hostname: "laptop", IP: "192.168.1.50"},
	}, testTime)
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	clients, err := st.ListClients(month)
	if err != nil {
		t.Fatalf("list clients: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("len(clients) = %d, want 2 (WAN excluded)", len(clients))
	}

	// Sorted by combined traffic descending.
	if clients[0].EntityKey != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("first client = %q, want the heavier one", clients[0].EntityKey)
	}
	if clients[0].Hostname != "laptop" || clients[0].IP != "192.168.1.50" {
		t.Errorf("lease join: hostname=%q ip=%q", clients[0].Hostname, clients[0].IP)
	}
	// No lease for the second client is not an error; it is still listed.
	if clients[1].Hostname != "" {
		t.Errorf("Hostname = %q for leaseless client, want empty", clients[1].Hostname)
	}
}

func TestReplaceLeasesWholesale(t *testing.T) {
	st := openTest(t)

	tx := mustBegin(t, st)
	_ = tx.ReplaceLeases([]model.LeaseRecord{
		{MAC: "aa:aa:aa:aa:aa:aa", IP: "192.168.1.2"},
		{MAC: "bb:bb:bb:bb:bb:bb", IP: "192.168.1.3"},
	}, testTime)
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx = mustBegin(t, st)
	_ = tx.ReplaceLeases([]model.LeaseRecord{
		{MAC: "cc:cc:cc:cc:cc:cc", IP: "192.168.1.4"},
	}, testTime.Add(time.Hour))
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	leases, err := st.ListLeases()
	if err != nil {
		t.Fatalf("list leases: %v", err)
	}
	if len(leases) != 1 || leases[0].MAC != "cc:cc:cc:cc:cc:cc" {
		t.Errorf("leases = %+v, want only the latest snapshot", leases)
	}
}

func TestMonthlyHistoryOrderAndLimit(t *testing.T) {
	st := openTest(t)

	tx := mustBegin(t, st)
	for _, m := range []string{"2026-05", "2026-06", "2026-07"} {
		_ = tx.AddMonthlyUsage(model.WANKey, model.YearMonth(m), 1, 1, testTime)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	history, err := st.MonthlyHistory(model.WANKey, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Month != "2026-07" || history[1].Month != "2026-06" {
		t.Errorf("order = %s, %s; want most recent first", history[0].Month, history[1].Month)
	}
}

func TestPurgeBefore(t *testing.T) {
	st := openTest(t)

	tx := mustBegin(t, st)
	for _, m := range []string{"2025-11", "2025-12", "2026-01"} {
		_ = tx.AddMonthlyUsage(model.WANKey, model.YearMonth(m), 1, 1, testTime)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	n, err := st.PurgeBefore("2026-01")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Errorf("purged %d rows, want 2", n)
	}

	history, _ := st.MonthlyHistory(model.WANKey, 0)
	if len(history) != 1 || history[0].Month != "2026-01" {
		t.Errorf("history = %+v, want only 2026-01", history)
	}
}

func TestWANSummaryAbsent(t *testing.T) {
	st := openTest(t)

	sum, found, err := st.WANSummary("2026-07")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if found {
		t.Error("found = true on empty store")
	}
	if sum.Month != "2026-07" {
		t.Errorf("Month = %q, want echo of the requested month", sum.Month)
	}
}
