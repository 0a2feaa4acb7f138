package model

import "time"

// YearMonth identifies one calendar month in "2006-01" form.
type YearMonth string

// MonthOf returns the YearMonth a timestamp falls in, using local time so
// billing months line up with the router owner's calendar.
func MonthOf(t time.Time) YearMonth {
	return YearMonth(t.Local().Format("2006-01"))
}

// Time returns the first instant of the month, or the zero time if the
// value is malformed.
func (ym YearMonth) Time() time.Time {
	t, err := time.ParseInLocation("2006-01", string(ym), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Checkpoint is the most recently seen raw reading for an entity, the
// baseline the next reading is reconciled against. Exactly one per entity.
type Checkpoint struct {
	EntityKey  string
	RxBytes    uint64
	TxBytes    uint64
	ObservedAt time.Time
}

// MonthlyUsage is the running total credited to an entity for one calendar
// month. Totals only ever grow within a month; once the month ends the row
// is frozen and kept for history.
type MonthlyUsage struct {
	EntityKey  string
	Month      YearMonth
	RxBytes    uint64
	TxBytes    uint64
	LastUpdate time.Time
}

// WANSummary is the query-surface view of the WAN interface for one month.
type WANSummary struct {
	Month      YearMonth `json:"month"`
	RxBytes    uint64    `json:"rx_bytes"`
	TxBytes    uint64    `json:"tx_bytes"`
	LastUpdate time.Time `json:"last_update"`
}

// ClientUsage is the query-surface view of one client for one month, with
// the hostname resolved from the lease table when a lease exists.
type ClientUsage struct {
	EntityKey string `json:"entity_key"`
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	Hostname  string `json:"hostname,omitempty"`
	IP        string `json:"ip,omitempty"`
}
