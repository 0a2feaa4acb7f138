// Package model defines domain types for counter readings, leases, and monthly totals.
package model

import "time"

// WANKey is the singleton entity key for the router's WAN interface.
// Client entities are keyed by their lowercased MAC address.
const WANKey = "main_wan"

// RawReading is one cumulative counter sample for an entity. Counters are
// cumulative since the device/interface booted and reset to zero on reboot
// or re-association.
type RawReading struct {
	EntityKey string
	RxBytes   uint64
	TxBytes   uint64
}

// LeaseRecord is a DHCP lease row. Hostname is empty when the router
// reported no name for the client.
type LeaseRecord struct {
	MAC      string
	Hostname string
	IP       string
	ClientID string
	// ExpiresAt is the lease end as a unix timestamp, as reported by dnsmasq.
	ExpiresAt int64
}

// Batch is one poll cycle's worth of input: at most one WAN reading, any
// number of client readings, and the current lease snapshot. All readings
// share a single observation timestamp.
type Batch struct {
	ObservedAt time.Time
	WAN        *RawReading
	Clients    []RawReading
	Leases     []LeaseRecord

	// HasLeaseSnapshot distinguishes a fetched-but-empty lease table (which
	// must replace the stored one) from an unavailable lease endpoint
	// (which must leave the stored table alone).
	HasLeaseSnapshot bool

	// ClientParseErrors counts client rows that were skipped as malformed.
	ClientParseErrors int
}

// IsEmpty reports whether the batch carries nothing to reconcile. An empty
// but present lease snapshot still counts: it must wipe the stored table.
func (b Batch) IsEmpty() bool {
	return b.WAN == nil && len(b.Clients) == 0 && !b.HasLeaseSnapshot
}
