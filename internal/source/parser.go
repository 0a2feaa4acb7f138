// Package source fetches and parses plain-text counter output from OpenWrt
// CGI endpoints: wan.cgi (WAN totals), totalwifi.cgi (per-client counters),
// and dhcp.cgi (dnsmasq lease table).
package source

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
)

var (
	// ErrMalformedWAN indicates the wan.cgi output could not be parsed.
	// The WAN reading is a singleton and cannot be partially trusted, so
	// this aborts the whole cycle.
	ErrMalformedWAN = errors.New("source: malformed wan.cgi output")

	// ErrWANUnavailable indicates the wan.cgi endpoint could not be fetched.
	ErrWANUnavailable = errors.New("source: wan.cgi unavailable")
)

var (
	wanPat   = regexp.MustCompile(`wan:\s+(\d+)\s+(\d+)`)
	macPat   = regexp.MustCompile(`^[0-9a-f]{2}(?::[0-9a-f]{2}){5}$`)
	leasePat = regexp.MustCompile(`^(\d+)\s+([0-9a-fA-F:]{17})\s+([\d.]+)\s+(.*?)\s+([0-9a-fA-F:.*]+)$`)
)

// ParseWAN extracts the WAN rx/tx counters from wan.cgi output.
func ParseWAN(data string) (model.RawReading, error) {
	m := wanPat.FindStringSubmatch(data)
	if m == nil {
		return model.RawReading{}, fmt.Errorf("%w: no wan line found", ErrMalformedWAN)
	}

	rx, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return model.RawReading{}, fmt.Errorf("%w: rx counter: %v", ErrMalformedWAN, err)
	}
	tx, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return model.RawReading{}, fmt.Errorf("%w: tx counter: %v", ErrMalformedWAN, err)
	}

	return model.RawReading{EntityKey: model.WANKey, RxBytes: rx, TxBytes: tx}, nil
}

// ParseWifiClients extracts per-client counter readings from totalwifi.cgi
// output. Each line is "MAC RX TX". A malformed line only skips that client;
// the returned count reports how many lines were dropped.
func ParseWifiClients(data string) ([]model.RawReading, int) {
	var readings []model.RawReading
	skipped := 0

	for _, line := range strings.Split(strings.TrimSpace(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 3 {
			skipped++
			continue
		}

		mac := strings.ToLower(parts[0])
		if !macPat.MatchString(mac) {
			skipped++
			continue
		}
		rx, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			skipped++
			continue
		}
		tx, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			skipped++
			continue
		}

		readings = append(readings, model.RawReading{EntityKey: mac, RxBytes: rx, TxBytes: tx})
	}

	return readings, skipped
}

// ParseLeases extracts IPv4 lease rows from dhcp.cgi output in dnsmasq
// lease-file format: "expiry MAC ip hostname client_id". A hostname of "*"
// means the client did not report one. Lines that don't match are skipped.
// Duplicate MACs keep the last row seen.
func ParseLeases(data string) ([]model.LeaseRecord, int) {
	var leases []model.LeaseRecord
	index := make(map[string]int)
	skipped := 0

	for _, line := range strings.Split(strings.TrimSpace(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := leasePat.FindStringSubmatch(line)
		if m == nil {
			skipped++
			continue
		}

		expiry, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			skipped++
			continue
		}

		mac := strings.ToLower(m[2])
		if !macPat.MatchString(mac) {
			skipped++
			continue
		}

		hostname := strings.TrimSpace(m[4])
		if hostname == "*" {
			hostname = ""
		} else if i := strings.IndexByte(hostname, ' '); i >= 0 {
			hostname = hostname[:i]
		}

		rec := model.LeaseRecord{
			MAC:       mac,
			Hostname:  hostname,
			IP:        m[3],
			ClientID:  m[5],
			ExpiresAt: expiry,
		}

		if i, ok := index[mac]; ok {
			leases[i] = rec
			continue
		}
		index[mac] = len(leases)
		leases = append(leases, rec)
	}

	return leases, skipped
}
