package cli

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
		{1649267441664, "1.5 TiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{1000000000, "1,000,000,000"},
		{-1234567, "-1,234,567"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatExpiry(t *testing.T) {
	now := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		unix int64
		want string
	}{
		{"static lease", 0, "static"},
		{"already expired", now.Add(-time.Minute).Unix(), "expired"},
		{"exactly now", now.Unix(), "expired"},
		{"minutes left", now.Add(45 * time.Minute).Unix(), "in 45m"},
		{"hours left", now.Add(7*time.Hour + 59*time.Minute).Unix(), "in 7h 59m"},
	}
	for _, tt := range tests {
		if got := FormatExpiry(tt.unix, now); got != tt.want {
			t.Errorf("%s: FormatExpiry = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatHostname(t *testing.T) {
	if got := FormatHostname(""); got != "(unknown)" {
		t.Errorf("empty hostname = %q", got)
	}
	if got := FormatHostname("laptop"); got != "laptop" {
		t.Errorf("hostname = %q, want passthrough", got)
	}
}
