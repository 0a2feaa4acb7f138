// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatBytes formats a byte count with human-readable binary suffixes.
// e.g., 1536 -> "1.5 KiB", 1073741824 -> "1.0 GiB"
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatUint(n, 10) + " B"
	}

	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatExpiry renders a unix lease-expiry timestamp relative to now.
// e.g., "in 7h 59m", "expired"
func FormatExpiry(unix int64, now time.Time) string {
	if unix == 0 {
		return "static"
	}

	left := time.Unix(unix, 0).Sub(now)
	if left <= 0 {
		return "expired"
	}

	hours := int(left.Hours())
	mins := int(left.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("in %dh %dm", hours, mins)
	}
	return fmt.Sprintf("in %dm", mins)
}

// FormatHostname returns a display name for a client, falling back to a
// placeholder when the lease table has no name for it.
func FormatHostname(hostname string) string {
	if hostname == "" {
		return "(unknown)"
	}
	return hostname
}
