package webui

import (
	"fmt"
	"time"
)

// FormatDuration renders d with at most two units, e.g. "45s", "2m 30s",
// "2h 34m", "3d 5h" or "2w 3d". Negative durations get a leading minus.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	if d < time.Second {
		return "0s"
	}

	const (
		day  = 24 * time.Hour
		week = 7 * day
	)

	weeks := d / week
	d %= week
	days := d / day
	d %= day
	hours := d / time.Hour
	d %= time.Hour
	minutes := d / time.Minute
	d %= time.Minute
	seconds := d / time.Second

	switch {
	case weeks > 0:
		return fmt.Sprintf("%dw %dd", weeks, days)
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
