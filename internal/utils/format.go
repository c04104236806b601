package utils

import (
	"fmt"
	"time"
)

// displayTimeLayout mirrors a browser's default locale string, e.g. "1/21/2025, 10:30:45 AM".
const displayTimeLayout = "1/2/2006, 3:04:05 PM"

// FormatBytes formats bytes in human-readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatMegabytes renders a size in mebibytes with two decimals, e.g. "0.00 MB".
func FormatMegabytes(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
}

// FormatTimestamp renders t in loc for display. A nil loc uses time.Local.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(displayTimeLayout)
}
