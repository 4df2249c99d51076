package transcript

import "fmt"

// FormatTimestamp renders ms as MM:SS, or H:MM:SS past the first hour.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatRange renders a window span like "01:00 - 02:00".
func FormatRange(startMs, endMs int64) string {
	return FormatTimestamp(startMs) + " - " + FormatTimestamp(endMs)
}
