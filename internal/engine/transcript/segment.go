package transcript

import "strings"

// DefaultWindowMs is the window size used when the caller gives none.
const DefaultWindowMs int64 = 120_000

// SegmentWindows groups segs into consecutive windows of at most windowMs nominal
// length. A window opens at the start of its first segment and closes as soon
// as a segment starts at or after windowStart+windowMs. Input is not modified.
func SegmentWindows(segs []Segment, windowMs int64) []TimeWindow {
	if len(segs) == 0 {
		return []TimeWindow{}
	}
	if windowMs <= 0 {
		windowMs = DefaultWindowMs
	}

	var (
		windows []TimeWindow
		sb      strings.Builder
		cur     TimeWindow
		open    bool
	)
	flush := func() {
		cur.Text = sb.String()
		cur.Index = len(windows)
		windows = append(windows, cur)
		sb.Reset()
	}

	for _, s := range segs {
		if open && s.StartMs >= cur.StartMs+windowMs {
			flush()
			open = false
		}
		if !open {
			cur = TimeWindow{StartMs: s.StartMs, EndMs: s.EndMs}
			open = true
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Text)
		if s.EndMs > cur.EndMs {
			cur.EndMs = s.EndMs
		}
	}
	flush()
	return windows
}
