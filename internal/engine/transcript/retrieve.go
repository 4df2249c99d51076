package transcript

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/anatolykoptev/go-kit/strutil"
)

// Mode names the shape of a retrieval result.
type Mode string

const (
	ModeTimeRange Mode = "time_range"
	ModeWindow    Mode = "window"
	ModeFullText  Mode = "full_text"
	ModePreview   Mode = "preview"
)

// RetrieveOptions are the caller's optional read parameters.
type RetrieveOptions struct {
	TimeRangeStartSec *float64
	TimeRangeEndSec   *float64
	WindowIndex       *int
	WindowSizeSec     *int
	IncludeFullText   bool
}

// Limits bound what Retrieve returns without an explicit request.
type Limits struct {
	FullTextCeiling int   // auto-return full text at or under this many characters
	PreviewChars    int   // preview length in runes
	WindowMs        int64 // default window size
}

// DefaultLimits are used for zero fields in Limits.
var DefaultLimits = Limits{
	FullTextCeiling: 20_000,
	PreviewChars:    1_500,
	WindowMs:        DefaultWindowMs,
}

func (l Limits) withDefaults() Limits {
	if l.FullTextCeiling <= 0 {
		l.FullTextCeiling = DefaultLimits.FullTextCeiling
	}
	if l.PreviewChars <= 0 {
		l.PreviewChars = DefaultLimits.PreviewChars
	}
	if l.WindowMs <= 0 {
		l.WindowMs = DefaultLimits.WindowMs
	}
	return l
}

// Hints describe the access modes a preview did not use.
type Hints struct {
	TotalChars    int    `json:"total_chars"`
	DurationSec   int64  `json:"duration_sec"`
	WindowSizeSec int64  `json:"window_size_sec"`
	WindowCount   int    `json:"window_count"`
	TimeRange     string `json:"time_range"`
	Window        string `json:"window"`
	FullText      string `json:"full_text"`
}

// Retrieval is the outcome of Retrieve. Exactly one mode is populated.
type Retrieval struct {
	Mode      Mode        `json:"mode"`
	Text      string      `json:"text"`
	Segments  []Segment   `json:"-"`
	StartMs   int64       `json:"start_ms"`
	EndMs     int64       `json:"end_ms"`
	Window    *TimeWindow `json:"window,omitempty"`
	Windows   int         `json:"window_count,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
	Hints     *Hints      `json:"hints,omitempty"`
}

// Retrieve picks one of time range, window, full text or preview for rec.
// Precedence: time range, then window index, then full text (explicit or
// under the ceiling), then preview.
func Retrieve(rec *Record, opts RetrieveOptions, lim Limits) (*Retrieval, error) {
	lim = lim.withDefaults()

	switch {
	case opts.TimeRangeStartSec != nil || opts.TimeRangeEndSec != nil:
		return retrieveRange(rec, opts)
	case opts.WindowIndex != nil:
		return retrieveWindow(rec, opts, lim)
	case opts.IncludeFullText || utf8.RuneCountInString(rec.FullText) <= lim.FullTextCeiling:
		return &Retrieval{
			Mode:     ModeFullText,
			Text:     rec.FullText,
			Segments: rec.Segments,
			EndMs:    rec.DurationMs(),
		}, nil
	default:
		return preview(rec, lim), nil
	}
}

// MaxBoundSec caps time bounds and window sizes so they convert to
// milliseconds without overflow. It is far beyond any real video.
const MaxBoundSec = 1_000_000_000

func retrieveRange(rec *Record, opts RetrieveOptions) (*Retrieval, error) {
	var startMs int64
	endMs := int64(math.MaxInt64)
	if opts.TimeRangeStartSec != nil {
		v := *opts.TimeRangeStartSec
		if v < 0 {
			return nil, Errorf(KindInvalidArgument, rec.VideoID, "time_range_start_sec must be >= 0")
		}
		if !(v <= MaxBoundSec) {
			return nil, Errorf(KindInvalidArgument, rec.VideoID, "time_range_start_sec must be <= %d", MaxBoundSec)
		}
		startMs = int64(math.Round(v * 1000))
	}
	if opts.TimeRangeEndSec != nil {
		v := *opts.TimeRangeEndSec
		if !(v <= MaxBoundSec) {
			return nil, Errorf(KindInvalidArgument, rec.VideoID, "time_range_end_sec must be <= %d", MaxBoundSec)
		}
		endMs = int64(math.Round(v * 1000))
		if endMs <= startMs {
			return nil, Errorf(KindInvalidArgument, rec.VideoID, "time_range_end_sec must be greater than time_range_start_sec")
		}
	}

	var segs []Segment
	for _, s := range rec.Segments {
		if s.StartMs >= startMs && s.StartMs < endMs {
			segs = append(segs, s)
		}
	}
	if endMs == math.MaxInt64 {
		endMs = rec.DurationMs()
	}
	return &Retrieval{
		Mode:     ModeTimeRange,
		Text:     JoinText(segs),
		Segments: segs,
		StartMs:  startMs,
		EndMs:    endMs,
	}, nil
}

func retrieveWindow(rec *Record, opts RetrieveOptions, lim Limits) (*Retrieval, error) {
	windowMs := lim.WindowMs
	if opts.WindowSizeSec != nil {
		if *opts.WindowSizeSec <= 0 || *opts.WindowSizeSec > MaxBoundSec {
			return nil, Errorf(KindInvalidArgument, rec.VideoID, "window_size_sec must be in 1..%d", MaxBoundSec)
		}
		windowMs = int64(*opts.WindowSizeSec) * 1000
	}
	windows := SegmentWindows(rec.Segments, windowMs)
	idx := *opts.WindowIndex
	if idx < 0 || idx >= len(windows) {
		return nil, Errorf(KindOutOfRange, rec.VideoID, "window_index %d out of range (0..%d)", idx, len(windows)-1)
	}
	w := windows[idx]

	var segs []Segment
	for _, s := range rec.Segments {
		if s.StartMs >= w.StartMs && (idx+1 == len(windows) || s.StartMs < windows[idx+1].StartMs) {
			segs = append(segs, s)
		}
	}
	return &Retrieval{
		Mode:     ModeWindow,
		Text:     w.Text,
		Segments: segs,
		StartMs:  w.StartMs,
		EndMs:    w.EndMs,
		Window:   &w,
		Windows:  len(windows),
	}, nil
}

func preview(rec *Record, lim Limits) *Retrieval {
	text := strutil.TruncateAtWord(rec.FullText, lim.PreviewChars)
	total := utf8.RuneCountInString(rec.FullText)
	durationMs := rec.DurationMs()
	windowCount := len(SegmentWindows(rec.Segments, lim.WindowMs))
	windowSec := lim.WindowMs / 1000
	return &Retrieval{
		Mode:      ModePreview,
		Text:      text,
		EndMs:     durationMs,
		Truncated: len(text) < len(rec.FullText),
		Hints: &Hints{
			TotalChars:    total,
			DurationSec:   durationMs / 1000,
			WindowSizeSec: windowSec,
			WindowCount:   windowCount,
			TimeRange: fmt.Sprintf("pass time_range_start_sec/time_range_end_sec (0..%d) to read a span",
				durationMs/1000),
			Window: fmt.Sprintf("pass window_index (0..%d) to read one %ds window; window_size_sec changes the size",
				windowCount-1, windowSec),
			FullText: fmt.Sprintf("pass include_full_text=true to read all %d characters", total),
		},
	}
}
