// Package transcript holds the transcript data model and the pure algorithms
// that operate on it: time-window segmentation, BM25 ranking and the
// retrieval strategy that keeps responses inside a context budget.
package transcript

import (
	"strings"
	"time"
)

// Segment is one timed caption line.
type Segment struct {
	Text       string `json:"text" bson:"text"`
	StartMs    int64  `json:"start_ms" bson:"start_ms"`
	EndMs      int64  `json:"end_ms" bson:"end_ms"`
	DurationMs int64  `json:"duration_ms" bson:"duration_ms"`
}

// NewSegment builds a Segment, clamping negative offsets and durations to zero.
func NewSegment(text string, startMs, durationMs int64) Segment {
	if startMs < 0 {
		startMs = 0
	}
	if durationMs < 0 {
		durationMs = 0
	}
	return Segment{
		Text:       text,
		StartMs:    startMs,
		EndMs:      startMs + durationMs,
		DurationMs: durationMs,
	}
}

// Record is the stored transcript of a single video.
type Record struct {
	VideoID   string    `json:"video_id" bson:"video_id"`
	Title     string    `json:"title,omitempty" bson:"title"`
	Language  string    `json:"language,omitempty" bson:"language"`
	FullText  string    `json:"full_text" bson:"full_text"`
	Segments  []Segment `json:"segments" bson:"segments"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// JoinText joins segment texts with a single space.
func JoinText(segs []Segment) string {
	var sb strings.Builder
	for i, s := range segs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// DurationMs returns the end of the last-ending segment.
func (r *Record) DurationMs() int64 {
	var end int64
	for _, s := range r.Segments {
		if s.EndMs > end {
			end = s.EndMs
		}
	}
	return end
}

// TimeWindow is a contiguous run of segments.
type TimeWindow struct {
	Index   int    `json:"index"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// ScoredWindow is a TimeWindow with its relevance score for one query.
type ScoredWindow struct {
	TimeWindow
	Score float64 `json:"score"`
}
