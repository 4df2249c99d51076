package transcript

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func ptr[T any](v T) *T { return &v }

func buildRecord(n int, stepMs int64, text string) *Record {
	rec := &Record{VideoID: "dQw4w9WgXcQ"}
	for i := 0; i < n; i++ {
		rec.Segments = append(rec.Segments, NewSegment(text, int64(i)*stepMs, stepMs))
	}
	rec.FullText = JoinText(rec.Segments)
	return rec
}

func TestRetrieve_TimeRangeWinsOverWindow(t *testing.T) {
	rec := buildRecord(10, 10_000, "line")
	got, err := Retrieve(rec, RetrieveOptions{
		TimeRangeStartSec: ptr(20.0),
		WindowIndex:       ptr(0),
	}, Limits{})
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if got.Mode != ModeTimeRange {
		t.Fatalf("mode = %s, want %s", got.Mode, ModeTimeRange)
	}
	if len(got.Segments) != 8 {
		t.Errorf("expected 8 segments from 20s to end, got %d", len(got.Segments))
	}
	if got.EndMs != 100_000 {
		t.Errorf("open range end = %d, want transcript duration", got.EndMs)
	}
}

func TestRetrieve_TimeRangeHalfOpen(t *testing.T) {
	rec := buildRecord(10, 10_000, "line")
	got, err := Retrieve(rec, RetrieveOptions{
		TimeRangeStartSec: ptr(10.0),
		TimeRangeEndSec:   ptr(30.0),
	}, Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Segments) != 2 || got.Segments[0].StartMs != 10_000 || got.Segments[1].StartMs != 20_000 {
		t.Errorf("unexpected segments: %+v", got.Segments)
	}
}

func TestRetrieve_TimeRangeInvalid(t *testing.T) {
	rec := buildRecord(3, 1_000, "x")
	tests := []RetrieveOptions{
		{TimeRangeStartSec: ptr(-1.0)},
		{TimeRangeStartSec: ptr(5.0), TimeRangeEndSec: ptr(5.0)},
		{TimeRangeEndSec: ptr(0.0)},
		{TimeRangeStartSec: ptr(1e19)},
		{TimeRangeStartSec: ptr(0.0), TimeRangeEndSec: ptr(1e19)},
		{TimeRangeStartSec: ptr(math.NaN())},
		{TimeRangeEndSec: ptr(math.Inf(1))},
		{WindowIndex: ptr(0), WindowSizeSec: ptr(MaxBoundSec + 1)},
		{WindowIndex: ptr(0), WindowSizeSec: ptr(0)},
	}
	for i, opts := range tests {
		if _, err := Retrieve(rec, opts, Limits{}); KindOf(err) != KindInvalidArgument {
			t.Errorf("case %d: kind = %s, want %s", i, KindOf(err), KindInvalidArgument)
		}
	}
}

func TestRetrieve_Window(t *testing.T) {
	rec := buildRecord(10, 10_000, "line")
	got, err := Retrieve(rec, RetrieveOptions{WindowIndex: ptr(1), WindowSizeSec: ptr(30)}, Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeWindow {
		t.Fatalf("mode = %s", got.Mode)
	}
	if got.Windows != 4 {
		t.Errorf("window count = %d, want 4", got.Windows)
	}
	if got.StartMs != 30_000 || len(got.Segments) != 3 {
		t.Errorf("window 1 = start %d with %d segments", got.StartMs, len(got.Segments))
	}

	_, err = Retrieve(rec, RetrieveOptions{WindowIndex: ptr(4), WindowSizeSec: ptr(30)}, Limits{})
	if KindOf(err) != KindOutOfRange {
		t.Errorf("kind = %s, want %s", KindOf(err), KindOutOfRange)
	}
}

func TestRetrieve_FullTextUnderCeiling(t *testing.T) {
	rec := buildRecord(3, 1_000, "short")
	got, err := Retrieve(rec, RetrieveOptions{}, Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeFullText || got.Text != "short short short" {
		t.Errorf("got %s %q", got.Mode, got.Text)
	}
}

func TestRetrieve_CeilingCountsCharacters(t *testing.T) {
	// 5 segments of 10 Cyrillic runes: 54 runes, 104 bytes.
	rec := buildRecord(5, 1_000, "транскрипт")
	if n := utf8.RuneCountInString(rec.FullText); n != 54 {
		t.Fatalf("setup: %d runes", n)
	}
	got, err := Retrieve(rec, RetrieveOptions{}, Limits{FullTextCeiling: 60, PreviewChars: 20})
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeFullText {
		t.Errorf("mode = %s, want full_text for 54 characters under a 60 ceiling", got.Mode)
	}

	got, err = Retrieve(rec, RetrieveOptions{}, Limits{FullTextCeiling: 50, PreviewChars: 20})
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModePreview || got.Hints.TotalChars != 54 {
		t.Errorf("got %s with %d total chars, want preview with 54", got.Mode, got.Hints.TotalChars)
	}
}

func TestRetrieve_PreviewAndExplicitFull(t *testing.T) {
	rec := buildRecord(200, 5_000, "a fairly long caption line")
	lim := Limits{FullTextCeiling: 100, PreviewChars: 50}

	got, err := Retrieve(rec, RetrieveOptions{}, lim)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModePreview {
		t.Fatalf("mode = %s, want preview", got.Mode)
	}
	if !got.Truncated || got.Hints == nil {
		t.Fatal("expected truncated preview with hints")
	}
	if len([]rune(got.Text)) > 60 {
		t.Errorf("preview too long: %d runes", len([]rune(got.Text)))
	}
	if got.Hints.WindowCount != len(SegmentWindows(rec.Segments, DefaultWindowMs)) {
		t.Errorf("hint window count = %d", got.Hints.WindowCount)
	}
	if !strings.Contains(got.Hints.FullText, "include_full_text") {
		t.Errorf("full text hint missing parameter name: %q", got.Hints.FullText)
	}

	full, err := Retrieve(rec, RetrieveOptions{IncludeFullText: true}, lim)
	if err != nil {
		t.Fatal(err)
	}
	if full.Mode != ModeFullText || full.Text != rec.FullText {
		t.Errorf("explicit full text not honored: %s", full.Mode)
	}
}
