package transcript

import (
	"reflect"
	"strings"
	"testing"
)

func seg(text string, startMs, durMs int64) Segment {
	return NewSegment(text, startMs, durMs)
}

func TestSegmentWindows_Empty(t *testing.T) {
	got := SegmentWindows(nil, 60_000)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSegmentWindows_Boundaries(t *testing.T) {
	segs := []Segment{
		seg("a", 1_000, 2_000),
		seg("b", 30_000, 5_000),
		seg("c", 60_999, 1_000), // still inside [1000, 61000)
		seg("d", 61_000, 4_000), // opens window 2
		seg("e", 200_000, 1_000),
	}
	got := SegmentWindows(segs, 60_000)
	want := []TimeWindow{
		{Index: 0, StartMs: 1_000, EndMs: 61_999, Text: "a b c"},
		{Index: 1, StartMs: 61_000, EndMs: 65_000, Text: "d"},
		{Index: 2, StartMs: 200_000, EndMs: 201_000, Text: "e"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SegmentWindows() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestSegmentWindows_DefaultSize(t *testing.T) {
	segs := []Segment{seg("a", 0, 1_000), seg("b", DefaultWindowMs, 1_000)}
	if got := SegmentWindows(segs, 0); len(got) != 2 {
		t.Errorf("expected 2 windows with default size, got %d", len(got))
	}
}

func TestSegmentWindows_Properties(t *testing.T) {
	var segs []Segment
	for i := int64(0); i < 250; i++ {
		segs = append(segs, seg("w"+strings.Repeat("x", int(i%7)), i*3_700, 2_900+i%5*100))
	}
	var texts []string
	for _, s := range segs {
		texts = append(texts, s.Text)
	}
	wantText := strings.Join(texts, " ")

	for _, size := range []int64{1, 999, 5_000, 60_000, 120_000, 10_000_000} {
		first := SegmentWindows(segs, size)
		second := SegmentWindows(segs, size)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("size %d: output not deterministic", size)
		}

		var joined []string
		for i, w := range first {
			if w.EndMs < w.StartMs {
				t.Errorf("size %d window %d: end %d < start %d", size, i, w.EndMs, w.StartMs)
			}
			if w.Index != i {
				t.Errorf("size %d window %d: index %d", size, i, w.Index)
			}
			joined = append(joined, w.Text)
		}
		if got := strings.Join(joined, " "); got != wantText {
			t.Errorf("size %d: windows do not cover segments losslessly", size)
		}
	}
}

func TestSegmentWindows_DoesNotMutateInput(t *testing.T) {
	segs := []Segment{seg("one", 0, 10), seg("two", 5, 10)}
	orig := append([]Segment(nil), segs...)
	SegmentWindows(segs, 1)
	if !reflect.DeepEqual(segs, orig) {
		t.Error("input segments were modified")
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{59_999, "00:59"},
		{61_000, "01:01"},
		{3_600_000, "1:00:00"},
		{3_725_000, "1:02:05"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.ms); got != tt.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
	if got := FormatRange(60_000, 120_000); got != "01:00 - 02:00" {
		t.Errorf("FormatRange() = %q", got)
	}
}
