package toolutil

import "testing"

func TestNormPage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 10, 1, 10},
		{2, 50, 2, 50},
		{1, 1000, 1, MaxPageSize},
	}
	for _, tt := range tests {
		p, s := NormPage(tt.page, tt.size)
		if p != tt.wantPage || s != tt.wantSize {
			t.Errorf("NormPage(%d, %d) = (%d, %d), want (%d, %d)", tt.page, tt.size, p, s, tt.wantPage, tt.wantSize)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 20); got != 0 {
		t.Errorf("Offset(1, 20) = %d", got)
	}
	if got := Offset(3, 25); got != 50 {
		t.Errorf("Offset(3, 25) = %d", got)
	}
}

func TestClampResults(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{0, 5}, {-1, 5}, {3, 3}, {20, 20}, {21, 20}} {
		if got := ClampResults(tt.in, 5, 20); got != tt.want {
			t.Errorf("ClampResults(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
