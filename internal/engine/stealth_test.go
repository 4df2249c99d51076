package engine

import "testing"

func TestCapBody(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int64
		want  string
	}{
		{"under", "abc", 10, "abc"},
		{"exact", "abcd", 4, "abcd"},
		{"over", "abcdef", 4, "abcd"},
		{"no limit", "abcdef", 0, "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(capBody([]byte(tt.in), tt.limit)); got != tt.want {
				t.Errorf("capBody(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestNewStealthFetcherDirect(t *testing.T) {
	f, err := NewStealthFetcher(0, "")
	if err != nil {
		t.Fatalf("NewStealthFetcher() error = %v", err)
	}
	if f == nil || f.bc == nil {
		t.Fatal("NewStealthFetcher() returned an unusable fetcher")
	}
	if f.Proxies() != 0 {
		t.Errorf("Proxies() = %d without a Webshare key", f.Proxies())
	}
}
