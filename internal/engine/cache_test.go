package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("record", "dQw4w9WgXcQ")
		k2 := CacheKey("record", "dQw4w9WgXcQ")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("record", "aaaaaaaaaaa")
		k2 := CacheKey("record", "bbbbbbbbbbb")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "gt:" {
			t.Errorf("expected gt: prefix, got %q", k[:3])
		}
	})
}

func TestCacheRecordRoundTrip(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	ctx := context.Background()

	if _, ok := CacheGetRecord(ctx, "dQw4w9WgXcQ"); ok {
		t.Fatal("expected cache miss on empty cache")
	}

	segs := []transcript.Segment{transcript.NewSegment("hello", 0, 1000)}
	CacheSetRecord(ctx, &transcript.Record{VideoID: "dQw4w9WgXcQ", Title: "t", FullText: "hello", Segments: segs})

	got, ok := CacheGetRecord(ctx, "dQw4w9WgXcQ")
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if got.FullText != "hello" || len(got.Segments) != 1 || got.Segments[0].EndMs != 1000 {
		t.Errorf("unexpected record from cache: %+v", got)
	}
}

func TestCacheExpiration(t *testing.T) {
	InitCache("", 1*time.Millisecond, 100, 5*time.Minute)
	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheStoreJSON(ctx, key, "temp")
	time.Sleep(5 * time.Millisecond)

	if _, ok := CacheLoadJSON[string](ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", 1*time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		CacheStoreJSON(ctx, CacheKey("evict", fmt.Sprintf("item-%d", i)), i)
	}

	count := 0
	recordCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheLoadJSON[string](ctx, key)
	if _, misses := CacheStats(); misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	CacheStoreJSON(ctx, key, "x")
	CacheLoadJSON[string](ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}

func TestFormatMetrics(t *testing.T) {
	IncrExtractions()
	IncrExtractionError(true)
	out := FormatMetrics()
	for _, k := range []string{"extractions ", "extraction_errors ", "upstream_rate_limits ", "cache_hits "} {
		if !strings.Contains(out, k) {
			t.Errorf("FormatMetrics missing %q", k)
		}
	}
}
