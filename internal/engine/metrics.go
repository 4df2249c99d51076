package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	Extractions        atomic.Int64
	ExtractionErrors   atomic.Int64
	UpstreamRateLimits atomic.Int64
	StoreReads         atomic.Int64
	StoreWrites        atomic.Int64
	DuplicateCreates   atomic.Int64
	Searches           atomic.Int64
	Retrievals         atomic.Int64
	Listings           atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"extractions":          metrics.Extractions.Load(),
		"extraction_errors":    metrics.ExtractionErrors.Load(),
		"upstream_rate_limits": metrics.UpstreamRateLimits.Load(),
		"store_reads":          metrics.StoreReads.Load(),
		"store_writes":         metrics.StoreWrites.Load(),
		"duplicate_creates":    metrics.DuplicateCreates.Load(),
		"searches":             metrics.Searches.Load(),
		"retrievals":           metrics.Retrievals.Load(),
		"listings":             metrics.Listings.Load(),
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"extractions", "extraction_errors", "upstream_rate_limits",
		"store_reads", "store_writes", "duplicate_creates",
		"searches", "retrievals", "listings",
		"llm_calls", "llm_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the youtube sub-package.
func IncrExtractions() { metrics.Extractions.Add(1) }

// IncrExtractionError counts a failed extraction; rateLimited also bumps the 429 counter.
func IncrExtractionError(rateLimited bool) {
	metrics.ExtractionErrors.Add(1)
	if rateLimited {
		metrics.UpstreamRateLimits.Add(1)
	}
}

// Incrementors for the store and the tool layer.
func IncrStoreReads()       { metrics.StoreReads.Add(1) }
func IncrStoreWrites()      { metrics.StoreWrites.Add(1) }
func IncrDuplicateCreates() { metrics.DuplicateCreates.Add(1) }
func IncrSearches()         { metrics.Searches.Add(1) }
func IncrRetrievals()       { metrics.Retrievals.Add(1) }
func IncrListings()         { metrics.Listings.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
