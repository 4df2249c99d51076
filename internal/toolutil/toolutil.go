// Package toolutil provides shared helper functions for the transcript MCP tools.
package toolutil

import (
	"context"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Paging limits shared by transcript_list and transcript_find.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormPage turns a 1-based page and a page size into sane values:
// page < 1 becomes 1, pageSize <= 0 becomes DefaultPageSize and anything over
// MaxPageSize is capped.
func NormPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset returns the zero-based row offset of a normalised page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// ClampResults bounds a requested result count to [1, limit], using def for n <= 0.
func ClampResults(n, def, limit int) int {
	if n <= 0 {
		return def
	}
	if n > limit {
		return limit
	}
	return n
}

// CacheLoadJSON tries to load a cached tool result of type T.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	return engine.CacheLoadJSON[T](ctx, key)
}

// CacheStoreJSON stores a tool result in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	engine.CacheStoreJSON(ctx, key, v)
}
