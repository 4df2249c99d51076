// Package store persists transcript records, one per video ID.
//
// Three backends implement Store: SQLite (the default, single file),
// PostgreSQL (pgx pool with embedded migrations) and MongoDB. All of them
// enforce uniqueness on the video ID and match filters case-insensitively,
// treating the user's text literally.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

var (
	// ErrNotFound is returned by FindByVideoID when no record exists.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned by Create when the video ID is already stored.
	ErrDuplicate = errors.New("store: record already exists")
)

// Sort orders FindMany results.
type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortTitle  Sort = "title"
)

// ParseSort maps user input to a Sort. Empty input means newest.
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortTitle:
		return SortTitle, nil
	}
	return "", fmt.Errorf("invalid sort %q (valid: newest, oldest, title)", s)
}

// Filter narrows FindMany. Empty fields are ignored; set fields are ANDed.
// Query matches title, video ID or full text.
type Filter struct {
	Query   string
	VideoID string
	Title   string
}

// Page is an offset/limit window over the sorted result set.
type Page struct {
	Offset int
	Limit  int
}

// Store is the persistence contract the transcript service depends on.
type Store interface {
	FindByVideoID(ctx context.Context, videoID string) (*transcript.Record, error)
	// Create stores rec, setting CreatedAt, and returns the stored copy.
	Create(ctx context.Context, rec *transcript.Record) (*transcript.Record, error)
	// FindMany returns one page of matching records and the total match count.
	FindMany(ctx context.Context, f Filter, s Sort, p Page) ([]transcript.Record, int, error)
	Close() error
}

// Open connects the backend selected by c.StoreDriver.
func Open(ctx context.Context, c engine.Config) (Store, error) {
	switch strings.ToLower(c.StoreDriver) {
	case "", "sqlite":
		return OpenSQLite(c.SQLitePath)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, c.DatabaseURL)
	case "mongo", "mongodb":
		return OpenMongo(ctx, c.MongoURL, c.MongoDatabase, c.MongoCollection)
	}
	return nil, fmt.Errorf("store: unknown driver %q (valid: sqlite, postgres, mongo)", c.StoreDriver)
}

// likePattern wraps s in % wildcards, escaping LIKE metacharacters with '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func clampPage(p Page) Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	return p
}
