package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(id, title, text string) *transcript.Record {
	segs := []transcript.Segment{transcript.NewSegment(text, 0, 1500)}
	return &transcript.Record{
		VideoID:  id,
		Title:    title,
		Language: "en",
		FullText: transcript.JoinText(segs),
		Segments: segs,
	}
}

func TestSQLite_CreateAndFind(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	_, err := s.FindByVideoID(ctx, "dQw4w9WgXcQ")
	require.ErrorIs(t, err, ErrNotFound)

	before := time.Now().UTC().Add(-time.Second)
	created, err := s.Create(ctx, testRecord("dQw4w9WgXcQ", "Never Gonna", "never gonna give you up"))
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.After(before), "CreatedAt should be set on create")

	got, err := s.FindByVideoID(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna", got.Title)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, "never gonna give you up", got.FullText)
	require.Len(t, got.Segments, 1)
	assert.Equal(t, int64(1500), got.Segments[0].EndMs)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt), "CreatedAt round trip: %v vs %v", got.CreatedAt, created.CreatedAt)
}

func TestSQLite_Duplicate(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	_, err := s.Create(ctx, testRecord("dQw4w9WgXcQ", "first", "a"))
	require.NoError(t, err)

	_, err = s.Create(ctx, testRecord("dQw4w9WgXcQ", "second", "b"))
	require.ErrorIs(t, err, ErrDuplicate)

	got, err := s.FindByVideoID(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title, "duplicate create must not overwrite")
}

func seedSQLite(t *testing.T, s *SQLite) {
	t.Helper()
	ctx := context.Background()
	records := []*transcript.Record{
		testRecord("aaaaaaaaaa1", "Go Concurrency Patterns", "goroutines and channels"),
		testRecord("bbbbbbbbbb2", "Rust ownership", "borrow checker explained"),
		testRecord("ccccccccccc", "100% Pure GO", "fully literal percent"),
		testRecord("ddddddddd_d", "cooking pasta", "boil water with go_routines of salt"),
	}
	for _, r := range records {
		_, err := s.Create(ctx, r)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
}

func ids(recs []transcript.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.VideoID
	}
	return out
}

func TestSQLite_FindMany(t *testing.T) {
	s := openTestSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	tests := []struct {
		name      string
		filter    Filter
		sort      Sort
		wantIDs   []string
		wantTotal int
	}{
		{"all newest", Filter{}, SortNewest, []string{"ddddddddd_d", "ccccccccccc", "bbbbbbbbbb2", "aaaaaaaaaa1"}, 4},
		{"all oldest", Filter{}, SortOldest, []string{"aaaaaaaaaa1", "bbbbbbbbbb2", "ccccccccccc", "ddddddddd_d"}, 4},
		{"title sort ignores case", Filter{}, SortTitle, []string{"ccccccccccc", "ddddddddd_d", "aaaaaaaaaa1", "bbbbbbbbbb2"}, 4},
		{"query across fields", Filter{Query: "GO"}, SortOldest, []string{"aaaaaaaaaa1", "ccccccccccc", "ddddddddd_d"}, 3},
		{"query matches full text", Filter{Query: "borrow"}, SortNewest, []string{"bbbbbbbbbb2"}, 1},
		{"query matches video id", Filter{Query: "bbbbb"}, SortNewest, []string{"bbbbbbbbbb2"}, 1},
		{"percent is literal", Filter{Query: "100%"}, SortNewest, []string{"ccccccccccc"}, 1},
		{"underscore is literal", Filter{Query: "go_r"}, SortNewest, []string{"ddddddddd_d"}, 1},
		{"title and video id are ANDed", Filter{Title: "go", VideoID: "aaaa"}, SortNewest, []string{"aaaaaaaaaa1"}, 1},
		{"no match", Filter{Query: "haskell"}, SortNewest, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.FindMany(ctx, tt.filter, tt.sort, Page{Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func TestSQLite_FindManyPaging(t *testing.T) {
	s := openTestSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	var seen []string
	for offset := 0; offset < 4; offset += 3 {
		got, total, err := s.FindMany(ctx, Filter{}, SortOldest, Page{Offset: offset, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		seen = append(seen, ids(got)...)
	}
	assert.Equal(t, []string{"aaaaaaaaaa1", "bbbbbbbbbb2", "ccccccccccc", "ddddddddd_d"}, seen)

	got, total, err := s.FindMany(ctx, Filter{}, SortOldest, Page{Offset: 10, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, got)
}

func TestParseSort(t *testing.T) {
	for in, want := range map[string]Sort{"": SortNewest, "Newest": SortNewest, "oldest": SortOldest, " title ": SortTitle} {
		got, err := ParseSort(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSort("random")
	assert.Error(t, err)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%plain%`, likePattern("plain"))
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b\\c%`, likePattern(`a_b\c`))
}

func TestMongoFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, mongoFilter(Filter{}))

	f := mongoFilter(Filter{Query: "a.b", Title: "x"})
	and, ok := f["$and"].([]bson.M)
	require.True(t, ok)
	require.Len(t, and, 2)

	or, ok := and[0]["$or"].([]bson.M)
	require.True(t, ok)
	assert.Len(t, or, 3)
	assert.Equal(t, primitive.Regex{Pattern: `a\.b`, Options: "i"}, or[0]["title"])
	assert.Equal(t, primitive.Regex{Pattern: "x", Options: "i"}, and[1]["title"])
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), engine.Config{StoreDriver: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%q", "cassandra"))
}
