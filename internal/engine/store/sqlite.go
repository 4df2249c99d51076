package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// SQLite stores records in a single-file database.
type SQLite struct {
	db *sql.DB
}

// DefaultSQLitePath is used when SQLITE_PATH is unset.
func DefaultSQLitePath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_transcript", "transcripts.db")
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	slog.Info("store: sqlite ready", slog.String("path", path))
	return &SQLite{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS transcripts (
		video_id   TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		language   TEXT NOT NULL DEFAULT '',
		full_text  TEXT NOT NULL,
		segments   TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	return err
}

const sqliteColumns = `video_id, title, language, full_text, segments, created_at`

// sqliteTime is fixed-width so created_at sorts correctly as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

func (s *SQLite) FindByVideoID(ctx context.Context, videoID string) (*transcript.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM transcripts WHERE video_id = ?`, videoID)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find %s: %w", videoID, err)
	}
	return rec, nil
}

func (s *SQLite) Create(ctx context.Context, rec *transcript.Record) (*transcript.Record, error) {
	segs, err := json.Marshal(rec.Segments)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode segments: %w", err)
	}
	out := *rec
	out.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(video_id) DO NOTHING`,
		out.VideoID, out.Title, out.Language, out.FullText, string(segs),
		out.CreatedAt.Format(sqliteTime),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert %s: %w", rec.VideoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrDuplicate
	}
	return &out, nil
}

func (s *SQLite) FindMany(ctx context.Context, f Filter, sort Sort, p Page) ([]transcript.Record, int, error) {
	p = clampPage(p)

	var where []string
	var args []any
	if f.Query != "" {
		pat := likePattern(f.Query)
		where = append(where, `(title LIKE ? ESCAPE '\' OR video_id LIKE ? ESCAPE '\' OR full_text LIKE ? ESCAPE '\')`)
		args = append(args, pat, pat, pat)
	}
	if f.VideoID != "" {
		where = append(where, `video_id LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.VideoID))
	}
	if f.Title != "" {
		where = append(where, `title LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Title))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: count: %w", err)
	}

	order := ` ORDER BY created_at DESC, video_id`
	switch sort {
	case SortOldest:
		order = ` ORDER BY created_at ASC, video_id`
	case SortTitle:
		order = ` ORDER BY title COLLATE NOCASE ASC, video_id`
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM transcripts`+clause+order+` LIMIT ? OFFSET ?`,
		append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	out := make([]transcript.Record, 0, p.Limit)
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scan: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, total, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(r rowScanner) (*transcript.Record, error) {
	var rec transcript.Record
	var segs, created string
	if err := r.Scan(&rec.VideoID, &rec.Title, &rec.Language, &rec.FullText, &segs, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(segs), &rec.Segments); err != nil {
		return nil, fmt.Errorf("decode segments of %s: %w", rec.VideoID, err)
	}
	t, err := time.Parse(sqliteTime, created)
	if err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", rec.VideoID, err)
	}
	rec.CreatedAt = t
	return &rec, nil
}
