package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// Postgres stores records in PostgreSQL through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pgx pool and runs schema migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &Postgres{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("store: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *Postgres) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
	}
	return nil
}

const pgColumns = `video_id, title, language, full_text, segments, created_at`

func (db *Postgres) FindByVideoID(ctx context.Context, videoID string) (*transcript.Record, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM transcripts WHERE video_id = $1`, videoID)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find %s: %w", videoID, err)
	}
	return rec, nil
}

func (db *Postgres) Create(ctx context.Context, rec *transcript.Record) (*transcript.Record, error) {
	segs, err := json.Marshal(rec.Segments)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode segments: %w", err)
	}
	out := *rec

	err = db.pool.QueryRow(ctx,
		`INSERT INTO transcripts (video_id, title, language, full_text, segments)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		out.VideoID, out.Title, out.Language, out.FullText, segs,
	).Scan(&out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("postgres: insert %s: %w", rec.VideoID, err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return &out, nil
}

func (db *Postgres) FindMany(ctx context.Context, f Filter, s Sort, p Page) ([]transcript.Record, int, error) {
	p = clampPage(p)

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Query != "" {
		n := arg(likePattern(f.Query))
		where = append(where, fmt.Sprintf(`(title ILIKE %[1]s OR video_id ILIKE %[1]s OR full_text ILIKE %[1]s)`, n))
	}
	if f.VideoID != "" {
		where = append(where, `video_id ILIKE `+arg(likePattern(f.VideoID)))
	}
	if f.Title != "" {
		where = append(where, `title ILIKE `+arg(likePattern(f.Title)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transcripts`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count: %w", err)
	}

	order := ` ORDER BY created_at DESC, video_id`
	switch s {
	case SortOldest:
		order = ` ORDER BY created_at ASC, video_id`
	case SortTitle:
		order = ` ORDER BY lower(title) ASC, video_id`
	}
	limit := arg(p.Limit)
	offset := arg(p.Offset)

	rows, err := db.pool.Query(ctx,
		`SELECT `+pgColumns+` FROM transcripts`+clause+order+` LIMIT `+limit+` OFFSET `+offset, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	out := make([]transcript.Record, 0, p.Limit)
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: rows: %w", err)
	}
	return out, total, nil
}

func (db *Postgres) Close() error {
	db.pool.Close()
	return nil
}

func scanPostgres(r pgx.Row) (*transcript.Record, error) {
	var rec transcript.Record
	var segs []byte
	var created time.Time
	if err := r.Scan(&rec.VideoID, &rec.Title, &rec.Language, &rec.FullText, &segs, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(segs, &rec.Segments); err != nil {
		return nil, fmt.Errorf("decode segments of %s: %w", rec.VideoID, err)
	}
	rec.CreatedAt = created.UTC()
	return &rec, nil
}
