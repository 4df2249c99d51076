// Package transcriptserver implements the transcript operations and exposes
// them as MCP tools: transcript_fetch, transcript_get, transcript_search,
// transcript_list and transcript_find.
package transcriptserver

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/store"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
	"github.com/anatolykoptev/go_transcript/internal/engine/youtube"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

// Result limits.
const (
	DefaultSearchResults = 5
	MaxSearchResults     = 20
	findTextChars        = 500
)

// Extractor produces a transcript record for a canonical video ID.
// *youtube.Client implements it.
type Extractor interface {
	FetchTranscript(ctx context.Context, videoID string) (*transcript.Record, error)
}

// Options tune a Service. Zero values fall back to package defaults.
type Options struct {
	Limits transcript.Limits
	BM25   transcript.BM25
	// Dedup collapses concurrent fetches of the same video into one extraction.
	Dedup bool
}

// Service implements the five transcript operations over a store and an
// extractor. Records are cached after every store read or write.
type Service struct {
	store     store.Store
	extractor Extractor
	limits    transcript.Limits
	bm25      transcript.BM25
	dedup     bool
	group     singleflight.Group
}

// NewService wires a Service.
func NewService(st store.Store, ex Extractor, opts Options) *Service {
	lim := opts.Limits
	if lim.FullTextCeiling <= 0 {
		lim.FullTextCeiling = transcript.DefaultLimits.FullTextCeiling
	}
	if lim.PreviewChars <= 0 {
		lim.PreviewChars = transcript.DefaultLimits.PreviewChars
	}
	if lim.WindowMs <= 0 {
		lim.WindowMs = transcript.DefaultLimits.WindowMs
	}
	bm := opts.BM25
	if bm.K1 <= 0 {
		bm.K1 = transcript.DefaultBM25.K1
	}
	if bm.B < 0 || bm.B > 1 {
		bm.B = transcript.DefaultBM25.B
	}
	return &Service{store: st, extractor: ex, limits: lim, bm25: bm, dedup: opts.Dedup}
}

// --- fetch ---

// FetchResult is the metadata and bounded preview returned by Fetch.
type FetchResult struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Language    string `json:"language,omitempty"`
	Segments    int    `json:"segments"`
	DurationSec int64  `json:"duration_sec"`
	TotalChars  int    `json:"total_chars"`
	WindowCount int    `json:"window_count"`
	Preview     string `json:"preview"`
	Truncated   bool   `json:"truncated"`
	Cached      bool   `json:"cached"`
	CreatedAt   string `json:"created_at"`
}

// WindowSizeSec is the default window size used by Search and Get.
func (s *Service) WindowSizeSec() int64 { return s.limits.WindowMs / 1000 }

// Fetch resolves video, returns the stored record if there is one and
// otherwise extracts, persists and returns it.
func (s *Service) Fetch(ctx context.Context, video string) (*FetchResult, error) {
	id, err := youtube.ResolveVideoID(video)
	if err != nil {
		return nil, err
	}

	rec, err := s.load(ctx, id)
	cached := err == nil
	if errors.Is(err, &transcript.Error{Kind: transcript.KindNotFound}) {
		rec, err = s.extract(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	preview := engine.TruncateAtWord(rec.FullText, s.limits.PreviewChars)
	durationMs := rec.DurationMs()
	return &FetchResult{
		VideoID:     rec.VideoID,
		Title:       rec.Title,
		Language:    rec.Language,
		Segments:    len(rec.Segments),
		DurationSec: durationMs / 1000,
		TotalChars:  utf8.RuneCountInString(rec.FullText),
		WindowCount: len(transcript.SegmentWindows(rec.Segments, s.limits.WindowMs)),
		Preview:     preview,
		Truncated:   len(preview) < len(rec.FullText),
		Cached:      cached,
		CreatedAt:   formatTime(rec.CreatedAt),
	}, nil
}

func (s *Service) extract(ctx context.Context, id string) (*transcript.Record, error) {
	if !s.dedup {
		return s.extractAndStore(ctx, id)
	}
	// The shared call outlives any single caller; each caller still honours
	// its own cancellation while waiting.
	ch := s.group.DoChan(id, func() (any, error) {
		return s.extractAndStore(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return nil, transcript.Wrap(transcript.KindUpstream, id, "fetch abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("transcript: fetch shared", slog.String("id", id))
		}
		return res.Val.(*transcript.Record), nil
	}
}

// extractAndStore runs the pipeline and persists the result. When another
// caller stored the same video first, their record wins.
func (s *Service) extractAndStore(ctx context.Context, id string) (*transcript.Record, error) {
	var rec *transcript.Record
	err := engine.TrackOperation(ctx, "extract:"+id, func(ctx context.Context) error {
		var ferr error
		rec, ferr = s.extractor.FetchTranscript(ctx, id)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Create(ctx, rec)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		engine.IncrDuplicateCreates()
		slog.Info("transcript: lost create race, re-reading", slog.String("id", id))
		stored, err = s.store.FindByVideoID(ctx, id)
		if err != nil {
			return nil, transcript.Wrap(transcript.KindInternal, id, "re-read after duplicate create", err)
		}
	case err != nil:
		return nil, transcript.Wrap(transcript.KindInternal, id, "store transcript", err)
	default:
		engine.IncrStoreWrites()
		slog.Info("transcript: stored", slog.String("id", id), slog.Int("segments", len(stored.Segments)))
	}

	engine.CacheSetRecord(ctx, stored)
	return stored, nil
}

// load reads a record from the cache or the store. A missing record is a
// KindNotFound error; the upstream is never contacted.
func (s *Service) load(ctx context.Context, id string) (*transcript.Record, error) {
	if rec, ok := engine.CacheGetRecord(ctx, id); ok {
		return rec, nil
	}
	rec, err := s.store.FindByVideoID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, transcript.Errorf(transcript.KindNotFound, id, "no transcript stored; call transcript_fetch first")
	}
	if err != nil {
		return nil, transcript.Wrap(transcript.KindInternal, id, "load transcript", err)
	}
	engine.IncrStoreReads()
	engine.CacheSetRecord(ctx, rec)
	return rec, nil
}

// --- get ---

// GetOptions are the read parameters of Get.
type GetOptions struct {
	transcript.RetrieveOptions
	IncludeSegments bool
	Rewrite         bool
}

// GetResult is a Retrieval plus record metadata.
type GetResult struct {
	VideoID     string                 `json:"video_id"`
	Title       string                 `json:"title"`
	Mode        transcript.Mode        `json:"mode"`
	Text        string                 `json:"text"`
	Range       string                 `json:"range"`
	StartMs     int64                  `json:"start_ms"`
	EndMs       int64                  `json:"end_ms"`
	Window      *transcript.TimeWindow `json:"window,omitempty"`
	WindowCount int                    `json:"window_count,omitempty"`
	Truncated   bool                   `json:"truncated,omitempty"`
	Hints       *transcript.Hints      `json:"hints,omitempty"`
	Segments    []transcript.Segment   `json:"segments,omitempty"`
	Rewritten   bool                   `json:"rewritten,omitempty"`
}

// Get applies the retrieval strategy to a stored transcript.
func (s *Service) Get(ctx context.Context, video string, opts GetOptions) (*GetResult, error) {
	id, err := youtube.ResolveVideoID(video)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	r, err := transcript.Retrieve(rec, opts.RetrieveOptions, s.limits)
	if err != nil {
		return nil, err
	}
	engine.IncrRetrievals()

	out := &GetResult{
		VideoID:     rec.VideoID,
		Title:       rec.Title,
		Mode:        r.Mode,
		Text:        r.Text,
		Range:       transcript.FormatRange(r.StartMs, r.EndMs),
		StartMs:     r.StartMs,
		EndMs:       r.EndMs,
		Window:      r.Window,
		WindowCount: r.Windows,
		Truncated:   r.Truncated,
		Hints:       r.Hints,
	}
	if opts.IncludeSegments {
		out.Segments = r.Segments
		if out.Segments == nil {
			out.Segments = []transcript.Segment{}
		}
	}
	if opts.Rewrite {
		text, err := engine.RewriteText(ctx, r.Text)
		if errors.Is(err, engine.ErrLLMDisabled) || errors.Is(err, engine.ErrRewriteTooLong) {
			return nil, transcript.Wrap(transcript.KindInvalidArgument, id, "rewrite requested", err)
		}
		if err != nil {
			return nil, transcript.Wrap(transcript.KindUpstream, id, "rewrite failed", err)
		}
		out.Text = text
		out.Rewritten = true
	}
	return out, nil
}

// --- search ---

// SearchHit is one ranked window.
type SearchHit struct {
	Index   int     `json:"index"`
	Range   string  `json:"range"`
	StartMs int64   `json:"start_ms"`
	EndMs   int64   `json:"end_ms"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// SearchResult lists the best windows for a query.
type SearchResult struct {
	VideoID       string      `json:"video_id"`
	Title         string      `json:"title"`
	Query         string      `json:"query"`
	WindowSizeSec int64       `json:"window_size_sec"`
	WindowCount   int         `json:"window_count"`
	Results       []SearchHit `json:"results"`
}

// Search ranks the default-size windows of a stored transcript against query.
func (s *Service) Search(ctx context.Context, video, query string, maxResults int) (*SearchResult, error) {
	id, err := youtube.ResolveVideoID(video)
	if err != nil {
		return nil, err
	}
	if len(transcript.Tokenize(query)) == 0 {
		return nil, transcript.Errorf(transcript.KindInvalidQuery, id, "query %q has no searchable terms", query)
	}
	n := toolutil.ClampResults(maxResults, DefaultSearchResults, MaxSearchResults)

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	windows := transcript.SegmentWindows(rec.Segments, s.limits.WindowMs)
	ranked, err := s.bm25.Rank(windows, query)
	if err != nil {
		return nil, err
	}
	engine.IncrSearches()

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	hits := make([]SearchHit, 0, len(ranked))
	for _, w := range ranked {
		hits = append(hits, SearchHit{
			Index:   w.Index,
			Range:   transcript.FormatRange(w.StartMs, w.EndMs),
			StartMs: w.StartMs,
			EndMs:   w.EndMs,
			Score:   w.Score,
			Text:    w.Text,
		})
	}
	return &SearchResult{
		VideoID:       rec.VideoID,
		Title:         rec.Title,
		Query:         query,
		WindowSizeSec: s.limits.WindowMs / 1000,
		WindowCount:   len(windows),
		Results:       hits,
	}, nil
}

// --- list / find ---

// ListItem is the metadata of one stored transcript. FullText is only set by
// Find.
type ListItem struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Language    string `json:"language,omitempty"`
	Segments    int    `json:"segments"`
	DurationSec int64  `json:"duration_sec"`
	TotalChars  int    `json:"total_chars"`
	FullText    string `json:"full_text,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ListResult is one page of transcripts.
type ListResult struct {
	Items    []ListItem `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	HasMore  bool       `json:"has_more"`
}

// FindOptions filter and page Find.
type FindOptions struct {
	Query           string
	VideoID         string
	Title           string
	Page            int
	PageSize        int
	Sort            string
	IncludeFullText bool
}

// List pages through all stored transcripts.
func (s *Service) List(ctx context.Context, page, pageSize int, sort string) (*ListResult, error) {
	return s.findMany(ctx, FindOptions{Page: page, PageSize: pageSize, Sort: sort}, false)
}

// Find pages through transcripts matching the filter. Full text is cut to a
// short excerpt unless IncludeFullText is set.
func (s *Service) Find(ctx context.Context, opts FindOptions) (*ListResult, error) {
	return s.findMany(ctx, opts, true)
}

func (s *Service) findMany(ctx context.Context, opts FindOptions, withText bool) (*ListResult, error) {
	sortBy, err := store.ParseSort(opts.Sort)
	if err != nil {
		return nil, transcript.Wrap(transcript.KindInvalidArgument, "", "sort", err)
	}
	page, size := toolutil.NormPage(opts.Page, opts.PageSize)

	recs, total, err := s.store.FindMany(ctx,
		store.Filter{Query: opts.Query, VideoID: opts.VideoID, Title: opts.Title},
		sortBy,
		store.Page{Offset: toolutil.Offset(page, size), Limit: size},
	)
	if err != nil {
		return nil, transcript.Wrap(transcript.KindInternal, "", "list transcripts", err)
	}
	engine.IncrListings()

	items := make([]ListItem, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		item := ListItem{
			VideoID:     r.VideoID,
			Title:       r.Title,
			Language:    r.Language,
			Segments:    len(r.Segments),
			DurationSec: r.DurationMs() / 1000,
			TotalChars:  len(r.FullText),
			CreatedAt:   formatTime(r.CreatedAt),
		}
		if withText {
			item.FullText = r.FullText
			if !opts.IncludeFullText {
				item.FullText = engine.TruncateRunes(r.FullText, findTextChars, "…")
			}
		}
		items = append(items, item)
	}
	return &ListResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: size,
		HasMore:  toolutil.Offset(page, size)+len(items) < total,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
