// Package youtube extracts timed transcripts from YouTube.
//
// The pipeline is linear: watch page (with at most one consent retry) →
// signing key → ANDROID innertube /player → caption track selection →
// timedtext document → parser chain. Nothing is retried internally; failures
// are classified with transcript.Kind so callers decide what to retry.
package youtube

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

const (
	maxPageBytes    = 6 * 1024 * 1024
	maxPlayerBytes  = 3 * 1024 * 1024
	maxCaptionBytes = 4 * 1024 * 1024
)

// Client runs the extraction pipeline. It is safe for concurrent use.
type Client struct {
	http          *http.Client
	baseURL       string
	clientName    string
	clientVersion string
	limiter       *rate.Limiter
	keyExtractors []KeyExtractor
	parsers       []CaptionParser
	pages         PageFetcher
}

// PageFetcher fetches a document outside net/http, typically with a browser
// TLS fingerprint. *engine.BrowserClient and *engine.StealthFetcher implement it.
type PageFetcher interface {
	Do(method, url string, headers map[string]string, body io.Reader, limit int64) ([]byte, int, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the outbound HTTP client. Its timeout bounds each call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL points watch page and player requests at another host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit gates every upstream request through a token bucket.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithKeyExtractors replaces the signing-key strategies.
func WithKeyExtractors(x ...KeyExtractor) Option {
	return func(c *Client) { c.keyExtractors = x }
}

// WithParsers replaces the caption grammar chain.
func WithParsers(p ...CaptionParser) Option {
	return func(c *Client) { c.parsers = p }
}

// WithPageFetcher routes watch page requests through f. Player and caption
// requests keep using the HTTP client.
func WithPageFetcher(f PageFetcher) Option {
	return func(c *Client) { c.pages = f }
}

// WithClientIdentity overrides the innertube client name and version.
func WithClientIdentity(name, version string) Option {
	return func(c *Client) {
		c.clientName = name
		c.clientVersion = version
	}
}

// NewClient builds a Client. Without WithHTTPClient it uses engine.Cfg.HTTPClient.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:          engine.Cfg.HTTPClient,
		baseURL:       defaultBaseURL,
		clientName:    androidName,
		clientVersion: androidVersion,
		keyExtractors: DefaultKeyExtractors,
		parsers:       DefaultParsers,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// FetchTranscript runs the full pipeline for a canonical video ID.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (*transcript.Record, error) {
	engine.IncrExtractions()
	start := time.Now()

	rec, err := c.fetchTranscript(ctx, videoID)
	if err != nil {
		kind := transcript.KindOf(err)
		engine.IncrExtractionError(kind == transcript.KindRateLimited)
		slog.Warn("youtube: extraction failed",
			slog.String("id", videoID), slog.String("kind", string(kind)), slog.Any("error", err))
		return nil, err
	}

	slog.Info("youtube: transcript extracted",
		slog.String("id", videoID),
		slog.String("lang", rec.Language),
		slog.Int("segments", len(rec.Segments)),
		slog.Duration("elapsed", time.Since(start)))
	return rec, nil
}

func (c *Client) fetchTranscript(ctx context.Context, videoID string) (*transcript.Record, error) {
	if !ValidVideoID(videoID) {
		return nil, transcript.Errorf(transcript.KindInvalidIdentifier, "", "%s is not a video id", quote(videoID))
	}

	page, err := c.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	pd, err := c.fetchPlayerData(ctx, videoID, page.APIKey)
	if err != nil {
		return nil, err
	}
	if err := checkPlayability(videoID, pd.Playability); err != nil {
		return nil, err
	}

	track, err := SelectTrack(videoID, pd.Tracks)
	if err != nil {
		return nil, err
	}

	doc, err := c.fetchCaptionDocument(ctx, videoID, track)
	if err != nil {
		return nil, err
	}

	segs, grammar := ParseCaptions(doc, c.parsers)
	if len(segs) == 0 {
		return nil, transcript.Errorf(transcript.KindUpstreamStructureChanged, videoID, "unparseable transcript")
	}
	slog.Debug("youtube: captions parsed", slog.String("id", videoID), slog.String("grammar", grammar))

	return Assemble(videoID, page.Title, track.LanguageCode, segs), nil
}

// Assemble builds a Record from parsed segments, ordering them by start time.
func Assemble(videoID, title, lang string, segs []transcript.Segment) *transcript.Record {
	ordered := append([]transcript.Segment(nil), segs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartMs < ordered[j].StartMs
	})
	return &transcript.Record{
		VideoID:  videoID,
		Title:    title,
		Language: lang,
		FullText: transcript.JoinText(ordered),
		Segments: ordered,
	}
}
