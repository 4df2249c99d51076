// go_transcript is a YouTube transcript MCP server.
//
// Exposes five MCP tools: transcript_fetch, transcript_get, transcript_search,
// transcript_list and transcript_find. Transcripts are extracted through the
// innertube player API, stored once per video (SQLite, PostgreSQL or MongoDB)
// and served back in context-sized pieces.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/store"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
	"github.com/anatolykoptev/go_transcript/internal/engine/youtube"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	c := loadConfig()
	engine.Init(c)
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.Open(ctx, c)
	cancel()
	if err != nil {
		slog.Error("store init failed", slog.String("driver", c.StoreDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	ytOpts := []youtube.Option{
		youtube.WithHTTPClient(c.HTTPClient),
		youtube.WithRateLimit(c.UpstreamRPS, c.UpstreamBurst),
	}
	if pf := pageFetcher(c); pf != nil {
		ytOpts = append(ytOpts, youtube.WithPageFetcher(pf))
	}
	yt := youtube.NewClient(ytOpts...)
	svc := transcriptserver.NewService(st, yt, transcriptserver.Options{
		Limits: transcript.Limits{
			FullTextCeiling: c.FullTextCeiling,
			PreviewChars:    c.PreviewChars,
			WindowMs:        int64(c.WindowSizeSec) * 1000,
		},
		BM25:  transcript.BM25{K1: c.BM25K1, B: c.BM25B},
		Dedup: c.DedupFetches,
	})

	slog.Info("starting go_transcript",
		slog.String("port", mcpPort),
		slog.String("store", c.StoreDriver),
		slog.Bool("llm", engine.LLMEnabled()),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	transcriptserver.RegisterTools(server, svc)
	slog.Info("tools registered", slog.Int("count", transcriptserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

// pageFetcher picks the watch page transport. A Webshare key implies the
// stealth client so that throttled IPs rotate; BROWSER_TLS is the
// proxy-less fallback. nil keeps plain net/http.
func pageFetcher(c engine.Config) youtube.PageFetcher {
	timeout := 15
	if c.HTTPClient != nil && c.HTTPClient.Timeout > 0 {
		timeout = int(c.HTTPClient.Timeout / time.Second)
	}
	if c.StealthClient || c.WebshareAPIKey != "" {
		sf, err := engine.NewStealthFetcher(timeout, c.WebshareAPIKey)
		if err == nil {
			slog.Info("stealth browser client initialized", slog.Int("proxies", sf.Proxies()))
			return sf
		}
		slog.Error("stealth client init failed", slog.Any("error", err))
	}
	if c.BrowserTLS {
		bc, err := engine.NewBrowserClient(timeout)
		if err == nil {
			return bc
		}
		slog.Warn("browser TLS client unavailable, using net/http", slog.Any("error", err))
	}
	return nil
}

func loadConfig() engine.Config {
	c := engine.Config{
		StoreDriver:          env.Str("STORE_DRIVER", "sqlite"),
		SQLitePath:           env.Str("SQLITE_PATH", store.DefaultSQLitePath()),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		MongoURL:             env.Str("MONGO_URL", ""),
		MongoDatabase:        env.Str("MONGO_DATABASE", "go_transcript"),
		MongoCollection:      env.Str("MONGO_COLLECTION", "transcripts"),
		RedisURL:             env.Str("REDIS_URL", ""),
		CacheTTL:             env.Duration("CACHE_TTL", 30*time.Minute),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		UpstreamRPS:          env.Float("UPSTREAM_RPS", 0),
		UpstreamBurst:        env.Int("UPSTREAM_BURST", 1),
		DedupFetches:         env.Str("DEDUP_FETCHES", "false") == "true",
		BrowserTLS:           env.Str("BROWSER_TLS", "false") == "true",
		StealthClient:        env.Str("STEALTH_CLIENT", "false") == "true",
		WebshareAPIKey:       env.Str("WEBSHARE_API_KEY", ""),
		WindowSizeSec:        env.Int("WINDOW_SIZE_SEC", 120),
		FullTextCeiling:      env.Int("FULL_TEXT_CEILING", 20000),
		PreviewChars:         env.Int("PREVIEW_CHARS", 1500),
		BM25K1:               env.Float("BM25_K1", 1.5),
		BM25B:                env.Float("BM25_B", 0.75),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 8192),
		HTTPClient: &http.Client{
			Timeout: env.Duration("FETCH_TIMEOUT", 15*time.Second),
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	// LLM rewrite is optional; without a key transcript_get rejects rewrite=true.
	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(env.List("LLM_API_KEY_FALLBACKS", "")),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
	}
	return c
}
