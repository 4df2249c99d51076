package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	StoreDriver          string // sqlite | postgres | mongo
	SQLitePath           string
	DatabaseURL          string
	MongoURL             string
	MongoDatabase        string
	MongoCollection      string
	RedisURL             string
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	UpstreamRPS          float64 // 0 = unlimited
	UpstreamBurst        int
	DedupFetches         bool // collapse concurrent fetches of one video
	BrowserTLS           bool // fetch watch pages with a Chrome TLS fingerprint
	StealthClient        bool // fetch watch pages with the go-stealth client
	WebshareAPIKey       string
	WindowSizeSec        int
	FullTextCeiling      int
	PreviewChars         int
	BM25K1               float64
	BM25B                float64
	LLMAPIKey            string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	HTTPClient           *http.Client
	LLMClient            *llm.Client // nil = rewrite disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
