package engine

import (
	"fmt"
	"io"
	"log/slog"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// RandomUserAgent re-exports the stealth desktop UA rotation.
func RandomUserAgent() string { return stealth.RandomUserAgent() }

// StealthFetcher wraps the go-stealth browser client, optionally behind a
// rotating Webshare proxy pool, for watch page requests.
type StealthFetcher struct {
	bc      *stealth.BrowserClient
	proxies int
}

// NewStealthFetcher builds the stealth client. With a non-empty webshareKey
// requests rotate through the account's proxies; a pool that fails to load
// is logged and skipped.
func NewStealthFetcher(timeoutSec int, webshareKey string) (*StealthFetcher, error) {
	if timeoutSec <= 0 {
		timeoutSec = 15
	}
	opts := []stealth.ClientOption{stealth.WithTimeout(timeoutSec)}

	proxies := 0
	if webshareKey != "" {
		pool, err := proxypool.NewWebshare(webshareKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			proxies = pool.Len()
			slog.Info("proxy pool initialized", slog.Int("proxies", proxies))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client init: %w", err)
	}
	return &StealthFetcher{bc: bc, proxies: proxies}, nil
}

// Proxies reports how many proxies the pool loaded; 0 means direct.
func (f *StealthFetcher) Proxies() int { return f.proxies }

// Do sends one request and returns at most limit body bytes.
func (f *StealthFetcher) Do(method, url string, headers map[string]string, body io.Reader, limit int64) ([]byte, int, error) {
	data, _, status, err := f.bc.Do(method, url, headers, body)
	if err != nil {
		return nil, status, fmt.Errorf("stealth request: %w", err)
	}
	return capBody(data, limit), status, nil
}

// capBody trims data to limit bytes; limit <= 0 leaves it whole.
func capBody(data []byte, limit int64) []byte {
	if limit > 0 && int64(len(data)) > limit {
		return data[:limit]
	}
	return data
}
