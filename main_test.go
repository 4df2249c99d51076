package main

import (
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

func TestPageFetcher(t *testing.T) {
	if pf := pageFetcher(engine.Config{}); pf != nil {
		t.Errorf("default config: got %T, want plain net/http", pf)
	}
	if _, ok := pageFetcher(engine.Config{BrowserTLS: true}).(*engine.BrowserClient); !ok {
		t.Error("BROWSER_TLS should select the tls-client fetcher")
	}
	if _, ok := pageFetcher(engine.Config{StealthClient: true, BrowserTLS: true}).(*engine.StealthFetcher); !ok {
		t.Error("STEALTH_CLIENT should take precedence over BROWSER_TLS")
	}
}
