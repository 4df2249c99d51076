package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anatolykoptev/go-kit/llm"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello there", "hello there"},
		{"fenced", "```\nhello\n```", "hello"},
		{"text fence", "```text\nHello, world.\n```", "Hello, world."},
		{"whitespace", "   spaced   ", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRewriteTextDisabled(t *testing.T) {
	Init(Config{})
	if LLMEnabled() {
		t.Fatal("expected LLM disabled with empty config")
	}
	_, err := RewriteText(context.Background(), "some text")
	if !errors.Is(err, ErrLLMDisabled) {
		t.Errorf("err = %v, want ErrLLMDisabled", err)
	}
}

func TestRewriteTextTooLong(t *testing.T) {
	Init(Config{LLMClient: llm.NewClient("http://127.0.0.1:1", "test-key", "test-model")})
	t.Cleanup(func() { Init(Config{}) })

	before := metrics.LLMCalls.Load()
	text := strings.Repeat("ж", MaxRewriteChars+1)
	_, err := RewriteText(context.Background(), text)
	if !errors.Is(err, ErrRewriteTooLong) {
		t.Fatalf("err = %v, want ErrRewriteTooLong", err)
	}
	if metrics.LLMCalls.Load() != before {
		t.Errorf("LLM called for oversized input")
	}
}
