package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go-kit/llm"
)

// MaxRewriteChars bounds how much transcript text is sent to the LLM at once.
const MaxRewriteChars = 24_000

// ErrLLMDisabled is returned when a rewrite is requested without an LLM.
var ErrLLMDisabled = errors.New("llm rewrite is not configured (set LLM_API_KEY)")

// ErrRewriteTooLong is returned when the text exceeds MaxRewriteChars.
var ErrRewriteTooLong = errors.New("text too long to rewrite")

const rewritePrompt = `Rewrite the following auto-generated video transcript excerpt into clean,
readable prose. Fix punctuation, capitalisation and obvious mis-transcriptions.
Do not summarise, do not add content, keep the speaker's wording and order.
Return only the rewritten text.

Transcript:
%s`

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// LLMEnabled reports whether a rewrite client is configured.
func LLMEnabled() bool { return cfg.LLMClient != nil }

// RewriteText asks the LLM to punctuate and clean up transcript text.
// Input longer than MaxRewriteChars is rejected.
func RewriteText(ctx context.Context, text string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMDisabled
	}
	if n := utf8.RuneCountInString(text); n > MaxRewriteChars {
		return "", fmt.Errorf("%w: %d chars, limit is %d; narrow the time range or window", ErrRewriteTooLong, n, MaxRewriteChars)
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	metrics.LLMCalls.Add(1)
	raw, err := cfg.LLMClient.Complete(ctx, "", fmt.Sprintf(rewritePrompt, text),
		llm.WithChatTemperature(cfg.LLMTemperature),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", fmt.Errorf("rewrite: %w", err)
	}
	out := stripFences(raw)
	if out == "" {
		metrics.LLMErrors.Add(1)
		return "", errors.New("rewrite: empty LLM response")
	}
	return out, nil
}
