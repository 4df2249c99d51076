package youtube

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

const (
	acceptLanguage  = "en-US,en;q=0.9"
	consentMarker   = `action="https://consent.youtube.com/s"`
	recaptchaMarker = `class="g-recaptcha"`
	titleSuffix     = " - YouTube"
	watchAccept     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

var consentValueRe = regexp.MustCompile(`name="v" value="(.*?)"`)

// KeyExtractor pulls the innertube signing key out of watch page markup.
type KeyExtractor interface {
	ExtractKey(page []byte) (string, bool)
}

// RegexKeyExtractor returns the first capture group of Re.
type RegexKeyExtractor struct {
	Re *regexp.Regexp
}

func (x RegexKeyExtractor) ExtractKey(page []byte) (string, bool) {
	m := x.Re.FindSubmatch(page)
	if len(m) < 2 || len(m[1]) == 0 {
		return "", false
	}
	return string(m[1]), true
}

// DefaultKeyExtractors are tried in order.
var DefaultKeyExtractors = []KeyExtractor{
	RegexKeyExtractor{Re: regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)},
	RegexKeyExtractor{Re: regexp.MustCompile(`"innertubeApiKey":\s*"([a-zA-Z0-9_-]+)"`)},
}

// watchPage is what the document fetch step hands to the player step.
type watchPage struct {
	APIKey string
	Title  string
}

// fetchWatchPage loads the watch page, clears a consent wall at most once and
// extracts the signing key and title.
func (c *Client) fetchWatchPage(ctx context.Context, videoID string) (*watchPage, error) {
	body, err := c.getWatchHTML(ctx, videoID, "")
	if err != nil {
		return nil, err
	}

	if bytes.Contains(body, []byte(consentMarker)) {
		m := consentValueRe.FindSubmatch(body)
		if len(m) < 2 {
			return nil, transcript.Errorf(transcript.KindUpstreamStructureChanged, videoID,
				"consent form found but its value is missing")
		}
		body, err = c.getWatchHTML(ctx, videoID, "CONSENT=YES+"+string(m[1]))
		if err != nil {
			return nil, err
		}
		if bytes.Contains(body, []byte(consentMarker)) {
			return nil, transcript.Errorf(transcript.KindUpstreamStructureChanged, videoID,
				"consent cookie was not accepted")
		}
	}

	if bytes.Contains(body, []byte(recaptchaMarker)) {
		return nil, transcript.Errorf(transcript.KindRateLimited, videoID,
			"watch page served a captcha; this IP is being throttled")
	}

	key := ""
	for _, x := range c.keyExtractors {
		if k, ok := x.ExtractKey(body); ok {
			key = k
			break
		}
	}
	if key == "" {
		return nil, transcript.Errorf(transcript.KindUpstreamStructureChanged, videoID,
			"signing key not found in watch page")
	}

	title := extractTitle(body)
	if title == "" {
		title = "YouTube video " + videoID
	}
	return &watchPage{APIKey: key, Title: title}, nil
}

func (c *Client) getWatchHTML(ctx context.Context, videoID, cookie string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, transcript.Wrap(transcript.KindUpstream, videoID, "watch page request not sent", err)
	}
	u := c.baseURL + "/watch?v=" + videoID
	if c.pages != nil {
		return c.getWatchHTMLBrowser(ctx, u, videoID, cookie)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, transcript.Wrap(transcript.KindInternal, videoID, "build watch page request", err)
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept", watchAccept)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transcript.Wrap(transcript.KindUpstream, videoID, "watch page request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, videoID, "watch page"); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, transcript.Wrap(transcript.KindUpstream, videoID, "read watch page", err)
	}
	return body, nil
}

// getWatchHTMLBrowser fetches the watch page through the TLS-fingerprinted
// PageFetcher. It cannot be cancelled mid-flight, only before it starts.
func (c *Client) getWatchHTMLBrowser(ctx context.Context, u, videoID, cookie string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, transcript.Wrap(transcript.KindUpstream, videoID, "watch page request not sent", err)
	}
	headers := map[string]string{
		"accept":          watchAccept,
		"accept-language": acceptLanguage,
		"user-agent":      engine.UserAgentChrome,
	}
	if cookie != "" {
		headers["cookie"] = cookie
	}
	body, status, err := c.pages.Do(http.MethodGet, u, headers, nil, maxPageBytes)
	if err != nil {
		return nil, transcript.Wrap(transcript.KindUpstream, videoID, "watch page request failed", err)
	}
	if err := classifyStatus(status, body, videoID, "watch page"); err != nil {
		return nil, err
	}
	return body, nil
}

// extractTitle returns the text of the first <title> element, minus the
// site suffix.
func extractTitle(page []byte) string {
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() != html.TextToken {
				return ""
			}
			t := strings.TrimSpace(string(z.Text()))
			return strings.TrimSpace(strings.TrimSuffix(t, titleSuffix))
		}
	}
}
