package youtube

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

const (
	// poTokenMarker marks caption URLs that need a browser-minted PoToken.
	poTokenMarker = "&exp=xpe"
)

// NeedsPoToken reports whether a caption track URL requires a PoToken.
func NeedsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, poTokenMarker)
}

func isEnglish(code string) bool {
	code = strings.ToLower(code)
	return code == "en" || strings.HasPrefix(code, "en-")
}

// SelectTrack picks manual English, then any English, then the first track.
// The chosen track is rejected if it needs a PoToken; others are not tried.
func SelectTrack(videoID string, tracks []CaptionTrack) (CaptionTrack, error) {
	if len(tracks) == 0 {
		return CaptionTrack{}, transcript.Errorf(transcript.KindNoCaptions, videoID, "no captions available")
	}

	chosen, found := CaptionTrack{}, false
	for _, t := range tracks {
		if isEnglish(t.LanguageCode) && t.Kind != "asr" {
			chosen, found = t, true
			break
		}
	}
	if !found {
		for _, t := range tracks {
			if isEnglish(t.LanguageCode) {
				chosen, found = t, true
				break
			}
		}
	}
	if !found {
		chosen = tracks[0]
	}

	if NeedsPoToken(chosen.BaseURL) {
		return CaptionTrack{}, transcript.Errorf(transcript.KindUnsupportedProtection, videoID,
			"caption track %q requires a proof-of-origin token", chosen.LanguageCode)
	}
	return chosen, nil
}

// captionURL drops fmt=srv3 from a track URL so timedtext answers with
// one of the plain grammars.
func captionURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if q.Get("fmt") == "srv3" {
		q.Del("fmt")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// fetchCaptionDocument downloads the timedtext XML for track.
func (c *Client) fetchCaptionDocument(ctx context.Context, videoID string, track CaptionTrack) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", transcript.Wrap(transcript.KindUpstream, videoID, "caption request not sent", err)
	}
	u, err := captionURL(track.BaseURL)
	if err != nil {
		return "", transcript.Wrap(transcript.KindUpstreamStructureChanged, videoID, "bad caption URL", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", transcript.Wrap(transcript.KindUpstreamStructureChanged, videoID, "bad caption URL", err)
	}
	req.Header.Set("User-Agent", engine.RandomUserAgent())
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transcript.Wrap(transcript.KindUpstream, videoID, "caption request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, videoID, "captions"); err != nil {
		return "", err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptionBytes))
	if err != nil {
		return "", transcript.Wrap(transcript.KindUpstream, videoID, "read caption document", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", transcript.Errorf(transcript.KindEmptyUpstreamResponse, videoID, "caption document is empty")
	}
	return string(body), nil
}

// CaptionParser turns a caption document into segments. An unrecognised
// document yields no segments rather than an error.
type CaptionParser interface {
	Name() string
	Parse(doc string) []transcript.Segment
}

// DefaultParsers lists grammars in the order they are tried.
var DefaultParsers = []CaptionParser{MillisecondParser{}, SecondsParser{}}

// ParseCaptions returns the output of the first parser that yields segments,
// and that parser's name.
func ParseCaptions(doc string, parsers []CaptionParser) ([]transcript.Segment, string) {
	for _, p := range parsers {
		if segs := p.Parse(doc); len(segs) > 0 {
			return segs, p.Name()
		}
	}
	return nil, ""
}

var (
	pTagRe    = regexp.MustCompile(`<p\b([^>]*)>([\s\S]*?)</p>`)
	textTagRe = regexp.MustCompile(`<text\b([^>]*)>([\s\S]*?)</text>`)
	attrRe    = regexp.MustCompile(`\b([a-zA-Z]+)="([^"]*)"`)
	tagRe     = regexp.MustCompile(`</?[a-zA-Z][^<>]*>`)
)

// MillisecondParser reads the compact form <p t="1360" d="1680">text</p>.
type MillisecondParser struct{}

func (MillisecondParser) Name() string { return "ms" }

func (MillisecondParser) Parse(doc string) []transcript.Segment {
	var out []transcript.Segment
	for _, m := range pTagRe.FindAllStringSubmatch(doc, -1) {
		attrs := parseAttrs(m[1])
		start, err := strconv.ParseInt(attrs["t"], 10, 64)
		if err != nil {
			continue
		}
		dur, _ := strconv.ParseInt(attrs["d"], 10, 64)
		if text := cleanCaptionText(m[2]); text != "" {
			out = append(out, transcript.NewSegment(text, start, dur))
		}
	}
	return out
}

// SecondsParser reads the verbose form <text start="1.36" dur="1.68">text</text>.
type SecondsParser struct{}

func (SecondsParser) Name() string { return "seconds" }

func (SecondsParser) Parse(doc string) []transcript.Segment {
	var out []transcript.Segment
	for _, m := range textTagRe.FindAllStringSubmatch(doc, -1) {
		attrs := parseAttrs(m[1])
		start, err := strconv.ParseFloat(attrs["start"], 64)
		if err != nil {
			continue
		}
		dur, _ := strconv.ParseFloat(attrs["dur"], 64)
		if text := cleanCaptionText(m[2]); text != "" {
			out = append(out, transcript.NewSegment(text, secondsToMs(start), secondsToMs(dur)))
		}
	}
	return out
}

func secondsToMs(s float64) int64 {
	return int64(math.Round(s * 1000))
}

func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string, 4)
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// cleanCaptionText strips inline markup, decodes entities and collapses
// whitespace. Timedtext often double-escapes (&amp;#39;), so markup that only
// appears after the first decode is stripped too.
func cleanCaptionText(s string) string {
	s = html.UnescapeString(tagRe.ReplaceAllString(s, ""))
	if strings.ContainsRune(s, '&') {
		s = html.UnescapeString(s)
	}
	s = tagRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
