package youtube

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathPrefixes are the first path segments that are followed by the ID.
var pathPrefixes = map[string]bool{
	"embed":  true,
	"shorts": true,
	"live":   true,
	"v":      true,
	"e":      true,
}

// ValidVideoID reports whether id is a canonical 11-character video ID.
func ValidVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}

// ResolveVideoID turns a bare ID or a YouTube URL into the canonical ID.
// Accepted URL shapes: watch?v=, youtu.be/, embed/, shorts/, live/, v/, on
// www., m., music. and youtube-nocookie.com hosts, with or without scheme.
func ResolveVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if ValidVideoID(s) {
		return s, nil
	}
	if s == "" {
		return "", transcript.Errorf(transcript.KindInvalidIdentifier, "", "video id or URL is required")
	}

	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", transcript.Wrap(transcript.KindInvalidIdentifier, "", "unparseable URL "+quote(input), err)
	}

	host := strings.ToLower(u.Hostname())
	for _, p := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, p)
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	var id string
	switch host {
	case "youtu.be":
		if len(parts) > 0 {
			id = parts[0]
		}
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case len(parts) == 1 && parts[0] == "watch":
			id = u.Query().Get("v")
		case len(parts) >= 2 && pathPrefixes[parts[0]]:
			id = parts[1]
		}
	}

	if !ValidVideoID(id) {
		return "", transcript.Errorf(transcript.KindInvalidIdentifier, "", "no video id in %s", quote(input))
	}
	return id, nil
}

func quote(s string) string {
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return `"` + s + `"`
}
