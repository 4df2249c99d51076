package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// Innertube /player constants. The ANDROID identity is what keeps the
// endpoint's caption payload consistent; WEB responses vary per session.
const (
	defaultBaseURL   = "https://www.youtube.com"
	playerPath       = "/youtubei/v1/player"
	androidName      = "ANDROID"
	androidVersion   = "20.10.38"
	androidUserAgent = "com.google.android.youtube/" + androidVersion + " (Linux; U; Android 11) gzip"
)

type playerReq struct {
	Context playerCtx `json:"context"`
	VideoID string    `json:"videoId"`
}

type playerCtx struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

type playerResp struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// CaptionTrack is one entry of the player response's caption track list.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// Playability is either Playable or Blocked.
type Playability interface {
	isPlayability()
}

// Playable means the video can be watched and its captions read.
type Playable struct{}

// Blocked carries the upstream status and its human-readable reason.
type Blocked struct {
	Status string
	Reason string
}

func (Playable) isPlayability() {}
func (Blocked) isPlayability()  {}

// PlayerData is the decoded, validated part of a /player response.
type PlayerData struct {
	Playability Playability
	Tracks      []CaptionTrack
}

func (r *playerResp) toPlayerData() PlayerData {
	var pd PlayerData
	switch st := r.PlayabilityStatus; {
	case st == nil:
		pd.Playability = Blocked{Status: "UNKNOWN", Reason: "player response carried no playability status"}
	case st.Status == "OK":
		pd.Playability = Playable{}
	default:
		reason := st.Reason
		if reason == "" {
			reason = st.Status
		}
		pd.Playability = Blocked{Status: st.Status, Reason: reason}
	}
	if r.Captions != nil {
		pd.Tracks = r.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	}
	return pd
}

// fetchPlayerData POSTs the ANDROID client payload to /player, authenticated
// only by the page's signing key.
func (c *Client) fetchPlayerData(ctx context.Context, videoID, apiKey string) (PlayerData, error) {
	body, err := json.Marshal(playerReq{
		Context: playerCtx{Client: playerClient{
			ClientName:    c.clientName,
			ClientVersion: c.clientVersion,
		}},
		VideoID: videoID,
	})
	if err != nil {
		return PlayerData{}, transcript.Wrap(transcript.KindInternal, videoID, "encode player request", err)
	}

	if err := c.wait(ctx); err != nil {
		return PlayerData{}, transcript.Wrap(transcript.KindUpstream, videoID, "player request not sent", err)
	}
	endpoint := c.baseURL + playerPath + "?key=" + url.QueryEscape(apiKey) + "&prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return PlayerData{}, transcript.Wrap(transcript.KindInternal, videoID, "build player request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := c.http.Do(req)
	if err != nil {
		return PlayerData{}, transcript.Wrap(transcript.KindUpstream, videoID, "player request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, videoID, "player"); err != nil {
		return PlayerData{}, err
	}

	var pr playerResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPlayerBytes)).Decode(&pr); err != nil {
		return PlayerData{}, transcript.Wrap(transcript.KindUpstreamStructureChanged, videoID, "decode player response", err)
	}
	return pr.toPlayerData(), nil
}

// checkPlayability turns a Blocked status into a NotPlayable error.
func checkPlayability(videoID string, p Playability) error {
	switch p := p.(type) {
	case Playable:
		return nil
	case Blocked:
		return transcript.Errorf(transcript.KindNotPlayable, videoID, "%s", p.Reason)
	default:
		return transcript.Errorf(transcript.KindInternal, videoID, "unhandled playability %T", p)
	}
}

// checkStatus classifies a non-200 upstream response.
func checkStatus(resp *http.Response, videoID, step string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return classifyStatus(resp.StatusCode, snippet, videoID, step)
}

// classifyStatus maps an HTTP status to a transcript error kind.
func classifyStatus(status int, body []byte, videoID, step string) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return transcript.Errorf(transcript.KindRateLimited, videoID, "%s: upstream returned 429", step)
	default:
		if len(body) > 256 {
			body = body[:256]
		}
		return transcript.Errorf(transcript.KindUpstream, videoID, "%s: HTTP %d: %s", step, status, body)
	}
}
