package transcriptserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FetchInput is the input for transcript_fetch.
type FetchInput struct {
	Video string `json:"video" jsonschema:"YouTube video ID or URL (watch, youtu.be, shorts, embed, live)"`
}

func registerFetch(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_fetch",
		Description: "Fetch and store the transcript of a YouTube video. Returns metadata (title, language, segment count, duration, window count) and a short preview, never the full text. Already stored videos are returned from storage with cached=true. Call this before transcript_get or transcript_search.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input FetchInput) (*mcp.CallToolResult, *FetchResult, error) {
		if strings.TrimSpace(input.Video) == "" {
			return nil, nil, errors.New("video is required")
		}
		result, err := svc.Fetch(ctx, input.Video)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
