package transcriptserver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/youtube"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

// SearchInput is the input for transcript_search.
type SearchInput struct {
	Video      string `json:"video" jsonschema:"YouTube video ID or URL of a fetched transcript"`
	Query      string `json:"query" jsonschema:"Keywords to look for"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum windows to return (default: 5, max: 20)"`
}

func registerSearch(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_search",
		Description: fmt.Sprintf("Keyword search inside a stored transcript. Splits it into %d-second windows, ranks them with BM25 and returns the best matches with MM:SS time ranges (H:MM:SS past the first hour). Use the ranges with transcript_get to read around a hit.", svc.WindowSizeSec()),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, *SearchResult, error) {
		if strings.TrimSpace(input.Video) == "" {
			return nil, nil, errors.New("video is required")
		}
		if strings.TrimSpace(input.Query) == "" {
			return nil, nil, errors.New("query is required")
		}

		// Stored transcripts never change, so a result is valid for the cache TTL.
		var cacheKey string
		if id, err := youtube.ResolveVideoID(input.Video); err == nil {
			cacheKey = engine.CacheKey("transcript_search", id, strings.ToLower(input.Query), strconv.Itoa(input.MaxResults))
			if out, ok := toolutil.CacheLoadJSON[SearchResult](ctx, cacheKey); ok {
				return nil, &out, nil
			}
		}

		result, err := svc.Search(ctx, input.Video, input.Query, input.MaxResults)
		if err != nil {
			return nil, nil, err
		}
		if cacheKey != "" {
			toolutil.CacheStoreJSON(ctx, cacheKey, *result)
		}
		return nil, result, nil
	})
}
