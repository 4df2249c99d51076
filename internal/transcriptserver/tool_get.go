package transcriptserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// GetInput is the input for transcript_get.
type GetInput struct {
	Video             string   `json:"video" jsonschema:"YouTube video ID or URL of a fetched transcript"`
	TimeRangeStartSec *float64 `json:"time_range_start_sec,omitempty" jsonschema:"Start of a time range in seconds (inclusive). Takes precedence over window_index"`
	TimeRangeEndSec   *float64 `json:"time_range_end_sec,omitempty" jsonschema:"End of a time range in seconds (exclusive). Default: end of video"`
	WindowIndex       *int     `json:"window_index,omitempty" jsonschema:"Zero-based index of a fixed-size time window"`
	WindowSizeSec     *int     `json:"window_size_sec,omitempty" jsonschema:"Window size in seconds for window_index (default: the server window size, 120 unless configured)"`
	IncludeFullText   bool     `json:"include_full_text,omitempty" jsonschema:"Return the whole transcript even when it is long"`
	IncludeSegments   bool     `json:"include_segments,omitempty" jsonschema:"Also return the timed segments of the selected text"`
	Rewrite           bool     `json:"rewrite,omitempty" jsonschema:"Clean up punctuation of the returned text with the configured LLM"`
}

func registerGet(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_get",
		Description: "Read a stored transcript within a context budget. Precedence: time range (time_range_start_sec/time_range_end_sec), then window_index, then full text (when requested or short), otherwise a preview with hints on how to read more. Does not contact YouTube; call transcript_fetch first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, *GetResult, error) {
		if strings.TrimSpace(input.Video) == "" {
			return nil, nil, errors.New("video is required")
		}
		result, err := svc.Get(ctx, input.Video, GetOptions{
			RetrieveOptions: transcript.RetrieveOptions{
				TimeRangeStartSec: input.TimeRangeStartSec,
				TimeRangeEndSec:   input.TimeRangeEndSec,
				WindowIndex:       input.WindowIndex,
				WindowSizeSec:     input.WindowSizeSec,
				IncludeFullText:   input.IncludeFullText,
			},
			IncludeSegments: input.IncludeSegments,
			Rewrite:         input.Rewrite,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
