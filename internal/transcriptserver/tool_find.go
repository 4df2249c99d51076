package transcriptserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FindInput is the input for transcript_find.
type FindInput struct {
	Query           string `json:"query,omitempty" jsonschema:"Case-insensitive text matched against title, video ID and transcript text"`
	VideoID         string `json:"video_id,omitempty" jsonschema:"Case-insensitive substring of the video ID"`
	Title           string `json:"title,omitempty" jsonschema:"Case-insensitive substring of the title"`
	Page            int    `json:"page,omitempty" jsonschema:"1-based page number (default: 1)"`
	PageSize        int    `json:"page_size,omitempty" jsonschema:"Items per page (default: 20, max: 100)"`
	Sort            string `json:"sort,omitempty" jsonschema:"Sort order: newest (default), oldest, title"`
	IncludeFullText bool   `json:"include_full_text,omitempty" jsonschema:"Return complete transcript text instead of a 500-character excerpt"`
}

func registerFind(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_find",
		Description: "Find stored transcripts by text, video ID or title. All given filters must match; query matches any of title, video ID or transcript text. Transcript text is cut to 500 characters unless include_full_text is set.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input FindInput) (*mcp.CallToolResult, *ListResult, error) {
		result, err := svc.Find(ctx, FindOptions{
			Query:           input.Query,
			VideoID:         input.VideoID,
			Title:           input.Title,
			Page:            input.Page,
			PageSize:        input.PageSize,
			Sort:            input.Sort,
			IncludeFullText: input.IncludeFullText,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
