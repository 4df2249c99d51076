package transcriptserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListInput is the input for transcript_list.
type ListInput struct {
	Page     int    `json:"page,omitempty" jsonschema:"1-based page number (default: 1)"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"Items per page (default: 20, max: 100)"`
	Sort     string `json:"sort,omitempty" jsonschema:"Sort order: newest (default), oldest, title"`
}

func registerList(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_list",
		Description: "List stored transcripts with metadata (video ID, title, language, duration, size). Paginated; sort by newest, oldest or title.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *ListResult, error) {
		result, err := svc.List(ctx, input.Page, input.PageSize, input.Sort)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
