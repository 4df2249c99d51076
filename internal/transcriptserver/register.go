package transcriptserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 5

// RegisterTools registers the transcript tools on the given MCP server:
// transcript_fetch, transcript_get, transcript_search, transcript_list,
// transcript_find.
func RegisterTools(server *mcp.Server, svc *Service) {
	registerFetch(server, svc)
	registerGet(server, svc)
	registerSearch(server, svc)
	registerList(server, svc)
	registerFind(server, svc)
}
