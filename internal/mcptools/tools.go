// Package mcptools exposes the chunking engine as MCP tools.
package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/webrag/internal/infrastructure/chunking"
)

// RegisterTools registers the chunking tools with the server. tokenizer may
// be nil; tools then measure chunk sizes in characters.
func RegisterTools(mcpServer *server.MCPServer, tokenizer chunking.Tokenizer) {
	RegisterChunkTextTool(mcpServer, tokenizer)
	RegisterMarkdownSectionsTool(mcpServer)
}
