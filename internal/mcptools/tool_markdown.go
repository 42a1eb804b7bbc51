package mcptools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/webrag/internal/infrastructure/chunking"
)

// RegisterMarkdownSectionsTool registers the split_markdown_sections tool
func RegisterMarkdownSectionsTool(mcpServer *server.MCPServer) {
	splitSectionsTool := mcp.NewTool("split_markdown_sections",
		mcp.WithDescription("Split a markdown document into heading-delimited sections (#, ## and ### headings, plus <h1>-<h3> tags). Content before the first heading becomes a leading section."),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("The markdown document to split"),
		),
	)
	mcpServer.AddTool(splitSectionsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		document, ok := args["document"].(string)
		if !ok || document == "" {
			return mcp.NewToolResultError("document parameter is required"), nil
		}

		sections := chunking.MarkdownSections(document)
		if len(sections) == 0 {
			return mcp.NewToolResultError("no sections generated from the document"), nil
		}

		result := map[string]any{
			"sections": sections,
			"count":    len(sections),
		}
		resultJSON, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(resultJSON)), nil
	})
}
