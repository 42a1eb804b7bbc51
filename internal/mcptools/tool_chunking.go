package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/webrag/internal/infrastructure/chunking"
)

// RegisterChunkTextTool registers the chunk_text tool
func RegisterChunkTextTool(mcpServer *server.MCPServer, tokenizer chunking.Tokenizer) {
	chunkTextTool := mcp.NewTool("chunk_text",
		mcp.WithDescription("Split text into bounded chunks along semantic boundaries. Oversized units fall back to a sliding window with overlap."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to chunk"),
		),
		mcp.WithNumber("max_size",
			mcp.Required(),
			mcp.Description("Maximum chunk size; tokens when unit is \"token\", characters otherwise"),
		),
		mcp.WithNumber("overlap",
			mcp.Description("Units carried over between consecutive window chunks (default 0, clamped below max_size)"),
		),
		mcp.WithString("strategy",
			mcp.Description("Boundary strategy: paragraph (default), sentence, hierarchical or first_section"),
		),
		mcp.WithString("unit",
			mcp.Description("Measurement unit: \"char\" (default) or \"token\""),
		),
	)
	mcpServer.AddTool(chunkTextTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		text, ok := args["text"].(string)
		if !ok || text == "" {
			return mcp.NewToolResultError("text parameter is required"), nil
		}

		maxSize, ok := args["max_size"].(float64)
		if !ok || maxSize <= 0 {
			return mcp.NewToolResultError("max_size must be a positive number"), nil
		}

		overlap, _ := args["overlap"].(float64)
		if overlap < 0 {
			overlap = 0
		}

		strategyName, _ := args["strategy"].(string)
		strategy := chunking.StrategyParagraph
		if strategyName != "" {
			parsed, err := chunking.ParseStrategy(strategyName)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			strategy = parsed
		}

		unit, _ := args["unit"].(string)
		if unit == "token" && tokenizer == nil {
			return mcp.NewToolResultError("token unit requested but no tokenizer is configured"), nil
		}

		var notices []string
		opts := []chunking.Option{
			chunking.WithStrategy(strategy),
			chunking.WithNoticeFunc(func(n chunking.Notice) {
				notices = append(notices, fmt.Sprintf("%s: %s", n.Kind, n.Message))
			}),
		}
		if unit == "token" {
			opts = append(opts, chunking.WithTokenizer(tokenizer))
		}

		splitter, err := chunking.NewSplitter(int(maxSize), int(overlap), opts...)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		chunks := splitter.Split(text)

		result := map[string]any{
			"chunks":   chunks,
			"count":    len(chunks),
			"strategy": strategy.String(),
		}
		if len(notices) > 0 {
			result["notices"] = notices
		}

		resultJSON, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(resultJSON)), nil
	})
}
