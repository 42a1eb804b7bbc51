package main

import (
	"log"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/webrag/internal/config"
	"github.com/kirillkom/webrag/internal/infrastructure/chunking"
	"github.com/kirillkom/webrag/internal/mcptools"
	"github.com/kirillkom/webrag/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("mcp", cfg.LogLevel))

	var tokenizer chunking.Tokenizer
	if cfg.TokenizerEncoding != "" {
		tok, err := chunking.LoadTokenizer(cfg.TokenizerEncoding)
		if err != nil {
			slog.Warn("tokenizer_unavailable", "encoding", cfg.TokenizerEncoding, "error", err)
		} else {
			tokenizer = tok
		}
	}

	mcpServer := server.NewMCPServer(
		"webrag",
		"0.1.0",
	)
	mcptools.RegisterTools(mcpServer, tokenizer)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
