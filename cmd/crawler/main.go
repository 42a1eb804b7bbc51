package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/webrag/internal/bootstrap"
	"github.com/kirillkom/webrag/internal/config"
	"github.com/kirillkom/webrag/internal/observability/logging"
)

func main() {
	startURL := flag.String("url", "", "start URL to crawl (required)")
	depth := flag.Int("depth", -1, "override crawl depth limit")
	pageLimit := flag.Int("page-limit", -1, "override crawl page limit")
	flag.Parse()

	if *startURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if *depth >= 0 {
		cfg.MaxDepth = *depth
	}
	if *pageLimit > 0 {
		cfg.PageLimit = *pageLimit
	}
	slog.SetDefault(logging.NewJSONLogger("crawler", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "crawler")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	slog.Info("crawl_start", "url", *startURL, "max_depth", cfg.MaxDepth, "page_limit", cfg.PageLimit)
	report, err := app.IngestUC.IngestSite(ctx, *startURL)
	if report != nil {
		slog.Info("crawl_report",
			"url", report.StartURL,
			"pages_crawled", report.PagesCrawled,
			"pages_published", report.PagesPublished,
			"links_recorded", report.LinksRecorded,
		)
	}
	if err != nil {
		log.Fatalf("crawl error: %v", err)
	}
}
