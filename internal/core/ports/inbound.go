package ports

import (
	"context"

	"github.com/kirillkom/webrag/internal/core/domain"
)

// SiteIngestor is the inbound contract for crawl orchestration.
type SiteIngestor interface {
	IngestSite(ctx context.Context, startURL string) (*domain.CrawlReport, error)
}

// PageProcessor is the inbound contract for asynchronous page processing.
type PageProcessor interface {
	ProcessByID(ctx context.Context, pageID string) error
}
