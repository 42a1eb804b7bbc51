package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/webrag/internal/core/domain"
	"github.com/kirillkom/webrag/internal/core/ports"
)

type IngestSiteUseCase struct {
	crawler ports.SiteCrawler
	repo    ports.PageRepository
	queue   ports.MessageQueue
	graph   ports.LinkGraph
}

func NewIngestSiteUseCase(
	crawler ports.SiteCrawler,
	repo ports.PageRepository,
	queue ports.MessageQueue,
	graph ports.LinkGraph,
) *IngestSiteUseCase {
	return &IngestSiteUseCase{
		crawler: crawler,
		repo:    repo,
		queue:   queue,
		graph:   graph,
	}
}

// IngestSite crawls startURL, persists every page, records discovered links
// and publishes one processing event per stored page. A page that fails to
// persist aborts the crawl; a link-graph failure only logs, the graph is
// advisory.
func (uc *IngestSiteUseCase) IngestSite(ctx context.Context, startURL string) (*domain.CrawlReport, error) {
	report := &domain.CrawlReport{StartURL: startURL}

	err := uc.crawler.Crawl(ctx, startURL, func(visitCtx context.Context, crawled domain.CrawledPage) error {
		report.PagesCrawled++

		now := time.Now().UTC()
		page := &domain.Page{
			ID:        uuid.NewString(),
			URL:       crawled.URL,
			Content:   crawled.Content,
			MimeType:  crawled.MimeType,
			Depth:     crawled.Depth,
			Status:    domain.StatusCrawled,
			FetchedAt: now,
			UpdatedAt: now,
		}
		if err := uc.repo.Create(visitCtx, page); err != nil {
			return fmt.Errorf("persist page %s: %w", crawled.URL, err)
		}

		if uc.graph != nil && len(crawled.Outlinks) > 0 {
			if err := uc.graph.RecordLinks(visitCtx, crawled.URL, crawled.Outlinks); err != nil {
				slog.Warn("link_graph_record_failed", "url", crawled.URL, "error", err)
			} else {
				report.LinksRecorded += len(crawled.Outlinks)
			}
		}

		if err := uc.queue.PublishPageCrawled(visitCtx, page.ID); err != nil {
			return fmt.Errorf("publish page event %s: %w", page.ID, err)
		}
		report.PagesPublished++
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("crawl %s: %w", startURL, err)
	}
	return report, nil
}
