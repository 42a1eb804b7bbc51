package ports

import (
	"context"

	"github.com/kirillkom/webrag/internal/core/domain"
)

// PageRepository persists and reads crawled page state.
type PageRepository interface {
	Create(ctx context.Context, page *domain.Page) error
	GetByID(ctx context.Context, id string) (*domain.Page, error)
	UpdateStatus(ctx context.Context, id string, status domain.PageStatus, errMessage string) error
}

// SiteCrawler walks a website breadth-first and yields extracted pages.
type SiteCrawler interface {
	Crawl(ctx context.Context, startURL string, visit func(context.Context, domain.CrawledPage) error) error
}

// MessageQueue publishes/consumes page-crawled events.
type MessageQueue interface {
	PublishPageCrawled(ctx context.Context, pageID string) error
	SubscribePageCrawled(ctx context.Context, handler func(context.Context, string) error) error
}

// Chunker splits page text into bounded, semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkIndex stores chunk texts with their vectors for a page.
type ChunkIndex interface {
	IndexChunks(ctx context.Context, page *domain.Page, chunks []string, vectors [][]float32) error
}

// LinkGraph records the page-to-page link structure discovered by the crawler.
type LinkGraph interface {
	RecordLinks(ctx context.Context, fromURL string, toURLs []string) error
}
