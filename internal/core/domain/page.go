package domain

import "time"

type PageStatus string

const (
	StatusCrawled    PageStatus = "crawled"
	StatusProcessing PageStatus = "processing"
	StatusIndexed    PageStatus = "indexed"
	StatusFailed     PageStatus = "failed"
)

// Page is one crawled document: the extracted text of a single URL.
type Page struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Content   string     `json:"content"`
	MimeType  string     `json:"mime_type"`
	Depth     int        `json:"depth"`
	Status    PageStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CrawledPage is the crawler's raw result before persistence.
type CrawledPage struct {
	URL      string
	Content  string
	MimeType string
	Depth    int
	Outlinks []string
}

// CrawlReport summarizes one pipeline run.
type CrawlReport struct {
	StartURL       string `json:"start_url"`
	PagesCrawled   int    `json:"pages_crawled"`
	PagesPublished int    `json:"pages_published"`
	LinksRecorded  int    `json:"links_recorded"`
}
