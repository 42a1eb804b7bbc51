// Package crawler walks a website breadth-first and extracts plain text from
// HTML, PDF and plain-text responses, yielding one CrawledPage per URL.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/kirillkom/webrag/internal/core/domain"
	"github.com/kirillkom/webrag/internal/infrastructure/resilience"
)

const defaultUserAgent = "webrag-crawler/1.0"

// maxBodyBytes caps how much of a response is read, HTML or PDF alike.
const maxBodyBytes = 10 << 20

type Crawler struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	maxDepth   int
	pageLimit  int
	userAgent  string
}

type Options struct {
	MaxDepth          int
	PageLimit         int
	FetchTimeout      time.Duration
	RequestsPerSecond float64
	UserAgent         string
	Executor          *resilience.Executor
}

func New(options Options) *Crawler {
	maxDepth := options.MaxDepth
	if maxDepth < 0 {
		maxDepth = 0
	}
	pageLimit := options.PageLimit
	if pageLimit <= 0 {
		pageLimit = 10
	}
	timeout := options.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Crawler{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		executor:   options.Executor,
		maxDepth:   maxDepth,
		pageLimit:  pageLimit,
		userAgent:  userAgent,
	}
}

type queued struct {
	url   string
	depth int
}

// Crawl walks the site breadth-first from startURL, honoring the depth and
// page limits, and calls visit for every page whose text extraction yields
// content. Fetch failures skip the page; a visit error aborts the crawl.
func (c *Crawler) Crawl(ctx context.Context, startURL string, visit func(context.Context, domain.CrawledPage) error) error {
	if !isValidURL(startURL) {
		return domain.WrapError(domain.ErrInvalidInput, "crawl", fmt.Errorf("invalid start url %q", startURL))
	}

	visited := map[string]bool{}
	toVisit := []queued{{url: startURL, depth: 0}}
	pages := 0

	for len(toVisit) > 0 && pages < c.pageLimit {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := toVisit[0]
		toVisit = toVisit[1:]
		if visited[current.url] || current.depth > c.maxDepth {
			continue
		}
		visited[current.url] = true

		page, err := c.fetchPage(ctx, current.url, current.depth)
		if err != nil {
			slog.Warn("fetch_failed", "url", current.url, "error", err)
			continue
		}
		if page == nil || page.Content == "" {
			continue
		}

		pages++
		if err := visit(ctx, *page); err != nil {
			return err
		}

		if current.depth < c.maxDepth {
			for _, link := range page.Outlinks {
				if !visited[link] {
					toVisit = append(toVisit, queued{url: link, depth: current.depth + 1})
				}
			}
		}
	}
	return nil
}

func (c *Crawler) fetchPage(ctx context.Context, pageURL string, depth int) (*domain.CrawledPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	var contentType, finalURL string
	fetch := func(callCtx context.Context) error {
		var err error
		body, contentType, finalURL, err = c.get(callCtx, pageURL)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "crawler.fetch", fetch, classifyFetchError)
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	page := &domain.CrawledPage{URL: finalURL, MimeType: mediaType, Depth: depth}
	switch {
	case strings.Contains(mediaType, "text/html"):
		text, links := extractHTML(body, finalURL)
		page.Content = text
		page.Outlinks = links
	case mediaType == "application/pdf":
		text, err := extractPDF(body)
		if err != nil {
			return nil, fmt.Errorf("extract pdf %s: %w", pageURL, err)
		}
		page.Content = text
	case strings.HasPrefix(mediaType, "text/"):
		page.Content = strings.TrimSpace(string(body))
	default:
		slog.Debug("skipping_unsupported_content", "url", pageURL, "content_type", mediaType)
		return nil, nil
	}
	return page, nil
}

func (c *Crawler) get(ctx context.Context, pageURL string) (body []byte, contentType, finalURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, "", "", &httpStatusError{url: pageURL, statusCode: resp.StatusCode, status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", "", fmt.Errorf("read body %s: %w", pageURL, err)
	}
	return data, resp.Header.Get("Content-Type"), resp.Request.URL.String(), nil
}

type httpStatusError struct {
	url        string
	statusCode int
	status     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("fetch %s status: %s", e.url, e.status)
}

func classifyFetchError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// extractHTML returns the visible text of the document (script/style
// stripped, whitespace squashed) and all absolute http(s) links.
func extractHTML(body []byte, baseURL string) (string, []string) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var textParts []string
	var links []string
	seen := map[string]bool{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "a":
				if base != nil {
					if link := hrefOf(n, base); link != "" && !seen[link] {
						seen[link] = true
						links = append(links, link)
					}
				}
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				textParts = append(textParts, squashSpaces(t))
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.Join(textParts, " "), links
}

func hrefOf(n *html.Node, base *url.URL) string {
	for _, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(attr.Val))
		if err != nil {
			return ""
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Scheme != "http" && abs.Scheme != "https" || abs.Host == "" {
			return ""
		}
		return abs.String()
	}
	return ""
}

func squashSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func extractPDF(body []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("drain pdf text: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

func isValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Host != "" && (parsed.Scheme == "http" || parsed.Scheme == "https")
}
