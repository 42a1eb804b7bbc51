// Package bootstrap wires configuration into the application graph shared by
// the crawler, worker and MCP entrypoints.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/webrag/internal/config"
	"github.com/kirillkom/webrag/internal/core/ports"
	"github.com/kirillkom/webrag/internal/core/usecase"
	"github.com/kirillkom/webrag/internal/infrastructure/chunking"
	"github.com/kirillkom/webrag/internal/infrastructure/crawler"
	"github.com/kirillkom/webrag/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/webrag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/webrag/internal/infrastructure/queue/nats"
	"github.com/kirillkom/webrag/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/webrag/internal/infrastructure/resilience"
	"github.com/kirillkom/webrag/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.WorkerMetrics

	Queue     ports.MessageQueue
	Repo      ports.PageRepository
	Splitter  *chunking.Splitter
	IngestUC  ports.SiteIngestor
	ProcessUC ports.PageProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewPageRepository(db)
	if err := repo.EnsureSchema(ctx, cfg.EmbeddingDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkIndex := postgres.NewChunkIndex(db)

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)

	workerMetrics := metrics.NewWorkerMetrics(service)

	splitter, err := newSplitter(cfg, service, workerMetrics)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	siteCrawler := crawler.New(crawler.Options{
		MaxDepth:          cfg.MaxDepth,
		PageLimit:         cfg.PageLimit,
		FetchTimeout:      time.Duration(cfg.FetchTimeoutS) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSec,
		Executor:          executor,
	})

	var linkGraph ports.LinkGraph
	var graphClose func()
	if cfg.Neo4jURI != "" {
		g, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("init link graph: %w", err)
		}
		linkGraph = g
		graphClose = func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = g.Close(closeCtx)
		}
	}

	ingestUC := usecase.NewIngestSiteUseCase(siteCrawler, repo, queue, linkGraph)
	processUC := usecase.NewProcessPageUseCase(
		repo,
		observedChunker{splitter: splitter, metrics: workerMetrics},
		embedder,
		chunkIndex,
	)

	return &App{
		Config:  cfg,
		Metrics: workerMetrics,

		Queue:     queue,
		Repo:      repo,
		Splitter:  splitter,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			if graphClose != nil {
				graphClose()
			}
			_ = db.Close()
		},
	}, nil
}

// newSplitter builds the configured chunker. A tokenizer that fails to load
// only degrades measurement to characters; chunking keeps working.
func newSplitter(cfg config.Config, service string, workerMetrics *metrics.WorkerMetrics) (*chunking.Splitter, error) {
	strategy, err := chunking.ParseStrategy(cfg.ChunkStrategy)
	if err != nil {
		return nil, fmt.Errorf("chunk strategy: %w", err)
	}

	opts := []chunking.Option{
		chunking.WithStrategy(strategy),
		chunking.WithNoticeFunc(func(n chunking.Notice) {
			slog.Warn("chunking_degraded", "kind", string(n.Kind), "detail", n.Message)
			workerMetrics.ChunkingDegraded(service, string(n.Kind))
		}),
	}
	if cfg.TokenizerEncoding != "" {
		tokenizer, err := chunking.LoadTokenizer(cfg.TokenizerEncoding)
		if err != nil {
			slog.Warn("tokenizer_unavailable", "encoding", cfg.TokenizerEncoding, "error", err)
		} else {
			opts = append(opts, chunking.WithTokenizer(tokenizer))
		}
	}

	splitter, err := chunking.NewSplitter(cfg.ChunkMaxSize, cfg.ChunkOverlap, opts...)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}
	return splitter, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// observedChunker reports chunk counts per page to the worker metrics.
type observedChunker struct {
	splitter *chunking.Splitter
	metrics  *metrics.WorkerMetrics
}

func (c observedChunker) Split(text string) []string {
	chunks := c.splitter.Split(text)
	c.metrics.ObserveChunks(len(chunks))
	return chunks
}
