package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/webrag/internal/core/domain"
	"github.com/kirillkom/webrag/internal/core/ports"
)

type ProcessPageUseCase struct {
	repo     ports.PageRepository
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.ChunkIndex
}

func NewProcessPageUseCase(
	repo ports.PageRepository,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.ChunkIndex,
) *ProcessPageUseCase {
	return &ProcessPageUseCase{
		repo:     repo,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
	}
}

func (uc *ProcessPageUseCase) ProcessByID(ctx context.Context, pageID string) error {
	if err := uc.markStatus(ctx, pageID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, pageID); err != nil {
		if failErr := uc.markFailed(ctx, pageID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, pageID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

func (uc *ProcessPageUseCase) processPipeline(ctx context.Context, pageID string) error {
	page, err := uc.loadPage(ctx, pageID)
	if err != nil {
		return err
	}

	chunks, err := uc.chunk(page.Content)
	if err != nil {
		return err
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return err
	}

	if err := uc.index.IndexChunks(ctx, page, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector store: %w", err)
	}
	return nil
}

func (uc *ProcessPageUseCase) loadPage(ctx context.Context, pageID string) (*domain.Page, error) {
	page, err := uc.repo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("fetch page by id: %w", err)
	}
	if page.Content == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load page", errors.New("empty page content"))
	}
	return page, nil
}

func (uc *ProcessPageUseCase) chunk(text string) ([]string, error) {
	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk page", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (uc *ProcessPageUseCase) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessPageUseCase) markStatus(ctx context.Context, pageID string, status domain.PageStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, pageID, status, errMessage)
}

func (uc *ProcessPageUseCase) markFailed(ctx context.Context, pageID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, pageID, domain.StatusFailed, processErr.Error())
}
