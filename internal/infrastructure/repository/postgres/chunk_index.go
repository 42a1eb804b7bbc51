package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/webrag/internal/core/domain"
)

// ChunkIndex stores chunk texts and their embeddings in the page_chunks
// pgvector table. Re-indexing a page replaces its previous chunks.
type ChunkIndex struct {
	db *sql.DB
}

func NewChunkIndex(db *sql.DB) *ChunkIndex {
	return &ChunkIndex{db: db}
}

func (x *ChunkIndex) IndexChunks(ctx context.Context, page *domain.Page, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"index chunks",
			fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors)),
		)
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_chunks WHERE page_id = $1`, page.ID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	now := time.Now().UTC()
	for i, chunk := range chunks {
		_, err := tx.ExecContext(ctx, `
INSERT INTO page_chunks (id, page_id, source_url, position, content, embedding, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
			uuid.NewString(), page.ID, page.URL, i, chunk, encodeVector(vectors[i]), now,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}
	return nil
}

// encodeVector renders a float32 slice in pgvector text format: "[1,2,3]".
func encodeVector(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
