package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/webrag/internal/core/domain"
)

func newIndexWithMock(t *testing.T) (*ChunkIndex, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkIndex{db: db}, mock, func() { _ = db.Close() }
}

func TestIndexChunksReplacesWithinTransaction(t *testing.T) {
	index, mock, done := newIndexWithMock(t)
	defer done()

	page := &domain.Page{ID: "p1", URL: "https://example.com/a"}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM page_chunks").
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO page_chunks").
		WithArgs(sqlmock.AnyArg(), "p1", "https://example.com/a", 0, "chunk one", "[0.5,1]", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO page_chunks").
		WithArgs(sqlmock.AnyArg(), "p1", "https://example.com/a", 1, "chunk two", "[0.25,-3]", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := index.IndexChunks(
		context.Background(),
		page,
		[]string{"chunk one", "chunk two"},
		[][]float32{{0.5, 1}, {0.25, -3}},
	)
	if err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIndexChunksRejectsMismatchedVectors(t *testing.T) {
	index, mock, done := newIndexWithMock(t)
	defer done()

	err := index.IndexChunks(
		context.Background(),
		&domain.Page{ID: "p1"},
		[]string{"a", "b"},
		[][]float32{{0.1}},
	)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEncodeVector(t *testing.T) {
	got := encodeVector([]float32{0.5, -1, 2.25})
	if got != "[0.5,-1,2.25]" {
		t.Fatalf("encodeVector() = %q", got)
	}
	if empty := encodeVector(nil); empty != "[]" {
		t.Fatalf("encodeVector(nil) = %q", empty)
	}
}
