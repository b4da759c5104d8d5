package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

func newFragmentRepoWithMock(t *testing.T) (*FragmentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &FragmentRepository{db: db, dim: 768}, mock, func() { _ = db.Close() }
}

func TestUpsertFragmentConflictsOnChunkIndex(t *testing.T) {
	repo, mock, done := newFragmentRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs(3, "raw text", "Shop > Shipping\nraw text", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpsertFragment(context.Background(), domain.DocumentFragment{
		ChunkIndex:         3,
		ChunkText:          "raw text",
		ContextualizedText: "Shop > Shipping\nraw text",
	}, []float32{0.1, 0.2})
	if err != nil {
		t.Fatalf("UpsertFragment() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFragmentSearchSimilarScansFields(t *testing.T) {
	repo, mock, done := newFragmentRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "chunk_index", "chunk_text", "contextualized_text", "similarity"}).
		AddRow(1, 0, "free shipping over $30", "Shop > Shipping\nfree shipping over $30", 0.88)

	mock.ExpectQuery("SELECT id, chunk_index, chunk_text").
		WithArgs(sqlmock.AnyArg(), 3).
		WillReturnRows(rows)

	frags, err := repo.SearchSimilar(context.Background(), []float32{0.5}, 3)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(frags) != 1 || frags[0].Similarity != 0.88 || frags[0].ChunkIndex != 0 {
		t.Fatalf("unexpected fragments: %+v", frags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
