package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newProductRepoWithMock(t *testing.T) (*ProductRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ProductRepository{db: db, dim: 768}, mock, func() { _ = db.Close() }
}

func TestSearchSimilarScansSimilarity(t *testing.T) {
	repo, mock, done := newProductRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "name", "name_mm", "description", "description_mm",
		"category", "brand", "price", "stock_quantity", "similarity",
	}).
		AddRow(1, "Air Zoom", "အဲယားဇွန်း", "running shoe", "", "Shoes", "Nike", "49.99", 3, 0.91).
		AddRow(2, "Classic Tee", "", "", "", "Apparel", "Uniqlo", "9.99", 0, 0.74)

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnRows(rows)

	items, err := repo.SearchSimilar(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Name != "Air Zoom" || items[0].Similarity != 0.91 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Price != "9.99" || items[1].StockQuantity != 0 {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListMissingEmbeddingsReturnsSerializedText(t *testing.T) {
	repo, mock, done := newProductRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "name", "name_mm", "description", "description_mm",
		"category", "brand", "price", "stock_quantity", "serialized_text",
	}).AddRow(7, "Tee", "", "", "", "Apparel", "", "9.99", 5, "cached text")

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WillReturnRows(rows)

	out, err := repo.ListMissingEmbeddings(context.Background())
	if err != nil {
		t.Fatalf("ListMissingEmbeddings() error = %v", err)
	}
	if len(out) != 1 || out[0].SerializedText != "cached text" || out[0].Item.ID != 7 {
		t.Fatalf("unexpected rows: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveEmbeddingRejectsUnknownProduct(t *testing.T) {
	repo, mock, done := newProductRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE products").
		WithArgs(int64(99), "text", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveEmbedding(context.Background(), 99, "text", []float32{0.1})
	if err == nil {
		t.Fatalf("expected error for unknown product")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
