package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

func newQuerierWithMock(t *testing.T) (*ReadOnlyQuerier, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewReadOnlyQuerier(db), mock, func() { _ = db.Close() }
}

func TestQueryReadOnlyStringifiesRows(t *testing.T) {
	q, mock, done := newQuerierWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, price FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"name", "price"}).
			AddRow("Air Zoom", 49.99).
			AddRow("Classic Tee", nil))
	mock.ExpectCommit()

	result, err := q.QueryReadOnly(context.Background(), "SELECT name, price FROM products ORDER BY price;")
	if err != nil {
		t.Fatalf("QueryReadOnly() error = %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "name" {
		t.Fatalf("columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %v", result.Rows)
	}
	if result.Rows[0][1] != "49.99" {
		t.Fatalf("numeric value not stringified: %v", result.Rows[0])
	}
	if result.Rows[1][1] != "NULL" {
		t.Fatalf("null value = %q, want NULL", result.Rows[1][1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryReadOnlyRejectsWriteStatements(t *testing.T) {
	q, _, done := newQuerierWithMock(t)
	defer done()

	cases := []struct {
		name  string
		query string
	}{
		{"delete", "DELETE FROM products"},
		{"update", "UPDATE products SET price = 0"},
		{"multi statement", "SELECT 1; DROP TABLE products"},
		{"select wrapping drop", "SELECT 1 WHERE EXISTS (SELECT 1) AND 'drop table' = 'x' OR drop IS NULL"},
		{"empty", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := q.QueryReadOnly(context.Background(), tc.query)
			if err == nil {
				t.Fatalf("expected rejection for %q", tc.query)
			}
			if !domain.IsKind(err, domain.ErrForbiddenQuery) {
				t.Fatalf("expected ErrForbiddenQuery, got %v", err)
			}
		})
	}
}

func TestQueryReadOnlyAllowsCTE(t *testing.T) {
	q, mock, done := newQuerierWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("WITH cheap AS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectCommit()

	result, err := q.QueryReadOnly(context.Background(), "WITH cheap AS (SELECT * FROM products WHERE price < 10) SELECT COUNT(*) FROM cheap")
	if err != nil {
		t.Fatalf("QueryReadOnly() error = %v", err)
	}
	if result.Rows[0][0] != "4" {
		t.Fatalf("rows = %v", result.Rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
