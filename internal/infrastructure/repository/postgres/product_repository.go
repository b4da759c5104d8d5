package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

type ProductRepository struct {
	db  *sql.DB
	dim int
}

func NewProductRepository(db *sql.DB, dim int) *ProductRepository {
	if dim <= 0 {
		dim = 768
	}
	return &ProductRepository{db: db, dim: dim}
}

func (r *ProductRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/bot/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	name_mm TEXT,
	description TEXT,
	description_mm TEXT,
	category TEXT,
	brand TEXT,
	price NUMERIC(12,2) NOT NULL DEFAULT 0,
	stock_quantity INT NOT NULL DEFAULT 0,
	serialized_text TEXT,
	embedding vector(%d)
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);
CREATE INDEX IF NOT EXISTS idx_products_embedding ON products USING hnsw (embedding vector_cosine_ops);
`, r.dim)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SearchSimilar ranks by cosine distance and reports similarity as
// 1 - distance. Rows without an embedding are excluded rather than ranked
// last.
func (r *ProductRepository) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]domain.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, COALESCE(name_mm, ''), COALESCE(description, ''), COALESCE(description_mm, ''),
	COALESCE(category, ''), COALESCE(brand, ''), price::text, stock_quantity,
	1 - (embedding <=> $1) AS similarity
FROM products
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1
LIMIT $2
`, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.NameMM, &item.Description, &item.DescriptionMM,
			&item.Category, &item.Brand, &item.Price, &item.StockQuantity, &item.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}

func (r *ProductRepository) ListMissingEmbeddings(ctx context.Context) ([]domain.ProductEmbeddingRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, COALESCE(name_mm, ''), COALESCE(description, ''), COALESCE(description_mm, ''),
	COALESCE(category, ''), COALESCE(brand, ''), price::text, stock_quantity,
	COALESCE(serialized_text, '')
FROM products
WHERE embedding IS NULL
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list products missing embeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductEmbeddingRow
	for rows.Next() {
		var row domain.ProductEmbeddingRow
		if err := rows.Scan(
			&row.Item.ID, &row.Item.Name, &row.Item.NameMM, &row.Item.Description, &row.Item.DescriptionMM,
			&row.Item.Category, &row.Item.Brand, &row.Item.Price, &row.Item.StockQuantity,
			&row.SerializedText,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return out, nil
}

func (r *ProductRepository) SaveEmbedding(ctx context.Context, id int64, serializedText string, vector []float32) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE products
SET serialized_text = $2, embedding = $3
WHERE id = $1
`, id, serializedText, pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("save product embedding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save product embedding rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found: %d", id)
	}
	return nil
}

// InsertProduct is used by the seed command; new rows start without an
// embedding and are picked up by the next backfill pass.
func (r *ProductRepository) InsertProduct(ctx context.Context, item domain.CatalogItem) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO products (name, name_mm, description, description_mm, category, brand, price, stock_quantity)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`,
		item.Name, item.NameMM, item.Description, item.DescriptionMM,
		item.Category, item.Brand, item.Price, item.StockQuantity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}
