package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

type FragmentRepository struct {
	db  *sql.DB
	dim int
}

func NewFragmentRepository(db *sql.DB, dim int) *FragmentRepository {
	if dim <= 0 {
		dim = 768
	}
	return &FragmentRepository{db: db, dim: dim}
}

func (r *FragmentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082602)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS document_chunks (
	id BIGSERIAL PRIMARY KEY,
	chunk_index INT NOT NULL UNIQUE,
	chunk_text TEXT NOT NULL,
	contextualized_text TEXT,
	embedding vector(%d)
);

CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding ON document_chunks USING hnsw (embedding vector_cosine_ops);
`, r.dim)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// UpsertFragment keys on chunk_index so re-ingesting a document replaces its
// fragments instead of duplicating them.
func (r *FragmentRepository) UpsertFragment(ctx context.Context, frag domain.DocumentFragment, vector []float32) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO document_chunks (chunk_index, chunk_text, contextualized_text, embedding)
VALUES ($1,$2,$3,$4)
ON CONFLICT (chunk_index) DO UPDATE
SET chunk_text = EXCLUDED.chunk_text,
	contextualized_text = EXCLUDED.contextualized_text,
	embedding = EXCLUDED.embedding
`, frag.ChunkIndex, frag.ChunkText, frag.ContextualizedText, pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("upsert fragment %d: %w", frag.ChunkIndex, err)
	}
	return nil
}

func (r *FragmentRepository) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]domain.DocumentFragment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, chunk_index, chunk_text, COALESCE(contextualized_text, ''),
	1 - (embedding <=> $1) AS similarity
FROM document_chunks
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1
LIMIT $2
`, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("search fragments: %w", err)
	}
	defer rows.Close()

	var frags []domain.DocumentFragment
	for rows.Next() {
		var frag domain.DocumentFragment
		if err := rows.Scan(&frag.ID, &frag.ChunkIndex, &frag.ChunkText, &frag.ContextualizedText, &frag.Similarity); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		frags = append(frags, frag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragments: %w", err)
	}
	return frags, nil
}
