package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

// productTableSchema is the only schema the generated queries may touch.
const productTableSchema = `Table: products
Columns:
- id (integer)
- name (text): product name in English
- name_mm (text): product name in Myanmar
- description (text): English description
- description_mm (text): Myanmar description
- category (text)
- brand (text)
- price (numeric): the cost of the item
- stock_quantity (integer): how many items are available`

// StructuredPipeline translates a sub-query into a read-only SQL statement,
// executes it, and folds the result (or its failure) into a grounding context
// block. The prompt forbids writes; the querier enforces the same restriction
// at execution level.
type StructuredPipeline struct {
	generator ports.TextGenerator
	querier   ports.ReadOnlyQuerier
	observer  TurnObserver
}

func NewStructuredPipeline(generator ports.TextGenerator, querier ports.ReadOnlyQuerier) *StructuredPipeline {
	return &StructuredPipeline{generator: generator, querier: querier, observer: nopObserver{}}
}

// RunStructured returns a context block for the sub-query. Execution failures
// are represented textually so the synthesizer can apologize instead of
// hallucinating; only language-model transport errors are returned.
func (p *StructuredPipeline) RunStructured(ctx context.Context, subQuery string) (string, error) {
	raw, err := p.generator.Generate(ctx, buildSQLPrompt(subQuery))
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}
	query := stripCodeFences(raw)

	result, err := p.querier.QueryReadOnly(ctx, query)
	if err != nil {
		slog.Warn("structured_query_failed", "error", err)
		p.observer.StructuredFailure()
		return fmt.Sprintf("Database data could not be retrieved. Error: %s", err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analytical data (from query %s):\n", query)
	b.WriteString(strings.Join(result.Columns, " | "))
	for _, row := range result.Rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String(), nil
}

func buildSQLPrompt(subQuery string) string {
	return fmt.Sprintf(`You are a SQL expert. Convert the user question into a standard PostgreSQL query.

%s

Rules:
1. Return ONLY the SQL string. No markdown, no explanations.
2. Use ILIKE for text matching.
3. If the user asks for 'products lower than 50', use 'WHERE price < 50'.
4. If the user asks for a count, use COUNT(*).
5. Do not use INSERT, UPDATE, or DELETE. Read-only.
6. Only select the name column when listing products.
7. Make sure the SQL is valid PostgreSQL and references only existing columns.

User question: %s
SQL:`, productTableSchema, subQuery)
}
