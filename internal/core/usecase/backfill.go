package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

// BackfillUseCase embeds catalog rows that are missing serialized text or an
// embedding. Re-running it over identical source text yields bit-identical
// stored vectors: the serialized text is deterministic and the vector is
// padded or truncated to the configured dimension before storage.
type BackfillUseCase struct {
	catalog  ports.CatalogStore
	embedder ports.Embedder
	dim      int
}

func NewBackfillUseCase(catalog ports.CatalogStore, embedder ports.Embedder, dim int) *BackfillUseCase {
	if dim <= 0 {
		dim = 768
	}
	return &BackfillUseCase{catalog: catalog, embedder: embedder, dim: dim}
}

// Backfill returns the number of rows updated. Rows whose embedding call fails
// are skipped with a warning so one bad row cannot stall the whole pass.
func (uc *BackfillUseCase) Backfill(ctx context.Context) (int, error) {
	rows, err := uc.catalog.ListMissingEmbeddings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rows missing embeddings: %w", err)
	}

	updated := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		text := strings.TrimSpace(row.SerializedText)
		if text == "" {
			text = SerializeCatalogItem(row.Item)
		}

		vector, err := uc.embedder.EmbedQuery(ctx, text)
		if err != nil {
			slog.Warn("backfill_embed_failed", "product_id", row.Item.ID, "error", err)
			continue
		}
		vector = fitDimension(vector, uc.dim)

		if err := uc.catalog.SaveEmbedding(ctx, row.Item.ID, text, vector); err != nil {
			return updated, fmt.Errorf("save embedding for product %d: %w", row.Item.ID, err)
		}
		updated++
	}
	return updated, nil
}

// SerializeCatalogItem builds the language-inclusive text a product embedding
// is computed from. Both English and Myanmar fields are included so the vector
// supports queries in either language.
func SerializeCatalogItem(item domain.CatalogItem) string {
	parts := []string{
		fmt.Sprintf("id: %d", item.ID),
		"name: " + collapseSpace(item.Name),
		"name_mm: " + collapseSpace(item.NameMM),
		"description: " + collapseSpace(item.Description),
		"description_mm: " + collapseSpace(item.DescriptionMM),
		"category: " + collapseSpace(item.Category),
		"brand: " + collapseSpace(item.Brand),
		"price: " + collapseSpace(item.Price),
		fmt.Sprintf("stock_quantity: %d", item.StockQuantity),
	}
	return strings.Join(parts, " | ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fitDimension pads with zeros or truncates so the stored vector always
// matches the collection's configured dimension. Query-time vectors are used
// as returned by the embedder.
func fitDimension(vector []float32, dim int) []float32 {
	switch {
	case len(vector) == dim:
		return vector
	case len(vector) > dim:
		return vector[:dim]
	default:
		out := make([]float32, dim)
		copy(out, vector)
		return out
	}
}
