package domain

// CatalogItem is one product row from the structured store. Similarity is only
// populated when the item was retrieved via vector search.
type CatalogItem struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	NameMM        string  `json:"name_mm"`
	Description   string  `json:"description"`
	DescriptionMM string  `json:"description_mm"`
	Category      string  `json:"category"`
	Brand         string  `json:"brand"`
	Price         string  `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	Similarity    float64 `json:"similarity,omitempty"`
}

// DocumentFragment is one chunk of an ingested reference document.
// ContextualizedText carries the chunk plus surrounding-document context and is
// what gets embedded; ChunkText is the raw chunk.
type DocumentFragment struct {
	ID                 int64   `json:"id"`
	ChunkIndex         int     `json:"chunk_index"`
	ChunkText          string  `json:"chunk_text"`
	ContextualizedText string  `json:"contextualized_text"`
	Similarity         float64 `json:"similarity,omitempty"`
}

// ProductEmbeddingRow is a catalog row selected by the embedding backfill:
// the item plus whatever serialized text is already stored for it.
type ProductEmbeddingRow struct {
	Item           CatalogItem
	SerializedText string
}

// StructuredResult is the literal outcome of a generated read-only query.
type StructuredResult struct {
	Columns []string
	Rows    [][]string
}
