package ports

import (
	"context"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

// TextGenerator is the language-model completion service. GenerateStream calls
// onDelta for every non-empty text fragment in provider order; returning an
// error from onDelta aborts the stream.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string, onDelta func(string) error) error
}

// Embedder builds fixed-dimension vectors for stored rows and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CatalogStore reads and writes product rows and their embeddings.
type CatalogStore interface {
	SearchSimilar(ctx context.Context, queryVector []float32, limit int) ([]domain.CatalogItem, error)
	ListMissingEmbeddings(ctx context.Context) ([]domain.ProductEmbeddingRow, error)
	SaveEmbedding(ctx context.Context, id int64, serializedText string, vector []float32) error
}

// FragmentStore reads and writes document fragments. Upsert is idempotent on
// the fragment's chunk index.
type FragmentStore interface {
	SearchSimilar(ctx context.Context, queryVector []float32, limit int) ([]domain.DocumentFragment, error)
	UpsertFragment(ctx context.Context, frag domain.DocumentFragment, vector []float32) error
}

// ReadOnlyQuerier executes one generated query against the structured store.
// Implementations must reject anything that is not a single read statement.
type ReadOnlyQuerier interface {
	QueryReadOnly(ctx context.Context, query string) (*domain.StructuredResult, error)
}

// TurnMemory is the per-user bounded conversational state. Record replaces the
// oldest exchange once the window is full; Render returns "" for unseen users.
type TurnMemory interface {
	Record(userID, userMessage, botMessage string)
	Render(userID string) string
}

// IngestionEvents publishes and consumes offline pipeline triggers. Subscribe
// calls register handlers and return; Close drains the subscriptions.
type IngestionEvents interface {
	PublishDocumentIngest(ctx context.Context, sourcePath string) error
	PublishCatalogBackfill(ctx context.Context) error
	SubscribeDocumentIngest(ctx context.Context, handler func(context.Context, string) error) error
	SubscribeCatalogBackfill(ctx context.Context, handler func(context.Context) error) error
}

// TextExtractor pulls plain text (and a display title) out of a source file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (title, text string, err error)
}

// Chunker splits extracted text into fragments with contextualized variants.
type Chunker interface {
	Split(title, text string) []domain.DocumentFragment
}
