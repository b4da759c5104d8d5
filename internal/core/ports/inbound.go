package ports

import (
	"context"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

// ChatService is the inbound contract for one conversational turn. The stream
// of answer deltas is single-pass; adapters that need the full text buffer it
// themselves or use the returned string.
type ChatService interface {
	AnswerStream(ctx context.Context, req domain.ChatRequest, onDelta func(string) error) (string, error)
}

// DocumentIngestor runs the offline document pipeline for one source file and
// reports how many fragments were indexed.
type DocumentIngestor interface {
	IngestFile(ctx context.Context, path string) (int, error)
}

// CatalogBackfiller embeds catalog rows that are missing serialized text or an
// embedding and reports how many rows were updated.
type CatalogBackfiller interface {
	Backfill(ctx context.Context) (int, error)
}
