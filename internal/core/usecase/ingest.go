package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

// IngestUseCase runs the offline document pipeline: extract text from a source
// file, split it into contextualized fragments, embed the contextualized
// variants, and upsert each fragment by chunk index so re-ingesting the same
// document is idempotent.
type IngestUseCase struct {
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	fragments ports.FragmentStore
	dim       int
}

func NewIngestUseCase(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	fragments ports.FragmentStore,
	dim int,
) *IngestUseCase {
	if dim <= 0 {
		dim = 768
	}
	return &IngestUseCase{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		fragments: fragments,
		dim:       dim,
	}
}

// IngestFile indexes one source document and returns the fragment count.
func (uc *IngestUseCase) IngestFile(ctx context.Context, path string) (int, error) {
	title, text, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", path, err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("empty extracted text"))
	}

	frags := uc.chunker.Split(title, text)
	if len(frags) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("chunking produced zero fragments"))
	}

	texts := make([]string, len(frags))
	for i, frag := range frags {
		texts[i] = frag.ContextualizedText
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed fragments: %w", err)
	}
	if len(vectors) != len(frags) {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"embed fragments",
			fmt.Errorf("vectors/fragments mismatch: %d/%d", len(vectors), len(frags)),
		)
	}

	for i, frag := range frags {
		if err := uc.fragments.UpsertFragment(ctx, frag, fitDimension(vectors[i], uc.dim)); err != nil {
			return i, fmt.Errorf("upsert fragment %d: %w", frag.ChunkIndex, err)
		}
	}
	return len(frags), nil
}
