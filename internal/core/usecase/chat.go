package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

const answerSystemPolicy = `You are a helpful product assistant.
Instructions:
- Use the provided context to answer.
- Answer ONLY in Myanmar (Burmese) language.
- Keep product names, brand names, and technical terms in English.
- If multiple pieces of information are requested, combine them into one smooth response.
- IMPORTANT: if the user asks about stock or availability, say only "in stock" or "out of stock". Never state the exact stock number.`

// ChatUseCase orchestrates one conversational turn: decompose the utterance,
// execute every sub-task in list order, assemble the grounding context, and
// stream the synthesized answer.
type ChatUseCase struct {
	decomposer *Decomposer
	structured *StructuredPipeline
	embedder   ports.Embedder
	catalog    ports.CatalogStore
	fragments  ports.FragmentStore
	generator  ports.TextGenerator
	observer   TurnObserver
	topK       int
}

func NewChatUseCase(
	decomposer *Decomposer,
	structured *StructuredPipeline,
	embedder ports.Embedder,
	catalog ports.CatalogStore,
	fragments ports.FragmentStore,
	generator ports.TextGenerator,
	topK int,
) *ChatUseCase {
	if topK <= 0 {
		topK = 5
	}
	return &ChatUseCase{
		decomposer: decomposer,
		structured: structured,
		embedder:   embedder,
		catalog:    catalog,
		fragments:  fragments,
		generator:  generator,
		observer:   nopObserver{},
		topK:       topK,
	}
}

// SetObserver routes pipeline events for this use case and its router and
// structured stages to o. Call before serving traffic.
func (uc *ChatUseCase) SetObserver(o TurnObserver) {
	if o == nil {
		o = nopObserver{}
	}
	uc.observer = o
	uc.decomposer.observer = o
	uc.structured.observer = o
}

// AnswerStream produces the answer for one turn, invoking onDelta for every
// non-empty fragment in provider order, and returns the full buffered answer.
// The stream is single-pass; cancelling ctx stops it. Memory is the caller's
// responsibility and should be recorded only after a nil return.
func (uc *ChatUseCase) AnswerStream(
	ctx context.Context,
	req domain.ChatRequest,
	onDelta func(string) error,
) (string, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = uc.topK
	}

	tasks, err := uc.decomposer.Decompose(ctx, req.Utterance, req.PriorTurn)
	if err != nil {
		return "", fmt.Errorf("decompose query: %w", err)
	}

	// Sub-tasks have no data dependency on each other, but concatenation
	// order must match the sub-task list order.
	blocks := make([]string, 0, len(tasks))
	for _, task := range tasks {
		uc.observer.SubTaskRouted(string(task.Intent))
		block, err := uc.runSubTask(ctx, task, topK)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	prompt := buildAnswerPrompt(strings.Join(blocks, "\n\n"), req.Utterance)

	var full strings.Builder
	err = uc.generator.GenerateStream(ctx, prompt, func(delta string) error {
		if delta == "" {
			return nil
		}
		full.WriteString(delta)
		if onDelta != nil {
			return onDelta(delta)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("stream answer: %w", err)
	}
	return full.String(), nil
}

func (uc *ChatUseCase) runSubTask(ctx context.Context, task domain.SubTask, topK int) (string, error) {
	switch task.Intent {
	case domain.IntentStructured:
		return uc.structured.RunStructured(ctx, task.SubQuery)
	case domain.IntentSemanticCatalog:
		items, err := uc.searchCatalog(ctx, task.SubQuery, topK)
		if err != nil {
			return "", err
		}
		return FormatCatalogContext(items), nil
	case domain.IntentSemanticDocument:
		frags, err := uc.searchDocuments(ctx, task.SubQuery, topK)
		if err != nil {
			return "", err
		}
		return FormatDocumentContext(frags), nil
	default:
		// Unknown intents cannot pass the decomposer's parse boundary.
		return "", domain.WrapError(domain.ErrInvalidInput, "run sub-task", fmt.Errorf("unknown intent %q", task.Intent))
	}
}

func (uc *ChatUseCase) searchCatalog(ctx context.Context, subQuery string, topK int) ([]domain.CatalogItem, error) {
	vector, err := uc.embedder.EmbedQuery(ctx, subQuery)
	if err != nil {
		return nil, fmt.Errorf("embed catalog query: %w", err)
	}
	items, err := uc.catalog.SearchSimilar(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	uc.observer.Retrieval("products", len(items))
	return items, nil
}

func (uc *ChatUseCase) searchDocuments(ctx context.Context, subQuery string, topK int) ([]domain.DocumentFragment, error) {
	vector, err := uc.embedder.EmbedQuery(ctx, subQuery)
	if err != nil {
		return nil, fmt.Errorf("embed document query: %w", err)
	}
	frags, err := uc.fragments.SearchSimilar(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	uc.observer.Retrieval("documents", len(frags))
	return frags, nil
}

func buildAnswerPrompt(groundingContext, utterance string) string {
	return fmt.Sprintf(`System instructions: %s

Gathered context:
%s

User question: %s
Answer (in Myanmar):`, answerSystemPolicy, groundingContext, utterance)
}
