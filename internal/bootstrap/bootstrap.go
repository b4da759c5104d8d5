package bootstrap

import (
	"context"
	"fmt"

	"github.com/yemyatmin/shop-assistant/internal/config"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
	"github.com/yemyatmin/shop-assistant/internal/core/usecase"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/chunking"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/embedding/ollama"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/extractor/file"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/llm/openrouter"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/memory"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/queue/nats"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/repository/postgres"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Chat     ports.ChatService
	Ingest   ports.DocumentIngestor
	Backfill ports.CatalogBackfiller
	Memory   ports.TurnMemory
	Events   ports.IngestionEvents

	chatUC  *usecase.ChatUseCase
	closeFn func()
}

// ObserveTurns routes chat pipeline events to o. Call before serving traffic.
func (a *App) ObserveTurns(o usecase.TurnObserver) {
	a.chatUC.SetObserver(o)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	products := postgres.NewProductRepository(db, cfg.EmbeddingDim)
	if err := products.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure products schema: %w", err)
	}
	fragments := postgres.NewFragmentRepository(db, cfg.EmbeddingDim)
	if err := fragments.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure fragments schema: %w", err)
	}
	querier := postgres.NewReadOnlyQuerier(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIngestSubject, cfg.NATSBackfillSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	generator := openrouter.New(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, executor)
	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := file.NewExtractor()

	decomposer := usecase.NewDecomposer(generator)
	structured := usecase.NewStructuredPipeline(generator, querier)

	chatUC := usecase.NewChatUseCase(decomposer, structured, embedder, products, fragments, generator, cfg.RAGTopK)
	ingestUC := usecase.NewIngestUseCase(extractor, chunker, embedder, fragments, cfg.EmbeddingDim)
	backfillUC := usecase.NewBackfillUseCase(products, embedder, cfg.EmbeddingDim)
	turnMemory := memory.NewTurnMemory(cfg.MemoryWindow)

	return &App{
		Config: cfg,

		Chat:     chatUC,
		Ingest:   ingestUC,
		Backfill: backfillUC,
		Memory:   turnMemory,
		Events:   queue,

		chatUC:  chatUC,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
