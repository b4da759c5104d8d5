package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("MEMORY_WINDOW", "")
	t.Setenv("NATS_INGEST_SUBJECT", "")
	t.Setenv("NATS_BACKFILL_SUBJECT", "")
	t.Setenv("OPENROUTER_BASE_URL", "")

	cfg := Load()
	if cfg.EmbeddingDim != 768 {
		t.Fatalf("expected default embedding dim 768, got %d", cfg.EmbeddingDim)
	}
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.MemoryWindow != 1 {
		t.Fatalf("expected default memory window 1, got %d", cfg.MemoryWindow)
	}
	if cfg.NATSIngestSubject != "documents.ingest" || cfg.NATSBackfillSubject != "catalog.backfill" {
		t.Fatalf("unexpected default subjects: %q %q", cfg.NATSIngestSubject, cfg.NATSBackfillSubject)
	}
	if cfg.OpenRouterBaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected default base url %q", cfg.OpenRouterBaseURL)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "1024")
	t.Setenv("RAG_TOP_K", "8")
	t.Setenv("MEMORY_WINDOW", "3")
	t.Setenv("OPENROUTER_MODEL", "deepseek/deepseek-chat")

	cfg := Load()
	if cfg.EmbeddingDim != 1024 {
		t.Fatalf("expected embedding dim 1024, got %d", cfg.EmbeddingDim)
	}
	if cfg.RAGTopK != 8 {
		t.Fatalf("expected top k 8, got %d", cfg.RAGTopK)
	}
	if cfg.MemoryWindow != 3 {
		t.Fatalf("expected memory window 3, got %d", cfg.MemoryWindow)
	}
	if cfg.OpenRouterModel != "deepseek/deepseek-chat" {
		t.Fatalf("expected model override, got %q", cfg.OpenRouterModel)
	}
}

func TestLoadFallsBackOnUnparsableInt(t *testing.T) {
	t.Setenv("RAG_TOP_K", "many")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected fallback top k 5, got %d", cfg.RAGTopK)
	}
}
