package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("RETRIEVAL_SEMANTIC_WEIGHT", "")
	t.Setenv("RETRIEVAL_KEYWORD_WEIGHT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalSemanticWeight != 0.7 {
		t.Fatalf("expected default semantic weight 0.7, got %v", cfg.RetrievalSemanticWeight)
	}
	if cfg.RetrievalKeywordWeight != 0.3 {
		t.Fatalf("expected default keyword weight 0.3, got %v", cfg.RetrievalKeywordWeight)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 100 {
		t.Fatalf("expected default chunking 1000/100, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.NATSSubject != "books.ingest" {
		t.Fatalf("expected default subject books.ingest, got %q", cfg.NATSSubject)
	}
	if cfg.MaxInFlight != 128 || cfg.QueueWaitMS != 100 {
		t.Fatalf("expected default backpressure 128/100ms, got %d/%d", cfg.MaxInFlight, cfg.QueueWaitMS)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RETRIEVAL_TOP_K", "12")
	t.Setenv("RETRIEVAL_SEMANTIC_WEIGHT", "0.6")
	t.Setenv("RETRIEVAL_KEYWORD_WEIGHT", "0.4")
	t.Setenv("QDRANT_COLLECTION", "library")
	t.Setenv("MAX_IN_FLIGHT", "16")
	t.Setenv("QUEUE_WAIT_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RetrievalTopK != 12 {
		t.Fatalf("expected top k 12, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalSemanticWeight != 0.6 || cfg.RetrievalKeywordWeight != 0.4 {
		t.Fatalf("expected weights 0.6/0.4, got %v/%v", cfg.RetrievalSemanticWeight, cfg.RetrievalKeywordWeight)
	}
	if cfg.QdrantCollection != "library" {
		t.Fatalf("expected collection override, got %q", cfg.QdrantCollection)
	}
	if cfg.MaxInFlight != 16 || cfg.QueueWaitMS != 250 {
		t.Fatalf("expected backpressure 16/250ms, got %d/%d", cfg.MaxInFlight, cfg.QueueWaitMS)
	}
}

func TestLoadOverlaysYAMLFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("retrieval_top_k: 9\napi_port: \"9999\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7070")
	t.Setenv("RETRIEVAL_TOP_K", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RetrievalTopK != 9 {
		t.Fatalf("expected file value top k 9, got %d", cfg.RetrievalTopK)
	}
	if cfg.APIPort != "7070" {
		t.Fatalf("expected env to win over file, got %q", cfg.APIPort)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("retrieval_top_k: [broken"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want parse failure")
	}
}
