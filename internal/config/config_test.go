package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.RetrievalTopK != 3 {
		t.Errorf("expected default top-k 3, got %d", cfg.RetrievalTopK)
	}
	if cfg.VectorCollection != "clinic-records" {
		t.Errorf("expected default collection clinic-records, got %s", cfg.VectorCollection)
	}
	if cfg.AIEmbedModel != "text-embedding-3-small" {
		t.Errorf("unexpected embed model %s", cfg.AIEmbedModel)
	}
	if cfg.VectorDim != 1536 {
		t.Errorf("expected default vector dim 1536, got %d", cfg.VectorDim)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should name DATABASE_URL, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic")
	t.Setenv("PORT", "9090")
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("VECTOR_URL", "http://qdrant:6333")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.RetrievalTopK != 5 {
		t.Errorf("expected top-k 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.VectorURL != "http://qdrant:6333" {
		t.Errorf("expected overridden vector url, got %s", cfg.VectorURL)
	}
}

func TestValidate_Production(t *testing.T) {
	cfg := &Config{
		Env:           "production",
		RetrievalTopK: 3,
		VectorDim:     1536,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without AI_API_KEY")
	}

	cfg.AIAPIKey = "sk-test"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without AUTH_SIGNING_KEY")
	}

	cfg.AuthSigningKey = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short signing key")
	}

	cfg.AuthSigningKey = strings.Repeat("k", 32)
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_TopK(t *testing.T) {
	cfg := &Config{Env: "development", RetrievalTopK: 0, VectorDim: 1536}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive top-k")
	}
}

func TestValidate_VectorDim(t *testing.T) {
	cfg := &Config{Env: "development", RetrievalTopK: 3}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive vector dimension")
	}
}
