package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Qdrant.Collection != "artworks" {
		t.Errorf("qdrant collection = %s, want artworks", cfg.Qdrant.Collection)
	}
	if cfg.Embedding.Model != "jina-embeddings-v3" {
		t.Errorf("embedding model = %s", cfg.Embedding.Model)
	}
	if cfg.Indexer.MaxAttempts != 3 {
		t.Errorf("indexer max attempts = %d, want 3", cfg.Indexer.MaxAttempts)
	}
	if cfg.Indexer.BackoffBase != 5*time.Second {
		t.Errorf("indexer backoff base = %v, want 5s", cfg.Indexer.BackoffBase)
	}
	if cfg.Indexer.JobsPerMinute != 60 {
		t.Errorf("indexer jobs per minute = %d, want 60", cfg.Indexer.JobsPerMinute)
	}
	if cfg.Search.MaxLimit != 100 {
		t.Errorf("search max limit = %d, want 100", cfg.Search.MaxLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JINA_API_KEY", "test-key")
	t.Setenv("QDRANT_API_KEY", "qdrant-key")
	t.Setenv("SEARCH_SCORE_THRESHOLD", "0.35")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Embedding.APIKey != "test-key" {
		t.Errorf("embedding api key = %q, want env value", cfg.Embedding.APIKey)
	}
	if cfg.Qdrant.APIKey != "qdrant-key" {
		t.Errorf("qdrant api key = %q, want env value", cfg.Qdrant.APIKey)
	}
	if cfg.Search.ScoreThreshold != 0.35 {
		t.Errorf("score threshold = %f, want 0.35", cfg.Search.ScoreThreshold)
	}
}

func TestDatabaseDSN(t *testing.T) {
	pg := DatabaseConfig{
		Driver:   "postgres",
		Host:     "db.internal",
		Port:     5432,
		User:     "atelier",
		Password: "secret",
		Name:     "atelier",
		SSLMode:  "require",
	}
	want := "host=db.internal port=5432 user=atelier password=secret dbname=atelier sslmode=require"
	if got := pg.DSN(); got != want {
		t.Errorf("postgres DSN = %q, want %q", got, want)
	}

	lite := DatabaseConfig{Driver: "sqlite", Path: "./data/atelier.db"}
	if got := lite.DSN(); got != "./data/atelier.db" {
		t.Errorf("sqlite DSN = %q", got)
	}
}
