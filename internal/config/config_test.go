package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.DataDir == "" {
		t.Error("DataDir should have a default")
	}
	if cfg.GraphMaxAge != 10*time.Minute {
		t.Errorf("GraphMaxAge = %v, want 10m", cfg.GraphMaxAge)
	}
	if cfg.BuildTimeout != 60*time.Second {
		t.Errorf("BuildTimeout = %v, want 60s", cfg.BuildTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.MaxSearchResults != 20 {
		t.Errorf("MaxSearchResults = %d, want 20", cfg.MaxSearchResults)
	}
	if cfg.ContextMemories != 5 {
		t.Errorf("ContextMemories = %d, want 5", cfg.ContextMemories)
	}
	if cfg.EmbeddingDim != 256 {
		t.Errorf("EmbeddingDim = %d, want 256", cfg.EmbeddingDim)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CORTEX_DATA_DIR", "/tmp/cortex-test")
	t.Setenv("CORTEX_GRAPH_MAX_AGE", "30s")
	t.Setenv("CORTEX_BUILD_TIMEOUT", "5s")
	t.Setenv("CORTEX_EMBED_TIMEOUT", "2s")
	t.Setenv("CORTEX_MAX_RETRIES", "1")
	t.Setenv("CORTEX_MAX_SEARCH_RESULTS", "7")

	cfg := FromEnv()
	if cfg.DataDir != "/tmp/cortex-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.GraphMaxAge != 30*time.Second {
		t.Errorf("GraphMaxAge = %v, want 30s", cfg.GraphMaxAge)
	}
	if cfg.BuildTimeout != 5*time.Second {
		t.Errorf("BuildTimeout = %v, want 5s", cfg.BuildTimeout)
	}
	if cfg.EmbedTimeout != 2*time.Second {
		t.Errorf("EmbedTimeout = %v, want 2s", cfg.EmbedTimeout)
	}
	if cfg.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", cfg.MaxRetries)
	}
	if cfg.MaxSearchResults != 7 {
		t.Errorf("MaxSearchResults = %d, want 7", cfg.MaxSearchResults)
	}
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("CORTEX_GRAPH_MAX_AGE", "soon")
	t.Setenv("CORTEX_MAX_RETRIES", "-2")
	t.Setenv("CORTEX_MAX_SEARCH_RESULTS", "zero")

	cfg := FromEnv()
	def := Default()
	if cfg.GraphMaxAge != def.GraphMaxAge {
		t.Errorf("GraphMaxAge = %v, want default %v", cfg.GraphMaxAge, def.GraphMaxAge)
	}
	if cfg.MaxRetries != def.MaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", cfg.MaxRetries, def.MaxRetries)
	}
	if cfg.MaxSearchResults != def.MaxSearchResults {
		t.Errorf("MaxSearchResults = %d, want default %d", cfg.MaxSearchResults, def.MaxSearchResults)
	}
}
