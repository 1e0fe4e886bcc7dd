// Package config holds engine configuration with environment overrides.
//
// Defaults are chosen so `cortex serve` works with zero setup: data lives
// under ~/.cortex, graph builds and embeddings get generous but bounded
// budgets, and search limits match what fits in an agent's context window.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all tunables for the knowledge engine.
type Config struct {
	// DataDir is where the SQLite database lives.
	DataDir string

	// IgnoreDirs are directory names skipped during code-graph builds,
	// in addition to the built-in defaults.
	IgnoreDirs []string

	// GraphMaxAge is the staleness window for the context facade: a
	// project graph older than this is rebuilt synchronously before a
	// context is composed.
	GraphMaxAge time.Duration

	// BuildTimeout bounds a single code-graph build. A timed-out build
	// is discarded entirely, never partially published.
	BuildTimeout time.Duration

	// EmbedTimeout bounds a single embedding computation.
	EmbedTimeout time.Duration

	// MaxRetries is how many times a rejected subtask may loop back to
	// its executing agent before it fails terminally.
	MaxRetries int

	// MaxSearchResults caps semantic search limits regardless of what
	// the caller asks for.
	MaxSearchResults int

	// ContextMemories is how many memory records the facade folds into
	// a composed context.
	ContextMemories int

	// EmbeddingDim is the vector dimension used by the default embedder.
	EmbeddingDim int
}

// Default returns the default configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".cortex"),
		GraphMaxAge:      10 * time.Minute,
		BuildTimeout:     60 * time.Second,
		EmbedTimeout:     15 * time.Second,
		MaxRetries:       3,
		MaxSearchResults: 20,
		ContextMemories:  5,
		EmbeddingDim:     256,
	}
}

// FromEnv returns the default configuration with CORTEX_* environment
// overrides applied. Unparseable values fall back to the default.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("CORTEX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if d, ok := envDuration("CORTEX_GRAPH_MAX_AGE"); ok {
		cfg.GraphMaxAge = d
	}
	if d, ok := envDuration("CORTEX_BUILD_TIMEOUT"); ok {
		cfg.BuildTimeout = d
	}
	if d, ok := envDuration("CORTEX_EMBED_TIMEOUT"); ok {
		cfg.EmbedTimeout = d
	}
	if n, ok := envInt("CORTEX_MAX_RETRIES"); ok && n >= 0 {
		cfg.MaxRetries = n
	}
	if n, ok := envInt("CORTEX_MAX_SEARCH_RESULTS"); ok && n > 0 {
		cfg.MaxSearchResults = n
	}
	return cfg
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
