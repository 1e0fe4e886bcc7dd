// Package agent defines the collaborator interfaces at the engine boundary.
//
// The engine never talks to a language model directly. Embedding, reranking,
// and agent dispatch are capabilities injected at the composition root; each
// has a local default so the engine is fully functional (and testable)
// without any external service.
package agent

import (
	"context"
	"fmt"
)

// Embedder turns text into a vector. Implementations must be deterministic
// for a given model version, since stored embeddings are never recomputed
// unless the store is explicitly re-indexed.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Candidate is one similarity-ranked memory handed to a reranker.
type Candidate struct {
	ID         string
	Title      string
	Content    string
	Similarity float32
	Importance int
}

// Reranker reorders an initial similarity-ranked candidate set and returns
// a subset of at most limit entries, best first.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate, limit int) ([]Candidate, error)
}

// DispatchRequest is the payload handed to an external agent runner.
type DispatchRequest struct {
	AgentKind string `json:"agent_kind"`
	Prompt    string `json:"prompt"`
	TaskID    string `json:"task_id,omitempty"`
}

// DispatchResult is the opaque verdict an agent runner returns.
type DispatchResult struct {
	Text string `json:"text"`
}

// Dispatcher hands a prompt to an external agent and returns its result.
// The engine treats it as an opaque call bounded only by ctx.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error)
}

// NoopDispatcher rejects every dispatch. It stands in wherever no agent
// runner has been wired, making the missing capability explicit instead of
// silently succeeding.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(context.Context, DispatchRequest) (DispatchResult, error) {
	return DispatchResult{}, fmt.Errorf("no agent dispatcher configured")
}

// SimilarityReranker is the default no-op reranker: it keeps the raw
// similarity order and trims to limit.
type SimilarityReranker struct{}

func (SimilarityReranker) Rerank(_ context.Context, _ string, candidates []Candidate, limit int) ([]Candidate, error) {
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
