// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research orchestrates one query round trip: it builds the
// outbound prompt, calls the generative endpoint, recovers and repairs the
// free-form response into the strict result schema, and writes successful
// results through to the history store.
package research

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/history"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// nowFunc returns the current time. Package-level var for test substitution.
var nowFunc = time.Now

// Orchestrator coordinates a submit call. It holds no per-call state, so
// independent queries may be submitted concurrently; the history store
// serializes its own mutations.
type Orchestrator struct {
	backend AIBackend
	store   *history.Store
	logger  *zap.Logger
}

// NewOrchestrator wires the orchestrator. store may be nil to disable
// write-through; a nil logger falls back to a no-op logger.
func NewOrchestrator(backend AIBackend, store *history.Store, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{backend: backend, store: store, logger: logger}
}

// Submit runs one query end to end and returns the normalized result.
// A trimmed-empty query fails with ErrEmptyQuery before any network
// activity. Transport and content failures propagate with the package's
// error taxonomy; nothing is retried internally, and no history entry is
// written on any failure path. History write-through is best effort: a
// persistence failure is logged as a warning, never a Submit error.
func (o *Orchestrator) Submit(ctx context.Context, query string) (types.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return types.QueryResult{}, ErrEmptyQuery
	}

	prompt, err := renderPrompt(query)
	if err != nil {
		return types.QueryResult{}, err
	}

	o.logger.Debug("submitting query", zap.Int("prompt_len", len(prompt)))

	payload, err := o.backend.Complete(ctx, prompt)
	if err != nil {
		return types.QueryResult{}, err
	}

	result, err := normalizeResult(query, payload)
	if err != nil {
		return types.QueryResult{}, err
	}

	o.logger.Debug("query normalized",
		zap.Int("citations", len(result.Citations)),
		zap.Int("follow_ups", len(result.FollowUpQuestions)))

	if o.store != nil {
		if _, err := o.store.Append(query, result); err != nil {
			o.logger.Warn("history write-through failed", zap.Error(err))
		}
	}

	return result, nil
}
