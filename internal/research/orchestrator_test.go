// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/evidence-engine/internal/history"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// mockBackend returns a canned payload or a forced error and records the
// prompts it receives.
type mockBackend struct {
	payload string
	err     error
	prompts []string
}

func (m *mockBackend) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.payload, nil
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(types.HistoryConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

const goodPayload = `{"explanation": "Treatment relies on artemisinin combinations.",
	"articles": [{"title": "ACT efficacy", "authors": ["W. Health"], "journal": "Lancet",
	"year": 2022, "summary": "Trial summary.", "keyFindings": ["works"], "relevanceScore": 0.93}],
	"followUpQuestions": ["What about resistance?"]}`

func TestSubmitSuccessWritesHistory(t *testing.T) {
	store := newTestStore(t)
	backend := &mockBackend{payload: goodPayload}
	orch := NewOrchestrator(backend, store, nil)

	result, err := orch.Submit(context.Background(), "malaria treatment")
	if err != nil {
		t.Fatal(err)
	}

	if result.Query != "malaria treatment" {
		t.Errorf("Query = %q", result.Query)
	}
	if result.Explanation == "" {
		t.Error("empty explanation")
	}
	if len(result.Citations) != 1 {
		t.Fatalf("citations = %d, want 1", len(result.Citations))
	}

	entries := store.List()
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if entries[0].Query != "malaria treatment" {
		t.Errorf("history query = %q", entries[0].Query)
	}
	if entries[0].Result.Explanation != result.Explanation {
		t.Error("history result differs from returned result")
	}
}

func TestSubmitEmptyQuery(t *testing.T) {
	backend := &mockBackend{payload: goodPayload}
	orch := NewOrchestrator(backend, newTestStore(t), nil)

	for _, query := range []string{"", "   ", "\n\t"} {
		_, err := orch.Submit(context.Background(), query)
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Submit(%q) err = %v, want ErrEmptyQuery", query, err)
		}
	}

	// Rejected before any network activity.
	if len(backend.prompts) != 0 {
		t.Errorf("backend called %d times for empty queries", len(backend.prompts))
	}
}

func TestSubmitPromptEmbedsQueryAndShape(t *testing.T) {
	backend := &mockBackend{payload: goodPayload}
	orch := NewOrchestrator(backend, nil, nil)

	_, err := orch.Submit(context.Background(), "drought-resistant crops")
	if err != nil {
		t.Fatal(err)
	}

	if len(backend.prompts) != 1 {
		t.Fatalf("backend called %d times, want 1", len(backend.prompts))
	}
	prompt := backend.prompts[0]
	for _, want := range []string{"drought-resistant crops", "explanation", "articles", "followUpQuestions"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSubmitFailuresLeaveHistoryUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		backend *mockBackend
		wantErr error
	}{
		{
			name:    "transport auth failure",
			backend: &mockBackend{err: ErrAuth},
			wantErr: ErrAuth,
		},
		{
			name:    "missing credential",
			backend: &mockBackend{err: ErrMissingCredential},
			wantErr: ErrMissingCredential,
		},
		{
			name:    "empty explanation",
			backend: &mockBackend{payload: `{"explanation": "", "articles": []}`},
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "no JSON in response",
			backend: &mockBackend{payload: "I had trouble with that request."},
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			orch := NewOrchestrator(tt.backend, store, nil)

			_, err := orch.Submit(context.Background(), "some question")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if n := store.Len(); n != 0 {
				t.Errorf("history has %d entries after failed submit, want 0", n)
			}
		})
	}
}

func TestSubmitUpstreamErrorPropagates(t *testing.T) {
	upstream := &UpstreamError{StatusCode: 503, Err: errors.New("service unavailable")}
	orch := NewOrchestrator(&mockBackend{err: upstream}, nil, nil)

	_, err := orch.Submit(context.Background(), "q")

	var got *UpstreamError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if got.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", got.StatusCode)
	}
}

func TestSubmitWithoutStore(t *testing.T) {
	orch := NewOrchestrator(&mockBackend{payload: goodPayload}, nil, nil)

	if _, err := orch.Submit(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
}

func TestSubmitConcurrentQueries(t *testing.T) {
	store := newTestStore(t)

	// Independent orchestrators sharing one store: no entry may be lost
	// and capacity must hold.
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			orch := NewOrchestrator(&mockBackend{payload: goodPayload}, store, nil)
			_, err := orch.Submit(context.Background(), "concurrent question")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}

	if n := store.Len(); n != 8 {
		t.Errorf("history entries = %d, want 8", n)
	}
}
