// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// withStubEndpoint points the backend at an httptest server for the
// duration of one test.
func withStubEndpoint(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	old := openaiBaseURL
	openaiBaseURL = ts.URL + "/v1"
	t.Cleanup(func() {
		openaiBaseURL = old
		ts.Close()
	})
	return ts
}

func chatCompletionEnvelope(content string) string {
	envelope := map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
	data, _ := json.Marshal(envelope)
	return string(data)
}

func testAIConfig() types.ResearchConfig {
	return types.ResearchConfig{
		AIConfig: types.AIConfig{Model: "test-model", APIKey: "sk-test"},
	}
}

func TestCompleteUnwrapsEnvelope(t *testing.T) {
	const content = `Sure! {"explanation": "E", "articles": []} Enjoy.`

	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	withStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Error(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionEnvelope(content)))
	})

	backend := NewOpenAIBackend(testAIConfig(), nil)
	got, err := backend.Complete(context.Background(), "user prompt here")
	if err != nil {
		t.Fatal(err)
	}
	if got != content {
		t.Errorf("Complete = %q, want the raw content payload", got)
	}

	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("messages = %d, want system+user", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" {
		t.Errorf("first message role = %q", gotReq.Messages[0].Role)
	}
	if gotReq.Messages[1].Content != "user prompt here" {
		t.Errorf("user message = %q", gotReq.Messages[1].Content)
	}
}

func TestCompleteMissingCredential(t *testing.T) {
	var calls int32
	withStubEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(chatCompletionEnvelope("x")))
	})

	cfg := testAIConfig()
	cfg.APIKey = ""
	backend := NewOpenAIBackend(cfg, nil)

	_, err := backend.Complete(context.Background(), "p")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("endpoint was dialed despite missing credential")
	}
}

func TestCompleteAuthFailure(t *testing.T) {
	withStubEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	})

	backend := NewOpenAIBackend(testAIConfig(), nil)
	_, err := backend.Complete(context.Background(), "p")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
}

func TestCompleteUpstreamStatus(t *testing.T) {
	withStubEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "server overloaded", "type": "server_error"}}`))
	})

	backend := NewOpenAIBackend(testAIConfig(), nil)
	_, err := backend.Complete(context.Background(), "p")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", upstream.StatusCode)
	}
	if upstream.Timeout {
		t.Error("Timeout marker set on a status failure")
	}
}

func TestCompleteTimeoutMarker(t *testing.T) {
	withStubEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(chatCompletionEnvelope("late")))
	})

	backend := NewOpenAIBackend(testAIConfig(), &http.Client{Timeout: 20 * time.Millisecond})
	_, err := backend.Complete(context.Background(), "p")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if !upstream.Timeout {
		t.Error("Timeout marker not set")
	}
}

func TestCompleteContextDeadline(t *testing.T) {
	withStubEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(chatCompletionEnvelope("late")))
	})

	backend := NewOpenAIBackend(testAIConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := backend.Complete(ctx, "p")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if !upstream.Timeout {
		t.Error("Timeout marker not set for context deadline")
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	withStubEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	})

	backend := NewOpenAIBackend(testAIConfig(), nil)
	_, err := backend.Complete(context.Background(), "p")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}
