// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// openaiBaseURL overrides the completion endpoint when non-empty.
// Package-level var for test substitution with an httptest server.
var openaiBaseURL = ""

// AIBackend abstracts the generative completion endpoint so tests can
// supply a mock. Complete sends one prompt and returns the model's raw
// textual payload with the chat-completion envelope already unwrapped.
type AIBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIBackend calls an OpenAI-compatible chat-completion endpoint.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	hasKey      bool
}

// NewOpenAIBackend builds the production backend from the research config.
// httpClient carries the caller-level timeout; pass nil for the default.
func NewOpenAIBackend(cfg types.ResearchConfig, httpClient *http.Client) *OpenAIBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if openaiBaseURL != "" {
		clientCfg.BaseURL = openaiBaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		hasKey:      cfg.APIKey != "",
	}
}

// Complete sends the prompt as a chat completion and returns the model's
// textual payload. A missing credential fails before any network activity.
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if !b.hasKey {
		return "", ErrMissingCredential
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return "", mapTransportError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: upstream returned no content", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// mapTransportError converts client errors into the submit taxonomy:
// 401/403 map to ErrAuth, deadline and net timeouts to UpstreamError with
// the timeout marker, and everything else to UpstreamError with the
// upstream status for diagnostics.
func mapTransportError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		}
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: HTTP %d", ErrAuth, reqErr.HTTPStatusCode)
		}
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Timeout: true, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &UpstreamError{Timeout: true, Err: err}
	}

	return &UpstreamError{Err: err}
}
