// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. A request that exceeds it
	// surfaces as an upstream error with the timeout marker set.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for clients that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API. Resolved once at
	// startup; never logged and never included in persisted history.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature for completions (default 0.7).
	Temperature float32 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the completion length (default 2000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// ResearchConfig holds settings for the query orchestration stage.
type ResearchConfig struct {
	AIConfig   `yaml:",inline"`
	HTTPConfig `yaml:",inline"`
}

// HistoryConfig holds settings for the query history store.
type HistoryConfig struct {
	// DataDir is the directory holding the history database (default ".").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Capacity is the maximum retained entry count (default 50). Inserting
	// past capacity evicts the oldest entry by creation order.
	Capacity int `json:"capacity" yaml:"capacity"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	Research ResearchConfig `json:"research" yaml:"research"`
	History  HistoryConfig  `json:"history" yaml:"history"`
}
