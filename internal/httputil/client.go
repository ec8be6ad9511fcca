// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by upstream clients.
package httputil

import (
	"net/http"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// DefaultTimeout bounds one upstream round trip when the config leaves
// the timeout unset. A request that exceeds it surfaces to the caller as
// an upstream timeout, never a partial result.
const DefaultTimeout = 60 * time.Second

// NewClient builds the HTTP client used for upstream calls: it applies
// the caller-level timeout and stamps the configured User-Agent on every
// request. Retrying is deliberately left to callers.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.RoundTripper(http.DefaultTransport)
	if cfg.UserAgent != "" {
		transport = &userAgentTransport{base: transport, userAgent: cfg.UserAgent}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// userAgentTransport sets the User-Agent header on requests that do not
// already carry one.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		clone := req.Clone(req.Context())
		clone.Header.Set("User-Agent", t.userAgent)
		return t.base.RoundTrip(clone)
	}
	return t.base.RoundTrip(req)
}
