// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"errors"
	"fmt"
)

// Sentinel errors for the submit taxonomy. All propagate to the caller;
// none are retried internally. Field-level defects inside a parsable
// response are repaired by normalization instead of escalating to
// ErrMalformedResponse.
var (
	// ErrEmptyQuery reports a blank query, rejected before any network
	// activity.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrMissingCredential reports that no API key is configured.
	ErrMissingCredential = errors.New("no API key configured")

	// ErrAuth reports an authorization failure from the upstream service.
	ErrAuth = errors.New("upstream rejected the API key")

	// ErrMalformedResponse reports upstream content that could not be
	// recovered into the result schema: no JSON structure, unparsable
	// JSON, or a blank explanation.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// UpstreamError reports a non-success transport outcome other than an
// authorization failure. Timeout marks a request that exceeded the
// caller-level deadline; it is not a distinct error kind.
type UpstreamError struct {
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("upstream request timed out: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("upstream returned HTTP %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
