// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HistoryEntry pairs a past query with its normalized result. Entries are
// created only by a successful orchestrator run and never mutated after
// creation.
type HistoryEntry struct {
	// ID is unique and monotonically informative: a millisecond timestamp
	// with a disambiguating ordinal, so creation order is derivable.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Query is the text used to produce the entry.
	Query string `json:"query" yaml:"query" validate:"required"`

	// CreatedAt is the entry creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at" validate:"required"`

	// Result is the associated query result, owned by the entry.
	Result QueryResult `json:"result" yaml:"result" validate:"required"`
}

// Validate reports whether the entry and its embedded result satisfy the
// schema invariants. The history store discards persisted rows that fail
// this check instead of surfacing a load error.
func (e HistoryEntry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return err
	}
	return e.Result.Validate()
}
