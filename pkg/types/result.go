// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the evidence-engine
// query pipeline: the normalized result schema produced by the orchestrator,
// the persisted history entry, and per-stage configuration.
package types

import (
	"github.com/go-playground/validator/v10"
)

// Placeholder values substituted during normalization when the upstream
// model omits a citation field. Citation-level defects never fail the
// whole result; they are repaired with these defaults.
const (
	PlaceholderTitle   = "Untitled"
	PlaceholderJournal = "Unknown Source"
	PlaceholderAuthor  = "Unknown Author"
	PlaceholderSummary = "No summary available"

	// DefaultRelevance replaces a missing or NaN relevance score.
	DefaultRelevance = 0.5
)

// doiResolverBase is the prefix used to build an external lookup URL
// from a DOI-like identifier.
const doiResolverBase = "https://doi.org/"

// Citation is one normalized reference record attached to a QueryResult.
// After normalization every field is populated; only DOI may be empty.
// JSON tags match the output shape the upstream model is prompted with.
type Citation struct {
	// ID is an opaque identifier, unique and stable within one result.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Title is the cited work's title.
	Title string `json:"title" yaml:"title" validate:"required"`

	// Authors lists author display names in source order. Never empty.
	Authors []string `json:"authors" yaml:"authors" validate:"min=1,dive,required"`

	// Journal is the journal or source name.
	Journal string `json:"journal" yaml:"journal" validate:"required"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year" validate:"gte=1900,lte=2100"`

	// Summary is a short free-text description of the cited work.
	Summary string `json:"summary" yaml:"summary" validate:"required"`

	// KeyFindings lists short statements drawn from the work. May be empty.
	KeyFindings []string `json:"keyFindings" yaml:"key_findings"`

	// RelevanceScore is in [0.0, 1.0]; higher means more relevant.
	RelevanceScore float64 `json:"relevanceScore" yaml:"relevance_score" validate:"gte=0,lte=1"`

	// DOI is an optional DOI-like identifier for external lookup.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// DOIURL returns the external lookup URL for the citation's DOI, or the
// empty string when no DOI is present.
func (c Citation) DOIURL() string {
	if c.DOI == "" {
		return ""
	}
	return doiResolverBase + c.DOI
}

// QueryResult is the full normalized output of one query. It is
// constructed atomically by the orchestrator's normalization step and
// never mutated afterwards.
type QueryResult struct {
	// Query is the original user text, unmodified.
	Query string `json:"query" yaml:"query" validate:"required"`

	// Explanation is the synthesized narrative answer. Never empty: a
	// blank explanation fails normalization rather than being defaulted.
	Explanation string `json:"explanation" yaml:"explanation" validate:"required"`

	// Citations are ordered as returned by the source (order = relevance).
	Citations []Citation `json:"citations" yaml:"citations" validate:"dive"`

	// FollowUpQuestions are suggested next queries. May be empty.
	FollowUpQuestions []string `json:"followUpQuestions" yaml:"follow_up_questions"`
}

// validate is the shared validator instance backing the well-formedness
// predicates below.
var validate = validator.New()

// Validate reports whether the citation satisfies the schema invariants
// (all required fields populated, score in range).
func (c Citation) Validate() error {
	return validate.Struct(c)
}

// Validate reports whether the result satisfies the schema invariants.
// It is the self-check the orchestrator runs after normalization and the
// predicate the history store applies when loading persisted entries.
func (r QueryResult) Validate() error {
	return validate.Struct(r)
}
