// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// rawResult mirrors the expected upstream payload before any trust is
// placed in it. The citation array may arrive under "articles" or
// "citations"; both are accepted.
type rawResult struct {
	Explanation       string          `json:"explanation"`
	Articles          json.RawMessage `json:"articles"`
	Citations         json.RawMessage `json:"citations"`
	FollowUpQuestions any             `json:"followUpQuestions"`
}

// rawCitation holds untyped citation fields. The upstream model is not
// trusted to honor the schema, so every field is coerced individually.
type rawCitation struct {
	ID             any `json:"id"`
	Title          any `json:"title"`
	Authors        any `json:"authors"`
	Journal        any `json:"journal"`
	Year           any `json:"year"`
	Summary        any `json:"summary"`
	KeyFindings    any `json:"keyFindings"`
	RelevanceScore any `json:"relevanceScore"`
	DOI            any `json:"doi"`
}

// normalizeResult is the single boundary converting the upstream textual
// payload into a fully-typed QueryResult. No untyped data crosses past it:
// it either returns a result satisfying the schema invariants or a tagged
// error. Citation order is preserved as received.
func normalizeResult(query, payload string) (types.QueryResult, error) {
	structure, ok := extractJSON(payload)
	if !ok {
		return types.QueryResult{}, fmt.Errorf("%w: no JSON structure in upstream content", ErrMalformedResponse)
	}

	var raw rawResult
	if strings.HasPrefix(structure, "[") {
		// A bare array can only be the citation list; the explanation is
		// irrecoverably absent and rejected below.
		raw.Citations = json.RawMessage(structure)
	} else if err := json.Unmarshal([]byte(structure), &raw); err != nil {
		return types.QueryResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if strings.TrimSpace(raw.Explanation) == "" {
		return types.QueryResult{}, fmt.Errorf("%w: empty explanation", ErrMalformedResponse)
	}

	citationArray := raw.Articles
	if len(citationArray) == 0 {
		citationArray = raw.Citations
	}

	// Citation-level defects never fail the result. A non-array citation
	// value degrades to an empty list.
	var rawCitations []rawCitation
	if len(citationArray) > 0 {
		if err := json.Unmarshal(citationArray, &rawCitations); err != nil {
			rawCitations = nil
		}
	}

	now := nowFunc()
	citations := make([]types.Citation, 0, len(rawCitations))
	for i, rc := range rawCitations {
		citations = append(citations, normalizeCitation(rc, i, now))
	}

	result := types.QueryResult{
		Query:             query,
		Explanation:       raw.Explanation,
		Citations:         citations,
		FollowUpQuestions: asStringList(raw.FollowUpQuestions),
	}

	// Self-check: normalization is supposed to reach a fixed point where
	// every required field is populated.
	if err := result.Validate(); err != nil {
		return types.QueryResult{}, fmt.Errorf("%w: normalized result failed validation: %v", ErrMalformedResponse, err)
	}
	return result, nil
}

// normalizeCitation repairs one untyped citation record with the schema
// defaults. ordinal disambiguates synthesized IDs within one result.
func normalizeCitation(rc rawCitation, ordinal int, now time.Time) types.Citation {
	c := types.Citation{
		ID:          asString(rc.ID),
		Title:       asString(rc.Title),
		Authors:     asStringList(rc.Authors),
		Journal:     asString(rc.Journal),
		Summary:     asString(rc.Summary),
		KeyFindings: asStringList(rc.KeyFindings),
		DOI:         asString(rc.DOI),
	}

	if c.ID == "" {
		c.ID = fmt.Sprintf("article-%d-%d", now.UnixMilli(), ordinal)
	}
	if c.Title == "" {
		c.Title = types.PlaceholderTitle
	}
	if len(c.Authors) == 0 {
		c.Authors = []string{types.PlaceholderAuthor}
	}
	if c.Journal == "" {
		c.Journal = types.PlaceholderJournal
	}
	if c.Summary == "" {
		c.Summary = types.PlaceholderSummary
	}

	year, ok := asInt(rc.Year)
	if !ok || year < 1900 || year > now.Year()+1 {
		year = now.Year()
	}
	c.Year = year

	score, ok := asFloat(rc.RelevanceScore)
	switch {
	case !ok || math.IsNaN(score):
		c.RelevanceScore = types.DefaultRelevance
	case score < 0:
		c.RelevanceScore = 0
	case score > 1:
		c.RelevanceScore = 1
	default:
		c.RelevanceScore = score
	}

	return c
}

// extractJSON locates the first balanced {...} or [...] structure in text,
// tolerant of prose the model may emit around it. It respects string
// literals and escapes so braces inside strings do not unbalance the scan.
func extractJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// asString coerces a JSON value to a trimmed string; non-strings yield "".
func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asStringList coerces a JSON value to a list of non-empty strings.
// Missing or non-sequence values yield an empty (never nil) list.
func asStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// asFloat coerces a JSON number, numeric string, or bare NaN to a float.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asInt coerces a JSON number or numeric string to an int.
func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return int(f), true
}
