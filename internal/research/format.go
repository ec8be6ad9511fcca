// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// FormatText writes a human-readable rendering of the result to w:
// the explanation, a citation table ordered as received, and follow-ups.
func FormatText(result types.QueryResult, w io.Writer) {
	fmt.Fprintln(w, result.Explanation)
	fmt.Fprintln(w)

	if len(result.Citations) == 0 {
		fmt.Fprintln(w, "No supporting citations.")
	} else {
		fmt.Fprintf(w, "%-4s  %-50s  %-20s  %-4s  %-6s  %s\n",
			"Rank", "Title", "Authors", "Year", "Score", "Source")
		fmt.Fprintln(w, strings.Repeat("-", 110))

		for i, c := range result.Citations {
			title := truncate(c.Title, 50)
			fmt.Fprintf(w, "%-4d  %-50s  %-20s  %-4d  %-6.2f  %s\n",
				i+1, title, formatAuthors(c.Authors), c.Year, c.RelevanceScore, c.Journal)
			if url := c.DOIURL(); url != "" {
				fmt.Fprintf(w, "      %s\n", url)
			}
		}
		fmt.Fprintf(w, "\n%d citations\n", len(result.Citations))
	}

	if len(result.FollowUpQuestions) > 0 {
		fmt.Fprintln(w, "\nFollow-up questions:")
		for _, q := range result.FollowUpQuestions {
			fmt.Fprintf(w, "  - %s\n", q)
		}
	}
}

// FormatJSON writes the result as indented JSON to w.
func FormatJSON(result types.QueryResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
