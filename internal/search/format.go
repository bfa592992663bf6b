// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes a response as a human-readable table to w.
func FormatTable(resp *Response, w io.Writer) {
	if resp.ReformulatedQuery != "" && resp.ReformulatedQuery != resp.Query {
		fmt.Fprintf(w, "Searching for: %s\n\n", resp.ReformulatedQuery)
	}
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range resp.Results {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6.2f  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), year, r.RelevanceScore, r.Source)
	}

	fmt.Fprintf(w, "\n%d results in %.2fs", resp.TotalFound, resp.SearchTime)
	if resp.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", resp.DuplicatesRemoved)
	}
	fmt.Fprintln(w)
	if len(resp.SourcesUsed) > 0 {
		fmt.Fprintf(w, "Sources: %s\n", strings.Join(resp.SourcesUsed, ", "))
	}
	if len(resp.Suggestions) > 0 {
		fmt.Fprintln(w, "\nRelated searches:")
		for _, s := range resp.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

// FormatJSON writes the response as indented JSON to w.
func FormatJSON(resp *Response, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
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

// truncate shortens s to max characters, marking the cut with "...".
func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
