// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"
	"unicode"

	"github.com/pdiddy/docsearch/pkg/types"
)

// deduplicate drops every result whose normalized title was already seen.
// With byURL it also drops a result whose URL was already returned by the
// same source. The first occurrence in merge order wins.
func deduplicate(results []types.NormalizedResult, byURL bool) ([]types.NormalizedResult, int) {
	seen := make(map[string]bool, 2*len(results))
	deduped := make([]types.NormalizedResult, 0, len(results))
	removed := 0

	for _, r := range results {
		var keys []string
		if r.Title != types.UntitledPlaceholder {
			if t := normalizeTitle(r.Title); t != "" {
				keys = append(keys, "title:"+t)
			}
		}
		if byURL {
			keys = append(keys, "url:"+r.Source+"\x00"+r.URL)
		}

		dup := false
		for _, k := range keys {
			if seen[k] {
				dup = true
				break
			}
		}
		if dup {
			removed++
			continue
		}
		for _, k := range keys {
			seen[k] = true
		}
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
