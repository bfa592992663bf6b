// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pdiddy/docsearch/pkg/types"
)

// newID and now are replaced in tests.
var (
	newID = uuid.NewString
	now   = time.Now
)

// unknown substitutes for numeric fields the source sent in a form we
// cannot parse.
const unknown = "Unknown"

// normalize finishes a result built by an adapter: it assigns an ID,
// collapses and truncates the title (falling back to the placeholder),
// truncates the description, and caps the author list. It reports false
// when the result has no canonical URL and must be dropped.
func normalize(r types.NormalizedResult) (types.NormalizedResult, bool) {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return r, false
	}

	r.Title = truncateRunes(collapseSpace(r.Title), types.MaxTitleLen)
	if r.Title == "" {
		r.Title = types.UntitledPlaceholder
	}
	r.Description = truncateRunes(strings.TrimSpace(r.Description), types.MaxDescriptionLen)
	r.DownloadURL = strings.TrimSpace(r.DownloadURL)

	var authors []string
	for _, a := range r.Authors {
		a = collapseSpace(a)
		if a == "" {
			continue
		}
		authors = append(authors, a)
		if len(authors) == types.MaxAuthors {
			break
		}
	}
	r.Authors = authors

	r.ID = newID()
	return r, true
}

// truncateRunes cuts s to at most max characters without splitting a rune.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstOrSelf decodes a JSON value that upstream sends either as a scalar
// or as a list, and returns the first scalar rendered as a string. Absent,
// null, and empty-list values yield "".
func firstOrSelf(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return ""
		}
		return firstOrSelf(list[0])
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// stringList decodes a scalar-or-list JSON value into a list of strings.
func stringList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '[' {
		if s := strings.TrimSpace(firstOrSelf(raw)); s != "" {
			return []string{s}
		}
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	var out []string
	for _, item := range list {
		if s := strings.TrimSpace(firstOrSelf(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// numberOf decodes a scalar-or-list JSON value that should hold a number,
// accepting numeric strings. It reports false for anything else.
func numberOf(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(firstOrSelf(raw))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// intOf is numberOf truncated to an int, with 0 standing in for a
// missing or malformed value.
func intOf(raw json.RawMessage) int {
	f, ok := numberOf(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

var yearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

// extractYear returns the first plausible four-digit year in s, or 0.
// Years after the current one are ignored.
func extractYear(s string) int {
	for _, m := range yearPattern.FindAllString(s, -1) {
		y, _ := strconv.Atoi(m)
		if y <= now().Year() {
			return y
		}
	}
	return 0
}

// positionScore maps rank i of total onto hi..lo linearly. A single
// result gets hi.
func positionScore(i, total int, hi, lo float64) float64 {
	if total <= 1 {
		return hi
	}
	return hi - float64(i)/float64(total-1)*(hi-lo)
}

// ParseDateRange parses "YYYY-YYYY" (either side may be empty, as in
// "2010-" or "-2020"). An empty string means no range.
func ParseDateRange(s string) (from, to int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	left, right, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}
	if from, err = parseYearBound(left); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}
	if to, err = parseYearBound(right); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}
	if from > 0 && to > 0 && from > to {
		return 0, 0, fmt.Errorf("%w: %q starts after it ends", ErrInvalidDateRange, s)
	}
	return from, to, nil
}

func parseYearBound(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if len(s) != 4 {
		return 0, fmt.Errorf("year %q is not four digits", s)
	}
	return strconv.Atoi(s)
}
