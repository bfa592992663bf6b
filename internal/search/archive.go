// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/docsearch/internal/httputil"
	"github.com/pdiddy/docsearch/pkg/types"
)

// archiveSearchBase is the Internet Archive advanced search endpoint.
// Declared as a var so tests can substitute an httptest server.
var archiveSearchBase = "https://archive.org/advancedsearch.php"

var archiveFields = []string{
	"identifier", "title", "description", "creator", "subject",
	"downloads", "item_size", "publicdate", "year", "language",
}

// ArchiveBackend searches PDF items held by the Internet Archive.
type ArchiveBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *ArchiveBackend) Name() string { return SourceArchive }

// Search asks for the most downloaded PDF items matching the query.
func (b *ArchiveBackend) Search(ctx context.Context, query Query, quota int) ([]types.NormalizedResult, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, fmt.Errorf("empty Internet Archive query")
	}

	params := url.Values{
		"q":      {buildArchiveQuery(query)},
		"fl[]":   archiveFields,
		"sort[]": {"downloads desc"},
		"rows":   {strconv.Itoa(quota)},
		"page":   {"1"},
		"output": {"json"},
	}
	req, err := newGet(ctx, archiveSearchBase+"?"+params.Encode(), b.UserAgent)
	if err != nil {
		return nil, err
	}

	body, err := httputil.Fetch(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Internet Archive request: %w", err)
	}

	var ar archiveResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("parsing Internet Archive response: %w", err)
	}

	var results []types.NormalizedResult
	for i, doc := range ar.Response.Docs {
		if len(results) == quota {
			break
		}
		if r, ok := archiveResult(doc, i); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

// archiveResult maps one advancedsearch doc. Archive fields arrive either
// as scalars or as lists, so every field goes through the coercion helpers.
func archiveResult(doc archiveDoc, rank int) (types.NormalizedResult, bool) {
	identifier := strings.TrimSpace(firstOrSelf(doc.Identifier))
	if identifier == "" {
		return types.NormalizedResult{}, false
	}

	r := types.NormalizedResult{
		Title:           firstOrSelf(doc.Title),
		Description:     firstOrSelf(doc.Description),
		URL:             "https://archive.org/details/" + identifier,
		DownloadURL:     fmt.Sprintf("https://archive.org/download/%s/%s.pdf", identifier, identifier),
		ThumbnailURL:    "https://archive.org/services/img/" + identifier,
		Source:          displayName(SourceArchive),
		Authors:         stringList(doc.Creator),
		PublicationDate: firstOrSelf(doc.PublicDate),
		FileSize:        archiveFileSize(doc.ItemSize),
		Language:        firstOrSelf(doc.Language),
		SourceRank:      rank + 1,
	}
	if r.Language == "" {
		r.Language = "English"
	}
	if y, ok := numberOf(doc.Year); ok {
		r.Year = int(y)
	} else {
		r.Year = extractYear(r.PublicationDate)
	}
	if subjects := stringList(doc.Subject); len(subjects) > 0 {
		if len(subjects) > 5 {
			subjects = subjects[:5]
		}
		r.Categories = subjects
	}

	r.RelevanceScore = 0.1
	if downloads, ok := numberOf(doc.Downloads); ok && downloads > 0 {
		r.RelevanceScore = math.Min(downloads/1000, 1.0)
	}

	return normalize(r)
}

// buildArchiveQuery restricts the query to PDF items and applies the
// year range when one is set.
func buildArchiveQuery(q Query) string {
	s := fmt.Sprintf("(%s) AND format:PDF", strings.TrimSpace(q.Text))
	if q.YearFrom > 0 || q.YearTo > 0 {
		from, to := "*", "*"
		if q.YearFrom > 0 {
			from = strconv.Itoa(q.YearFrom)
		}
		if q.YearTo > 0 {
			to = strconv.Itoa(q.YearTo)
		}
		s += fmt.Sprintf(" AND year:[%s TO %s]", from, to)
	}
	return s
}

// archiveFileSize renders item_size in megabytes, or "Unknown" when the
// field is missing, zero, or not a number.
func archiveFileSize(raw json.RawMessage) string {
	size, ok := numberOf(raw)
	if !ok || size <= 0 {
		return unknown
	}
	return fmt.Sprintf("%.1f MB", size/(1024*1024))
}

// Internet Archive advancedsearch JSON structures.
type archiveResponse struct {
	Response struct {
		Docs []archiveDoc `json:"docs"`
	} `json:"response"`
}

type archiveDoc struct {
	Identifier  json.RawMessage `json:"identifier"`
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Creator     json.RawMessage `json:"creator"`
	Subject     json.RawMessage `json:"subject"`
	Downloads   json.RawMessage `json:"downloads"`
	ItemSize    json.RawMessage `json:"item_size"`
	PublicDate  json.RawMessage `json:"publicdate"`
	Year        json.RawMessage `json:"year"`
	Language    json.RawMessage `json:"language"`
}
