// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/docsearch/internal/httputil"
	"github.com/pdiddy/docsearch/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arXiv results carry no usable relevance signal, so every entry starts
// from the same constant and loses a little per rank.
const (
	arxivBaseScore   = 0.5
	arxivRankPenalty = 0.01
)

// ArxivBackend queries the arXiv preprint server.
type ArxivBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return SourceArxiv }

// Search queries the arXiv API for at most quota entries.
func (b *ArxivBackend) Search(ctx context.Context, query Query, quota int) ([]types.NormalizedResult, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(quota)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	req, err := newGet(ctx, arxivAPIBase+"?"+params.Encode(), b.UserAgent)
	if err != nil {
		return nil, err
	}

	body, err := httputil.Fetch(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var results []types.NormalizedResult
	for i, entry := range feed.Entries {
		if len(results) == quota {
			break
		}
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		r := types.NormalizedResult{
			Title:           entry.Title,
			Description:     collapseSpace(entry.Summary),
			URL:             "https://arxiv.org/abs/" + arxivID,
			DownloadURL:     entry.pdfLink(),
			Source:          displayName(SourceArxiv),
			PublicationDate: entry.Published,
			Year:            extractYear(entry.Published),
			DOI:             strings.TrimSpace(entry.DOI),
			Language:        "English",
			SourceRank:      i + 1,
			RelevanceScore:  clampScore(arxivBaseScore-float64(i)*arxivRankPenalty, 0.1, 1),
		}
		if r.DownloadURL == "" {
			r.DownloadURL = "https://arxiv.org/pdf/" + arxivID
		}
		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, a.Name)
		}
		for _, c := range entry.Categories {
			if c.Term != "" {
				r.Categories = append(r.Categories, c.Term)
			}
		}

		if nr, ok := normalize(r); ok {
			results = append(results, nr)
		}
	}
	return results, nil
}

// buildArxivQuery constructs the search_query parameter. A year range
// becomes a submittedDate filter.
func buildArxivQuery(q Query) string {
	terms := strings.Fields(q.Text)
	if len(terms) == 0 {
		return ""
	}
	query := "all:" + strings.Join(terms, " ")

	if q.YearFrom > 0 || q.YearTo > 0 {
		from, to := "000001010000", "999912312359"
		if q.YearFrom > 0 {
			from = fmt.Sprintf("%04d01010000", q.YearFrom)
		}
		if q.YearTo > 0 {
			to = fmt.Sprintf("%04d12312359", q.YearTo)
		}
		query += fmt.Sprintf(" AND submittedDate:[%s TO %s]", from, to)
	}
	return query
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	DOI        string          `xml:"doi"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

func (e arxivEntry) pdfLink() string {
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
