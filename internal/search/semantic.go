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

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,url,venue,citationCount,openAccessPdf,fieldsOfStudy"

// semanticMaxLimit is the largest limit the search endpoint accepts.
const semanticMaxLimit = 100

// SemanticScholarBackend queries the Semantic Scholar citation graph.
type SemanticScholarBackend struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return SourceSemanticScholar }

// Search queries the Semantic Scholar API and returns at most quota
// results. Throttled responses are retried.
func (b *SemanticScholarBackend) Search(ctx context.Context, query Query, quota int) ([]types.NormalizedResult, error) {
	q := strings.TrimSpace(query.Text)
	if q == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if quota > semanticMaxLimit {
		quota = semanticMaxLimit
	}

	params := url.Values{
		"query":  {q},
		"limit":  {strconv.Itoa(quota)},
		"fields": {semanticFields},
	}
	if yr := buildYearRange(query.YearFrom, query.YearTo); yr != "" {
		params.Set("year", yr)
	}

	req, err := newGet(ctx, semanticAPIBase+"?"+params.Encode(), b.UserAgent)
	if err != nil {
		return nil, err
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	body, err := httputil.Fetch(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}

	var sr semanticResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var results []types.NormalizedResult
	for i, paper := range sr.Data {
		if len(results) == quota {
			break
		}
		r := types.NormalizedResult{
			Title:           paper.Title,
			Description:     paper.Abstract,
			URL:             paper.URL,
			Source:          displayName(SourceSemanticScholar),
			PublicationDate: paper.PublicationDate,
			Year:            intOf(paper.Year),
			DOI:             paper.ExternalIDs.DOI,
			Categories:      paper.FieldsOfStudy,
			SourceRank:      i + 1,
		}
		if r.URL == "" && paper.PaperID != "" {
			r.URL = "https://www.semanticscholar.org/paper/" + paper.PaperID
		}
		if paper.OpenAccessPDF != nil {
			r.DownloadURL = paper.OpenAccessPDF.URL
		}
		if r.Description == "" && paper.Venue != "" {
			r.Description = "Published in " + paper.Venue
		}
		for _, a := range paper.Authors {
			r.Authors = append(r.Authors, a.Name)
		}
		if cited, ok := numberOf(paper.CitationCount); ok {
			n := int(cited)
			r.CitationCount = &n
		}

		r.RelevanceScore = semanticScore(r.CitationCount, r.Year, i)

		if nr, ok := normalize(r); ok {
			results = append(results, nr)
		}
	}
	return results, nil
}

// semanticScore rewards citations on a log scale (0.3 base, up to +0.5)
// and recency, and loses 0.01 per rank.
func semanticScore(citations *int, year, rank int) float64 {
	s := 0.3
	if citations != nil && *citations > 0 {
		s += math.Min(0.5, math.Log10(float64(*citations)+1)/8)
	}
	s += recencyBonus(year, 0.2)
	s -= float64(rank) * 0.01
	return clampScore(s, 0.1, 1)
}

// buildYearRange returns a Semantic Scholar year filter string (e.g. "2020-2023").
func buildYearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures.
// Numeric fields stay raw so one malformed value cannot fail the page.
type semanticResponse struct {
	Data []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	URL             string              `json:"url"`
	Venue           string              `json:"venue"`
	Year            json.RawMessage     `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	CitationCount   json.RawMessage     `json:"citationCount"`
	FieldsOfStudy   []string            `json:"fieldsOfStudy"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF   *semanticPDF        `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticPDF struct {
	URL string `json:"url"`
}
