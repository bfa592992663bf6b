// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/docsearch/internal/httputil"
	"github.com/pdiddy/docsearch/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexMaxPage is the largest per_page OpenAlex accepts.
const openAlexMaxPage = 200

// OpenAlexBackend queries the OpenAlex API for open-access works.
type OpenAlexBackend struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email     string
	UserAgent string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return SourceOpenAlex }

// Search queries the OpenAlex API and returns at most quota results.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query, quota int) ([]types.NormalizedResult, error) {
	searchText := strings.TrimSpace(query.Text)
	if searchText == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if quota > openAlexMaxPage {
		quota = openAlexMaxPage
	}

	params := url.Values{
		"search":   {searchText},
		"per_page": {strconv.Itoa(quota)},
		"page":     {"1"},
		"filter":   {buildOpenAlexFilter(query)},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := newGet(ctx, openAlexSearchBase+"?"+params.Encode(), b.UserAgent)
	if err != nil {
		return nil, err
	}

	body, err := httputil.Fetch(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}

	var oar openAlexResponse
	if err := json.Unmarshal(body, &oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	total := len(oar.Results)
	var results []types.NormalizedResult
	for i, work := range oar.Results {
		if len(results) == quota {
			break
		}
		r := types.NormalizedResult{
			Title:           work.Title,
			Description:     reconstructAbstract(work.abstractIndex()),
			URL:             work.landingURL(),
			DownloadURL:     work.OpenAccess.OAURL,
			Source:          displayName(SourceOpenAlex),
			PublicationDate: work.PublicationDate,
			Year:            intOf(work.PublicationYear),
			Language:        work.Language,
			DOI:             strings.TrimPrefix(work.DOI, "https://doi.org/"),
			SourceRank:      i + 1,
		}
		if r.Year == 0 {
			r.Year = extractYear(work.PublicationDate)
		}
		if work.PrimaryLocation != nil && work.PrimaryLocation.PDFURL != "" {
			r.DownloadURL = work.PrimaryLocation.PDFURL
		}

		for _, authorship := range work.Authorships {
			r.Authors = append(r.Authors, authorship.Author.DisplayName)
		}
		for _, topic := range work.Topics {
			if topic.DisplayName != "" {
				r.Categories = append(r.Categories, topic.DisplayName)
			}
			if len(r.Categories) == 3 {
				break
			}
		}
		if cited, ok := numberOf(work.CitedByCount); ok {
			n := int(cited)
			r.CitationCount = &n
		}

		// OpenAlex returns results sorted by relevance; citations add a
		// small log-scaled bonus on top of the position score.
		r.RelevanceScore = positionScore(i, total, 1.0, 0.1) + citationBonus(r.CitationCount)

		if nr, ok := normalize(r); ok {
			results = append(results, nr)
		}
	}
	return results, nil
}

// buildOpenAlexFilter restricts to open-access works and applies the year
// range when one is set.
func buildOpenAlexFilter(q Query) string {
	filters := []string{"is_oa:true"}
	if q.YearFrom > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%04d-01-01", q.YearFrom))
	}
	if q.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%04d-12-31", q.YearTo))
	}
	return strings.Join(filters, ",")
}

// citationBonus maps a citation count onto 0..0.2 on a log scale.
func citationBonus(count *int) float64 {
	if count == nil || *count <= 0 {
		return 0
	}
	return math.Min(0.2, math.Log10(float64(*count)+1)/20)
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
// Numeric fields stay raw so one malformed work cannot fail the page.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       json.RawMessage      `json:"publication_year"`
	Language              string               `json:"language"`
	CitedByCount          json.RawMessage      `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex json.RawMessage      `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	Topics                []openAlexTopic      `json:"topics"`
}

// abstractIndex decodes the inverted abstract, or returns nil when it is
// not a word-to-positions map.
func (w openAlexWork) abstractIndex() map[string][]int {
	var idx map[string][]int
	if err := json.Unmarshal(w.AbstractInvertedIndex, &idx); err != nil {
		return nil
	}
	return idx
}

// landingURL prefers the DOI link, then the landing page, then the
// OpenAlex record itself.
func (w openAlexWork) landingURL() string {
	if w.DOI != "" {
		return w.DOI
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.LandingPageURL != "" {
		return w.PrimaryLocation.LandingPageURL
	}
	return w.ID
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
	PDFURL         string `json:"pdf_url"`
}

type openAlexTopic struct {
	DisplayName string `json:"display_name"`
}
