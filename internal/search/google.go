// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/docsearch/internal/httputil"
	"github.com/pdiddy/docsearch/pkg/types"
)

// googleSearchBase is the Custom Search JSON endpoint. Declared as a var
// so tests can substitute an httptest server.
var googleSearchBase = "https://www.googleapis.com/customsearch/v1"

// Custom Search returns at most 10 items per request; at most
// googleMaxPages requests are made per search.
const (
	googlePageSize = 10
	googleMaxPages = 3
)

// authorityDomains earn a score bonus. A host matches when it equals an
// entry or ends with "."+entry; entries starting with "." match any
// host with that suffix.
var authorityDomains = []string{
	".edu", ".gov", ".ac.uk", ".ac.jp", ".int",
	"arxiv.org", "nature.com", "springer.com", "sciencedirect.com",
	"ieee.org", "acm.org", "jstor.org", "nih.gov", "who.int",
	"researchgate.net", "plos.org", "wiley.com", "oup.com", "cambridge.org",
}

// GoogleBackend discovers PDFs across the web through a Custom Search engine.
type GoogleBackend struct {
	Client    *http.Client
	APIKey    string
	EngineID  string
	UserAgent string
}

// Name returns the backend identifier.
func (b *GoogleBackend) Name() string { return SourceGoogle }

// Search pages through Custom Search results restricted to PDFs.
func (b *GoogleBackend) Search(ctx context.Context, query Query, quota int) ([]types.NormalizedResult, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, fmt.Errorf("empty Google query")
	}
	if b.APIKey == "" || b.EngineID == "" {
		return nil, fmt.Errorf("google custom search credentials missing")
	}

	var results []types.NormalizedResult
	rank := 0
	for page := 0; page < googleMaxPages && len(results) < quota; page++ {
		num := quota - len(results)
		if num > googlePageSize {
			num = googlePageSize
		}
		params := url.Values{
			"key":   {b.APIKey},
			"cx":    {b.EngineID},
			"q":     {text + " filetype:pdf"},
			"num":   {strconv.Itoa(num)},
			"start": {strconv.Itoa(1 + page*googlePageSize)},
		}
		req, err := newGet(ctx, googleSearchBase+"?"+params.Encode(), b.UserAgent)
		if err != nil {
			return nil, err
		}

		body, err := httputil.Fetch(ctx, b.Client, req, 0)
		if err != nil {
			if len(results) > 0 {
				break
			}
			return nil, fmt.Errorf("Google Custom Search request: %w", err)
		}

		var gr googleResponse
		if err := json.Unmarshal(body, &gr); err != nil {
			if len(results) > 0 {
				break
			}
			return nil, fmt.Errorf("parsing Google Custom Search response: %w", err)
		}

		for _, item := range gr.Items {
			if len(results) == quota {
				break
			}
			rank++
			if r, ok := googleResult(item, rank); ok {
				results = append(results, r)
			}
		}

		if len(gr.Items) < num {
			break
		}
	}
	return results, nil
}

func googleResult(item googleItem, rank int) (types.NormalizedResult, bool) {
	r := types.NormalizedResult{
		Title:       item.Title,
		Description: item.Snippet,
		URL:         item.Link,
		DownloadURL: item.Link,
		Source:      displayName(SourceGoogle),
		Domain:      item.DisplayLink,
		SourceRank:  rank,
		Year:        extractYear(item.Title + " " + item.Snippet),
	}
	if r.Domain == "" {
		if u, err := url.Parse(item.Link); err == nil {
			r.Domain = u.Hostname()
		}
	}
	if len(item.PageMap.Metatags) > 0 {
		meta := item.PageMap.Metatags[0]
		if a := strings.TrimSpace(firstOrSelf(meta["author"])); a != "" {
			r.Authors = []string{a}
		}
		if r.Year == 0 {
			r.Year = extractYear(firstOrSelf(meta["creationdate"]))
		}
	}
	r.RelevanceScore = googleScore(r.Domain, r.Year, rank)
	return normalize(r)
}

// googleScore combines domain authority, inferred recency, and position:
// 0.5 base, +0.3 for an authority domain, +0.2 (or +0.1) for a recent
// year, -0.01 per rank after the first, floored at 0.1.
func googleScore(domain string, year, rank int) float64 {
	s := 0.5
	if isAuthority(domain) {
		s += 0.3
	}
	s += recencyBonus(year, 0.2)
	s -= float64(rank-1) * 0.01
	if s < 0.1 {
		s = 0.1
	}
	return s
}

func isAuthority(domain string) bool {
	host := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "www."))
	if host == "" {
		return false
	}
	for _, d := range authorityDomains {
		if strings.HasPrefix(d, ".") {
			if strings.HasSuffix(host, d) {
				return true
			}
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Custom Search JSON structures.
type googleResponse struct {
	Items []googleItem `json:"items"`
}

type googleItem struct {
	Title       string        `json:"title"`
	Link        string        `json:"link"`
	DisplayLink string        `json:"displayLink"`
	Snippet     string        `json:"snippet"`
	PageMap     googlePageMap `json:"pagemap"`
}

type googlePageMap struct {
	Metatags []map[string]json.RawMessage `json:"metatags"`
}
