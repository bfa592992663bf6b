// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const sampleSemanticJSON = `{
  "total": 2,
  "offset": 0,
  "data": [
    {
      "paperId": "204e3073870fae3d05bcbc2f6a8e263d9b72e776",
      "title": "Attention Is All You Need",
      "abstract": "The dominant sequence transduction models...",
      "url": "https://www.semanticscholar.org/paper/204e3073870fae3d05bcbc2f6a8e263d9b72e776",
      "venue": "NeurIPS",
      "year": 2017,
      "publicationDate": "2017-06-12",
      "citationCount": 100000,
      "fieldsOfStudy": ["Computer Science"],
      "authors": [{"authorId": "1", "name": "Ashish Vaswani"}, {"authorId": "2", "name": "Noam Shazeer"}],
      "externalIds": {"DOI": "10.5555/3295222.3295349", "ArXiv": "1706.03762"},
      "openAccessPdf": {"url": "https://arxiv.org/pdf/1706.03762"}
    },
    {
      "paperId": "abc123",
      "title": "An Obscure Workshop Paper",
      "abstract": null,
      "venue": "Workshop on Things",
      "year": null,
      "citationCount": null,
      "authors": [],
      "externalIds": {}
    }
  ]
}`

func TestSemanticSearchParsesPapers(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, sampleSemanticJSON)
	swapBase(t, &semanticAPIBase, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Text: "attention"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	r0 := results[0]
	if r0.Source != "Semantic Scholar" {
		t.Errorf("Source = %q", r0.Source)
	}
	if r0.DOI != "10.5555/3295222.3295349" || r0.Year != 2017 {
		t.Errorf("DOI/Year = %q/%d", r0.DOI, r0.Year)
	}
	if r0.DownloadURL != "https://arxiv.org/pdf/1706.03762" {
		t.Errorf("DownloadURL = %q", r0.DownloadURL)
	}
	if r0.CitationCount == nil || *r0.CitationCount != 100000 {
		t.Errorf("CitationCount = %v", r0.CitationCount)
	}
	if len(r0.Categories) != 1 || r0.Categories[0] != "Computer Science" {
		t.Errorf("Categories = %v", r0.Categories)
	}

	r1 := results[1]
	if r1.URL != "https://www.semanticscholar.org/paper/abc123" {
		t.Errorf("URL = %q, want URL built from paperId", r1.URL)
	}
	if r1.Description != "Published in Workshop on Things" {
		t.Errorf("Description = %q, want venue fallback", r1.Description)
	}
	if r1.CitationCount != nil || r1.Year != 0 {
		t.Errorf("null fields should be absent: citations=%v year=%d", r1.CitationCount, r1.Year)
	}
	if r0.RelevanceScore <= r1.RelevanceScore {
		t.Errorf("cited paper score %f should beat uncited %f", r0.RelevanceScore, r1.RelevanceScore)
	}
}

func TestSemanticSearchRequestParams(t *testing.T) {
	var capturedReq *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	}))
	defer ts.Close()
	swapBase(t, &semanticAPIBase, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client(), APIKey: "secret"}
	if _, err := b.Search(context.Background(), Query{Text: "transformers", YearFrom: 2019}, 15); err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := capturedReq.URL.Query()
	if q.Get("query") != "transformers" {
		t.Errorf("query = %q", q.Get("query"))
	}
	if q.Get("limit") != "15" {
		t.Errorf("limit = %q, want 15", q.Get("limit"))
	}
	if q.Get("year") != "2019-" {
		t.Errorf("year = %q, want 2019-", q.Get("year"))
	}
	if !strings.Contains(q.Get("fields"), "citationCount") {
		t.Errorf("fields = %q", q.Get("fields"))
	}
	if capturedReq.Header.Get("x-api-key") != "secret" {
		t.Error("x-api-key header not sent")
	}
}

func TestSemanticSearchNoAPIKeyHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Api-Key"]; ok {
			t.Error("x-api-key should not be sent without a key")
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()
	swapBase(t, &semanticAPIBase, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Text: "x"}, 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestSemanticSearchRetriesThrottling(t *testing.T) {
	fastRetries(t)
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, sampleSemanticJSON)
	}))
	defer ts.Close()
	swapBase(t, &semanticAPIBase, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Text: "x"}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || calls.Load() != 2 {
		t.Errorf("results=%d calls=%d, want 2/2", len(results), calls.Load())
	}
}

func TestSemanticSearchHTTPErrors(t *testing.T) {
	fastRetries(t)
	tests := []struct {
		name       string
		statusCode int
		wantErr    string
	}{
		{"429 rate limit", http.StatusTooManyRequests, "HTTP 429"},
		{"500 server error", http.StatusInternalServerError, "HTTP 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := jsonServer(t, tt.statusCode, "")
			swapBase(t, &semanticAPIBase, ts.URL)

			b := &SemanticScholarBackend{Client: ts.Client()}
			_, err := b.Search(context.Background(), Query{Text: "test"}, 5)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSemanticSearchMalformedJSON(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, `{"data": [{"title": 42}]`)
	swapBase(t, &semanticAPIBase, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Text: "x"}, 5); err == nil {
		t.Error("expected parse error")
	}
}

func TestSemanticSearchMalformedNumbersKeepPage(t *testing.T) {
	body := `{"total": "many", "data": [
	  {"paperId": "p1", "title": "Good Paper", "year": 2020, "citationCount": 3},
	  {"paperId": "p2", "title": "String Year", "year": "2019", "citationCount": 1},
	  {"paperId": "p3", "title": "Garbage Year", "year": "n/a", "externalIds": {"CorpusId": "x"}}
	]}`
	ts := jsonServer(t, http.StatusOK, body)
	swapBase(t, &semanticAPIBase, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Text: "x"}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	wantYears := []int{2020, 2019, 0}
	for i, want := range wantYears {
		if results[i].Year != want {
			t.Errorf("results[%d].Year = %d, want %d", i, results[i].Year, want)
		}
	}
}

func TestSemanticScore(t *testing.T) {
	fixClock(t, 2026)
	none := semanticScore(nil, 0, 0)
	if none != 0.3 {
		t.Errorf("no signal = %f, want 0.3", none)
	}
	c := 1000
	cited := semanticScore(&c, 2025, 0)
	if cited <= none || cited > 1 {
		t.Errorf("cited recent = %f", cited)
	}
	if deep := semanticScore(nil, 0, 50); deep != 0.1 {
		t.Errorf("deep rank = %f, want floor 0.1", deep)
	}
}

func TestBuildYearRange(t *testing.T) {
	tests := []struct {
		from, to int
		want     string
	}{
		{2020, 2023, "2020-2023"},
		{2020, 0, "2020-"},
		{0, 2023, "-2023"},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := buildYearRange(tt.from, tt.to); got != tt.want {
			t.Errorf("buildYearRange(%d, %d) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSemanticScholarBackendName(t *testing.T) {
	if got := (&SemanticScholarBackend{}).Name(); got != "semantic_scholar" {
		t.Errorf("Name() = %q, want %q", got, "semantic_scholar")
	}
}
