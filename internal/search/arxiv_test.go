// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleArxivSearchXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v1</id>
    <title>Attention Is
      All You Need</title>
    <summary>We propose a new architecture based solely on attention mechanisms.</summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:doi>10.48550/arXiv.1706.03762</arxiv:doi>
    <link href="http://arxiv.org/abs/1706.03762v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v1" rel="related" type="application/pdf"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce BERT.</summary>
    <published>2018-10-11T00:00:00Z</published>
    <author><name>Jacob Devlin</name></author>
  </entry>
  <entry>
    <id>not an arxiv id</id>
    <title>Broken entry</title>
  </entry>
</feed>`

func TestArxivBackendSearch(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		if got := r.URL.Query().Get("max_results"); got != "5" {
			t.Errorf("max_results = %q, want 5", got)
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleArxivSearchXML)
	}))
	defer ts.Close()
	swapBase(t, &arxivAPIBase, ts.URL)

	b := &ArxivBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Text: "attention"}, 5)
	if err != nil {
		t.Fatalf("ArxivBackend.Search: %v", err)
	}
	if gotQuery != "all:attention" {
		t.Errorf("search_query = %q", gotQuery)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	r := results[0]
	if r.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.URL != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("URL = %q", r.URL)
	}
	if r.DownloadURL != "http://arxiv.org/pdf/1706.03762v1" {
		t.Errorf("DownloadURL = %q, want the pdf link", r.DownloadURL)
	}
	if r.DOI != "10.48550/arXiv.1706.03762" {
		t.Errorf("DOI = %q", r.DOI)
	}
	if len(r.Authors) != 2 || r.Year != 2017 {
		t.Errorf("Authors/Year = %v/%d", r.Authors, r.Year)
	}
	if strings.Join(r.Categories, ",") != "cs.CL,cs.LG" {
		t.Errorf("Categories = %v", r.Categories)
	}
	if r.Source != "arXiv" {
		t.Errorf("Source = %q, want %q", r.Source, "arXiv")
	}
	if r.RelevanceScore != 0.5 {
		t.Errorf("first score = %f, want 0.5", r.RelevanceScore)
	}

	// No pdf link in the feed: the download URL is derived from the id.
	if results[1].DownloadURL != "https://arxiv.org/pdf/1810.04805" {
		t.Errorf("DownloadURL = %q", results[1].DownloadURL)
	}
	if results[1].RelevanceScore >= results[0].RelevanceScore {
		t.Errorf("second score %f should be below first %f", results[1].RelevanceScore, results[0].RelevanceScore)
	}
}

func TestArxivBackendHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()
	swapBase(t, &arxivAPIBase, ts.URL)

	b := &ArxivBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Text: "x"}, 5); err == nil || !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("err = %v, want HTTP 502", err)
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/1706.03762v5", "1706.03762"},
		{"http://arxiv.org/abs/2301.12345", "2301.12345"},
		{"https://arxiv.org/abs/2301.07041v2", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := extractArxivID(tt.input)
			if got != tt.want {
				t.Errorf("extractArxivID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"free text", Query{Text: "graph  neural networks"}, "all:graph neural networks"},
		{"empty", Query{Text: "  "}, ""},
		{"full range", Query{Text: "llm", YearFrom: 2020, YearTo: 2022}, "all:llm AND submittedDate:[202001010000 TO 202212312359]"},
		{"open end", Query{Text: "llm", YearFrom: 2020}, "all:llm AND submittedDate:[202001010000 TO 999912312359]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildArxivQuery(tt.query); got != tt.want {
				t.Errorf("buildArxivQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArxivBackendName(t *testing.T) {
	if got := (&ArxivBackend{}).Name(); got != "arxiv" {
		t.Errorf("Name() = %q, want %q", got, "arxiv")
	}
}
