// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

// Archive fields flip between scalars and lists from one item to the next.
const sampleArchiveJSON = `{
  "responseHeader": {"status": 0},
  "response": {
    "numFound": 3,
    "docs": [
      {
        "identifier": "climatechange00gore",
        "title": ["Climate Change: A Primer"],
        "description": "An introduction to the science of climate change.",
        "creator": ["Gore, Al", "Smith, Jane", "Doe, John", "Roe, Richard"],
        "subject": ["climate", "environment"],
        "downloads": 2500,
        "item_size": 13002342,
        "publicdate": "2009-03-11T12:00:00Z",
        "year": "2008",
        "language": ["eng"]
      },
      {
        "identifier": ["ipcc-report-1990"],
        "title": "IPCC First Assessment Report",
        "creator": "IPCC",
        "downloads": "420",
        "item_size": "not a size",
        "publicdate": "2012-01-05T00:00:00Z"
      },
      {
        "identifier": "untitled-scan",
        "downloads": null
      },
      {
        "title": "No identifier"
      }
    ]
  }
}`

func TestArchiveBackendSearch(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, sampleArchiveJSON)
	}))
	defer ts.Close()
	swapBase(t, &archiveSearchBase, ts.URL)

	b := &ArchiveBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Text: "climate change"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got := gotQuery["q"]; len(got) != 1 || got[0] != "(climate change) AND format:PDF" {
		t.Errorf("q = %v", got)
	}
	if got := gotQuery["rows"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("rows = %v, want 10", got)
	}
	if got := gotQuery["sort[]"]; len(got) != 1 || got[0] != "downloads desc" {
		t.Errorf("sort[] = %v", got)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	r0 := results[0]
	if r0.Title != "Climate Change: A Primer" {
		t.Errorf("Title = %q", r0.Title)
	}
	if r0.URL != "https://archive.org/details/climatechange00gore" {
		t.Errorf("URL = %q", r0.URL)
	}
	if r0.DownloadURL != "https://archive.org/download/climatechange00gore/climatechange00gore.pdf" {
		t.Errorf("DownloadURL = %q", r0.DownloadURL)
	}
	if r0.ThumbnailURL != "https://archive.org/services/img/climatechange00gore" {
		t.Errorf("ThumbnailURL = %q", r0.ThumbnailURL)
	}
	if r0.FileSize != "12.4 MB" {
		t.Errorf("FileSize = %q, want 12.4 MB", r0.FileSize)
	}
	if r0.Language != "eng" || r0.Year != 2008 {
		t.Errorf("Language/Year = %q/%d", r0.Language, r0.Year)
	}
	if !reflect.DeepEqual(r0.Authors, []string{"Gore, Al", "Smith, Jane", "Doe, John"}) {
		t.Errorf("Authors = %v, want first three", r0.Authors)
	}
	if r0.RelevanceScore != 1.0 {
		t.Errorf("score = %f, want 1.0 (capped)", r0.RelevanceScore)
	}
	if r0.Source != "Internet Archive" {
		t.Errorf("Source = %q", r0.Source)
	}

	r1 := results[1]
	if r1.URL != "https://archive.org/details/ipcc-report-1990" {
		t.Errorf("list identifier not coerced: %q", r1.URL)
	}
	if r1.FileSize != "Unknown" {
		t.Errorf("FileSize = %q, want Unknown", r1.FileSize)
	}
	if r1.Language != "English" {
		t.Errorf("Language = %q, want English default", r1.Language)
	}
	if r1.RelevanceScore != 0.42 {
		t.Errorf("score = %f, want 0.42", r1.RelevanceScore)
	}
	if r1.Year != 2012 {
		t.Errorf("Year = %d, want 2012 from publicdate", r1.Year)
	}

	r2 := results[2]
	if r2.Title != "Untitled" || r2.RelevanceScore != 0.1 {
		t.Errorf("Title/score = %q/%f, want placeholder and 0.1", r2.Title, r2.RelevanceScore)
	}
}

func TestArchiveBackendRespectsQuota(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, sampleArchiveJSON)
	swapBase(t, &archiveSearchBase, ts.URL)

	b := &ArchiveBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Text: "x"}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
}

func TestArchiveBackendIdempotent(t *testing.T) {
	old := newID
	newID = func() string { return "fixed" }
	defer func() { newID = old }()

	ts := jsonServer(t, http.StatusOK, sampleArchiveJSON)
	swapBase(t, &archiveSearchBase, ts.URL)

	b := &ArchiveBackend{Client: ts.Client()}
	first, err := b.Search(context.Background(), Query{Text: "x"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := b.Search(context.Background(), Query{Text: "x"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	a, _ := json.Marshal(first)
	c, _ := json.Marshal(second)
	if string(a) != string(c) {
		t.Errorf("repeated searches differ:\n%s\n%s", a, c)
	}
}

func TestArchiveBackendErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"bad gateway", http.StatusBadGateway, "", "HTTP 502"},
		{"html instead of json", http.StatusOK, "<html>maintenance</html>", "parsing Internet Archive response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := jsonServer(t, tt.status, tt.body)
			swapBase(t, &archiveSearchBase, ts.URL)

			b := &ArchiveBackend{Client: ts.Client()}
			_, err := b.Search(context.Background(), Query{Text: "x"}, 5)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildArchiveQuery(t *testing.T) {
	tests := []struct {
		query Query
		want  string
	}{
		{Query{Text: "maps"}, "(maps) AND format:PDF"},
		{Query{Text: "maps", YearFrom: 1900, YearTo: 1950}, "(maps) AND format:PDF AND year:[1900 TO 1950]"},
		{Query{Text: "maps", YearTo: 1950}, "(maps) AND format:PDF AND year:[* TO 1950]"},
	}
	for _, tt := range tests {
		if got := buildArchiveQuery(tt.query); got != tt.want {
			t.Errorf("buildArchiveQuery(%+v) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestArchiveFileSize(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{`1048576`, "1.0 MB"},
		{`"5242880"`, "5.0 MB"},
		{`0`, "Unknown"},
		{`"huge"`, "Unknown"},
		{``, "Unknown"},
	}
	for _, tt := range tests {
		if got := archiveFileSize(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("archiveFileSize(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
