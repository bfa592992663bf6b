// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/docsearch/pkg/types"
)

func TestToCSLItemBook(t *testing.T) {
	r := types.NormalizedResult{
		ID:       "b1",
		Title:    "Pride and Prejudice",
		Authors:  []string{"Austen, Jane"},
		Year:     1813,
		URL:      "https://www.gutenberg.org/ebooks/1342",
		Source:   "Project Gutenberg",
		Language: "en",
	}

	item := toCSLItem(r)

	if item.Type != "book" {
		t.Errorf("Type = %q, want book", item.Type)
	}
	if item.ID != "b1" {
		t.Errorf("ID = %q, want b1", item.ID)
	}
	if len(item.Author) != 1 || item.Author[0].Family != "Austen" || item.Author[0].Given != "Jane" {
		t.Errorf("Author = %+v, want Austen/Jane", item.Author)
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 1813 {
		t.Errorf("Issued = %+v, want 1813", item.Issued)
	}
	if item.Publisher != "Project Gutenberg" || item.Language != "en" {
		t.Errorf("Publisher/Language = %q/%q", item.Publisher, item.Language)
	}
}

func TestToCSLItemArticleUsesDOI(t *testing.T) {
	r := types.NormalizedResult{
		ID:     "generated",
		Title:  "Attention Is All You Need",
		DOI:    "10.48550/arXiv.1706.03762",
		Source: "arXiv",
	}

	item := toCSLItem(r)

	if item.Type != "article" {
		t.Errorf("Type = %q, want article", item.Type)
	}
	if item.ID != "10.48550/arXiv.1706.03762" || item.DOI != item.ID {
		t.Errorf("ID/DOI = %q/%q, want the DOI for both", item.ID, item.DOI)
	}
	if item.Issued != nil {
		t.Errorf("Issued = %+v, want nil without a year", item.Issued)
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Ashish Vaswani", CSLName{Given: "Ashish", Family: "Vaswani"}},
		{"Jan van der Berg", CSLName{Given: "Jan van der", Family: "Berg"}},
		{"Austen, Jane", CSLName{Family: "Austen", Given: "Jane"}},
		{"IPCC", CSLName{Literal: "IPCC"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		if got := parseAuthorName(tt.in); got != tt.want {
			t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestFormatCSL(t *testing.T) {
	resp := &Response{
		Results: []types.NormalizedResult{
			{ID: "a", Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani"}, Year: 2017, Source: "arXiv"},
			{ID: "b", Title: "Frankenstein", Authors: []string{"Shelley, Mary"}, Source: "Project Gutenberg"},
		},
	}

	var buf bytes.Buffer
	if err := FormatCSL(resp, &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}
	s := buf.String()

	for _, want := range []string{"type: article", "type: book", "family: Vaswani", "family: Shelley", "publisher: arXiv"} {
		if !strings.Contains(s, want) {
			t.Errorf("CSL output missing %q:\n%s", want, s)
		}
	}
	if strings.Count(s, "date-parts:") != 1 {
		t.Errorf("expected exactly 1 issued date, got %d", strings.Count(s, "date-parts:"))
	}
}
