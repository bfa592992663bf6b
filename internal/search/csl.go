package search

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docsearch/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID        string    `yaml:"id"`
	Type      string    `yaml:"type"`
	Title     string    `yaml:"title"`
	Author    []CSLName `yaml:"author,omitempty"`
	Abstract  string    `yaml:"abstract,omitempty"`
	Issued    *CSLDate  `yaml:"issued,omitempty"`
	DOI       string    `yaml:"DOI,omitempty"`
	URL       string    `yaml:"URL,omitempty"`
	Publisher string    `yaml:"publisher,omitempty"`
	Language  string    `yaml:"language,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes search results as a CSL-YAML list to w.
func FormatCSL(resp *Response, w io.Writer) error {
	items := make([]CSLItem, len(resp.Results))
	for i, r := range resp.Results {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a NormalizedResult to a CSLItem. Books from the
// catalog source become "book"; everything else is an article.
func toCSLItem(r types.NormalizedResult) CSLItem {
	item := CSLItem{
		ID:        r.ID,
		Type:      "article",
		Title:     r.Title,
		Abstract:  r.Description,
		DOI:       r.DOI,
		URL:       r.URL,
		Publisher: r.Source,
		Language:  r.Language,
	}
	if r.DOI != "" {
		item.ID = r.DOI
	}
	if r.Source == displayName(SourceGutenberg) {
		item.Type = "book"
	}

	for _, a := range r.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if r.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{r.Year}}}
	}
	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// "Family, Given" is split on the comma; otherwise everything before the
// last space is given and the last token is family. Single-token names use
// the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return CSLName{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
