// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docsearch/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A saved search can be reloaded and reprinted without querying the
// sources again.
type QueryFile struct {
	Query   QueryParams              `yaml:"query"`
	Results []types.NormalizedResult `yaml:"results"`
	Summary QuerySummary             `yaml:"summary"`
}

// QueryParams stores the request in a serializable form.
type QueryParams struct {
	Text              string   `yaml:"text"`
	ReformulatedQuery string   `yaml:"reformulated_query,omitempty"`
	MaxResults        int      `yaml:"max_results,omitempty"`
	Sources           []string `yaml:"sources,omitempty"`
	DateRange         string   `yaml:"date_range,omitempty"`
	Priority          *bool    `yaml:"priority,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	SourcesUsed       []string  `yaml:"sources_used,omitempty"`
	Suggestions       []string  `yaml:"suggestions,omitempty"`
	SearchTime        float64   `yaml:"search_time"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the request and its response to a YAML file.
func WriteQueryFile(path string, req Request, resp *Response) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:              req.Query,
			ReformulatedQuery: resp.ReformulatedQuery,
			MaxResults:        req.MaxResults,
			Sources:           req.Sources,
			DateRange:         req.DateRange,
			Priority:          req.Priority,
		},
		Results: resp.Results,
		Summary: QuerySummary{
			Total:             resp.TotalFound,
			DuplicatesRemoved: resp.DuplicatesRemoved,
			SourcesUsed:       resp.SourcesUsed,
			Suggestions:       resp.Suggestions,
			SearchTime:        resp.SearchTime,
			Timestamp:         now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToRequest converts stored QueryParams back into a Request.
func (p QueryParams) ToRequest() (Request, error) {
	req := Request{
		Query:      p.Text,
		MaxResults: p.MaxResults,
		Sources:    p.Sources,
		DateRange:  p.DateRange,
		Priority:   p.Priority,
	}
	if _, _, err := ParseDateRange(p.DateRange); err != nil {
		return req, err
	}
	return req, nil
}

// Response rebuilds the saved page so it can be printed again.
func (qf *QueryFile) Response() *Response {
	return &Response{
		Query:             qf.Query.Text,
		ReformulatedQuery: qf.Query.ReformulatedQuery,
		Results:           qf.Results,
		TotalFound:        qf.Summary.Total,
		SearchTime:        qf.Summary.SearchTime,
		Suggestions:       qf.Summary.Suggestions,
		SourcesUsed:       qf.Summary.SourcesUsed,
		DuplicatesRemoved: qf.Summary.DuplicatesRemoved,
	}
}
