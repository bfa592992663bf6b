// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the search pipeline,
// the history store, and the HTTP surface.
package types

import "time"

// Field limits applied when a result is constructed.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
	MaxAuthors        = 3

	// UntitledPlaceholder replaces an empty upstream title.
	UntitledPlaceholder = "Untitled"
)

// NormalizedResult is the common record every source adapter produces.
type NormalizedResult struct {
	// ID is generated when the result is normalized.
	ID string `json:"id" yaml:"id"`

	// Title is never empty and at most MaxTitleLen characters.
	Title string `json:"title" yaml:"title"`

	// Description is an optional synopsis of at most MaxDescriptionLen characters.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// URL is the canonical landing or detail page.
	URL string `json:"url" yaml:"url"`

	// DownloadURL points at the document itself when the source exposes one.
	DownloadURL string `json:"download_url,omitempty" yaml:"download_url,omitempty"`

	// Source is the display name of the adapter that produced the result.
	Source string `json:"source" yaml:"source"`

	// Authors holds at most MaxAuthors names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year when the source provides a parseable one.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// PublicationDate is free text as returned by the source.
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// RelevanceScore is a source-local estimate, only meaningful for
	// ordering the results of a single search.
	RelevanceScore float64 `json:"relevance_score" yaml:"-"`

	Categories    []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Language      string   `json:"language,omitempty" yaml:"language,omitempty"`
	DOI           string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	CitationCount *int     `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
	Domain        string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	SourceRank    int      `json:"source_rank,omitempty" yaml:"source_rank,omitempty"`
	FileSize      string   `json:"file_size,omitempty" yaml:"file_size,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty" yaml:"thumbnail_url,omitempty"`

	// AISummary is filled in after ranking, for the first few results only.
	AISummary string `json:"ai_summary,omitempty" yaml:"ai_summary,omitempty"`
}

// SearchHistoryRecord is the append-only audit entry written once per search.
type SearchHistoryRecord struct {
	ID                string    `json:"id" yaml:"id"`
	OriginalQuery     string    `json:"original_query" yaml:"original_query"`
	ReformulatedQuery string    `json:"reformulated_query" yaml:"reformulated_query"`
	ResultsCount      int       `json:"results_count" yaml:"results_count"`
	SourcesUsed       []string  `json:"sources_used" yaml:"sources_used"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`

	// SearchTime is the elapsed wall-clock time in seconds.
	SearchTime float64 `json:"search_time" yaml:"search_time"`
}

// SourceDescriptor describes one configured source for the /sources listing.
type SourceDescriptor struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Primary     bool   `json:"primary" yaml:"primary"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
}
