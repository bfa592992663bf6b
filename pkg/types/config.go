package types

import "time"

// HTTPConfig holds shared HTTP settings used by every source adapter.
type HTTPConfig struct {
	// Timeout bounds a single upstream request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with upstream requests
	// (e.g. "docsearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the aggregation pipeline.
type SearchConfig struct {
	HTTP HTTPConfig `json:"http" yaml:"http" mapstructure:"http"`

	// MaxResults is the default result budget when a request omits one (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// MaxResultsCap is the largest budget a request may ask for (default 50).
	MaxResultsCap int `json:"max_results_cap" yaml:"max_results_cap" mapstructure:"max_results_cap"`

	// PrimarySource is the source id that gets the larger budget share in
	// priority mode (default "google").
	PrimarySource string `json:"primary_source" yaml:"primary_source" mapstructure:"primary_source"`

	// Priority is the default for requests that do not set priority mode.
	Priority bool `json:"priority" yaml:"priority" mapstructure:"priority"`

	// Timeout bounds the whole fan-out of one request (default 20s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// EnrichCount is how many top results receive an AI summary (default 5).
	EnrichCount int `json:"enrich_count" yaml:"enrich_count" mapstructure:"enrich_count"`

	// DedupByURL also drops results whose canonical URL was already seen
	// from the same source.
	DedupByURL bool `json:"dedup_by_url" yaml:"dedup_by_url" mapstructure:"dedup_by_url"`

	// Sources restricts the registry to these ids. Empty enables all.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty" mapstructure:"sources"`
}

// AIConfig holds settings for the language model used to rewrite queries
// and summarize results.
type AIConfig struct {
	// Model is the chat model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// RPM caps model calls per minute (default 60).
	RPM int `json:"rpm" yaml:"rpm" mapstructure:"rpm"`

	// MaxTokens caps each completion (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout bounds a single model call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// GoogleConfig holds Custom Search credentials. Both must be set for the
// web index source to be enabled.
type GoogleConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	CSEID  string `json:"cse_id,omitempty" yaml:"cse_id,omitempty" mapstructure:"cse_id"`
}

// SemanticScholarConfig holds the optional API key for higher rate limits.
type SemanticScholarConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// OpenAlexConfig holds the optional polite-pool contact address.
type OpenAlexConfig struct {
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
}

// DatabaseConfig locates the search history store. A postgres:// URL
// selects PostgreSQL; anything else is a SQLite path or directory.
type DatabaseConfig struct {
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
	Name string `json:"name" yaml:"name" mapstructure:"name"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig selects the log level and an optional log file.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// Config groups every setting the service needs. It is built once at
// startup and passed by value into constructors.
type Config struct {
	Server          ServerConfig          `json:"server" yaml:"server" mapstructure:"server"`
	Search          SearchConfig          `json:"search" yaml:"search" mapstructure:"search"`
	AI              AIConfig              `json:"ai" yaml:"ai" mapstructure:"ai"`
	Google          GoogleConfig          `json:"google" yaml:"google" mapstructure:"google"`
	SemanticScholar SemanticScholarConfig `json:"semantic_scholar" yaml:"semantic_scholar" mapstructure:"semantic_scholar"`
	OpenAlex        OpenAlexConfig        `json:"openalex" yaml:"openalex" mapstructure:"openalex"`
	Database        DatabaseConfig        `json:"database" yaml:"database" mapstructure:"database"`
	Log             LogConfig             `json:"log" yaml:"log" mapstructure:"log"`
}
