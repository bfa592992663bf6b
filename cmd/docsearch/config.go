// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/docsearch/internal/search"
	"github.com/pdiddy/docsearch/pkg/types"
)

// envAliases are the unprefixed variable names accepted next to the
// DOCSEARCH_* form of each key.
var envAliases = map[string]string{
	"database.url":             "DATABASE_URL",
	"database.name":            "DB_NAME",
	"ai.api_key":               "OPENAI_API_KEY",
	"google.api_key":           "GOOGLE_API_KEY",
	"google.cse_id":            "GOOGLE_CSE_ID",
	"semantic_scholar.api_key": "SEMANTIC_SCHOLAR_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8001")

	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.max_results_cap", 50)
	v.SetDefault("search.primary_source", search.SourceGoogle)
	v.SetDefault("search.priority", true)
	v.SetDefault("search.timeout", 20*time.Second)
	v.SetDefault("search.enrich_count", 5)
	v.SetDefault("search.dedup_by_url", true)
	v.SetDefault("search.sources", []string{})
	v.SetDefault("search.http.timeout", 15*time.Second)
	v.SetDefault("search.http.user_agent", "docsearch/"+version)

	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.rpm", 60)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", 30*time.Second)

	v.SetDefault("google.api_key", "")
	v.SetDefault("google.cse_id", "")
	v.SetDefault("semantic_scholar.api_key", "")
	v.SetDefault("openalex.email", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.name", "docsearch")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// bindEnv enables DOCSEARCH_SECTION_KEY variables plus the aliases.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DOCSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		_ = v.BindEnv(key, "DOCSEARCH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias)
	}
}

// loadConfig decodes v into a Config and validates it.
func loadConfig(v *viper.Viper, needAI bool) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Search.PrimarySource = strings.ToLower(strings.TrimSpace(cfg.Search.PrimarySource))
	if err := validate(cfg, needAI); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg types.Config, needAI bool) error {
	var errs []error
	if needAI && strings.TrimSpace(cfg.AI.APIKey) == "" {
		errs = append(errs, errors.New("ai.api_key is required (set OPENAI_API_KEY or .secrets/openai-api-key)"))
	}
	if cfg.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.max_results must be positive, got %d", cfg.Search.MaxResults))
	}
	if cfg.Search.MaxResultsCap < cfg.Search.MaxResults {
		errs = append(errs, fmt.Errorf("search.max_results_cap (%d) is below search.max_results (%d)",
			cfg.Search.MaxResultsCap, cfg.Search.MaxResults))
	}
	if cfg.Search.PrimarySource != "" && !search.Known(cfg.Search.PrimarySource) {
		errs = append(errs, fmt.Errorf("search.primary_source %q is not a known source", cfg.Search.PrimarySource))
	}
	for _, id := range cfg.Search.Sources {
		if !search.Known(strings.ToLower(strings.TrimSpace(id))) {
			errs = append(errs, fmt.Errorf("search.sources: unknown source %q", id))
		}
	}
	if cfg.Search.Timeout < 0 || cfg.Search.HTTP.Timeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	return errors.Join(errs...)
}
