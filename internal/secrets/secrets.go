// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, google-api-key, google-cse-id,
// semantic-scholar-api-key, openalex-email, database-url.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigKeys maps each supported secret file to the configuration key it
// provides a default for.
var ConfigKeys = map[string]string{
	"openai-api-key":           "ai.api_key",
	"google-api-key":           "google.api_key",
	"google-cse-id":            "google.cse_id",
	"semantic-scholar-api-key": "semantic_scholar.api_key",
	"openalex-email":           "openalex.email",
	"database-url":             "database.url",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Defaults translates loaded secrets into configuration defaults keyed by
// config key. Files not listed in ConfigKeys are ignored.
func Defaults(secrets map[string]string) map[string]string {
	out := make(map[string]string, len(secrets))
	for name, value := range secrets {
		if key, ok := ConfigKeys[name]; ok {
			out[key] = value
		}
	}
	return out
}

// Names returns the sorted secret file names, for startup diagnostics that
// must not print values.
func Names(secrets map[string]string) []string {
	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
