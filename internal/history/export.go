// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export formats accepted by Export.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export writes the newest limit records to w as JSON or YAML.
func (s *Store) Export(ctx context.Context, w io.Writer, limit int, format string) error {
	records, err := s.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
