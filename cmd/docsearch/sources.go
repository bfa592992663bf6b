// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docsearch/internal/logging"
	"github.com/pdiddy/docsearch/internal/search"
	"github.com/pdiddy/docsearch/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the search sources and whether they are enabled",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), false)
		if err != nil {
			return err
		}
		reg := search.NewRegistry(cfg, logging.Discard(), nil)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		return printSources(cmd.OutOrStdout(), reg.Describe(), jsonOutput)
	},
}

func printSources(w io.Writer, sources []types.SourceDescriptor, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sources)
	}

	fmt.Fprintf(w, "%-18s  %-18s  %-8s  %-7s  %s\n", "ID", "Name", "Enabled", "Primary", "Description")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, d := range sources {
		fmt.Fprintf(w, "%-18s  %-18s  %-8s  %-7s  %s\n", d.ID, d.Name, yesNo(d.Enabled), yesNo(d.Primary), d.Description)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(sourcesCmd)
}
