// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docsearch/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent searches",
	Long: `History prints the newest entries of the search history store as a
table, or exports them as JSON or YAML with --format.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), false)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	store, err := history.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if format != "" && format != "table" {
		return store.Export(cmd.Context(), out, limit, format)
	}

	records, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No searches recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-19s  %-30s  %-30s  %7s  %6s\n", "Time", "Query", "Reformulated", "Results", "Secs")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, r := range records {
		fmt.Fprintf(out, "%-19s  %-30s  %-30s  %7d  %6.2f\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			clip(r.OriginalQuery, 30), clip(r.ReformulatedQuery, 30),
			r.ResultsCount, r.SearchTime)
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyCmd.Flags().Int("limit", 10, "number of records to show")
	historyCmd.Flags().String("format", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(historyCmd)
}
