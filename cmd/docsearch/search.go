// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docsearch/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search every enabled source from the terminal",
	Long: `Search runs one aggregated search and prints the ranked results as a
table, JSON (--json), or a CSL-YAML bibliography (--csl). Use --save to keep
the query and results in a YAML file, and --load to print a saved file again
without querying the sources. --load with --rerun runs the saved query again.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	req, saved, err := resolveRequest(cmd, args)
	if err != nil {
		return err
	}
	if saved != nil {
		return printResponse(cmd, saved, out)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.aggregator.Search(cmd.Context(), req)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteQueryFile(path, req, resp); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", path)
	}
	return printResponse(cmd, resp, out)
}

// resolveRequest returns the request to run. With --load and no --rerun it
// returns the saved page instead, and nothing is searched.
func resolveRequest(cmd *cobra.Command, args []string) (search.Request, *search.Response, error) {
	path, _ := cmd.Flags().GetString("load")
	if path == "" {
		req, err := requestFromFlags(cmd, args)
		return req, nil, err
	}
	qf, err := search.ReadQueryFile(path)
	if err != nil {
		return search.Request{}, nil, err
	}
	if rerun, _ := cmd.Flags().GetBool("rerun"); !rerun {
		return search.Request{}, qf.Response(), nil
	}
	req, err := qf.Query.ToRequest()
	return req, nil, err
}

// requestFromFlags builds a Request from positional args and flags.
func requestFromFlags(cmd *cobra.Command, args []string) (search.Request, error) {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		query = strings.Join(args, " ")
	}
	if strings.TrimSpace(query) == "" {
		return search.Request{}, fmt.Errorf("a query is required: docsearch search <words> or --query")
	}

	maxResults, _ := cmd.Flags().GetInt("max")
	dateRange, _ := cmd.Flags().GetString("date-range")
	sources, _ := cmd.Flags().GetStringSlice("sources")

	req := search.Request{
		Query:      query,
		MaxResults: maxResults,
		Sources:    sources,
		DateRange:  dateRange,
	}
	if cmd.Flags().Changed("priority") {
		p, _ := cmd.Flags().GetBool("priority")
		req.Priority = &p
	}
	if _, _, err := search.ParseDateRange(dateRange); err != nil {
		return req, err
	}
	return req, nil
}

func printResponse(cmd *cobra.Command, resp *search.Response, w io.Writer) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cslOutput, _ := cmd.Flags().GetBool("csl")
	switch {
	case jsonOutput:
		return search.FormatJSON(resp, w)
	case cslOutput:
		return search.FormatCSL(resp, w)
	default:
		search.FormatTable(resp, w)
		return nil
	}
}

func init() {
	searchCmd.Flags().String("query", "", "search text (alternative to positional words)")
	searchCmd.Flags().Int("max", 0, "maximum number of results (0 = configured default, negative is rejected)")
	searchCmd.Flags().StringSlice("sources", nil, "restrict to source ids (comma-separated): google, openalex, gutenberg, archive, semantic_scholar, arxiv")
	searchCmd.Flags().String("date-range", "", "publication years, e.g. 2015-2020, 2015- or -2020")
	searchCmd.Flags().Bool("priority", true, "give the primary source the larger share of the budget")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as a CSL-YAML bibliography")
	searchCmd.Flags().String("save", "", "write the query and results to a YAML file")
	searchCmd.Flags().String("load", "", "print a previously saved YAML file instead of searching")
	searchCmd.Flags().Bool("rerun", false, "with --load, run the saved query again instead of printing the saved results")
	searchCmd.MarkFlagsMutuallyExclusive("json", "csl")

	rootCmd.AddCommand(searchCmd)
}
