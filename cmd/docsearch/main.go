// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docsearch CLI and API server.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docsearch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the docsearch CLI.
var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Search PDFs, papers, and books across several open indexes",
	Long: `docsearch fans one query out to Google Custom Search, OpenAlex, Project
Gutenberg, the Internet Archive, Semantic Scholar, and arXiv, then returns a
single deduplicated, ranked list. A language model rewrites the query,
proposes related searches, and summarizes the top results.

Run "docsearch serve" for the HTTP API or "docsearch search" from a terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		for key, value := range secrets.Defaults(s) {
			viper.SetDefault(key, value)
		}
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", secrets.Names(s))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docsearch.yaml or ~/.config/docsearch/docsearch.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of one-file-per-key secrets")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	v := viper.GetViper()
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docsearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "docsearch"))
		}
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
