// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docsearch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve starts the JSON API under /api (search, suggestions, summarize,
sources, history, health) and Prometheus metrics on /metrics. It stops
gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	deps := server.Deps{
		Searcher:  a.aggregator,
		Assistant: a.assistant,
		Registry:  a.registry,
		Metrics:   a.metrics.Handler(),
		Config:    a.cfg,
		Log:       a.log,
	}
	if a.history != nil {
		deps.History = a.history
	}
	if version != "dev" {
		server.Version = version
	}
	return server.New(deps).Run(ctx, a.cfg.Server.Addr)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8001)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

