// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdiddy/docsearch/internal/assistant"
	"github.com/pdiddy/docsearch/internal/history"
	"github.com/pdiddy/docsearch/internal/logging"
	"github.com/pdiddy/docsearch/internal/metrics"
	"github.com/pdiddy/docsearch/internal/search"
	"github.com/pdiddy/docsearch/pkg/types"
)

// app holds the components shared by serve and search.
type app struct {
	cfg        types.Config
	log        *logrus.Logger
	metrics    *metrics.Metrics
	registry   *search.Registry
	assistant  *assistant.Assistant
	history    *history.Store
	aggregator *search.Aggregator
}

// newApp loads the configuration and wires every component. A history
// store that cannot be opened is logged and left out; searches still run.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(viper.GetViper(), true)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}
	a.registry = search.NewRegistry(cfg, log, a.metrics)

	a.assistant, err = assistant.New(ctx, cfg.AI, log)
	if err != nil {
		return nil, fmt.Errorf("initializing assistant: %w", err)
	}

	store, err := history.Open(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Error("search history disabled")
	} else {
		a.history = store
		log.WithField("driver", store.Driver()).WithField("location", store.Location()).Info("search history ready")
	}

	a.aggregator = &search.Aggregator{
		Registry:   a.registry,
		Rewriter:   a.assistant,
		Summarizer: a.assistant,
		Observer:   a.metrics,
		Log:        log,
		Config:     cfg.Search,
	}
	if a.history != nil {
		a.aggregator.History = a.history
	}
	return a, nil
}

func (a *app) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}
