// Package app wires configuration into a ready-to-run pipeline. Both the
// HTTP service and the CLI build on it.
package app

import (
	"context"
	"fmt"

	"meeting-insights-go/internal/config"
	"meeting-insights-go/internal/extractor"
	"meeting-insights-go/internal/logger"
	"meeting-insights-go/internal/metrics"
	"meeting-insights-go/internal/pipeline"
	"meeting-insights-go/internal/transcription"
)

type App struct {
	Config       config.Config
	Log          *logger.Logger
	Metrics      *metrics.Metrics
	Router       *transcription.Router
	Orchestrator *pipeline.Orchestrator
}

// New builds the router, the language model backend and the orchestrator
// from cfg. Backends without credentials stay in the routing table as
// unavailable rows.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.New()
	}
	m := metrics.New()

	backends := transcription.BackendsFromConfig(cfg, log)
	router := transcription.NewRouter(log, m, backends...)
	for _, row := range router.Table() {
		log.WithField("backend", row.Name).
			WithField("max_mb", row.MaxSize/(1024*1024)).
			WithField("available", row.Available).
			Info("transcription backend registered")
	}

	llm, err := extractor.NewBackend(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm backend: %w", err)
	}
	log.WithField("llm", llm.Name()).Info("text intelligence backend ready")

	client := extractor.NewClient(llm, log, cfg.Pipeline.SummaryMaxWords)
	orch := pipeline.New(router, client, pipeline.OptionsFromConfig(cfg.Pipeline), log, m)

	return &App{
		Config:       cfg,
		Log:          log,
		Metrics:      m,
		Router:       router,
		Orchestrator: orch,
	}, nil
}
