// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jllopis/sdlcgen/pkg/analysis"
	"github.com/jllopis/sdlcgen/pkg/config"
	"github.com/jllopis/sdlcgen/pkg/generate"
	"github.com/jllopis/sdlcgen/pkg/llm"
	"github.com/jllopis/sdlcgen/pkg/telemetry"
	"github.com/jllopis/sdlcgen/providers/gemini"
)

// app is the composition root shared by every command.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	provider     llm.Provider
	analyzer     analysis.Analyzer
	orchestrator analysis.Orchestrator
	metrics      *telemetry.RunMetrics
	// credErr is set when the analysis service cannot be used. Commands
	// refuse to generate while it is non-nil.
	credErr  error
	shutdown telemetry.ShutdownFunc
}

// newApp wires logging, telemetry, and the analysis collaborators. Logs go to
// logOut. With stdio set, nothing may write to stdout besides the protocol.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer, stdio bool) (*app, error) {
	logger := telemetry.ConfigureSlog(logOut, cfg.Log.Level, cfg.Log.Format)

	tcfg := telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		SampleRatio:  cfg.Telemetry.SampleRatio,
		LLMProvider:  cfg.LLM.Provider,
		LLMModel:     cfg.LLM.Model,
	}
	if stdio && (tcfg.Exporter == telemetry.ExporterStdout || tcfg.Exporter == "") {
		logger.Warn("stdout telemetry exporter disabled while serving MCP over stdio")
		tcfg.Exporter = telemetry.ExporterNone
	}
	shutdown, err := telemetry.InitWithConfig(cfg.Telemetry.ServiceName, version, tcfg)
	if err != nil {
		return nil, NewConfigError(fmt.Errorf("init telemetry: %w", err))
	}

	metrics, err := telemetry.NewRunMetrics()
	if err != nil {
		_ = shutdown(context.Background())
		return nil, fmt.Errorf("create run metrics: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		credErr:  cfg.CredentialError(),
		shutdown: shutdown,
	}
	if a.credErr == nil {
		a.provider, err = createLLMProvider(ctx, cfg)
		if err != nil {
			_ = shutdown(context.Background())
			return nil, err
		}
	} else {
		logger.Warn("generation disabled", slog.String("reason", a.credErr.Error()))
	}

	opts := []analysis.Option{
		analysis.WithModel(cfg.LLM.Model),
		analysis.WithTemperature(cfg.LLM.Temperature),
		analysis.WithTimeout(cfg.LLM.Timeout),
		analysis.WithLogger(logger),
	}
	a.analyzer = analysis.NewLLMAnalyzer(a.provider, opts...)
	a.orchestrator = analysis.NewLLMOrchestrator(a.provider, opts...)

	logger.Info("sdlcgen ready",
		slog.String("version", version),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("llm_model", cfg.LLM.Model),
		slog.Bool("generation_enabled", a.credErr == nil),
	)
	return a, nil
}

// newRunner returns a run loop bound to the app's analyzer and telemetry.
func (a *app) newRunner(opts ...generate.Option) *generate.Runner {
	base := []generate.Option{
		generate.WithLogger(a.logger),
		generate.WithMetrics(a.metrics),
	}
	return generate.New(a.analyzer, append(base, opts...)...)
}

// Close releases the provider and flushes telemetry.
func (a *app) Close() error {
	if c, ok := a.provider.(io.Closer); ok {
		_ = c.Close()
	}
	if a.shutdown != nil {
		return a.shutdown(context.Background())
	}
	return nil
}

func createLLMProvider(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case config.ProviderMock:
		return llm.NewDemoProvider(), nil
	case config.ProviderGemini, "":
		p, err := gemini.NewWithAPIKey(ctx, cfg.LLM.APIKey, gemini.WithModel(cfg.LLM.Model))
		if err != nil {
			return nil, fmt.Errorf("create gemini provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
