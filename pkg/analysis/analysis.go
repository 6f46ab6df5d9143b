// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package analysis turns project documents into role/task breakdowns and
// aggregates into orchestration prompts by calling a hosted language model.
//
// Both collaborators are interfaces so that the generation run loop can be
// exercised with scripted fakes; LLMAnalyzer and LLMOrchestrator are the
// implementations backed by an llm.Provider.
package analysis

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/llm"
	"github.com/jllopis/sdlcgen/pkg/roles"
)

// DefaultTemperature matches the sampling temperature the prompts were tuned
// for.
const DefaultTemperature = 0.5

const unknownFailure = "an unknown error occurred while communicating with the analysis service"

// Document is a validated document ready for analysis.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Analyzer extracts roles and tasks from a single document.
type Analyzer interface {
	Analyze(ctx context.Context, doc Document) ([]roles.Role, error)
}

// Orchestrator turns an aggregate and a free-form instruction into a single
// orchestration prompt.
type Orchestrator interface {
	Prompt(ctx context.Context, agg roles.Aggregate, instruction string) (string, error)
}

// Option configures the LLM-backed collaborators.
type Option func(*client)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *client) {
		c.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *client) {
		if t > 0 {
			c.temperature = t
		}
	}
}

// WithTimeout bounds each provider call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type client struct {
	provider    llm.Provider
	model       string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

func newClient(p llm.Provider, opts []Option) client {
	c := client{
		provider:    p,
		temperature: DefaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// chat sends req, applying the configured timeout, and converts provider
// failures into LLM_ERROR or TIMEOUT errors. what names the output in error
// messages.
func (c *client) chat(ctx context.Context, what string, req llm.ChatRequest) (string, error) {
	if c.provider == nil {
		return "", errors.New(errors.CodeConfig, "no analysis provider configured", nil)
	}
	if req.Model == "" {
		req.Model = c.model
	}
	req.Temperature = c.temperature

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.provider.Chat(ctx, req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.New(errors.CodeTimeout,
				fmt.Sprintf("failed to generate %s: the analysis service did not answer within %s", what, c.timeout), err).
				WithRecoverable(true)
		}
		return "", errors.New(errors.CodeLLMError, fmt.Sprintf("failed to generate %s: %s", what, providerMessage(err)), err).
			WithRecoverable(true)
	}
	if resp == nil {
		return "", errors.New(errors.CodeLLMError, fmt.Sprintf("failed to generate %s: received no response from the API", what), nil)
	}

	c.logger.DebugContext(ctx, "llm call finished",
		"model", req.Model,
		"duration", time.Since(start),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Content, nil
}

// providerMessage returns the most specific message carried by err.
func providerMessage(err error) string {
	var se *errors.SDLCError
	if stderrors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownFailure
}
