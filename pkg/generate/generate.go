// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package generate drives a generation run: every accepted file is read,
// analyzed, and merged into a single role aggregate, one file at a time.
//
// A run either publishes a complete aggregate or fails as a whole. When any
// file cannot be read or analyzed the run stops at that file and the roles
// merged so far are discarded.
package generate

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/sdlcgen/pkg/analysis"
	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/intake"
	"github.com/jllopis/sdlcgen/pkg/roles"
	"github.com/jllopis/sdlcgen/pkg/telemetry"
)

// Progress reports the document about to be processed. Index is 1-based.
type Progress struct {
	Index int
	Total int
	File  string
}

func (p Progress) String() string {
	return fmt.Sprintf("Processing file %d of %d: %s", p.Index, p.Total, p.File)
}

// Result is the published outcome of a successful run.
type Result struct {
	RunID     string
	Aggregate roles.Aggregate
	Documents int
	Elapsed   time.Duration
}

// Runner executes generation runs against an Analyzer.
type Runner struct {
	analyzer analysis.Analyzer
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *telemetry.RunMetrics
	progress func(Progress)
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for run events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer overrides the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithMetrics records run outcomes on m.
func WithMetrics(m *telemetry.RunMetrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithProgress registers fn to be called before each document is processed.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// New creates a Runner for analyzer.
func New(analyzer analysis.Analyzer, opts ...Option) *Runner {
	r := &Runner{
		analyzer: analyzer,
		logger:   slog.Default(),
		tracer:   otel.Tracer("sdlcgen/generate"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes files in order and returns the merged aggregate. Files are
// handled strictly sequentially; the next file is not read before the
// previous one has been merged. On failure Run returns a nil Result.
func (r *Runner) Run(ctx context.Context, files []intake.File) (*Result, error) {
	runID := uuid.NewString()
	ctx = telemetry.WithRunID(ctx, runID)
	start := r.now()

	ctx, span := r.tracer.Start(ctx, "Generate.Run",
		trace.WithAttributes(telemetry.RunAttributes(runID, len(files))...))
	defer span.End()

	r.logger.InfoContext(ctx, "generate.run.start", slog.Int("files", len(files)))

	agg, err := r.run(ctx, files)
	elapsed := r.now().Sub(start)
	if err != nil {
		se := errors.As(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, se.Message)
		span.SetAttributes(
			attribute.String(telemetry.AttrRunStatus, "failed"),
			attribute.String(telemetry.AttrErrorCode, string(se.Code)),
		)
		r.metrics.RecordFailure(ctx, elapsed, err)
		r.logger.ErrorContext(ctx, "generate.run.error",
			slog.String("code", string(se.Code)),
			slog.Any("file", se.Context["file"]),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrRunStatus, "succeeded"),
		attribute.Int(telemetry.AttrRunRoles, agg.Len()),
		attribute.Int(telemetry.AttrRunTasks, agg.TaskCount()),
	)
	r.metrics.RecordSuccess(ctx, elapsed, agg.Len())
	r.logger.InfoContext(ctx, "generate.run.complete",
		slog.Int("roles", agg.Len()),
		slog.Int("tasks", agg.TaskCount()),
		slog.Duration("duration", elapsed),
	)
	return &Result{
		RunID:     runID,
		Aggregate: agg,
		Documents: len(files),
		Elapsed:   elapsed,
	}, nil
}

func (r *Runner) run(ctx context.Context, files []intake.File) (roles.Aggregate, error) {
	var agg roles.Aggregate
	if r.analyzer == nil {
		return agg, errors.New(errors.CodeConfig, "no analysis service is configured", nil)
	}
	if len(files) == 0 {
		return agg, errors.New(errors.CodeInvalidInput, "select at least one file to generate tasks", nil).
			WithRecoverable(true)
	}

	for i, f := range files {
		p := Progress{Index: i + 1, Total: len(files), File: f.Name}
		if r.progress != nil {
			r.progress(p)
		}
		found, err := r.document(ctx, p, f)
		if err != nil {
			return roles.Aggregate{}, err
		}
		agg = agg.Merge(found)
	}
	return agg, nil
}

func (r *Runner) document(ctx context.Context, p Progress, f intake.File) ([]roles.Role, error) {
	ctx, span := r.tracer.Start(ctx, "Generate.Document",
		trace.WithAttributes(telemetry.DocumentAttributes(p.Index, f.Name, f.ContentType, f.Size)...))
	defer span.End()

	r.logger.InfoContext(ctx, "generate.document.start",
		slog.Int("index", p.Index),
		slog.Int("total", p.Total),
		slog.String("file", f.Name),
	)

	data, err := f.ReadAll()
	if err != nil {
		rerr := errors.New(errors.CodeReadFailure, fmt.Sprintf("failed to read file %q", f.Name), err).
			WithContext("file", f.Name)
		span.RecordError(rerr)
		span.SetStatus(codes.Error, rerr.Message)
		return nil, rerr
	}

	found, err := r.analyzer.Analyze(ctx, analysis.Document{
		Name:        f.Name,
		ContentType: f.ContentType,
		Data:        data,
	})
	if err != nil {
		aerr := analysisError(err).WithContext("file", f.Name)
		span.RecordError(aerr)
		span.SetStatus(codes.Error, aerr.Message)
		return nil, aerr
	}

	tasks := roles.TaskCount(found)
	span.SetAttributes(telemetry.ResultAttributes(len(found), tasks)...)
	r.metrics.RecordDocument(ctx, f.ContentType)
	r.logger.InfoContext(ctx, "generate.document.complete",
		slog.String("file", f.Name),
		slog.Int("roles", len(found)),
		slog.Int("tasks", tasks),
	)
	return found, nil
}

// analysisError keeps coded errors from the analyzer and classifies anything
// else as a collaborator failure.
func analysisError(err error) *errors.SDLCError {
	var se *errors.SDLCError
	if stderrors.As(err, &se) {
		return se
	}
	msg := err.Error()
	if msg == "" {
		msg = "an unknown error occurred while communicating with the analysis service"
	}
	return errors.New(errors.CodeLLMError, "failed to generate tasks: "+msg, err)
}
