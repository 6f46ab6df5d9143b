// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/sdlcgen/pkg/errors"
)

// RunMetrics records generation run outcomes. A nil *RunMetrics is valid and
// records nothing.
type RunMetrics struct {
	runs      metric.Int64Counter
	documents metric.Int64Counter
	failures  metric.Int64Counter
	duration  metric.Float64Histogram
	roles     metric.Int64Histogram
}

// NewRunMetrics creates run instruments on the global meter provider.
func NewRunMetrics() (*RunMetrics, error) {
	return NewRunMetricsWithMeter(otel.Meter("sdlcgen/generate"))
}

// NewRunMetricsWithMeter creates run instruments on meter.
func NewRunMetricsWithMeter(meter metric.Meter) (*RunMetrics, error) {
	runs, err := meter.Int64Counter(
		"sdlcgen.runs.total",
		metric.WithDescription("Generation runs by final status"),
	)
	if err != nil {
		return nil, err
	}

	documents, err := meter.Int64Counter(
		"sdlcgen.documents.analyzed",
		metric.WithDescription("Documents successfully analyzed and merged"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"sdlcgen.errors.total",
		metric.WithDescription("Run-aborting errors by code"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"sdlcgen.run.duration",
		metric.WithDescription("Wall time of generation runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	roles, err := meter.Int64Histogram(
		"sdlcgen.run.roles",
		metric.WithDescription("Distinct roles in a published aggregate"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		runs:      runs,
		documents: documents,
		failures:  failures,
		duration:  duration,
		roles:     roles,
	}, nil
}

// RecordDocument counts one analyzed document.
func (m *RunMetrics) RecordDocument(ctx context.Context, contentType string) {
	if m == nil {
		return
	}
	m.documents.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrDocType, contentType)))
}

// RecordSuccess records a run that published an aggregate with the given
// number of roles.
func (m *RunMetrics) RecordSuccess(ctx context.Context, elapsed time.Duration, roles int) {
	if m == nil {
		return
	}
	status := metric.WithAttributes(attribute.String(AttrRunStatus, "succeeded"))
	m.runs.Add(ctx, 1, status)
	m.duration.Record(ctx, elapsed.Seconds(), status)
	m.roles.Record(ctx, int64(roles))
}

// RecordFailure records a run aborted by err.
func (m *RunMetrics) RecordFailure(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil || err == nil {
		return
	}
	status := metric.WithAttributes(attribute.String(AttrRunStatus, "failed"))
	m.runs.Add(ctx, 1, status)
	m.duration.Record(ctx, elapsed.Seconds(), status)

	se := errors.As(err)
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, string(se.Code)),
		attribute.String("recoverable", se.RecoverableString()),
	))
}
