// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry wires slog, OpenTelemetry tracing, and run metrics for
// the generator.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys for generation telemetry. LLM keys follow the gen_ai
// semantic conventions.
const (
	AttrRunID        = "sdlcgen.run.id"
	AttrRunFiles     = "sdlcgen.run.files"
	AttrRunStatus    = "sdlcgen.run.status"
	AttrRunRoles     = "sdlcgen.run.roles"
	AttrRunTasks     = "sdlcgen.run.tasks"
	AttrDocName      = "sdlcgen.document.name"
	AttrDocType      = "sdlcgen.document.content_type"
	AttrDocSize      = "sdlcgen.document.size"
	AttrDocIndex     = "sdlcgen.document.index"
	AttrDocRoles     = "sdlcgen.document.roles"
	AttrDocTasks     = "sdlcgen.document.tasks"
	AttrErrorCode    = "error.code"
	AttrLLMModel     = "gen_ai.request.model"
	AttrLLMProvider  = "gen_ai.system"
	AttrLLMTokensIn  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOut = "gen_ai.usage.output_tokens"
)

// RunAttributes returns attributes for a generation run span.
func RunAttributes(runID string, files int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrRunFiles, files),
	}
}

// DocumentAttributes returns attributes for a per-document span.
func DocumentAttributes(index int, name, contentType string, size int64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrDocIndex, index),
		attribute.String(AttrDocName, name),
	}
	if contentType != "" {
		attrs = append(attrs, attribute.String(AttrDocType, contentType))
	}
	if size > 0 {
		attrs = append(attrs, attribute.Int64(AttrDocSize, size))
	}
	return attrs
}

// ResultAttributes returns role and task counts for a finished document.
func ResultAttributes(roles, tasks int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrDocRoles, roles),
		attribute.Int(AttrDocTasks, tasks),
	}
}
