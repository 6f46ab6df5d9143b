// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package generate

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jllopis/sdlcgen/pkg/analysis"
	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/intake"
	"github.com/jllopis/sdlcgen/pkg/llm"
	"github.com/jllopis/sdlcgen/pkg/roles"
	"github.com/jllopis/sdlcgen/pkg/telemetry"
)

type step struct {
	roles []roles.Role
	err   error
}

// scriptedAnalyzer returns one step per call and records the documents seen.
type scriptedAnalyzer struct {
	steps []step
	seen  []analysis.Document
}

func (s *scriptedAnalyzer) Analyze(_ context.Context, doc analysis.Document) ([]roles.Role, error) {
	s.seen = append(s.seen, doc)
	if len(s.steps) == 0 {
		return nil, stderrors.New("no more steps")
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	return next.roles, next.err
}

type brokenSource struct{}

func (brokenSource) Open() (io.ReadCloser, error) { return nil, stderrors.New("permission denied") }

func textFile(name, body string) intake.File {
	return intake.FromBytes(name, intake.TypeText, []byte(body))
}

var (
	t1 = roles.Task{Description: "T1", Prompt: "P1"}
	t2 = roles.Task{Description: "T2", Prompt: "P2"}
	t3 = roles.Task{Description: "T3", Prompt: "P3"}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_MergesInOrder(t *testing.T) {
	a := &scriptedAnalyzer{steps: []step{
		{roles: []roles.Role{{Name: "QA", Frameworks: []string{"Scrum"}, Tasks: []roles.Task{t1}}}},
		{roles: []roles.Role{
			{Name: "QA", Frameworks: []string{"Scrum", "Kanban"}, Tasks: []roles.Task{t2}},
			{Name: "DevOps", Frameworks: []string{"SAFe"}, Tasks: []roles.Task{t3}},
		}},
	}}
	var progress []string
	r := New(a, WithLogger(quietLogger()), WithProgress(func(p Progress) {
		progress = append(progress, p.String())
	}))

	res, err := r.Run(context.Background(), []intake.File{
		textFile("a.txt", "alpha"),
		textFile("b.md", "beta"),
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, []roles.Role{
		{Name: "QA", Frameworks: []string{"Scrum", "Kanban"}, Tasks: []roles.Task{t1, t2}},
		{Name: "DevOps", Frameworks: []string{"SAFe"}, Tasks: []roles.Task{t3}},
	}, res.Aggregate.Roles())
	assert.Equal(t, []string{
		"Processing file 1 of 2: a.txt",
		"Processing file 2 of 2: b.md",
	}, progress)

	require.Len(t, a.seen, 2)
	assert.Equal(t, "a.txt", a.seen[0].Name)
	assert.Equal(t, []byte("alpha"), a.seen[0].Data)
	assert.Equal(t, intake.TypeText, a.seen[0].ContentType)
}

func TestRun_SecondAnalysisFailsDiscardsAggregate(t *testing.T) {
	a := &scriptedAnalyzer{steps: []step{
		{roles: []roles.Role{{Name: "QA", Tasks: []roles.Task{t1}}}},
		{err: errors.New(errors.CodeLLMError, "failed to generate tasks: quota exceeded", nil)},
	}}
	r := New(a, WithLogger(quietLogger()))

	res, err := r.Run(context.Background(), []intake.File{
		textFile("a.txt", "alpha"),
		textFile("b.txt", "beta"),
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.CodeLLMError))
	assert.Equal(t, "failed to generate tasks: quota exceeded", errors.UserMessage(err))
	assert.Equal(t, "b.txt", errors.As(err).Context["file"])
}

func TestRun_ReadFailureAbortsBeforeAnalysis(t *testing.T) {
	a := &scriptedAnalyzer{steps: []step{
		{roles: []roles.Role{{Name: "QA", Tasks: []roles.Task{t1}}}},
		{roles: []roles.Role{{Name: "Dev", Tasks: []roles.Task{t2}}}},
	}}
	r := New(a, WithLogger(quietLogger()))

	broken := intake.File{Name: "gone.pdf", ContentType: intake.TypePDF, Size: 10, Source: brokenSource{}}
	res, err := r.Run(context.Background(), []intake.File{
		textFile("a.txt", "alpha"),
		broken,
		textFile("c.txt", "gamma"),
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.CodeReadFailure))
	assert.Equal(t, `failed to read file "gone.pdf"`, errors.UserMessage(err))
	assert.Len(t, a.seen, 1, "no analysis after a read failure")
}

func TestRun_PlainAnalyzerErrorIsCollaboratorFailure(t *testing.T) {
	a := &scriptedAnalyzer{steps: []step{{err: stderrors.New("connection reset")}}}
	_, err := New(a, WithLogger(quietLogger())).Run(context.Background(), []intake.File{textFile("a.txt", "x")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeLLMError))
	assert.Equal(t, "failed to generate tasks: connection reset", errors.UserMessage(err))
}

func TestRun_InputErrors(t *testing.T) {
	_, err := New(&scriptedAnalyzer{}, WithLogger(quietLogger())).Run(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	_, err = New(nil, WithLogger(quietLogger())).Run(context.Background(), []intake.File{textFile("a.txt", "x")})
	assert.True(t, errors.Is(err, errors.CodeConfig))
}

func TestRun_WithLLMAnalyzer(t *testing.T) {
	p := llm.NewScriptedMockProvider(
		`[{"roleName":"QA","frameworks":["Scrum"],"tasks":[{"taskDescription":"T1","nlpPrompt":"P1"}]}]`,
		"```json\n[{\"roleName\":\"QA\",\"frameworks\":[\"Kanban\"],\"tasks\":[{\"taskDescription\":\"T2\",\"nlpPrompt\":\"P2\"}]}]\n```",
	)
	r := New(analysis.NewLLMAnalyzer(p, analysis.WithLogger(quietLogger())), WithLogger(quietLogger()))

	res, err := r.Run(context.Background(), []intake.File{
		textFile("one.txt", "1"),
		textFile("two.txt", "2"),
	})
	require.NoError(t, err)
	assert.Equal(t, []roles.Role{
		{Name: "QA", Frameworks: []string{"Scrum", "Kanban"}, Tasks: []roles.Task{t1, t2}},
	}, res.Aggregate.Roles())
	assert.Equal(t, 0, p.Remaining())
}

func TestRun_LLMEmptyResponseFails(t *testing.T) {
	p := llm.NewScriptedMockProvider("  ")
	r := New(analysis.NewLLMAnalyzer(p, analysis.WithLogger(quietLogger())), WithLogger(quietLogger()))

	res, err := r.Run(context.Background(), []intake.File{textFile("one.txt", "1")})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.CodeLLMError))
	assert.Contains(t, errors.UserMessage(err), "empty response")
}

func TestRun_Telemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewRunMetricsWithMeter(mp.Meter("test"))
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var logs bytes.Buffer
	logger := telemetry.NewLogger(&logs, "info", "json")

	a := &scriptedAnalyzer{steps: []step{
		{roles: []roles.Role{{Name: "QA", Tasks: []roles.Task{t1}}}},
	}}
	r := New(a, WithLogger(logger), WithMetrics(metrics), WithTracer(tp.Tracer("test")))
	res, err := r.Run(context.Background(), []intake.File{textFile("a.txt", "x")})
	require.NoError(t, err)

	spans := recorder.Ended()
	var names []string
	for _, s := range spans {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"Generate.Document", "Generate.Run"}, names)

	assert.Contains(t, logs.String(), `"run_id":"`+res.RunID+`"`)
	assert.Equal(t, 4, strings.Count(logs.String(), res.RunID), "every run log line carries the run id")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	assert.True(t, found["sdlcgen.runs.total"])
	assert.True(t, found["sdlcgen.documents.analyzed"])
}

func TestRun_LLMNullResponseFails(t *testing.T) {
	p := llm.NewScriptedMockProvider(
		`[{"roleName":"QA","frameworks":["Scrum"],"tasks":[{"taskDescription":"T1","nlpPrompt":"P1"}]}]`,
		"null",
	)
	r := New(analysis.NewLLMAnalyzer(p, analysis.WithLogger(quietLogger())), WithLogger(quietLogger()))

	res, err := r.Run(context.Background(), []intake.File{
		textFile("one.txt", "1"),
		textFile("two.txt", "2"),
	})
	assert.Nil(t, res, "no aggregate is published after a null response")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeLLMError))
	assert.Contains(t, errors.UserMessage(err), "not a JSON array of roles")
}
