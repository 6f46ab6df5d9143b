// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/sdlcgen/pkg/errors"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, args, err := parseGlobalFlags([]string{
		"--config", "cfg.yaml", "--set", "llm.provider=mock", "--set=log.level=debug", "--json",
		"generate", "--format", "md", "a.pdf",
	})
	require.NoError(t, err)
	assert.True(t, flags.JSON)
	assert.Equal(t, []string{"--config", "cfg.yaml", "--set", "llm.provider=mock", "--set=log.level=debug"}, flags.ConfigArgs)
	assert.Equal(t, []string{"generate", "--format", "md", "a.pdf"}, args)

	flags, args, err = parseGlobalFlags([]string{"--help", "serve"})
	require.NoError(t, err)
	assert.True(t, flags.Help)
	assert.Nil(t, args)

	_, _, err = parseGlobalFlags([]string{"--config"})
	assert.Error(t, err)
	_, _, err = parseGlobalFlags([]string{"--bogus"})
	assert.Error(t, err)
}

func clearCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("SDLCGEN_LLM_API_KEY", "")
}

func TestRunVersionAndUnknown(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), globalFlags{}, []string{"version"}, &stdout, &stderr))
	assert.Equal(t, version+"\n", stdout.String())

	assert.Error(t, run(context.Background(), globalFlags{}, []string{"nope"}, &stdout, &stderr))
}

func TestRunGenerateWithMockProvider(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "brief.md")
	b := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(a, []byte("# Brief"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("notes"), 0o644))

	global := globalFlags{ConfigArgs: []string{"--set", "llm.provider=mock", "--set", "telemetry.exporter=none"}}
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), global, []string{"generate", "--format", "json", a, b}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Product Owner", decoded[0]["roleName"])
	assert.Len(t, decoded[0]["tasks"], 2)
	assert.Contains(t, stderr.String(), "Processing file 1 of 2: brief.md")
	assert.Contains(t, stderr.String(), "Processing file 2 of 2: notes.txt")
}

func TestRunGenerateOut(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "brief.md")
	out := filepath.Join(dir, "out.md")
	require.NoError(t, os.WriteFile(a, []byte("# Brief"), 0o644))

	global := globalFlags{ConfigArgs: []string{"--set", "llm.provider=mock", "--set", "telemetry.exporter=none"}}
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), global, []string{"generate", "--quiet", "--format", "md", "--out", out, a}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# SDLC Tasks\n"))
	assert.NotContains(t, stderr.String(), "Processing file")
}

func TestRunGenerateErrors(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	exe := filepath.Join(dir, "setup.exe")
	require.NoError(t, os.WriteFile(exe, []byte("MZ"), 0o644))
	mock := globalFlags{ConfigArgs: []string{"--set", "llm.provider=mock", "--set", "telemetry.exporter=none"}}

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), mock, []string{"generate", exe}, &stdout, &stderr)
	assert.True(t, errors.Is(err, errors.CodeIntakeRejected))

	err = run(context.Background(), mock, []string{"generate", filepath.Join(dir, "missing.pdf")}, &stdout, &stderr)
	assert.True(t, errors.Is(err, errors.CodeReadFailure))

	err = run(context.Background(), mock, []string{"generate"}, &stdout, &stderr)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	err = run(context.Background(), mock, []string{"generate", "--format", "xml", exe}, &stdout, &stderr)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	gemini := globalFlags{ConfigArgs: []string{"--set", "llm.provider=gemini", "--set", "telemetry.exporter=none"}}
	ok := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(ok, []byte("ok"), 0o644))
	err = run(context.Background(), gemini, []string{"generate", ok}, &stdout, &stderr)
	assert.True(t, errors.Is(err, errors.CodeConfig), "missing credential refuses to run")

	bad := globalFlags{ConfigArgs: []string{"--config", filepath.Join(dir, "absent.yaml")}}
	err = run(context.Background(), bad, []string{"generate", ok}, &stdout, &stderr)
	assert.True(t, errors.Is(err, errors.CodeConfig))
}
