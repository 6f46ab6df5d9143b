// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/roles"
)

func sample() roles.Aggregate {
	return roles.NewAggregate(
		roles.Role{
			Name:       "QA",
			Frameworks: []string{"Scrum", "Kanban"},
			Tasks: []roles.Task{
				{Description: "Plan tests", Prompt: "Write a test plan."},
				{Description: "Automate", Prompt: "Line one\nLine two"},
			},
		},
		roles.Role{
			Name:       "DevOps",
			Frameworks: []string{},
			Tasks:      []roles.Task{{Description: "Pipeline", Prompt: "Set up CI."}},
		},
	)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"YAML", FormatYAML},
		{"yml", FormatYAML},
		{"md", FormatMarkdown},
		{" Markdown ", FormatMarkdown},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("xml")
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "QA", decoded[0]["roleName"])
	assert.Equal(t, "DevOps", decoded[1]["roleName"])
	tasks := decoded[0]["tasks"].([]any)
	assert.Equal(t, "Write a test plan.", tasks[0].(map[string]any)["nlpPrompt"])
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, roles.Aggregate{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sample()))

	var decoded []roles.Role
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sample().Roles(), decoded)
	assert.Contains(t, buf.String(), "- roleName: QA\n")
}

func TestMarkdown(t *testing.T) {
	want := "# SDLC Tasks\n" +
		"\n## QA\n\n" +
		"**Frameworks:** Scrum, Kanban\n\n" +
		"1. Plan tests\n\n   ```text\n   Write a test plan.\n   ```\n" +
		"\n2. Automate\n\n   ```text\n   Line one\n   Line two\n   ```\n" +
		"\n## DevOps\n\n" +
		"1. Pipeline\n\n   ```text\n   Set up CI.\n   ```\n"
	assert.Equal(t, want, Markdown(sample()))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatMarkdown, sample()))
	assert.Equal(t, want, buf.String())
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "# SDLC Tasks\n\nNo results to display.\n", Markdown(roles.Aggregate{}))
}

func TestContentType(t *testing.T) {
	assert.Contains(t, FormatJSON.ContentType(), "application/json")
	assert.Contains(t, FormatYAML.ContentType(), "yaml")
	assert.Contains(t, FormatMarkdown.ContentType(), "text/markdown")
}

func TestWriteUnknown(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), sample()))
}
