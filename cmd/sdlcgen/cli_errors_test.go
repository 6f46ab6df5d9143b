// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/sdlcgen/pkg/errors"
)

func TestPrintErrorText(t *testing.T) {
	var buf bytes.Buffer

	PrintError(&buf, errors.New(errors.CodeReadFailure, `failed to read file "a.pdf"`, nil), false)

	assert.Equal(t, "Error [Read Failure]: failed to read file \"a.pdf\"\n  Hint: check that the file exists and is readable\n", buf.String())
}

func TestPrintErrorWrapped(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("run: %w", errors.New(errors.CodeLLMError, "failed to generate tasks: boom", nil))

	PrintError(&buf, err, false)

	assert.Contains(t, buf.String(), "Analysis Failed")
	assert.Contains(t, buf.String(), "failed to generate tasks: boom")
}

func TestPrintErrorJSON(t *testing.T) {
	var buf bytes.Buffer

	PrintError(&buf, NewConfigError(stderrors.New("bad yaml")), true)

	var payload map[string]map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload), buf.String())
	assert.Equal(t, "CONFIG_ERROR", payload["error"]["code"])
	assert.Equal(t, "failed to load configuration: bad yaml", payload["error"]["message"])
	assert.NotEmpty(t, payload["error"]["hint"])
}

func TestPrintErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("boom"), false)
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	PrintError(&buf, stderrors.New("boom"), true)
	assert.Contains(t, buf.String(), `"UNKNOWN"`)
}

func TestFormatErrorCode(t *testing.T) {
	tests := map[errors.ErrorCode]string{
		errors.CodeIntakeRejected: "File Rejected",
		errors.CodeTimeout:        "Timeout",
		errors.ErrorCode("OTHER"): "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, FormatErrorCode(code), string(code))
	}
}
