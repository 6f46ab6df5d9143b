// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/intake"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("SDLCGEN_LLM_API_KEY", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Zero(t, cfg.LLM.Timeout, "no per-call timeout by default")
	assert.Equal(t, 10, cfg.Intake.MaxFiles)
	assert.Equal(t, int64(3670016), cfg.Intake.MaxFileSize)
	assert.Equal(t, ":8088", cfg.Web.Addr)
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
	assert.Equal(t, "sdlcgen", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
}

func TestLoadFile(t *testing.T) {
	clearCredentialEnv(t)
	path := writeConfig(t, `
llm:
  provider: mock
  timeout: 45s
intake:
  max_files: 3
log:
  level: debug
telemetry:
  sample_ratio: 0.25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Intake.MaxFiles)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model, "defaults must survive partial files")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("SDLCGEN_LLM_PROVIDER", "mock")
	t.Setenv("SDLCGEN_INTAKE_MAX_FILE_SIZE", "1024")
	t.Setenv("SDLCGEN_LLM_API_KEY", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, int64(1024), cfg.Intake.MaxFileSize)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestLoadWithCLIOverrides(t *testing.T) {
	clearCredentialEnv(t)
	path := writeConfig(t, "llm:\n  model: model-a\n")
	t.Setenv("SDLCGEN_LLM_MODEL", "model-b")

	cfg, err := LoadWithCLI([]string{
		"--config", path,
		"--set", "llm.model=model-c",
		"--set=intake.max_files=4",
		"--set", "llm.timeout=2m",
		"--set", "telemetry.otlp_insecure=true",
	})
	require.NoError(t, err)

	assert.Equal(t, "model-c", cfg.LLM.Model, "cli overrides env and file")
	assert.Equal(t, 4, cfg.Intake.MaxFiles)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
}

func TestParseCLIOverridesErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing config value", []string{"--config"}},
		{"missing set value", []string{"--set"}},
		{"no equals sign", []string{"--set", "invalid"}},
		{"empty key", []string{"--set", "=x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseCLIOverrides(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SDLCGEN_LLM_API_KEY":             "llm.api_key",
		"SDLCGEN_INTAKE_MAX_FILE_SIZE":    "intake.max_file_size",
		"SDLCGEN_TELEMETRY_OTLP_ENDPOINT": "telemetry.otlp_endpoint",
		"SDLCGEN_TELEMETRY_SAMPLE_RATIO":  "telemetry.sample_ratio",
		"SDLCGEN_WEB_ADDR":                "web.addr",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	tests := []struct {
		name   string
		gemini string
		apiKey string
		want   string
	}{
		{"none", "", "", ""},
		{"gemini", "g-key", "", "g-key"},
		{"api_key", "", "a-key", "a-key"},
		{"gemini first", "g-key", "a-key", "g-key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCredentialEnv(t)
			t.Setenv("GEMINI_API_KEY", tt.gemini)
			t.Setenv("API_KEY", tt.apiKey)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LLM.APIKey)
		})
	}
}

func TestAPIKeyExplicitWins(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := LoadWithCLI([]string{"--set", "llm.api_key=explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.LLM.APIKey)
}

func TestCredentialError(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: ProviderGemini}}
	assert.True(t, errors.Is(cfg.CredentialError(), errors.CodeConfig))

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.CredentialError())

	mock := &Config{LLM: LLMConfig{Provider: ProviderMock}}
	assert.NoError(t, mock.CredentialError(), "mock provider needs no key")

	unknown := &Config{LLM: LLMConfig{Provider: "carrier-pigeon", APIKey: "k"}}
	assert.True(t, errors.Is(unknown.CredentialError(), errors.CodeConfig))
}

func TestLimits(t *testing.T) {
	cfg := &Config{Intake: IntakeConfig{MaxFiles: 2, MaxFileSize: 100}}
	limits := cfg.Limits()
	assert.Equal(t, 2, limits.MaxFiles)
	assert.Equal(t, int64(100), limits.MaxFileSize)
	assert.Len(t, limits.AllowedTypes, len(intake.AllowedTypes), "allowed types come from intake defaults")

	zero := (&Config{}).Limits()
	assert.Equal(t, intake.DefaultMaxFiles, zero.MaxFiles)
	assert.Equal(t, intake.DefaultMaxFileSize, zero.MaxFileSize)
}
