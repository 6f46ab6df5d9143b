// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads generator settings from defaults, a YAML file, the
// environment, and command-line overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/intake"
)

// EnvPrefix prefixes every environment override (SDLCGEN_LLM_MODEL -> llm.model).
const EnvPrefix = "SDLCGEN_"

// Provider names accepted by llm.provider.
const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Intake    IntakeConfig    `koanf:"intake"`
	Web       WebConfig       `koanf:"web"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string        `koanf:"provider"` // gemini, mock
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"` // 0 disables the per-call bound
}

type IntakeConfig struct {
	MaxFiles    int   `koanf:"max_files"`
	MaxFileSize int64 `koanf:"max_file_size"`
}

type WebConfig struct {
	Addr string `koanf:"addr"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
	ServiceName  string `koanf:"service_name"`
	// SampleRatio is the fraction of generation runs traced.
	SampleRatio float64 `koanf:"sample_ratio"`
}

var defaults = map[string]any{
	"log.level":               "info",
	"log.format":              "text",
	"llm.provider":            ProviderGemini,
	"llm.model":               "gemini-2.5-flash",
	"llm.api_key":             "",
	"llm.temperature":         0.5,
	"llm.timeout":             "0s",
	"intake.max_files":        intake.DefaultMaxFiles,
	"intake.max_file_size":    intake.DefaultMaxFileSize,
	"web.addr":                ":8088",
	"telemetry.exporter":      "none",
	"telemetry.otlp_endpoint": "",
	"telemetry.otlp_insecure": false,
	"telemetry.service_name":  "sdlcgen",
	"telemetry.sample_ratio":  1.0,
}

// Load reads defaults, the optional YAML file at path, and the environment.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithCLI parses --config PATH and --set key=value from args and loads
// the configuration with the overrides applied last.
func LoadWithCLI(args []string) (*Config, error) {
	path, overrides, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return load(path, overrides)
}

func load(path string, overrides map[string]string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.resolveAPIKey()
	return &cfg, nil
}

// envKey maps SDLCGEN_LLM_API_KEY to llm.api_key. Only the first underscore
// separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, found := strings.Cut(s, "_")
	if !found {
		return section
	}
	return section + "." + key
}

func (c *Config) resolveAPIKey() {
	if c.LLM.APIKey != "" {
		return
	}
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			c.LLM.APIKey = v
			return
		}
	}
}

// CredentialError reports a configuration error when the selected provider
// needs an API key and none was found. It returns nil otherwise.
func (c *Config) CredentialError() error {
	switch c.LLM.Provider {
	case ProviderMock:
		return nil
	case ProviderGemini, "":
		if c.LLM.APIKey == "" {
			return errors.New(errors.CodeConfig,
				"API key is not configured. Set GEMINI_API_KEY or llm.api_key to enable generation.", nil).
				WithAttribute("provider", ProviderGemini)
		}
		return nil
	default:
		return errors.Newf(errors.CodeConfig, "unknown llm provider %q", c.LLM.Provider)
	}
}

// Limits returns the intake limits for the configured sizes.
func (c *Config) Limits() intake.Limits {
	limits := intake.DefaultLimits()
	if c.Intake.MaxFiles > 0 {
		limits.MaxFiles = c.Intake.MaxFiles
	}
	if c.Intake.MaxFileSize > 0 {
		limits.MaxFileSize = c.Intake.MaxFileSize
	}
	return limits
}

func parseCLIOverrides(args []string) (string, map[string]string, error) {
	var path string
	overrides := map[string]string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--config requires a value")
			}
			i++
			path = args[i]
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(arg, "--config=")
		case arg == "--set":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--set requires key=value")
			}
			i++
			if err := addOverride(overrides, args[i]); err != nil {
				return "", nil, err
			}
		case strings.HasPrefix(arg, "--set="):
			if err := addOverride(overrides, strings.TrimPrefix(arg, "--set=")); err != nil {
				return "", nil, err
			}
		}
	}
	return path, overrides, nil
}

func addOverride(overrides map[string]string, kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("invalid --set value %q, expected key=value", kv)
	}
	overrides[key] = strings.TrimSpace(value)
	return nil
}
