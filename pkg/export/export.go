// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package export renders a role aggregate as JSON, YAML, or Markdown.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/roles"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatMarkdown}

// ParseFormat accepts json, yaml/yml, and md/markdown, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", errors.Newf(errors.CodeInvalidInput, "unsupported export format %q", s).
			WithRecoverable(true)
	}
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Write encodes agg to w in format f.
func Write(w io.Writer, f Format, agg roles.Aggregate) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(agg)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(agg); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(agg))
		return err
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Markdown renders agg as a document with one section per role.
func Markdown(agg roles.Aggregate) string {
	var b strings.Builder
	b.WriteString("# SDLC Tasks\n")
	if agg.Empty() {
		b.WriteString("\nNo results to display.\n")
		return b.String()
	}
	for _, r := range agg.Roles() {
		fmt.Fprintf(&b, "\n## %s\n\n", r.Name)
		if len(r.Frameworks) > 0 {
			fmt.Fprintf(&b, "**Frameworks:** %s\n\n", strings.Join(r.Frameworks, ", "))
		}
		for i, t := range r.Tasks {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%d. %s\n\n   ```text\n", i+1, t.Description)
			for _, line := range strings.Split(t.Prompt, "\n") {
				b.WriteString("   " + line + "\n")
			}
			b.WriteString("   ```\n")
		}
	}
	return b.String()
}
