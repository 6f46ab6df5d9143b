// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"fmt"
	"mime"
	"slices"
	"strings"

	"github.com/jllopis/sdlcgen/pkg/errors"
)

const (
	// DefaultMaxFiles is the largest batch accepted at once.
	DefaultMaxFiles = 10

	// DefaultMaxFileSize keeps a single document well inside the model's
	// context window.
	DefaultMaxFileSize int64 = 3670016 // 3.5 MiB
)

// Content types accepted for analysis.
const (
	TypePDF      = "application/pdf"
	TypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypePPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	TypeText     = "text/plain"
	TypeMarkdown = "text/markdown"
	TypeCSV      = "text/csv"
)

// AllowedTypes lists the content types accepted by default.
var AllowedTypes = []string{TypePDF, TypeDOCX, TypePPTX, TypeText, TypeMarkdown, TypeCSV}

// BlockedExtensions are never accepted, whatever their declared type.
var BlockedExtensions = []string{".exe", ".msi", ".bat", ".sh", ".cmd", ".dll"}

var extensionTypes = map[string]string{
	".pdf":      TypePDF,
	".docx":     TypeDOCX,
	".pptx":     TypePPTX,
	".txt":      TypeText,
	".text":     TypeText,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".csv":      TypeCSV,
}

// ContentTypeFor maps a file name to one of the accepted content types, or
// application/octet-stream when the extension is unknown.
func ContentTypeFor(name string) string {
	if ct, ok := extensionTypes[Extension(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ExtensionsFor returns the known extensions that map to any of types.
func ExtensionsFor(types []string) []string {
	var out []string
	for ext, ct := range extensionTypes {
		if slices.Contains(types, ct) {
			out = append(out, ext)
		}
	}
	slices.Sort(out)
	return out
}

// Limits constrains an intake batch.
type Limits struct {
	MaxFiles          int
	MaxFileSize       int64
	AllowedTypes      []string
	BlockedExtensions []string
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:          DefaultMaxFiles,
		MaxFileSize:       DefaultMaxFileSize,
		AllowedTypes:      slices.Clone(AllowedTypes),
		BlockedExtensions: slices.Clone(BlockedExtensions),
	}
}

// MaxFileSizeMB returns the size limit in mebibytes.
func (l Limits) MaxFileSizeMB() float64 {
	return float64(l.MaxFileSize) / 1024 / 1024
}

// Validate checks files as one batch. Checks run in order: batch size, then
// per file blocked extension, content type, and size. The first failure wins
// and is returned as an INTAKE_REJECTED error.
func (l Limits) Validate(files []File) error {
	if len(files) > l.MaxFiles {
		return reject(fmt.Sprintf("You can only upload a maximum of %d files.", l.MaxFiles)).
			WithContext("count", len(files))
	}
	for _, f := range files {
		ext := f.Extension()
		if slices.Contains(l.BlockedExtensions, ext) {
			return reject(fmt.Sprintf("File type %q is not allowed for security reasons.", ext)).
				WithContext("file", f.Name)
		}
		if !slices.Contains(l.AllowedTypes, mediaType(f.ContentType)) {
			return reject(fmt.Sprintf("File type for %q is not supported. Please upload one of the supported formats.", f.Name)).
				WithContext("file", f.Name).
				WithContext("content_type", f.ContentType)
		}
		if f.Size > l.MaxFileSize {
			return reject(fmt.Sprintf("File %q exceeds the %.1fMB size limit.", f.Name, l.MaxFileSizeMB())).
				WithContext("file", f.Name).
				WithContext("size", f.Size)
		}
	}
	return nil
}

func reject(msg string) *errors.SDLCError {
	return errors.New(errors.CodeIntakeRejected, msg, nil).WithRecoverable(true)
}

// mediaType strips parameters such as charset from a declared content type.
func mediaType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}
