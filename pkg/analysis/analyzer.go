// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/llm"
	"github.com/jllopis/sdlcgen/pkg/roles"
)

// LLMAnalyzer analyzes documents by sending them inline to an LLM provider
// and decoding the structured response.
type LLMAnalyzer struct {
	client
}

// NewLLMAnalyzer creates an analyzer backed by p.
func NewLLMAnalyzer(p llm.Provider, opts ...Option) *LLMAnalyzer {
	return &LLMAnalyzer{client: newClient(p, opts)}
}

// Request builds the chat request for doc.
func (a *LLMAnalyzer) Request(doc Document) llm.ChatRequest {
	return llm.ChatRequest{
		Model: a.model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: AnalysisPrompt(doc.Name),
			Attachments: []llm.Attachment{{
				Name:     doc.Name,
				MIMEType: doc.ContentType,
				Data:     doc.Data,
			}},
		}},
		Temperature:      a.temperature,
		ResponseMIMEType: llm.MIMEJSON,
		ResponseSchema:   ResponseSchema,
	}
}

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, doc Document) ([]roles.Role, error) {
	text, err := a.chat(ctx, "tasks", a.Request(doc))
	if err != nil {
		return nil, err
	}

	rs, err := Decode(text)
	if err != nil {
		return nil, errors.New(errors.CodeLLMError, "failed to generate tasks: "+err.Error(), err).
			WithContext("document", doc.Name)
	}

	a.logger.DebugContext(ctx, "document analyzed",
		"document", doc.Name,
		"roles", len(rs),
		"tasks", roles.TaskCount(rs),
	)
	return rs, nil
}

var _ Analyzer = (*LLMAnalyzer)(nil)
