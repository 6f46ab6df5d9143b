// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"strings"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/llm"
	"github.com/jllopis/sdlcgen/pkg/roles"
)

// LLMOrchestrator writes orchestration prompts with an LLM provider. It is
// stateless.
type LLMOrchestrator struct {
	client
}

// NewLLMOrchestrator creates an orchestrator backed by p.
func NewLLMOrchestrator(p llm.Provider, opts ...Option) *LLMOrchestrator {
	return &LLMOrchestrator{client: newClient(p, opts)}
}

// Prompt implements Orchestrator.
func (o *LLMOrchestrator) Prompt(ctx context.Context, agg roles.Aggregate, instruction string) (string, error) {
	if agg.Empty() {
		return "", errors.New(errors.CodeInvalidInput,
			"generate tasks before requesting an orchestration prompt", nil).WithRecoverable(true)
	}

	text, err := o.chat(ctx, "orchestration prompt", llm.ChatRequest{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: OrchestrationPrompt(instruction, agg.Text()),
		}},
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New(errors.CodeLLMError,
			"failed to generate orchestration prompt: received an empty response from the API", nil)
	}
	return text, nil
}

var _ Orchestrator = (*LLMOrchestrator)(nil)
