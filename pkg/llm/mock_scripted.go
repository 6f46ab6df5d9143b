// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedMockProvider returns a pre-defined sequence of responses and errors,
// one per call, and records every request it receives.
type ScriptedMockProvider struct {
	mu    sync.Mutex
	steps []scriptedStep
	// Err, when set, is returned for every call.
	Err error
	// Requests holds the requests received, in call order.
	Requests []ChatRequest
	// CallCount tracks how many times Chat has been called.
	CallCount int
}

type scriptedStep struct {
	content string
	err     error
}

// NewScriptedMockProvider creates a provider that answers with responses in
// order.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	s := &ScriptedMockProvider{}
	for _, r := range responses {
		s.steps = append(s.steps, scriptedStep{content: r})
	}
	return s
}

// Chat pops the next scripted step or returns the configured error.
func (s *ScriptedMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++
	s.Requests = append(s.Requests, req)

	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(s.steps) == 0 {
		return nil, errors.New("scripted mock: no more responses available")
	}

	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.err != nil {
		return nil, step.err
	}

	return &ChatResponse{Content: step.content}, nil
}

// AddResponse appends a response to the queue.
func (s *ScriptedMockProvider) AddResponse(response string) *ScriptedMockProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, scriptedStep{content: response})
	return s
}

// AddError appends a failing call to the queue.
func (s *ScriptedMockProvider) AddError(err error) *ScriptedMockProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, scriptedStep{err: err})
	return s
}

// Remaining reports how many scripted steps have not been consumed.
func (s *ScriptedMockProvider) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Calls returns a copy of the requests received so far.
func (s *ScriptedMockProvider) Calls() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatRequest, len(s.Requests))
	copy(out, s.Requests)
	return out
}
