// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import "context"

// MockProvider answers without a network call. Requests in JSON mode get
// JSONResponse when it is set and everything else gets Response. Err fails
// every call. ChatFunc, when set, replaces the canned answers.
type MockProvider struct {
	Response     string
	JSONResponse string
	Err          error
	ChatFunc     func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.ResponseMIMEType == MIMEJSON && m.JSONResponse != "" {
		return &ChatResponse{Content: m.JSONResponse}, nil
	}
	return &ChatResponse{Content: m.Response}, nil
}

const demoRoles = `[
  {"roleName":"Product Owner","frameworks":["Scrum","SAFe"],"tasks":[
    {"taskDescription":"Refine the product backlog from the uploaded document","nlpPrompt":"Act as a Product Owner. Turn the attached requirements into a prioritized backlog of user stories with acceptance criteria."}
  ]},
  {"roleName":"QA Engineer","frameworks":["Scrum","Kanban"],"tasks":[
    {"taskDescription":"Draft a risk-based test plan","nlpPrompt":"Act as a QA Engineer. Write a risk-based test plan covering functional, regression and performance testing for the described system."}
  ]}
]`

const demoOrchestration = "You coordinate a Product Owner agent and a QA Engineer agent. " +
	"Start with backlog refinement, hand accepted stories to QA for test planning, and report progress after each sprint."

// NewDemoProvider returns a MockProvider with canned SDLC roles for document
// analysis and a canned orchestration prompt for free-text requests.
func NewDemoProvider() *MockProvider {
	return &MockProvider{
		Response:     demoOrchestration,
		JSONResponse: demoRoles,
	}
}
