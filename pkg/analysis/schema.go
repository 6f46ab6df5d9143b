// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import "github.com/jllopis/sdlcgen/pkg/llm"

// ResponseSchema constrains analysis output to an array of roles.
var ResponseSchema = &llm.Schema{
	Type: llm.TypeArray,
	Items: &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"roleName": {
				Type:        llm.TypeString,
				Description: "The name of the SDLC role, e.g., 'Product Owner', 'Scrum Master', 'Developer', 'QA Engineer', 'DevOps Engineer', 'UX/UI Designer'.",
			},
			"frameworks": {
				Type:        llm.TypeArray,
				Description: "Agile frameworks this role and its tasks are relevant to, such as ['Scrum', 'SAFe', 'Kanban'].",
				Items:       &llm.Schema{Type: llm.TypeString},
			},
			"tasks": {
				Type:        llm.TypeArray,
				Description: "A list of tasks relevant to this role, derived from the document content.",
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"taskDescription": {
							Type:        llm.TypeString,
							Description: "A detailed but clear description of the specific task to be performed.",
						},
						"nlpPrompt": {
							Type:        llm.TypeString,
							Description: "A concise, actionable NLP prompt for an AI assistant or tool to help with or automate the task. For example: 'Generate user stories for the login feature based on the requirements doc.' or 'Create a checklist for a code review of the new API endpoint.'",
						},
					},
					Required: []string{"taskDescription", "nlpPrompt"},
					Ordering: []string{"taskDescription", "nlpPrompt"},
				},
			},
		},
		Required: []string{"roleName", "frameworks", "tasks"},
		Ordering: []string{"roleName", "frameworks", "tasks"},
	},
}
