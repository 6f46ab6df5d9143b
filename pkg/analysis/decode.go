// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jllopis/sdlcgen/pkg/roles"
)

// Pointer fields let Decode tell a missing field from an empty one.
type wireTask struct {
	TaskDescription *string `json:"taskDescription"`
	NLPPrompt       *string `json:"nlpPrompt"`
}

type wireRole struct {
	RoleName   *string     `json:"roleName"`
	Frameworks []string    `json:"frameworks"`
	Tasks      *[]wireTask `json:"tasks"`
}

// Decode parses an analysis response and checks it against the response
// schema. A missing frameworks list is read as empty; every other field is
// required and must be non-empty.
func Decode(text string) ([]roles.Role, error) {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("received an empty response from the API")
	}

	var wire []wireRole
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("response is not a JSON array of roles: %w", err)
	}
	// json.Unmarshal accepts null into a slice.
	if wire == nil {
		return nil, fmt.Errorf("response is not a JSON array of roles: got null")
	}

	out := make([]roles.Role, 0, len(wire))
	for i, w := range wire {
		if w.RoleName == nil || *w.RoleName == "" {
			return nil, fmt.Errorf("role %d: roleName is required", i)
		}
		name := *w.RoleName
		if w.Tasks == nil {
			return nil, fmt.Errorf("role %q: tasks is required", name)
		}
		r := roles.Role{
			Name:       name,
			Frameworks: w.Frameworks,
			Tasks:      make([]roles.Task, 0, len(*w.Tasks)),
		}
		if r.Frameworks == nil {
			r.Frameworks = []string{}
		}
		for j, t := range *w.Tasks {
			if t.TaskDescription == nil || *t.TaskDescription == "" {
				return nil, fmt.Errorf("role %q task %d: taskDescription is required", name, j)
			}
			if t.NLPPrompt == nil || *t.NLPPrompt == "" {
				return nil, fmt.Errorf("role %q task %d: nlpPrompt is required", name, j)
			}
			r.Tasks = append(r.Tasks, roles.Task{
				Description: *t.TaskDescription,
				Prompt:      *t.NLPPrompt,
			})
		}
		out = append(out, r)
	}
	return out, nil
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
