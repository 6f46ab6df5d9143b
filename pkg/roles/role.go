// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package roles holds the role/task data model produced by document analysis
// and the aggregate that merges per-document results into one role list.
package roles

import "slices"

// Task is a single unit of work paired with a ready-to-use prompt for an AI
// assistant. Tasks have no identity beyond their position in a role.
type Task struct {
	Description string `json:"taskDescription" yaml:"taskDescription"`
	Prompt      string `json:"nlpPrompt" yaml:"nlpPrompt"`
}

// Role is a named category of work with the Agile frameworks it applies to and
// the tasks generated for it, in generation order.
type Role struct {
	Name       string   `json:"roleName" yaml:"roleName"`
	Frameworks []string `json:"frameworks" yaml:"frameworks"`
	Tasks      []Task   `json:"tasks" yaml:"tasks"`
}

// Clone returns a copy of r that shares no slices with it.
func (r Role) Clone() Role {
	return Role{
		Name:       r.Name,
		Frameworks: slices.Clone(r.Frameworks),
		Tasks:      slices.Clone(r.Tasks),
	}
}

// TaskCount returns the number of tasks across roles.
func TaskCount(rs []Role) int {
	n := 0
	for _, r := range rs {
		n += len(r.Tasks)
	}
	return n
}
