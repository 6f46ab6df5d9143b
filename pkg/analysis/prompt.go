// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"fmt"
	"strings"
)

const analysisPrompt = `Based on the content of the attached document named %q, please act as an expert Agile project management consultant. Your goal is to generate a comprehensive list of potential tasks and corresponding natural language processing (NLP) prompts that can be used in an organization's internal AI tools.

Please follow these instructions carefully:
1.  Analyze the provided document content thoroughly. The document could be a coding standard, requirement document, RFP, SOW, or checklist.
2.  Identify potential tasks for a software development project based on the content.
3.  Categorize these tasks according to standard Software Development Life Cycle (SDLC) roles.
4.  For each role, specify which Agile frameworks (Scrum, SAFe, Kanban) the tasks are most applicable to.
5.  For each identified task, create a concise and actionable NLP prompt. This prompt should be something a user could type into an AI tool to get help with that specific task.
6.  The final output must be a JSON array of objects that strictly adheres to the provided response schema.`

// AnalysisPrompt returns the instruction sent alongside a document.
func AnalysisPrompt(documentName string) string {
	return fmt.Sprintf(analysisPrompt, documentName)
}

// DefaultInstruction is used when the caller gives no orchestration
// instruction.
const DefaultInstruction = "Act as an autonomous AI project manager. Understand the project scope, plan the work, and orchestrate the roles and tasks below through delivery."

const orchestrationPrompt = `You are writing a single, self-contained prompt for an advanced AI model that will act as an autonomous project manager.

The prompt you write must:
- Explain the project context implied by the roles and tasks below.
- Tell the AI how to sequence and coordinate the work across roles, respecting the listed Agile frameworks.
- Tell the AI how to use each task's NLP prompt when delegating that task.
- Ask the AI to report progress, risks, and blockers at each step.

Instruction from the user:
%s

Roles and tasks:
%s
Return only the prompt text, without any preamble or closing remarks.`

// OrchestrationPrompt returns the request body for an orchestration prompt.
func OrchestrationPrompt(instruction, rolesText string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return fmt.Sprintf(orchestrationPrompt, instruction, rolesText)
}
