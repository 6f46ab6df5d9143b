// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package roles

import (
	"fmt"
	"strings"
)

// Text renders the aggregate as plain role/task text suitable for embedding
// in a prompt body.
func (a Aggregate) Text() string {
	var b strings.Builder
	for i, r := range a.roles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Role: %s\n", r.Name)
		if len(r.Frameworks) > 0 {
			fmt.Fprintf(&b, "Frameworks: %s\n", strings.Join(r.Frameworks, ", "))
		}
		b.WriteString("Tasks:\n")
		for j, t := range r.Tasks {
			fmt.Fprintf(&b, "  %d. %s\n", j+1, t.Description)
			fmt.Fprintf(&b, "     Prompt: %s\n", t.Prompt)
		}
	}
	return b.String()
}
