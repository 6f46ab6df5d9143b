// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package roles

import (
	"encoding/json"
	"slices"
)

// Aggregate is the cumulative result of merging per-document role lists. It
// holds at most one Role per exact role name and iterates in insertion order.
//
// Aggregate values are immutable: Merge returns a new Aggregate and never
// touches the receiver or the incoming roles. The zero value is an empty
// aggregate ready to use.
type Aggregate struct {
	roles []Role
	index map[string]int
}

// NewAggregate builds an aggregate from rs, merging repeated role names in
// order.
func NewAggregate(rs ...Role) Aggregate {
	return Aggregate{}.Merge(rs)
}

// Merge folds one document's roles into a into a new aggregate.
//
// Roles already present keep their position; their tasks are extended with
// the incoming tasks and their frameworks with any incoming framework not yet
// listed. Unknown roles are appended in first-seen order. Names and frameworks
// compare by exact string equality.
func Merge(a Aggregate, incoming []Role) Aggregate {
	return a.Merge(incoming)
}

// Merge is the method form of Merge.
func (a Aggregate) Merge(incoming []Role) Aggregate {
	out := Aggregate{
		roles: make([]Role, 0, len(a.roles)+len(incoming)),
		index: make(map[string]int, len(a.roles)+len(incoming)),
	}
	for _, r := range a.roles {
		out.index[r.Name] = len(out.roles)
		out.roles = append(out.roles, r.Clone())
	}

	for _, r := range incoming {
		i, ok := out.index[r.Name]
		if !ok {
			out.index[r.Name] = len(out.roles)
			// New roles start with non-nil slices so they encode as [] and
			// their frameworks hold no repeats.
			out.roles = append(out.roles, Role{
				Name:       r.Name,
				Frameworks: appendMissing(nil, r.Frameworks),
				Tasks:      append(make([]Task, 0, len(r.Tasks)), r.Tasks...),
			})
			continue
		}
		cur := &out.roles[i]
		cur.Tasks = append(cur.Tasks, r.Tasks...)
		cur.Frameworks = appendMissing(cur.Frameworks, r.Frameworks)
	}
	return out
}

// appendMissing appends each entry of add not already in dst.
func appendMissing(dst, add []string) []string {
	if dst == nil {
		dst = make([]string, 0, len(add))
	}
	for _, fw := range add {
		if !slices.Contains(dst, fw) {
			dst = append(dst, fw)
		}
	}
	return dst
}

// Roles returns a deep copy of the aggregate's roles in iteration order.
func (a Aggregate) Roles() []Role {
	out := make([]Role, len(a.roles))
	for i, r := range a.roles {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the role with the given name.
func (a Aggregate) Get(name string) (Role, bool) {
	i, ok := a.index[name]
	if !ok {
		return Role{}, false
	}
	return a.roles[i].Clone(), true
}

// Len reports the number of distinct roles.
func (a Aggregate) Len() int { return len(a.roles) }

// TaskCount reports the number of tasks across all roles.
func (a Aggregate) TaskCount() int { return TaskCount(a.roles) }

// Empty reports whether the aggregate has no roles.
func (a Aggregate) Empty() bool { return len(a.roles) == 0 }

// MarshalJSON encodes the aggregate as an ordered array of roles.
func (a Aggregate) MarshalJSON() ([]byte, error) {
	if a.roles == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.roles)
}

// UnmarshalJSON decodes an array of roles, merging repeated names.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	var rs []Role
	if err := json.Unmarshal(data, &rs); err != nil {
		return err
	}
	*a = NewAggregate(rs...)
	return nil
}

// MarshalYAML encodes the aggregate as an ordered sequence of roles.
func (a Aggregate) MarshalYAML() (interface{}, error) {
	return a.Roles(), nil
}
