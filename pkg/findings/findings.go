// Package findings defines the defect taxonomy shared by the analysis
// pipeline. Findings are data, not errors: components return them alongside
// their primary results and the report merges them, so a single run surfaces
// every defect instead of stopping at the first one.
package findings

import "fmt"

// Level classifies how severe a finding is. Warnings are always advisory;
// error-level findings can fail the run when --fail-on-missing is set.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Code identifies the kind of defect a finding describes.
type Code string

const (
	// Missing marks a dependency reference that resolves to nothing.
	Missing Code = "Missing"
	// KindMismatch marks a reference declared as one kind but resolvable only as the other.
	KindMismatch Code = "KindMismatch"
	// ResolvesToBoth marks a reference whose name exists as both a module and a skill.
	ResolvesToBoth Code = "ResolvesToBoth"
	// SelfDependency marks a skill that declares a dependency on itself.
	SelfDependency Code = "SelfDependency"
	// CyclicSkillDependency marks a cycle in the skill-to-skill dependency graph.
	CyclicSkillDependency Code = "CyclicSkillDependency"
)

// Finding is a single defect observation tied to a skill declaration or a
// structural property of the graph.
type Finding struct {
	Code   Code   `json:"code"`
	Level  Level  `json:"level"`
	Skill  string `json:"skill,omitempty"`
	Target string `json:"target,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (f Finding) String() string {
	switch {
	case f.Skill != "" && f.Target != "":
		return fmt.Sprintf("%s: %s -> %s (%s)", f.Code, f.Skill, f.Target, f.Detail)
	case f.Skill != "":
		return fmt.Sprintf("%s: %s (%s)", f.Code, f.Skill, f.Detail)
	default:
		return fmt.Sprintf("%s: %s", f.Code, f.Detail)
	}
}

// List is an append-only collection of findings. Each pipeline worker owns
// its own List and lists are merged in deterministic order at join time, so
// no locking is needed anywhere in the pipeline.
type List struct {
	items []Finding
}

// NewList returns an empty findings list.
func NewList() *List {
	return &List{}
}

// Add appends a finding to the list.
func (l *List) Add(f Finding) {
	l.items = append(l.items, f)
}

// Merge appends every finding from other, preserving both orders.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}

// Items returns the accumulated findings in insertion order.
func (l *List) Items() []Finding {
	return l.items
}

// Len returns the number of accumulated findings.
func (l *List) Len() int {
	return len(l.items)
}

// ByCode returns the findings with the given code, in insertion order.
func (l *List) ByCode(code Code) []Finding {
	var out []Finding
	for _, f := range l.items {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

// CountByCode returns how many findings carry the given code.
func (l *List) CountByCode(code Code) int {
	n := 0
	for _, f := range l.items {
		if f.Code == code {
			n++
		}
	}
	return n
}

// HasErrors reports whether the list contains at least one error-level finding.
func (l *List) HasErrors() bool {
	for _, f := range l.items {
		if f.Level == LevelError {
			return true
		}
	}
	return false
}

// MergeLists combines per-worker lists into one, in the order given.
func MergeLists(lists ...*List) *List {
	merged := &List{}
	for _, l := range lists {
		merged.Merge(l)
	}
	return merged
}
