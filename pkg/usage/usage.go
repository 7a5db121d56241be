// Package usage folds resolved dependency edges into per-module and
// per-skill usage counts. Counting is by distinct referencing skill: a skill
// declaring the same target twice contributes one reference, and optional
// dependencies count exactly like required ones. Every module and skill in
// the snapshot appears in the output, so zero-use modules (orphans) are
// first-class rows rather than absences.
package usage

import (
	"sort"

	"github.com/jingkaihe/skillscope/pkg/registry"
	"github.com/jingkaihe/skillscope/pkg/resolve"
)

// ModuleUsage is the usage row for one module.
type ModuleUsage struct {
	ModuleName string   `json:"module"`
	UsedBy     []string `json:"used_by,omitempty"`
	UseCount   int      `json:"use_count"`
}

// SkillUsage is the usage row for one skill referenced by other skills.
type SkillUsage struct {
	SkillName string   `json:"skill"`
	UsedBy    []string `json:"used_by,omitempty"`
	UseCount  int      `json:"use_count"`
}

// Usage holds both aggregations, each sorted by name.
type Usage struct {
	Modules []ModuleUsage `json:"modules"`
	Skills  []SkillUsage  `json:"skills"`

	moduleCounts map[string]int
}

// Aggregate folds cleanly resolved edges into usage rows. Only
// ResolvesToModule edges feed module usage and only ResolvesToSkill edges
// feed skill usage; mismatches, ambiguities and missing targets contribute
// nothing.
func Aggregate(snapshot *registry.Snapshot, resolutions []resolve.Resolution) *Usage {
	moduleRefs := make(map[string]map[string]bool)
	skillRefs := make(map[string]map[string]bool)

	for _, r := range resolutions {
		switch r.Verdict {
		case resolve.ResolvesToModule:
			addRef(moduleRefs, r.Edge.TargetName, r.Edge.FromSkillName)
		case resolve.ResolvesToSkill:
			addRef(skillRefs, r.Edge.TargetName, r.Edge.FromSkillName)
		}
	}

	u := &Usage{moduleCounts: make(map[string]int, len(snapshot.Modules()))}

	for _, m := range snapshot.Modules() {
		row := ModuleUsage{
			ModuleName: m.Name,
			UsedBy:     sortedRefs(moduleRefs[m.Name]),
		}
		row.UseCount = len(row.UsedBy)
		u.Modules = append(u.Modules, row)
		u.moduleCounts[m.Name] = row.UseCount
	}

	for _, sk := range snapshot.Skills() {
		row := SkillUsage{
			SkillName: sk.Name,
			UsedBy:    sortedRefs(skillRefs[sk.Name]),
		}
		row.UseCount = len(row.UsedBy)
		u.Skills = append(u.Skills, row)
	}

	return u
}

// OrphanModules returns the modules no skill references, in name order.
func (u *Usage) OrphanModules() []ModuleUsage {
	var orphans []ModuleUsage
	for _, row := range u.Modules {
		if row.UseCount == 0 {
			orphans = append(orphans, row)
		}
	}
	return orphans
}

// ModuleRefCount returns the distinct-skill reference count for a module.
// Unknown names count zero.
func (u *Usage) ModuleRefCount(name string) int {
	return u.moduleCounts[name]
}

func addRef(refs map[string]map[string]bool, target, from string) {
	set, ok := refs[target]
	if !ok {
		set = make(map[string]bool)
		refs[target] = set
	}
	set[from] = true
}

func sortedRefs(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
