// Package gaps analyzes zero-usage modules. Orphans cluster by category;
// a large enough cluster that no single skill already declares together
// becomes a proposed consolidating skill, and the rest get a best-effort
// wiring suggestion pointing at the existing skill most invested in the
// orphan's category. Everything here is advisory: the analyzer never touches
// the registry, it only feeds the report.
package gaps

import (
	"sort"

	"github.com/jingkaihe/skillscope/pkg/depgraph"
	"github.com/jingkaihe/skillscope/pkg/health"
	"github.com/jingkaihe/skillscope/pkg/registry"
	"github.com/jingkaihe/skillscope/pkg/usage"
)

// DefaultMinClusterSize is the smallest orphan cluster worth a new skill.
const DefaultMinClusterSize = 4

// Orphan is one unreferenced module with its health attached for display.
type Orphan struct {
	ModuleName string              `json:"module"`
	Category   string              `json:"category,omitempty"`
	Health     health.ModuleHealth `json:"health"`
}

// ProposedSkill recommends consolidating one orphan cluster under a new
// skill.
type ProposedSkill struct {
	Category string   `json:"category"`
	Modules  []string `json:"modules"`
}

// WiringSuggestion recommends attaching an orphan to an existing skill. An
// empty Skill means no candidate shares the orphan's category.
type WiringSuggestion struct {
	ModuleName  string `json:"module"`
	Category    string `json:"category,omitempty"`
	Skill       string `json:"skill,omitempty"`
	SharedCount int    `json:"shared_count,omitempty"`
}

// Analysis is the analyzer's full output, each slice in deterministic order.
type Analysis struct {
	Orphans        []Orphan           `json:"orphans,omitempty"`
	ProposedSkills []ProposedSkill    `json:"proposed_skills,omitempty"`
	Wiring         []WiringSuggestion `json:"wiring,omitempty"`
}

// Options tunes the analyzer.
type Options struct {
	MinClusterSize int
}

// Analyze inspects the orphan set. Orphans sort by category then name;
// proposals by category; wiring suggestions by module name.
func Analyze(snapshot *registry.Snapshot, graph *depgraph.Graph, u *usage.Usage, healthIndex map[string]health.ModuleHealth, opts Options) *Analysis {
	minCluster := opts.MinClusterSize
	if minCluster < 1 {
		minCluster = DefaultMinClusterSize
	}

	analysis := &Analysis{}
	clusters := make(map[string][]string)

	for _, row := range u.OrphanModules() {
		m, ok := snapshot.ModuleByName(row.ModuleName)
		if !ok {
			continue
		}
		analysis.Orphans = append(analysis.Orphans, Orphan{
			ModuleName: m.Name,
			Category:   m.Category,
			Health:     healthIndex[m.Name],
		})
		clusters[m.Category] = append(clusters[m.Category], m.Name)
	}

	sort.Slice(analysis.Orphans, func(i, j int) bool {
		if analysis.Orphans[i].Category != analysis.Orphans[j].Category {
			return analysis.Orphans[i].Category < analysis.Orphans[j].Category
		}
		return analysis.Orphans[i].ModuleName < analysis.Orphans[j].ModuleName
	})

	categories := make([]string, 0, len(clusters))
	for category := range clusters {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		members := clusters[category]
		sort.Strings(members)

		// An uncategorized orphan has nothing to cluster or wire on.
		if category == "" {
			for _, name := range members {
				analysis.Wiring = append(analysis.Wiring, WiringSuggestion{ModuleName: name})
			}
			continue
		}

		if len(members) >= minCluster && !declaredTogether(snapshot, graph, members) {
			analysis.ProposedSkills = append(analysis.ProposedSkills, ProposedSkill{
				Category: category,
				Modules:  members,
			})
			continue
		}

		for _, name := range members {
			analysis.Wiring = append(analysis.Wiring, suggestWiring(snapshot, graph, name, category))
		}
	}

	sort.Slice(analysis.Wiring, func(i, j int) bool {
		return analysis.Wiring[i].ModuleName < analysis.Wiring[j].ModuleName
	})

	return analysis
}

// declaredTogether reports whether any single skill's declarations already
// cover every cluster member, under either declared kind. Proposing a skill
// that duplicates an existing declaration list would just split the
// registry further.
func declaredTogether(snapshot *registry.Snapshot, graph *depgraph.Graph, members []string) bool {
	for _, sk := range snapshot.Skills() {
		declared := make(map[string]bool)
		for _, edge := range graph.EdgesFrom(sk.Name) {
			declared[edge.TargetName] = true
		}

		all := true
		for _, name := range members {
			if !declared[name] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// suggestWiring picks the skill most invested in the orphan's category: the
// one whose declared modules share the category most often. Ties go to the
// lexicographically smallest skill name so reruns agree.
func suggestWiring(snapshot *registry.Snapshot, graph *depgraph.Graph, orphan, category string) WiringSuggestion {
	suggestion := WiringSuggestion{ModuleName: orphan, Category: category}

	for _, sk := range snapshot.Skills() {
		shared := 0
		for _, target := range graph.ModuleTargets(sk.Name) {
			m, ok := snapshot.ModuleByName(target)
			if !ok || m.Name == orphan {
				continue
			}
			if m.Category == category {
				shared++
			}
		}
		if shared > suggestion.SharedCount {
			suggestion.Skill = sk.Name
			suggestion.SharedCount = shared
		}
	}

	return suggestion
}
