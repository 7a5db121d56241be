// Package depgraph builds the directed dependency multigraph from a registry
// snapshot. Every declaration is an edge; duplicates and self-edges are kept
// so downstream stages see exactly what was authored. Structural defects
// (self-dependencies, cross-skill cycles) surface as warning findings and
// never block the pipeline.
package depgraph

import (
	"sort"
	"strings"

	"github.com/jingkaihe/skillscope/pkg/findings"
	"github.com/jingkaihe/skillscope/pkg/registry"
)

// Graph is the dependency multigraph for one snapshot. Edge order is the
// snapshot's deterministic order (skills by name, declarations as authored).
type Graph struct {
	edges    []registry.DependencyEdge
	outgoing map[string][]int
	incoming map[string][]int
}

// Build constructs the graph and reports structural warnings: one
// SelfDependency per self-edge and one CyclicSkillDependency per distinct
// cross-skill cycle.
func Build(snapshot *registry.Snapshot) (*Graph, *findings.List) {
	edges := snapshot.Edges()
	g := &Graph{
		edges:    edges,
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}
	list := findings.NewList()

	for i, edge := range edges {
		g.outgoing[edge.FromSkillName] = append(g.outgoing[edge.FromSkillName], i)
		g.incoming[edge.TargetName] = append(g.incoming[edge.TargetName], i)

		if edge.FromSkillName == edge.TargetName {
			list.Add(findings.Finding{
				Code:   findings.SelfDependency,
				Level:  findings.LevelWarning,
				Skill:  edge.FromSkillName,
				Target: edge.TargetName,
				Detail: "skill declares a dependency on itself",
			})
		}
	}

	for _, cycle := range g.skillCycles(snapshot) {
		list.Add(findings.Finding{
			Code:   findings.CyclicSkillDependency,
			Level:  findings.LevelWarning,
			Skill:  cycle[0],
			Target: cycle[len(cycle)-1],
			Detail: strings.Join(append(cycle, cycle[0]), " -> "),
		})
	}

	return g, list
}

// Edges returns every edge in deterministic order.
func (g *Graph) Edges() []registry.DependencyEdge { return g.edges }

// EdgesFrom returns the edges a skill declares, in authored order.
func (g *Graph) EdgesFrom(skill string) []registry.DependencyEdge {
	return g.edgeSubset(g.outgoing[skill])
}

// EdgesTo returns the edges targeting a name, in deterministic order.
func (g *Graph) EdgesTo(target string) []registry.DependencyEdge {
	return g.edgeSubset(g.incoming[target])
}

// ModuleTargets returns the distinct module-kind target names a skill
// declares, first occurrence order.
func (g *Graph) ModuleTargets(skill string) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, i := range g.outgoing[skill] {
		edge := g.edges[i]
		if edge.DeclaredKind != registry.KindModule || seen[edge.TargetName] {
			continue
		}
		seen[edge.TargetName] = true
		targets = append(targets, edge.TargetName)
	}
	return targets
}

func (g *Graph) edgeSubset(indices []int) []registry.DependencyEdge {
	if len(indices) == 0 {
		return nil
	}
	subset := make([]registry.DependencyEdge, 0, len(indices))
	for _, i := range indices {
		subset = append(subset, g.edges[i])
	}
	return subset
}

// skillCycles finds each distinct cycle in the skill-to-skill subset of the
// graph. Only declarations whose target actually exists as a skill form the
// adjacency; dangling skill references are the resolver's problem, not a
// cycle's. Trivial self-loops are excluded, they are already reported as
// SelfDependency.
func (g *Graph) skillCycles(snapshot *registry.Snapshot) [][]string {
	adjacency := make(map[string][]string)
	for _, edge := range g.edges {
		if edge.DeclaredKind != registry.KindSkill || edge.FromSkillName == edge.TargetName {
			continue
		}
		if _, ok := snapshot.SkillByName(edge.TargetName); !ok {
			continue
		}
		adjacency[edge.FromSkillName] = append(adjacency[edge.FromSkillName], edge.TargetName)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[string]int)
	seen := make(map[string]bool)
	var cycles [][]string

	for _, sk := range snapshot.Skills() {
		if state[sk.Name] != white {
			continue
		}

		stack := []frame{{name: sk.Name}}
		state[sk.Name] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			next := adjacency[top.name]

			if top.next >= len(next) {
				state[top.name] = black
				stack = stack[:len(stack)-1]
				continue
			}

			target := next[top.next]
			top.next++

			switch state[target] {
			case white:
				state[target] = gray
				stack = append(stack, frame{name: target})
			case gray:
				cycle := extractCycle(stack, target)
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

// frame is one DFS stack entry: a skill plus the index of its next
// unexplored adjacency.
type frame struct {
	name string
	next int
}

// extractCycle slices the DFS stack from the back edge's target to the top
// and rotates the cycle so its lexicographically smallest member leads,
// giving one canonical form per distinct cycle.
func extractCycle(stack []frame, target string) []string {
	start := -1
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].name == target {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	cycle := make([]string, 0, len(stack)-start)
	for _, f := range stack[start:] {
		cycle = append(cycle, f.name)
	}

	smallest := 0
	for i, name := range cycle {
		if name < cycle[smallest] {
			smallest = i
		}
	}
	rotated := make([]string, 0, len(cycle))
	rotated = append(rotated, cycle[smallest:]...)
	rotated = append(rotated, cycle[:smallest]...)
	return rotated
}
