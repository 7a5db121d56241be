// Package resolve checks every dependency declaration against the registry
// namespaces and assigns each edge exactly one verdict. Resolution is a pure
// function of the snapshot, so edges are fanned out across a bounded worker
// pool where each worker owns a contiguous index range of the shared result
// slice and a private findings list. The join is a deterministic merge with
// no locks.
package resolve

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jingkaihe/skillscope/pkg/findings"
	"github.com/jingkaihe/skillscope/pkg/logger"
	"github.com/jingkaihe/skillscope/pkg/registry"
)

// Verdict classifies how one declaration resolved.
type Verdict string

const (
	// ResolvesToModule: the target exists only as a module and the
	// declaration said module.
	ResolvesToModule Verdict = "ResolvesToModule"
	// ResolvesToSkill: the target exists only as a skill and the declaration
	// said skill.
	ResolvesToSkill Verdict = "ResolvesToSkill"
	// KindMismatch: the target exists, but only under the other kind.
	KindMismatch Verdict = "KindMismatch"
	// ResolvesToBoth: the target name exists as a module and as a skill, so
	// the reference is ambiguous whatever the declared kind.
	ResolvesToBoth Verdict = "ResolvesToBoth"
	// Missing: the target exists in neither namespace.
	Missing Verdict = "Missing"
)

// Resolved reports whether the verdict is a clean resolution.
func (v Verdict) Resolved() bool {
	return v == ResolvesToModule || v == ResolvesToSkill
}

// Resolution pairs an edge with its verdict. ActualKind is set on
// KindMismatch to the kind the name really has.
type Resolution struct {
	Edge       registry.DependencyEdge `json:"edge"`
	Verdict    Verdict                 `json:"verdict"`
	ActualKind registry.Kind           `json:"actual_kind,omitempty"`
}

// Result holds the verdicts for every edge, index-aligned with the input
// order, plus the findings the verdicts imply.
type Result struct {
	Resolutions []Resolution
	Findings    *findings.List
}

// Option configures a resolver run.
type Option func(*config)

type config struct {
	workers int
}

// WithWorkers bounds the resolution pool. Values below 1 fall back to the
// default.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// Resolve classifies every edge. The output order equals the input order
// regardless of worker count.
func Resolve(ctx context.Context, snapshot *registry.Snapshot, edges []registry.DependencyEdge, opts ...Option) *Result {
	cfg := &config{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.NumCPU()
	}
	if cfg.workers > len(edges) {
		cfg.workers = len(edges)
	}

	resolutions := make([]Resolution, len(edges))
	if len(edges) == 0 {
		return &Result{Resolutions: resolutions, Findings: findings.NewList()}
	}

	lists := make([]*findings.List, cfg.workers)
	for w := range lists {
		lists[w] = findings.NewList()
	}
	chunk := (len(edges) + cfg.workers - 1) / cfg.workers

	wg := sync.WaitGroup{}
	wg.Add(cfg.workers)
	for w := 0; w < cfg.workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(edges) {
			end = len(edges)
		}

		go func(list *findings.List, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				resolutions[i] = resolveEdge(snapshot, edges[i], list)
			}
		}(lists[w], start, end)
	}
	wg.Wait()

	merged := findings.MergeLists(lists...)
	logger.G(ctx).WithFields(map[string]any{
		"edges":    len(edges),
		"workers":  cfg.workers,
		"findings": merged.Len(),
	}).Debug("dependency resolution completed")

	return &Result{
		Resolutions: resolutions,
		Findings:    merged,
	}
}

// resolveEdge assigns the verdict for one edge and records any finding it
// implies. Name matching is exact and case sensitive: near-miss detection is
// out of scope, a rename is a registry fix, not a resolver guess.
func resolveEdge(snapshot *registry.Snapshot, edge registry.DependencyEdge, list *findings.List) Resolution {
	_, isModule := snapshot.ModuleByName(edge.TargetName)
	_, isSkill := snapshot.SkillByName(edge.TargetName)

	switch {
	case isModule && isSkill:
		list.Add(findings.Finding{
			Code:   findings.ResolvesToBoth,
			Level:  findings.LevelWarning,
			Skill:  edge.FromSkillName,
			Target: edge.TargetName,
			Detail: fmt.Sprintf("target %q exists as both a module and a skill", edge.TargetName),
		})
		return Resolution{Edge: edge, Verdict: ResolvesToBoth}

	case isModule:
		if edge.DeclaredKind == registry.KindModule {
			return Resolution{Edge: edge, Verdict: ResolvesToModule}
		}
		list.Add(findings.Finding{
			Code:   findings.KindMismatch,
			Level:  findings.LevelWarning,
			Skill:  edge.FromSkillName,
			Target: edge.TargetName,
			Detail: fmt.Sprintf("declared as %s but %q is a module", edge.DeclaredKind, edge.TargetName),
		})
		return Resolution{Edge: edge, Verdict: KindMismatch, ActualKind: registry.KindModule}

	case isSkill:
		if edge.DeclaredKind == registry.KindSkill {
			return Resolution{Edge: edge, Verdict: ResolvesToSkill}
		}
		list.Add(findings.Finding{
			Code:   findings.KindMismatch,
			Level:  findings.LevelWarning,
			Skill:  edge.FromSkillName,
			Target: edge.TargetName,
			Detail: fmt.Sprintf("declared as %s but %q is a skill", edge.DeclaredKind, edge.TargetName),
		})
		return Resolution{Edge: edge, Verdict: KindMismatch, ActualKind: registry.KindSkill}

	default:
		detail := fmt.Sprintf("target %q does not exist in any namespace", edge.TargetName)
		if _, isCodeBlock := snapshot.CodeBlockByName(edge.TargetName); isCodeBlock {
			detail = fmt.Sprintf("target %q does not exist as a module or skill (a code block with this name exists; code blocks are not referenceable as dependencies)", edge.TargetName)
		}
		list.Add(findings.Finding{
			Code:   findings.Missing,
			Level:  findings.LevelError,
			Skill:  edge.FromSkillName,
			Target: edge.TargetName,
			Detail: detail,
		})
		return Resolution{Edge: edge, Verdict: Missing}
	}
}
