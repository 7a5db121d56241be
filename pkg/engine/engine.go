// Package engine orchestrates a full analysis run: load the snapshot, fork
// the graph/resolution/usage branch alongside the lesson mapper, join, then
// score, analyze gaps, and assemble the report. One run is one pure pass
// over one immutable snapshot; the engine keeps no state between runs.
package engine

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillscope/pkg/depgraph"
	"github.com/jingkaihe/skillscope/pkg/findings"
	"github.com/jingkaihe/skillscope/pkg/gaps"
	"github.com/jingkaihe/skillscope/pkg/health"
	"github.com/jingkaihe/skillscope/pkg/lessons"
	"github.com/jingkaihe/skillscope/pkg/logger"
	"github.com/jingkaihe/skillscope/pkg/registry"
	"github.com/jingkaihe/skillscope/pkg/report"
	"github.com/jingkaihe/skillscope/pkg/resolve"
	"github.com/jingkaihe/skillscope/pkg/telemetry"
	"github.com/jingkaihe/skillscope/pkg/usage"
)

// Config gathers every tunable of one run.
type Config struct {
	Workers        int
	MinClusterSize int
	Policy         health.Policy
	Mapping        lessons.Config
}

// DefaultConfig returns the standard run configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		MinClusterSize: gaps.DefaultMinClusterSize,
		Policy:         health.DefaultPolicy(),
		Mapping:        lessons.DefaultConfig(),
	}
}

// Engine runs analyses. Construction validates the configuration so a bad
// policy or category pattern fails before any registry is touched.
type Engine struct {
	cfg    Config
	mapper *lessons.Mapper
}

// New validates the configuration and builds the engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scoring policy")
	}
	mapper, err := lessons.NewMapper(cfg.Mapping)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, mapper: mapper}, nil
}

// RunResult pairs the report with the merged findings that produced it.
type RunResult struct {
	Report   *report.Report
	Findings *findings.List
}

// HasMissing reports whether any error-level missing reference was found.
func (r *RunResult) HasMissing() bool {
	return r.Findings.CountByCode(findings.Missing) > 0
}

// Run executes one full analysis over the registry export at source. A
// returned error means the load failed fatally; findings never surface as
// errors.
func (e *Engine) Run(ctx context.Context, source string) (*RunResult, error) {
	ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("source", source))

	var snapshot *registry.Snapshot
	err := telemetry.WithSpan(ctx, "registry.load", func(ctx context.Context) error {
		var err error
		snapshot, err = registry.Load(ctx, source)
		return err
	}, attribute.String("registry.source", source))
	if err != nil {
		return nil, err
	}

	var (
		graph         *depgraph.Graph
		graphFindings *findings.List
		resolveResult *resolve.Result
		u             *usage.Usage
		lessonResult  *lessons.Result
	)

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		telemetry.WithSpanFunc(ctx, "graph.resolve.usage", func(ctx context.Context) {
			graph, graphFindings = depgraph.Build(snapshot)
			resolveResult = resolve.Resolve(ctx, snapshot, graph.Edges(), resolve.WithWorkers(e.cfg.Workers))
			u = usage.Aggregate(snapshot, resolveResult.Resolutions)
		})
	}()
	go func() {
		defer wg.Done()
		telemetry.WithSpanFunc(ctx, "lessons.map", func(ctx context.Context) {
			lessonResult = e.mapper.Map(ctx, snapshot)
		})
	}()
	wg.Wait()

	merged := findings.MergeLists(graphFindings, resolveResult.Findings)

	healths := health.Score(snapshot, u, lessonResult.ModuleLessonCounts(), e.cfg.Policy)
	analysis := gaps.Analyze(snapshot, graph, u, health.Index(healths), gaps.Options{
		MinClusterSize: e.cfg.MinClusterSize,
	})

	rep := report.Build(report.Inputs{
		Source:      source,
		Snapshot:    snapshot,
		Resolutions: resolveResult.Resolutions,
		Findings:    merged,
		Usage:       u,
		Lessons:     lessonResult,
		Healths:     healths,
		Analysis:    analysis,
	})

	logger.G(ctx).WithFields(map[string]any{
		"skills":   rep.Summary.TotalSkills,
		"modules":  rep.Summary.TotalModules,
		"edges":    rep.Summary.TotalEdges,
		"missing":  rep.Summary.MissingCount,
		"warnings": rep.Summary.WarningFindings,
		"orphans":  rep.Summary.OrphanCount,
	}).Info("analysis run completed")

	return &RunResult{Report: rep, Findings: merged}, nil
}
