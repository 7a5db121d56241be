// Package report collates the pipeline's outputs into the run's single
// artifact. The generator performs no computation of its own: every number
// in the report was produced upstream, this package only orders, formats,
// and writes. Sections render in a fixed order so diffs between runs line
// up.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jingkaihe/skillscope/pkg/findings"
	"github.com/jingkaihe/skillscope/pkg/gaps"
	"github.com/jingkaihe/skillscope/pkg/health"
	"github.com/jingkaihe/skillscope/pkg/lessons"
	"github.com/jingkaihe/skillscope/pkg/registry"
	"github.com/jingkaihe/skillscope/pkg/resolve"
	"github.com/jingkaihe/skillscope/pkg/usage"
	"github.com/jingkaihe/skillscope/pkg/version"
)

// Meta identifies one report run.
type Meta struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`
	Version     string    `json:"version"`
}

// MatrixRow is one dependency matrix entry: a declaration with its verdict.
type MatrixRow struct {
	Skill    string            `json:"skill"`
	Target   string            `json:"target"`
	Kind     registry.Kind     `json:"declared_kind"`
	Strength registry.Strength `json:"strength"`
	Verdict  resolve.Verdict   `json:"verdict"`
}

// Summary holds the closing counters.
type Summary struct {
	TotalSkills      int     `json:"total_skills"`
	TotalModules     int     `json:"total_modules"`
	TotalCodeBlocks  int     `json:"total_code_blocks"`
	TotalLessons     int     `json:"total_lessons"`
	TotalEdges       int     `json:"total_edges"`
	MissingCount     int     `json:"missing_count"`
	MismatchCount    int     `json:"kind_mismatch_count"`
	AmbiguousCount   int     `json:"ambiguous_count"`
	OrphanCount      int     `json:"orphan_count"`
	OrphanPercent    float64 `json:"orphan_percent"`
	Recommendations  int     `json:"recommendation_count"`
	UnmappedLessons  int     `json:"unmapped_lesson_count"`
	WarningFindings  int     `json:"warning_finding_count"`
	LessonMappings   int     `json:"lesson_mapping_count"`
	ActionNeededRows int     `json:"action_needed_count"`
}

// Report is the complete structured artifact. Field order mirrors the
// rendered section order.
type Report struct {
	Meta            Meta                    `json:"meta"`
	Matrix          []MatrixRow             `json:"dependency_matrix"`
	UsageRanking    []usage.ModuleUsage     `json:"usage_ranking"`
	MissingRefs     []findings.Finding      `json:"missing_references,omitempty"`
	KindMismatches  []findings.Finding      `json:"kind_mismatches,omitempty"`
	AmbiguousRefs   []findings.Finding      `json:"ambiguous_references,omitempty"`
	GraphWarnings   []findings.Finding      `json:"graph_warnings,omitempty"`
	Healths         []health.ModuleHealth   `json:"module_health"`
	Orphans         []gaps.Orphan           `json:"orphans,omitempty"`
	ProposedSkills  []gaps.ProposedSkill    `json:"proposed_skills,omitempty"`
	Wiring          []gaps.WiringSuggestion `json:"wiring_suggestions,omitempty"`
	LessonMappings  []lessons.Mapping       `json:"lesson_mappings,omitempty"`
	UnmappedLessons []string                `json:"unmapped_lessons,omitempty"`
	Summary         Summary                 `json:"summary"`
}

// Inputs carries everything the pipeline produced for one run.
type Inputs struct {
	Source      string
	Snapshot    *registry.Snapshot
	Resolutions []resolve.Resolution
	Findings    *findings.List
	Usage       *usage.Usage
	Lessons     *lessons.Result
	Healths     []health.ModuleHealth
	Analysis    *gaps.Analysis
}

// Build assembles the report. Matrix rows keep resolution order (skills by
// name, declarations as authored); the usage ranking re-sorts module usage
// by descending count, ties by name.
func Build(in Inputs) *Report {
	r := &Report{
		Meta: Meta{
			RunID:       uuid.NewString(),
			GeneratedAt: time.Now().UTC(),
			Source:      in.Source,
			Version:     version.Get().Version,
		},
	}

	for _, res := range in.Resolutions {
		r.Matrix = append(r.Matrix, MatrixRow{
			Skill:    res.Edge.FromSkillName,
			Target:   res.Edge.TargetName,
			Kind:     res.Edge.DeclaredKind,
			Strength: res.Edge.Strength,
			Verdict:  res.Verdict,
		})
	}

	r.UsageRanking = append(r.UsageRanking, in.Usage.Modules...)
	sort.Slice(r.UsageRanking, func(i, j int) bool {
		if r.UsageRanking[i].UseCount != r.UsageRanking[j].UseCount {
			return r.UsageRanking[i].UseCount > r.UsageRanking[j].UseCount
		}
		return r.UsageRanking[i].ModuleName < r.UsageRanking[j].ModuleName
	})

	r.MissingRefs = in.Findings.ByCode(findings.Missing)
	r.KindMismatches = in.Findings.ByCode(findings.KindMismatch)
	r.AmbiguousRefs = in.Findings.ByCode(findings.ResolvesToBoth)
	r.GraphWarnings = append(
		in.Findings.ByCode(findings.SelfDependency),
		in.Findings.ByCode(findings.CyclicSkillDependency)...,
	)

	r.Healths = in.Healths
	if in.Analysis != nil {
		r.Orphans = in.Analysis.Orphans
		r.ProposedSkills = in.Analysis.ProposedSkills
		r.Wiring = in.Analysis.Wiring
	}
	if in.Lessons != nil {
		r.LessonMappings = in.Lessons.Mappings
		r.UnmappedLessons = in.Lessons.Unmapped
	}

	r.Summary = buildSummary(in, r)
	return r
}

func buildSummary(in Inputs, r *Report) Summary {
	s := Summary{
		TotalSkills:     len(in.Snapshot.Skills()),
		TotalModules:    len(in.Snapshot.Modules()),
		TotalCodeBlocks: len(in.Snapshot.CodeBlocks()),
		TotalLessons:    len(in.Snapshot.Lessons()),
		TotalEdges:      len(in.Resolutions),
		MissingCount:    len(r.MissingRefs),
		MismatchCount:   len(r.KindMismatches),
		AmbiguousCount:  len(r.AmbiguousRefs),
		OrphanCount:     len(r.Orphans),
		Recommendations: len(r.ProposedSkills) + wiredSuggestions(r.Wiring),
		UnmappedLessons: len(r.UnmappedLessons),
		LessonMappings:  len(r.LessonMappings),
	}

	if s.TotalModules > 0 {
		s.OrphanPercent = float64(s.OrphanCount) / float64(s.TotalModules) * 100
	}
	for _, f := range in.Findings.Items() {
		if f.Level == findings.LevelWarning {
			s.WarningFindings++
		}
	}
	for _, m := range r.LessonMappings {
		if m.ActionNeeded {
			s.ActionNeededRows++
		}
	}
	return s
}

// wiredSuggestions counts wiring entries that actually name a skill; "no
// wiring candidate" rows are listed but are not recommendations.
func wiredSuggestions(wiring []gaps.WiringSuggestion) int {
	count := 0
	for _, w := range wiring {
		if w.Skill != "" {
			count++
		}
	}
	return count
}
