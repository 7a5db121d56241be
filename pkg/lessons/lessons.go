// Package lessons maps field lessons onto the modules and skills they
// mention and classifies how actionable each mapping is. Mapping depends
// only on the snapshot: a lesson's pre-tagged target names are resolved
// against the module and skill namespaces, and relevance falls out of the
// lesson's category plus the kind the target resolved to.
package lessons

import (
	"context"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillscope/pkg/logger"
	"github.com/jingkaihe/skillscope/pkg/registry"
)

// Relevance grades how urgently a lesson's mapping should be acted on.
type Relevance string

const (
	RelevanceCritical      Relevance = "Critical"
	RelevanceActionable    Relevance = "Actionable"
	RelevanceInformational Relevance = "Informational"
)

// rank orders relevance levels so duplicate mappings can keep the higher.
func (r Relevance) rank() int {
	switch r {
	case RelevanceCritical:
		return 2
	case RelevanceActionable:
		return 1
	default:
		return 0
	}
}

// Mapping is one (lesson, target) classification row.
type Mapping struct {
	LessonID     string        `json:"lesson_id"`
	LessonTitle  string        `json:"lesson_title,omitempty"`
	TargetName   string        `json:"target"`
	TargetKind   registry.Kind `json:"target_kind"`
	Relevance    Relevance     `json:"relevance"`
	ActionNeeded bool          `json:"action_needed"`
}

// Result holds the deduplicated mapping rows plus the lessons that produced
// none. Unmapped lessons are not defects; a lesson may be general-purpose.
type Result struct {
	Mappings []Mapping `json:"mappings"`
	Unmapped []string  `json:"unmapped,omitempty"`
}

// ModuleLessonCounts returns, per module name, the number of mapping rows
// targeting it. Only module-kind rows count; skill-targeted lessons do not
// weigh on module health.
func (r *Result) ModuleLessonCounts() map[string]int {
	counts := make(map[string]int)
	for _, m := range r.Mappings {
		if m.TargetKind == registry.KindModule {
			counts[m.TargetName]++
		}
	}
	return counts
}

// Config selects which lesson categories are treated as bug reports against
// their target and which as concrete improvement material. Entries are glob
// patterns because the hand-authored registry spells categories
// inconsistently (bugfix, bug-fix, bugfixes).
type Config struct {
	CriticalCategories   []string `mapstructure:"critical_categories" json:"critical_categories" yaml:"critical_categories"`
	ActionableCategories []string `mapstructure:"actionable_categories" json:"actionable_categories" yaml:"actionable_categories"`
}

// DefaultConfig returns the category sets observed in the registry's wild
// categories.
func DefaultConfig() Config {
	return Config{
		CriticalCategories:   []string{"bugfix*", "bug-fix*", "incident*", "hotfix*"},
		ActionableCategories: []string{"pattern*", "feature-gap*", "enhancement*", "integration*"},
	}
}

// Mapper classifies lessons against one snapshot at a time.
type Mapper struct {
	critical   *categoryMatcher
	actionable *categoryMatcher
}

// NewMapper compiles the category sets. Invalid glob patterns are
// configuration errors, not data errors.
func NewMapper(cfg Config) (*Mapper, error) {
	critical, err := newCategoryMatcher(cfg.CriticalCategories)
	if err != nil {
		return nil, errors.Wrap(err, "invalid critical category pattern")
	}
	actionable, err := newCategoryMatcher(cfg.ActionableCategories)
	if err != nil {
		return nil, errors.Wrap(err, "invalid actionable category pattern")
	}
	return &Mapper{critical: critical, actionable: actionable}, nil
}

// Map produces the mapping rows for every lesson in the snapshot. Rows keep
// lesson order (snapshot id order) and, within a lesson, target order as
// tagged; a duplicate (lesson, target) pair collapses into the earlier row,
// keeping the higher relevance.
func (m *Mapper) Map(ctx context.Context, snapshot *registry.Snapshot) *Result {
	result := &Result{}
	rowIndex := make(map[[2]string]int)

	for _, lesson := range snapshot.Lessons() {
		mapped := false
		for _, target := range lesson.Targets {
			kind, ok := resolveTargetKind(snapshot, target)
			if !ok {
				continue
			}
			mapped = true

			relevance := m.classify(lesson.Category, kind)
			key := [2]string{lesson.ID, target}
			if i, exists := rowIndex[key]; exists {
				if relevance.rank() > result.Mappings[i].Relevance.rank() {
					result.Mappings[i].Relevance = relevance
					result.Mappings[i].ActionNeeded = actionNeeded(relevance)
				}
				continue
			}

			rowIndex[key] = len(result.Mappings)
			result.Mappings = append(result.Mappings, Mapping{
				LessonID:     lesson.ID,
				LessonTitle:  lesson.Title,
				TargetName:   target,
				TargetKind:   kind,
				Relevance:    relevance,
				ActionNeeded: actionNeeded(relevance),
			})
		}

		if !mapped {
			result.Unmapped = append(result.Unmapped, lesson.ID)
		}
	}

	logger.G(ctx).WithFields(map[string]any{
		"lessons":  len(snapshot.Lessons()),
		"mappings": len(result.Mappings),
		"unmapped": len(result.Unmapped),
	}).Debug("lesson mapping completed")

	return result
}

// resolveTargetKind picks the kind a lesson target refers to. A name that is
// both a module and a skill maps to the module: modules are the scored
// entity, and a lesson against a dual-kind name should weigh on the module's
// health rather than vanish into the skill namespace.
func resolveTargetKind(snapshot *registry.Snapshot, target string) (registry.Kind, bool) {
	if _, ok := snapshot.ModuleByName(target); ok {
		return registry.KindModule, true
	}
	if _, ok := snapshot.SkillByName(target); ok {
		return registry.KindSkill, true
	}
	return "", false
}

// classify applies the relevance rules. A bugfix-category lesson against a
// skill is actionable rather than critical: skills are not health-scored, so
// the mapping is a cleanup signal, not a defect count.
func (m *Mapper) classify(category string, kind registry.Kind) Relevance {
	switch {
	case m.critical.matches(category):
		if kind == registry.KindModule {
			return RelevanceCritical
		}
		return RelevanceActionable
	case m.actionable.matches(category):
		return RelevanceActionable
	default:
		return RelevanceInformational
	}
}

func actionNeeded(r Relevance) bool {
	return r == RelevanceCritical || r == RelevanceActionable
}

// categoryMatcher holds exact names and compiled glob patterns, matched
// case-insensitively.
type categoryMatcher struct {
	exact    map[string]bool
	patterns []glob.Glob
}

func newCategoryMatcher(entries []string) (*categoryMatcher, error) {
	m := &categoryMatcher{exact: make(map[string]bool)}
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.ContainsAny(entry, "*?[") {
			pattern, err := glob.Compile(entry)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to compile pattern %q", entry)
			}
			m.patterns = append(m.patterns, pattern)
			continue
		}
		m.exact[entry] = true
	}
	return m, nil
}

func (m *categoryMatcher) matches(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return false
	}
	if m.exact[category] {
		return true
	}
	for _, pattern := range m.patterns {
		if pattern.Match(category) {
			return true
		}
	}
	return false
}
