// Package health derives a continuous health score and a coarse upgrade
// priority per module. The two outputs are deliberately decoupled: the score
// ranks modules for the report (usage lifts it, lessons drag it), while the
// priority tier depends on lesson volume alone so an unused module still
// gets flagged when lessons pile up against it. Both are pure functions of
// the snapshot; rescoring the same snapshot yields identical values.
package health

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillscope/pkg/registry"
	"github.com/jingkaihe/skillscope/pkg/usage"
)

// Priority is the triage tier for one module.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// ModuleHealth is the scored row for one module.
type ModuleHealth struct {
	ModuleName      string   `json:"module"`
	Category        string   `json:"category,omitempty"`
	LessonCount     int      `json:"lesson_count"`
	SkillRefCount   int      `json:"skill_ref_count"`
	HealthScore     int      `json:"health_score"`
	UpgradePriority Priority `json:"upgrade_priority"`
}

// Policy holds the scoring constants. The defaults encode the maintainers'
// current thresholds; they are configurable because catalogs differ in how
// aggressively lessons accumulate.
type Policy struct {
	LessonPenalty     int `mapstructure:"lesson_penalty" json:"lesson_penalty" yaml:"lesson_penalty"`
	UsageBonus        int `mapstructure:"usage_bonus" json:"usage_bonus" yaml:"usage_bonus"`
	CriticalThreshold int `mapstructure:"critical_threshold" json:"critical_threshold" yaml:"critical_threshold"`
	HighThreshold     int `mapstructure:"high_threshold" json:"high_threshold" yaml:"high_threshold"`
	MediumThreshold   int `mapstructure:"medium_threshold" json:"medium_threshold" yaml:"medium_threshold"`
}

// DefaultPolicy returns the standard scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		LessonPenalty:     2,
		UsageBonus:        3,
		CriticalThreshold: 50,
		HighThreshold:     25,
		MediumThreshold:   10,
	}
}

// Validate rejects policies whose tiers cannot partition lesson counts.
func (p Policy) Validate() error {
	if p.LessonPenalty < 0 || p.UsageBonus < 0 {
		return errors.New("scoring weights must be non-negative")
	}
	if p.CriticalThreshold < p.HighThreshold || p.HighThreshold < p.MediumThreshold || p.MediumThreshold < 0 {
		return errors.Errorf("priority thresholds must descend: critical %d >= high %d >= medium %d >= 0",
			p.CriticalThreshold, p.HighThreshold, p.MediumThreshold)
	}
	return nil
}

// score computes the clamped health score for one module.
func (p Policy) score(lessonCount, skillRefCount int) int {
	score := 100 - lessonCount*p.LessonPenalty + skillRefCount*p.UsageBonus
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// priority assigns the tier from lesson volume alone.
func (p Policy) priority(lessonCount int) Priority {
	switch {
	case lessonCount > p.CriticalThreshold:
		return PriorityCritical
	case lessonCount > p.HighThreshold:
		return PriorityHigh
	case lessonCount > p.MediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Score computes the health row for every module and returns them ranked
// worst-first: ascending score, ties broken by higher usage (a heavily used
// lesson-heavy module is the worse outlier), then by name.
func Score(snapshot *registry.Snapshot, u *usage.Usage, lessonCounts map[string]int, policy Policy) []ModuleHealth {
	healths := make([]ModuleHealth, 0, len(snapshot.Modules()))
	for _, m := range snapshot.Modules() {
		lessonCount := lessonCounts[m.Name]
		refCount := u.ModuleRefCount(m.Name)
		healths = append(healths, ModuleHealth{
			ModuleName:      m.Name,
			Category:        m.Category,
			LessonCount:     lessonCount,
			SkillRefCount:   refCount,
			HealthScore:     policy.score(lessonCount, refCount),
			UpgradePriority: policy.priority(lessonCount),
		})
	}

	sort.Slice(healths, func(i, j int) bool {
		if healths[i].HealthScore != healths[j].HealthScore {
			return healths[i].HealthScore < healths[j].HealthScore
		}
		if healths[i].SkillRefCount != healths[j].SkillRefCount {
			return healths[i].SkillRefCount > healths[j].SkillRefCount
		}
		return healths[i].ModuleName < healths[j].ModuleName
	})
	return healths
}

// Index maps module name to its health row for random access alongside the
// ranked slice.
func Index(healths []ModuleHealth) map[string]ModuleHealth {
	index := make(map[string]ModuleHealth, len(healths))
	for _, h := range healths {
		index[h.ModuleName] = h
	}
	return index
}
