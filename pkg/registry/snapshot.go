package registry

import (
	"fmt"
	"sort"
)

// Snapshot is the immutable, validated view of one registry export. All
// downstream stages read from it concurrently without locking.
type Snapshot struct {
	skills     []*Skill
	modules    []*Module
	codeBlocks []*CodeBlock
	lessons    []*Lesson

	skillsByName     map[string]*Skill
	modulesByName    map[string]*Module
	codeBlocksByName map[string]*CodeBlock

	skillsByID  map[string]*Skill
	modulesByID map[string]*Module
	lessonsByID map[string]*Lesson

	edges []DependencyEdge
}

// NewSnapshot validates an export and builds the snapshot. Validation is
// exhaustive: every malformed or duplicate record in the export is reported
// in a single aggregated error rather than only the first.
func NewSnapshot(export *Export) (*Snapshot, error) {
	errs := &loadErrors{}

	s := &Snapshot{
		skillsByName:     make(map[string]*Skill, len(export.Skills)),
		modulesByName:    make(map[string]*Module, len(export.Modules)),
		codeBlocksByName: make(map[string]*CodeBlock, len(export.CodeBlocks)),
		skillsByID:       make(map[string]*Skill, len(export.Skills)),
		modulesByID:      make(map[string]*Module, len(export.Modules)),
		lessonsByID:      make(map[string]*Lesson, len(export.Lessons)),
	}

	for _, sk := range export.Skills {
		if reason := validateSkill(sk); reason != "" {
			errs.malformed("skill", skillSource(sk), reason)
			continue
		}
		if prev, ok := s.skillsByName[sk.Name]; ok {
			errs.duplicate("skill", "name", sk.Name, skillSource(prev), skillSource(sk))
			continue
		}
		if prev, ok := s.skillsByID[sk.ID]; ok {
			errs.duplicate("skill", "id", sk.ID, skillSource(prev), skillSource(sk))
			continue
		}
		s.skillsByName[sk.Name] = sk
		s.skillsByID[sk.ID] = sk
		s.skills = append(s.skills, sk)
	}

	for _, m := range export.Modules {
		if m.ID == "" || m.Name == "" {
			errs.malformed("module", moduleSource(m), "id and name are required")
			continue
		}
		if prev, ok := s.modulesByName[m.Name]; ok {
			errs.duplicate("module", "name", m.Name, moduleSource(prev), moduleSource(m))
			continue
		}
		if prev, ok := s.modulesByID[m.ID]; ok {
			errs.duplicate("module", "id", m.ID, moduleSource(prev), moduleSource(m))
			continue
		}
		s.modulesByName[m.Name] = m
		s.modulesByID[m.ID] = m
		s.modules = append(s.modules, m)
	}

	for _, cb := range export.CodeBlocks {
		if cb.ID == "" || cb.Name == "" {
			errs.malformed("code block", fmt.Sprintf("code block %q", cb.Name), "id and name are required")
			continue
		}
		if prev, ok := s.codeBlocksByName[cb.Name]; ok {
			errs.duplicate("code block", "name", cb.Name,
				fmt.Sprintf("code block %s", prev.ID), fmt.Sprintf("code block %s", cb.ID))
			continue
		}
		s.codeBlocksByName[cb.Name] = cb
		s.codeBlocks = append(s.codeBlocks, cb)
	}

	for _, l := range export.Lessons {
		if l.ID == "" || l.Title == "" {
			errs.malformed("lesson", fmt.Sprintf("lesson %q", l.Title), "id and title are required")
			continue
		}
		if _, ok := s.lessonsByID[l.ID]; ok {
			errs.duplicate("lesson", "id", l.ID, "lesson "+l.ID, "lesson "+l.ID)
			continue
		}
		s.lessonsByID[l.ID] = l
		s.lessons = append(s.lessons, l)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	sort.Slice(s.skills, func(i, j int) bool { return s.skills[i].Name < s.skills[j].Name })
	sort.Slice(s.modules, func(i, j int) bool { return s.modules[i].Name < s.modules[j].Name })
	sort.Slice(s.codeBlocks, func(i, j int) bool { return s.codeBlocks[i].Name < s.codeBlocks[j].Name })
	sort.Slice(s.lessons, func(i, j int) bool { return s.lessons[i].ID < s.lessons[j].ID })

	s.edges = buildEdges(s.skills)
	return s, nil
}

// buildEdges flattens every skill's declarations into one ordered list:
// skills in name order, and within a skill the module declarations followed
// by the skill declarations, each in authored order. Duplicate declarations
// are kept; downstream stages decide how to count them.
func buildEdges(skills []*Skill) []DependencyEdge {
	var edges []DependencyEdge
	for _, sk := range skills {
		for _, d := range sk.ModuleDeps {
			edges = append(edges, DependencyEdge{
				FromSkillID:   sk.ID,
				FromSkillName: sk.Name,
				TargetName:    d.Name,
				DeclaredKind:  KindModule,
				Strength:      d.Strength,
			})
		}
		for _, d := range sk.SkillDeps {
			edges = append(edges, DependencyEdge{
				FromSkillID:   sk.ID,
				FromSkillName: sk.Name,
				TargetName:    d.Name,
				DeclaredKind:  KindSkill,
				Strength:      d.Strength,
			})
		}
	}
	return edges
}

func validateSkill(sk *Skill) string {
	if sk.ID == "" || sk.Name == "" {
		return "id and name are required"
	}
	for _, d := range sk.ModuleDeps {
		if reason := validateDep(d); reason != "" {
			return reason
		}
	}
	for _, d := range sk.SkillDeps {
		if reason := validateDep(d); reason != "" {
			return reason
		}
	}
	return ""
}

func validateDep(d DeclaredDep) string {
	if d.Name == "" {
		return "dependency with empty target name"
	}
	switch d.Strength {
	case StrengthRequired, StrengthOptional:
		return ""
	default:
		return fmt.Sprintf("dependency %q has unknown strength %q", d.Name, d.Strength)
	}
}

func skillSource(sk *Skill) string {
	if sk.ID != "" {
		return "skill " + sk.ID
	}
	return fmt.Sprintf("skill %q", sk.Name)
}

func moduleSource(m *Module) string {
	if m.ID != "" {
		return "module " + m.ID
	}
	return fmt.Sprintf("module %q", m.Name)
}

// Skills returns all skills in name order.
func (s *Snapshot) Skills() []*Skill { return s.skills }

// Modules returns all modules in name order.
func (s *Snapshot) Modules() []*Module { return s.modules }

// CodeBlocks returns all code blocks in name order.
func (s *Snapshot) CodeBlocks() []*CodeBlock { return s.codeBlocks }

// Lessons returns all lessons in id order.
func (s *Snapshot) Lessons() []*Lesson { return s.lessons }

// Edges returns the flattened dependency declarations in deterministic order.
func (s *Snapshot) Edges() []DependencyEdge { return s.edges }

// SkillByName looks a skill up by exact name.
func (s *Snapshot) SkillByName(name string) (*Skill, bool) {
	sk, ok := s.skillsByName[name]
	return sk, ok
}

// ModuleByName looks a module up by exact name.
func (s *Snapshot) ModuleByName(name string) (*Module, bool) {
	m, ok := s.modulesByName[name]
	return m, ok
}

// CodeBlockByName looks a code block up by exact name.
func (s *Snapshot) CodeBlockByName(name string) (*CodeBlock, bool) {
	cb, ok := s.codeBlocksByName[name]
	return cb, ok
}

// SkillByID looks a skill up by id.
func (s *Snapshot) SkillByID(id string) (*Skill, bool) {
	sk, ok := s.skillsByID[id]
	return sk, ok
}

// ModuleByID looks a module up by id.
func (s *Snapshot) ModuleByID(id string) (*Module, bool) {
	m, ok := s.modulesByID[id]
	return m, ok
}
