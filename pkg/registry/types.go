// Package registry loads the toolkit's skill/module registry export into an
// immutable in-memory snapshot. Three export formats are supported: the
// catalog's native directory layout (markdown with YAML frontmatter), a
// single-file JSON/YAML bundle, and a read-only SQLite database. All three
// normalize into the same Snapshot with O(1) name lookup and an ordered
// dependency edge list per skill.
package registry

// Kind distinguishes the two referenceable entity kinds a dependency can be
// declared against. Code blocks are an alternate namespace during resolution
// but are never a valid declared kind.
type Kind string

const (
	KindModule Kind = "module"
	KindSkill  Kind = "skill"
)

// Strength is the declared weight of a dependency. Optional dependencies
// count toward usage exactly like required ones; strength is retained for
// display only.
type Strength string

const (
	StrengthRequired Strength = "required"
	StrengthOptional Strength = "optional"
)

// DeclaredDep is a single dependency declaration as authored on a skill.
type DeclaredDep struct {
	Name     string   `json:"name" yaml:"name"`
	Strength Strength `json:"strength" yaml:"strength"`
}

// Skill is a declared unit of instructional content. Skills may depend on
// modules and on other skills; the declaration order is preserved.
type Skill struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Kind        string        `json:"kind,omitempty" yaml:"kind,omitempty"`
	ModuleDeps  []DeclaredDep `json:"module_dependencies,omitempty" yaml:"module_dependencies,omitempty"`
	SkillDeps   []DeclaredDep `json:"skill_dependencies,omitempty" yaml:"skill_dependencies,omitempty"`
}

// Module is a reusable code/pattern unit referenced by skills. Modules never
// declare dependencies of their own.
type Module struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Status      string `json:"status" yaml:"status"`
}

// CodeBlock is a finer-grained reusable snippet. It participates in
// resolution as an alternate namespace but is never scored.
type CodeBlock struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Language string   `json:"language" yaml:"language"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Lesson is an immutable field observation. Targets is the pre-tagged set of
// candidate module/skill names the lesson mentions.
type Lesson struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Content       string   `json:"content,omitempty" yaml:"content,omitempty"`
	Category      string   `json:"category" yaml:"category"`
	SourceProject string   `json:"source_project,omitempty" yaml:"source_project,omitempty"`
	Targets       []string `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// DependencyEdge is one raw dependency declaration, normalized from a skill's
// declared deps. Edges keep declaration order and duplicates; resolution and
// deduplication happen downstream.
type DependencyEdge struct {
	FromSkillID   string   `json:"from_skill_id"`
	FromSkillName string   `json:"from_skill"`
	TargetName    string   `json:"target"`
	DeclaredKind  Kind     `json:"declared_kind"`
	Strength      Strength `json:"strength"`
}

// Export is the normalized form every loader produces before snapshot
// construction: the four record collections with dependency declarations
// already attached to their skills.
type Export struct {
	Skills     []*Skill
	Modules    []*Module
	CodeBlocks []*CodeBlock
	Lessons    []*Lesson
}
