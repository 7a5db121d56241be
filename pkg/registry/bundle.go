package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Bundle is the single-file export form: the four record collections plus
// the dependency declarations normalized into their own collections, keyed
// by skill id. Inline declarations on skill records are honored too and keep
// their authored position ahead of the normalized ones.
type Bundle struct {
	Skills     []*Skill     `json:"skills" yaml:"skills"`
	Modules    []*Module    `json:"modules" yaml:"modules"`
	CodeBlocks []*CodeBlock `json:"code_blocks,omitempty" yaml:"code_blocks,omitempty"`
	Lessons    []*Lesson    `json:"lessons,omitempty" yaml:"lessons,omitempty"`
	ModuleDeps []BundleDep  `json:"module_dependencies,omitempty" yaml:"module_dependencies,omitempty"`
	SkillDeps  []BundleDep  `json:"skill_dependencies,omitempty" yaml:"skill_dependencies,omitempty"`
}

// BundleDep is one normalized dependency declaration in a bundle.
type BundleDep struct {
	SkillID  string   `json:"skill_id" yaml:"skill_id"`
	Target   string   `json:"target" yaml:"target"`
	Strength Strength `json:"strength,omitempty" yaml:"strength,omitempty"`
}

// loadBundle reads a *.json / *.yaml / *.yml bundle export.
func loadBundle(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read bundle file")
	}

	var bundle Bundle
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, errors.Wrap(err, "failed to parse JSON bundle")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML bundle")
		}
	default:
		return nil, errors.Errorf("unsupported bundle extension %q", filepath.Ext(path))
	}

	return bundle.export()
}

// export attaches the normalized dependency collections to their skills and
// returns the export. Declarations referencing an unknown skill id are
// malformed: a dangling declaration means the bundle was truncated or
// hand-edited badly, and silently dropping it would hide edges.
func (b *Bundle) export() (*Export, error) {
	errs := &loadErrors{}

	byID := make(map[string]*Skill, len(b.Skills))
	for _, sk := range b.Skills {
		if sk.ID != "" {
			byID[sk.ID] = sk
		}
	}

	for _, d := range b.ModuleDeps {
		sk, ok := byID[d.SkillID]
		if !ok {
			errs.malformed("skill", "module dependency on "+d.Target, "unknown skill id "+d.SkillID)
			continue
		}
		sk.ModuleDeps = append(sk.ModuleDeps, declaredDep(d))
	}
	for _, d := range b.SkillDeps {
		sk, ok := byID[d.SkillID]
		if !ok {
			errs.malformed("skill", "skill dependency on "+d.Target, "unknown skill id "+d.SkillID)
			continue
		}
		sk.SkillDeps = append(sk.SkillDeps, declaredDep(d))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Export{
		Skills:     b.Skills,
		Modules:    b.Modules,
		CodeBlocks: b.CodeBlocks,
		Lessons:    b.Lessons,
	}, nil
}

func declaredDep(d BundleDep) DeclaredDep {
	strength := d.Strength
	if strength == "" {
		strength = StrengthRequired
	}
	return DeclaredDep{Name: d.Target, Strength: strength}
}
