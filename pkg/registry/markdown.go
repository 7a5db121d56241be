package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Directory export layout. Skills, modules and snippets each live in one
// subdirectory per record; lessons are filed in arbitrarily nested
// per-project directories.
const (
	skillFileName   = "SKILL.md"
	moduleFileName  = "MODULE.md"
	snippetFileName = "SNIPPET.md"
	lessonGlob      = "lessons/**/*.md"
)

type skillFrontmatter struct {
	ID           string `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	Description  string `mapstructure:"description"`
	Kind         string `mapstructure:"kind"`
	Dependencies struct {
		Modules []any `mapstructure:"modules"`
		Skills  []any `mapstructure:"skills"`
	} `mapstructure:"dependencies"`
}

type moduleFrontmatter struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Category    string `mapstructure:"category"`
	Status      string `mapstructure:"status"`
}

type snippetFrontmatter struct {
	ID       string   `mapstructure:"id"`
	Name     string   `mapstructure:"name"`
	Language string   `mapstructure:"language"`
	Tags     []string `mapstructure:"tags"`
}

type lessonFrontmatter struct {
	ID            string   `mapstructure:"id"`
	Title         string   `mapstructure:"title"`
	Category      string   `mapstructure:"category"`
	SourceProject string   `mapstructure:"source_project"`
	Targets       []string `mapstructure:"targets"`
}

// loadDirectory reads a directory export rooted at dir. Parsing is
// exhaustive: every malformed file is collected before the aggregate error is
// returned, so one run surfaces the whole repair list.
func loadDirectory(dir string) (*Export, error) {
	export := &Export{}
	errs := &loadErrors{}

	for _, path := range recordFiles(filepath.Join(dir, "skills"), skillFileName) {
		fm, _, err := parseFrontmatter(path)
		if err != nil {
			errs.malformed("skill", relSource(dir, path), err.Error())
			continue
		}
		sk, err := decodeSkill(fm)
		if err != nil {
			errs.malformed("skill", relSource(dir, path), err.Error())
			continue
		}
		export.Skills = append(export.Skills, sk)
	}

	for _, path := range recordFiles(filepath.Join(dir, "modules"), moduleFileName) {
		fm, _, err := parseFrontmatter(path)
		if err != nil {
			errs.malformed("module", relSource(dir, path), err.Error())
			continue
		}
		var f moduleFrontmatter
		if err := decodeMeta(fm, &f); err != nil {
			errs.malformed("module", relSource(dir, path), err.Error())
			continue
		}
		if f.ID == "" {
			f.ID = f.Name
		}
		export.Modules = append(export.Modules, &Module{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			Category:    f.Category,
			Status:      f.Status,
		})
	}

	for _, path := range recordFiles(filepath.Join(dir, "snippets"), snippetFileName) {
		fm, _, err := parseFrontmatter(path)
		if err != nil {
			errs.malformed("code block", relSource(dir, path), err.Error())
			continue
		}
		var f snippetFrontmatter
		if err := decodeMeta(fm, &f); err != nil {
			errs.malformed("code block", relSource(dir, path), err.Error())
			continue
		}
		if f.ID == "" {
			f.ID = f.Name
		}
		export.CodeBlocks = append(export.CodeBlocks, &CodeBlock{
			ID:       f.ID,
			Name:     f.Name,
			Language: f.Language,
			Tags:     f.Tags,
		})
	}

	lessonPaths, err := doublestar.Glob(os.DirFS(dir), lessonGlob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan lesson files")
	}
	for _, rel := range lessonPaths {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		fm, body, err := parseFrontmatter(path)
		if err != nil {
			errs.malformed("lesson", rel, err.Error())
			continue
		}
		var f lessonFrontmatter
		if err := decodeMeta(fm, &f); err != nil {
			errs.malformed("lesson", rel, err.Error())
			continue
		}
		if f.ID == "" {
			f.ID = strings.TrimSuffix(rel, filepath.Ext(rel))
		}
		export.Lessons = append(export.Lessons, &Lesson{
			ID:            f.ID,
			Title:         f.Title,
			Content:       body,
			Category:      f.Category,
			SourceProject: f.SourceProject,
			Targets:       f.Targets,
		})
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return export, nil
}

// recordFiles lists <root>/<entry>/<fileName> for every subdirectory that
// carries one, in directory order. A missing root is an empty collection, not
// an error: partial exports are common in small catalogs.
func recordFiles(root, fileName string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name(), fileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

// parseFrontmatter parses one markdown file and returns its YAML frontmatter
// map plus the body with the frontmatter stripped.
func parseFrontmatter(path string) (map[string]any, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, "", errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, "", errors.New("missing frontmatter")
	}

	return metaData, extractBodyContent(string(content)), nil
}

// extractBodyContent removes YAML frontmatter and returns the body.
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}

// decodeMeta decodes a frontmatter map into a typed record. Input is weakly
// typed because the registry is hand-authored and YAML scalars arrive as
// whatever the parser guessed.
func decodeMeta(in map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create frontmatter decoder")
	}
	if err := decoder.Decode(in); err != nil {
		return errors.Wrap(err, "failed to decode frontmatter")
	}
	return nil
}

func decodeSkill(fm map[string]any) (*Skill, error) {
	var f skillFrontmatter
	if err := decodeMeta(fm, &f); err != nil {
		return nil, err
	}
	if f.ID == "" {
		f.ID = f.Name
	}

	sk := &Skill{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Kind:        f.Kind,
	}

	for _, raw := range f.Dependencies.Modules {
		dep, err := decodeDeclaredDep(raw)
		if err != nil {
			return nil, err
		}
		sk.ModuleDeps = append(sk.ModuleDeps, dep)
	}
	for _, raw := range f.Dependencies.Skills {
		dep, err := decodeDeclaredDep(raw)
		if err != nil {
			return nil, err
		}
		sk.SkillDeps = append(sk.SkillDeps, dep)
	}
	return sk, nil
}

// decodeDeclaredDep accepts the two authored forms of a dependency entry: a
// bare string (required) or a name/strength map.
func decodeDeclaredDep(raw any) (DeclaredDep, error) {
	switch v := raw.(type) {
	case string:
		return DeclaredDep{Name: v, Strength: StrengthRequired}, nil
	case map[string]any, map[any]any:
		var dep DeclaredDep
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &dep,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return DeclaredDep{}, errors.Wrap(err, "failed to create dependency decoder")
		}
		if err := decoder.Decode(v); err != nil {
			return DeclaredDep{}, errors.Wrap(err, "failed to decode dependency entry")
		}
		if dep.Strength == "" {
			dep.Strength = StrengthRequired
		}
		return dep, nil
	default:
		return DeclaredDep{}, errors.Errorf("unsupported dependency entry type %T", raw)
	}
}

func relSource(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
