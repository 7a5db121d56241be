package registry

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// sqliteSkillRow mirrors the skills table. Dependency declarations live in
// skill_module_deps / skill_skill_deps and are attached after the base rows
// load.
type sqliteSkillRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Kind        string `db:"kind"`
}

type sqliteModuleRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Category    string `db:"category"`
	Status      string `db:"status"`
}

type sqliteCodeBlockRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Language string `db:"language"`
	Tags     string `db:"tags"`
}

type sqliteLessonRow struct {
	ID            string `db:"id"`
	Title         string `db:"title"`
	Content       string `db:"content"`
	Category      string `db:"category"`
	SourceProject string `db:"source_project"`
}

type sqliteDepRow struct {
	SkillID  string `db:"skill_id"`
	Target   string `db:"target"`
	Strength string `db:"strength"`
}

type sqliteTargetRow struct {
	LessonID string `db:"lesson_id"`
	Target   string `db:"target"`
}

// loadSQLite reads a SQLite export. The database is opened read-only; the
// registry tool never mutates an export.
func loadSQLite(ctx context.Context, path string) (*Export, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open registry database")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ping registry database")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA query_only=ON"); err != nil {
		return nil, errors.Wrap(err, "failed to set query_only pragma")
	}

	export := &Export{}

	var skillRows []sqliteSkillRow
	if err := db.SelectContext(ctx, &skillRows,
		`SELECT id, name, COALESCE(description, '') AS description, COALESCE(kind, '') AS kind
		 FROM skills ORDER BY rowid`); err != nil {
		return nil, errors.Wrap(err, "failed to query skills")
	}
	byID := make(map[string]*Skill, len(skillRows))
	for _, row := range skillRows {
		sk := &Skill{ID: row.ID, Name: row.Name, Description: row.Description, Kind: row.Kind}
		export.Skills = append(export.Skills, sk)
		byID[sk.ID] = sk
	}

	var moduleRows []sqliteModuleRow
	if err := db.SelectContext(ctx, &moduleRows,
		`SELECT id, name, COALESCE(description, '') AS description,
		        COALESCE(category, '') AS category, COALESCE(status, '') AS status
		 FROM modules ORDER BY rowid`); err != nil {
		return nil, errors.Wrap(err, "failed to query modules")
	}
	for _, row := range moduleRows {
		export.Modules = append(export.Modules, &Module{
			ID: row.ID, Name: row.Name, Description: row.Description,
			Category: row.Category, Status: row.Status,
		})
	}

	var codeBlockRows []sqliteCodeBlockRow
	if err := db.SelectContext(ctx, &codeBlockRows,
		`SELECT id, name, COALESCE(language, '') AS language, COALESCE(tags, '') AS tags
		 FROM code_blocks ORDER BY rowid`); err != nil {
		return nil, errors.Wrap(err, "failed to query code blocks")
	}
	for _, row := range codeBlockRows {
		export.CodeBlocks = append(export.CodeBlocks, &CodeBlock{
			ID: row.ID, Name: row.Name, Language: row.Language, Tags: splitTags(row.Tags),
		})
	}

	var lessonRows []sqliteLessonRow
	if err := db.SelectContext(ctx, &lessonRows,
		`SELECT id, title, COALESCE(content, '') AS content,
		        COALESCE(category, '') AS category, COALESCE(source_project, '') AS source_project
		 FROM lessons ORDER BY rowid`); err != nil {
		return nil, errors.Wrap(err, "failed to query lessons")
	}
	lessonsByID := make(map[string]*Lesson, len(lessonRows))
	for _, row := range lessonRows {
		l := &Lesson{
			ID: row.ID, Title: row.Title, Content: row.Content,
			Category: row.Category, SourceProject: row.SourceProject,
		}
		export.Lessons = append(export.Lessons, l)
		lessonsByID[l.ID] = l
	}

	var targetRows []sqliteTargetRow
	if err := db.SelectContext(ctx, &targetRows,
		`SELECT lesson_id, target FROM lesson_targets ORDER BY rowid`); err != nil {
		return nil, errors.Wrap(err, "failed to query lesson targets")
	}
	errs := &loadErrors{}
	for _, row := range targetRows {
		l, ok := lessonsByID[row.LessonID]
		if !ok {
			errs.malformed("lesson", "lesson target "+row.Target, "unknown lesson id "+row.LessonID)
			continue
		}
		l.Targets = append(l.Targets, row.Target)
	}

	if err := attachSQLiteDeps(ctx, db, byID, errs, "skill_module_deps", KindModule); err != nil {
		return nil, err
	}
	if err := attachSQLiteDeps(ctx, db, byID, errs, "skill_skill_deps", KindSkill); err != nil {
		return nil, err
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return export, nil
}

func attachSQLiteDeps(ctx context.Context, db *sqlx.DB, byID map[string]*Skill, errs *loadErrors, table string, kind Kind) error {
	var rows []sqliteDepRow
	query := `SELECT skill_id, target, COALESCE(strength, 'required') AS strength FROM ` + table + ` ORDER BY rowid`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return errors.Wrapf(err, "failed to query %s", table)
	}
	for _, row := range rows {
		sk, ok := byID[row.SkillID]
		if !ok {
			errs.malformed("skill", string(kind)+" dependency on "+row.Target, "unknown skill id "+row.SkillID)
			continue
		}
		dep := DeclaredDep{Name: row.Target, Strength: Strength(row.Strength)}
		if dep.Strength == "" {
			dep.Strength = StrengthRequired
		}
		switch kind {
		case KindModule:
			sk.ModuleDeps = append(sk.ModuleDeps, dep)
		case KindSkill:
			sk.SkillDeps = append(sk.SkillDeps, dep)
		}
	}
	return nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
