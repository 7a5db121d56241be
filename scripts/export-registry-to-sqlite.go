package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/jingkaihe/skillscope/pkg/registry"
)

// Converts any supported registry source (markdown directory, JSON or YAML
// bundle, or another SQLite export) into a SQLite export database readable by
// the skillscope loader.

const exportSchema = `
CREATE TABLE IF NOT EXISTS skills (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	kind TEXT
);
CREATE TABLE IF NOT EXISTS modules (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	category TEXT,
	status TEXT
);
CREATE TABLE IF NOT EXISTS code_blocks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	language TEXT,
	tags TEXT
);
CREATE TABLE IF NOT EXISTS lessons (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT,
	category TEXT,
	source_project TEXT
);
CREATE TABLE IF NOT EXISTS lesson_targets (
	lesson_id TEXT NOT NULL,
	target TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS skill_module_deps (
	skill_id TEXT NOT NULL,
	target TEXT NOT NULL,
	strength TEXT
);
CREATE TABLE IF NOT EXISTS skill_skill_deps (
	skill_id TEXT NOT NULL,
	target TEXT NOT NULL,
	strength TEXT
);
`

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <registry-source> <output.db>\n", os.Args[0])
		os.Exit(1)
	}
	if err := runExport(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Export completed successfully!")
}

func runExport(sourcePath, destPath string) error {
	ctx := context.Background()

	fmt.Printf("Exporting registry: %s\n", sourcePath)
	fmt.Printf("To SQLite: %s\n", destPath)

	// Check that the source exists
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		return errors.Errorf("registry source not found at %s", sourcePath)
	}

	// Check if the destination database already exists
	if _, err := os.Stat(destPath); err == nil {
		return errors.Errorf("SQLite database already exists at %s. Please remove it first or back up your data", destPath)
	}

	// Loading validates the registry, so a broken source never produces an
	// export.
	snapshot, err := registry.Load(ctx, sourcePath)
	if err != nil {
		return errors.Wrap(err, "failed to load registry")
	}

	fmt.Printf("Found %d skills, %d modules, %d code blocks, %d lessons\n",
		len(snapshot.Skills()), len(snapshot.Modules()), len(snapshot.CodeBlocks()), len(snapshot.Lessons()))

	if err := writeSQLiteExport(ctx, destPath, snapshot); err != nil {
		return errors.Wrap(err, "failed to write SQLite export")
	}

	return nil
}

func writeSQLiteExport(ctx context.Context, dbPath string, snapshot *registry.Snapshot) error {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return errors.Wrap(err, "failed to create SQLite database")
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, exportSchema); err != nil {
		return errors.Wrap(err, "failed to create export schema")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	depCount := 0
	for _, sk := range snapshot.Skills() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO skills (id, name, description, kind) VALUES (?, ?, ?, ?)`,
			sk.ID, sk.Name, sk.Description, sk.Kind); err != nil {
			return errors.Wrapf(err, "failed to insert skill %s", sk.Name)
		}
		for _, dep := range sk.ModuleDeps {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO skill_module_deps (skill_id, target, strength) VALUES (?, ?, ?)`,
				sk.ID, dep.Name, string(dep.Strength)); err != nil {
				return errors.Wrapf(err, "failed to insert module dependency %s -> %s", sk.Name, dep.Name)
			}
			depCount++
		}
		for _, dep := range sk.SkillDeps {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO skill_skill_deps (skill_id, target, strength) VALUES (?, ?, ?)`,
				sk.ID, dep.Name, string(dep.Strength)); err != nil {
				return errors.Wrapf(err, "failed to insert skill dependency %s -> %s", sk.Name, dep.Name)
			}
			depCount++
		}
	}
	fmt.Printf("Exported %d skills with %d dependency declarations\n", len(snapshot.Skills()), depCount)

	for _, m := range snapshot.Modules() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modules (id, name, description, category, status) VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Description, m.Category, m.Status); err != nil {
			return errors.Wrapf(err, "failed to insert module %s", m.Name)
		}
	}
	fmt.Printf("Exported %d modules\n", len(snapshot.Modules()))

	for _, cb := range snapshot.CodeBlocks() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO code_blocks (id, name, language, tags) VALUES (?, ?, ?, ?)`,
			cb.ID, cb.Name, cb.Language, strings.Join(cb.Tags, ",")); err != nil {
			return errors.Wrapf(err, "failed to insert code block %s", cb.Name)
		}
	}
	fmt.Printf("Exported %d code blocks\n", len(snapshot.CodeBlocks()))

	targetCount := 0
	for _, l := range snapshot.Lessons() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lessons (id, title, content, category, source_project) VALUES (?, ?, ?, ?, ?)`,
			l.ID, l.Title, l.Content, l.Category, l.SourceProject); err != nil {
			return errors.Wrapf(err, "failed to insert lesson %s", l.ID)
		}
		for _, target := range l.Targets {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO lesson_targets (lesson_id, target) VALUES (?, ?)`,
				l.ID, target); err != nil {
				return errors.Wrapf(err, "failed to insert lesson target %s -> %s", l.ID, target)
			}
			targetCount++
		}
	}
	fmt.Printf("Exported %d lessons with %d targets\n", len(snapshot.Lessons()), targetCount)

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit export")
	}

	return nil
}
