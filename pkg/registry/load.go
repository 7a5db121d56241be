package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillscope/pkg/logger"
)

// Load reads a registry export at path and returns its validated snapshot.
// The format is inferred from the path: a directory is the native markdown
// layout, *.json / *.yaml / *.yml is a bundle, *.db / *.sqlite / *.sqlite3
// is a SQLite export.
func Load(ctx context.Context, path string) (*Snapshot, error) {
	export, err := loadExport(ctx, path)
	if err != nil {
		return nil, err
	}

	snapshot, err := NewSnapshot(export)
	if err != nil {
		return nil, err
	}

	logger.G(ctx).WithFields(map[string]any{
		"skills":      len(snapshot.Skills()),
		"modules":     len(snapshot.Modules()),
		"code_blocks": len(snapshot.CodeBlocks()),
		"lessons":     len(snapshot.Lessons()),
		"edges":       len(snapshot.Edges()),
	}).Debug("registry export loaded")

	return snapshot, nil
}

func loadExport(ctx context.Context, path string) (*Export, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat registry export %s", path)
	}

	if info.IsDir() {
		return loadDirectory(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return loadBundle(path)
	case ".db", ".sqlite", ".sqlite3":
		return loadSQLite(ctx, path)
	default:
		return nil, errors.Errorf("unsupported registry export format %q", filepath.Ext(path))
	}
}
