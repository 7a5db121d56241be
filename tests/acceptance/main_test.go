package acceptance

import (
	"os"
	"path/filepath"
	"testing"
)

// TestMain runs setup and teardown for acceptance tests
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// skillscopeBinary returns the path to the built skillscope binary, skipping
// the test when it has not been built.
func skillscopeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "bin", "skillscope")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("skillscope binary not found at %s", path)
	}
	return path
}
