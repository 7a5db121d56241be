package acceptance

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const cleanRegistry = `{
  "skills": [
    {
      "id": "sk-1",
      "name": "order-fulfillment",
      "description": "End to end order flow",
      "module_dependencies": [
        {"name": "email-validation", "strength": "required"}
      ]
    }
  ],
  "modules": [
    {
      "id": "m-1",
      "name": "email-validation",
      "description": "RFC 5322 address checks",
      "category": "validation",
      "status": "active"
    }
  ]
}`

const missingRefRegistry = `{
  "skills": [
    {
      "id": "sk-1",
      "name": "order-fulfillment",
      "description": "End to end order flow",
      "module_dependencies": [
        {"name": "ghost-module", "strength": "required"}
      ]
    }
  ],
  "modules": [
    {
      "id": "m-1",
      "name": "email-validation",
      "description": "RFC 5322 address checks",
      "category": "validation",
      "status": "active"
    }
  ]
}`

// writeRegistryFixture writes a JSON bundle into a temp directory and returns
// its path.
func writeRegistryFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write registry fixture: %v", err)
	}
	return path
}

func TestAnalyzeCommand(t *testing.T) {
	registry := writeRegistryFixture(t, cleanRegistry)

	// A clean registry should analyze with exit code 0
	cmd := exec.Command(skillscopeBinary(t), "analyze", registry)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to execute analyze command: %v\nOutput: %s", err, string(output))
	}

	outputStr := string(output)
	for _, want := range []string{"Skillscope Dependency Report", "Dependency Matrix", "Module Health", "email-validation"} {
		if !strings.Contains(outputStr, want) {
			t.Errorf("Analyze output should contain %q. Got: %s", want, outputStr)
		}
	}
}

func TestAnalyzeStructuredOutput(t *testing.T) {
	registry := writeRegistryFixture(t, cleanRegistry)

	cmd := exec.Command(skillscopeBinary(t), "analyze", "--format", "structured", registry)
	// Only stdout: the structured report must be valid JSON on its own
	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("Failed to execute analyze --format structured: %v", err)
	}

	var report map[string]any
	if err := json.Unmarshal(output, &report); err != nil {
		t.Fatalf("Structured output should be valid JSON: %v\nOutput: %s", err, string(output))
	}

	for _, key := range []string{"meta", "dependency_matrix", "usage_ranking", "summary"} {
		if _, ok := report[key]; !ok {
			t.Errorf("Structured report should contain key %q", key)
		}
	}
}

func TestAnalyzeOutputFile(t *testing.T) {
	registry := writeRegistryFixture(t, cleanRegistry)
	outPath := filepath.Join(t.TempDir(), "report.json")

	cmd := exec.Command(skillscopeBinary(t), "analyze", "--format", "structured", "-o", outPath, registry)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to execute analyze -o: %v\nOutput: %s", err, string(output))
	}

	if !strings.Contains(string(output), "Report written to") {
		t.Errorf("Analyze should confirm the report path. Got: %s", string(output))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Report file was not written: %v", err)
	}
	var report map[string]any
	if err := json.Unmarshal(data, &report); err != nil {
		t.Errorf("Written report should be valid JSON: %v", err)
	}
}

func TestAnalyzeFailOnMissing(t *testing.T) {
	registry := writeRegistryFixture(t, missingRefRegistry)

	// A registry with unresolvable references should exit 2 under
	// --fail-on-missing
	cmd := exec.Command(skillscopeBinary(t), "analyze", "--fail-on-missing", registry)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("Expected analyze --fail-on-missing to fail. Output: %s", string(output))
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("Expected an exit error, got: %v", err)
	}
	if code := exitErr.ExitCode(); code != 2 {
		t.Errorf("Expected exit code 2 for missing references, got %d", code)
	}
	if !strings.Contains(string(output), "missing dependency reference") {
		t.Errorf("Output should mention missing references. Got: %s", string(output))
	}
}

func TestAnalyzeWithoutFailOnMissing(t *testing.T) {
	registry := writeRegistryFixture(t, missingRefRegistry)

	// Without --fail-on-missing the same registry reports the defect but
	// exits 0
	cmd := exec.Command(skillscopeBinary(t), "analyze", registry)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Analyze without --fail-on-missing should succeed: %v\nOutput: %s", err, string(output))
	}
	if !strings.Contains(string(output), "ghost-module") {
		t.Errorf("Output should list the missing target. Got: %s", string(output))
	}
}

func TestAnalyzeMalformedRegistry(t *testing.T) {
	registry := writeRegistryFixture(t, `{"skills": [`)

	cmd := exec.Command(skillscopeBinary(t), "analyze", registry)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("Expected analyze to fail on a malformed registry. Output: %s", string(output))
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("Expected an exit error, got: %v", err)
	}
	if code := exitErr.ExitCode(); code != 1 {
		t.Errorf("Expected exit code 1 for a malformed registry, got %d", code)
	}
	if !strings.Contains(string(output), "failed to analyze registry") {
		t.Errorf("Output should explain the failure. Got: %s", string(output))
	}
}

func TestAnalyzeCommandHelp(t *testing.T) {
	cmd := exec.Command(skillscopeBinary(t), "analyze", "--help")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to execute analyze --help: %v", err)
	}

	outputStr := strings.ToLower(string(output))
	if !strings.Contains(outputStr, "usage") || !strings.Contains(outputStr, "fail-on-missing") {
		t.Errorf("Analyze help should document usage and flags. Got: %s", string(output))
	}
}
