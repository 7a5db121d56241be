package acceptance

import (
	"encoding/json"
	"os/exec"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	cmd := exec.Command(skillscopeBinary(t), "version")
	// Only stdout: the version info must be valid JSON on its own
	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("Failed to execute version command: %v", err)
	}

	var info struct {
		Version   string `json:"version"`
		GitCommit string `json:"gitCommit"`
		BuildTime string `json:"buildTime"`
		GoVersion string `json:"goVersion"`
	}
	if err := json.Unmarshal(output, &info); err != nil {
		t.Fatalf("Version output should be valid JSON: %v\nOutput: %s", err, string(output))
	}

	if info.Version == "" {
		t.Error("Version field should not be empty")
	}
	if info.GitCommit == "" {
		t.Error("GitCommit field should not be empty")
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("GoVersion should report the Go runtime, got %q", info.GoVersion)
	}
}

func TestVersionCommandHelp(t *testing.T) {
	cmd := exec.Command(skillscopeBinary(t), "version", "--help")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to execute version --help: %v", err)
	}

	if !strings.Contains(strings.ToLower(string(output)), "usage") {
		t.Errorf("Version help should contain usage information. Got: %s", string(output))
	}
}
