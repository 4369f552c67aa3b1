package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/brutalist/internal/ir"
)

// Snapshot renders a result as canonical JSON: per level, the optimized
// instructions, step count, output, error code and final pointer.
func Snapshot(name string, result *Result) ([]byte, error) {
	levels := make([]any, len(result.Levels))
	for i, lr := range result.Levels {
		m := map[string]any{
			"level":        lr.Level,
			"instructions": lr.Instructions,
			"steps":        lr.Steps,
			"output":       lr.Output,
			"pointer":      lr.Pointer,
		}
		if lr.ErrorCode != "" {
			m["error_code"] = lr.ErrorCode
		}
		levels[i] = m
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"levels":        levels,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// GoldenPath returns the golden file used by the test command for a
// scenario file: golden/<name>.golden next to it.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// WriteGolden stores the snapshot of result at path.
func WriteGolden(path, name string, result *Result) error {
	data, err := Snapshot(name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the golden file at path matches result.
func CompareGolden(path, name string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.Equal(want, got), nil
}
