package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/harness"
)

// TestOptions are the test command's flags.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is one scenario file's outcome. Golden is "match",
// "updated" or "missing" when the golden check ran.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Levels int      `json:"levels,omitempty"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a scenario directory.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files at every optimization level",
		Long: `Run every *.yaml scenario under a directory.

A scenario passes when each of its optimization levels meets the expected
output, error and tape assertions, and all levels agree with each other.
If golden/<name>.golden sits next to the scenario file, the per-level
snapshot must also match it; --update rewrites those files.

Exits 1 when a scenario fails and 2 when the directory cannot be read.`,
		Example: `  brutalist test ./scenarios
  brutalist test ./scenarios --filter "mul*" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.Update, "update", false, "rewrite golden files from this run")
	flags.StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); errors.Is(err, os.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", scenariosDir), nil)
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "finding scenarios", err)
	}

	ctx := commandContext(cmd)
	h := harness.New(
		harness.WithLogger(opts.Logger(cmd.ErrOrStderr())),
		harness.WithContext(ctx),
	)
	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	for _, file := range scenarioFiles {
		if ctx.Err() != nil {
			return f.Fail(ExitFailure, ErrCodeRuntime, "test run cancelled", context.Cause(ctx))
		}
		sr := runScenario(h, file, opts.Update)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	text := func(w io.Writer) error {
		if result.Total == 0 {
			fmt.Fprintln(w, "No scenarios found.")
			return nil
		}
		for _, sr := range result.Scenarios {
			if sr.Pass {
				suffix := ""
				if sr.Golden == "updated" {
					suffix = " (golden updated)"
				}
				fmt.Fprintf(w, "✓ %s%s\n", sr.Name, suffix)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", sr.Name)
			for _, e := range sr.Errors {
				fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
			}
		}
		fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		return nil
	}

	if result.Failed == 0 {
		return f.Success(result, text)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	_ = f.Failure(ErrCodeScenarioFail, msg, result, text)
	return NewExitError(ExitFailure, msg)
}

// findScenarioFiles finds all YAML scenario files under dir, sorted by
// path. The filter is matched against the file name without extension.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(h *harness.Harness, file string, update bool) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Path:   file,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	sr := ScenarioResult{Name: scenario.Name, Path: file}
	result, err := h.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("run: %v", err)}
		return sr
	}
	sr.Levels = len(result.Levels)
	sr.Pass = result.Pass
	sr.Errors = result.Errors
	goldenPath := harness.GoldenPath(file)

	if update {
		if err := harness.WriteGolden(goldenPath, scenario.Name, result); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
			return sr
		}
		sr.Golden = "updated"
		return sr
	}

	if _, err := os.Stat(goldenPath); errors.Is(err, os.ErrNotExist) {
		sr.Golden = "missing"
		return sr
	}
	match, err := harness.CompareGolden(goldenPath, scenario.Name, result)
	switch {
	case err != nil:
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
	case !match:
		sr.Pass = false
		sr.Errors = append(sr.Errors, "snapshot does not match golden file (run with --update to regenerate)")
	default:
		sr.Golden = "match"
	}
	return sr
}
