package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/brutalist/internal/eval"
	"github.com/roach88/brutalist/internal/optimizer"
)

// Scenario describes one program, its input and what running it at every
// requested optimization level must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Program is inline source. Exactly one of Program and File is set.
	Program string `yaml:"program,omitempty"`

	// File is a source file path, relative to the scenario file.
	File string `yaml:"file,omitempty"`

	// Input is fed to Read instructions.
	Input string `yaml:"input,omitempty"`

	Expect Expect `yaml:"expect"`

	// Levels defaults to every optimization level.
	Levels []string `yaml:"levels,omitempty"`

	// MaxSteps bounds each run; zero selects DefaultMaxSteps.
	MaxSteps int64 `yaml:"max_steps,omitempty"`

	// EOF is the end-of-input policy name; empty selects the default.
	EOF string `yaml:"eof,omitempty"`

	// Assertions check the optimized instructions and the final machine.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect holds the observable outcome every level must reproduce.
type Expect struct {
	// Output is the exact expected output. Nil skips the check.
	Output *string `yaml:"output,omitempty"`

	// Error is the expected runtime error code, empty for a clean run.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one level's result.
type Assertion struct {
	// Type is one of instruction_count, contains_op, final_cell,
	// final_pointer.
	Type string `yaml:"type"`

	// Level restricts the assertion to one level; empty means every
	// level the scenario runs.
	Level string `yaml:"level,omitempty"`

	// Count is the exact instruction count (instruction_count) or the
	// minimum number of matching instructions (contains_op).
	Count int `yaml:"count,omitempty"`

	// Op is an instruction kind name such as "mul" (contains_op).
	Op string `yaml:"op,omitempty"`

	// Cell is a tape address (final_cell).
	Cell int `yaml:"cell,omitempty"`

	// Value is the expected cell value (final_cell) or pointer
	// (final_pointer).
	Value int `yaml:"value"`
}

// Assertion type constants.
const (
	AssertInstructionCount = "instruction_count"
	AssertContainsOp       = "contains_op"
	AssertFinalCell        = "final_cell"
	AssertFinalPointer     = "final_pointer"
)

// LoadScenario reads and parses a scenario YAML file. A relative File is
// resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s.File != "" && !filepath.IsAbs(s.File) {
		s.File = filepath.Join(filepath.Dir(path), s.File)
	}
	if s.File != "" {
		if _, err := os.Stat(s.File); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: program file not found: %s", s.File)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == "" && s.File == "":
		return fmt.Errorf("one of program or file is required")
	case s.Program != "" && s.File != "":
		return fmt.Errorf("program and file are mutually exclusive")
	}

	for _, name := range s.Levels {
		if _, err := optimizer.ParseLevel(name); err != nil {
			return fmt.Errorf("levels: %w", err)
		}
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if _, err := eval.ParseEOFPolicy(s.EOF); err != nil {
		return fmt.Errorf("eof: %w", err)
	}

	if s.Expect.Error != "" && !eval.IsCode(s.Expect.Error) {
		return fmt.Errorf("expect.error: unknown runtime error code %q", s.Expect.Error)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Level != "" {
		if _, err := optimizer.ParseLevel(a.Level); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	switch a.Type {
	case AssertInstructionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for instruction_count", index)
		}
	case AssertContainsOp:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for contains_op", index)
		}
		if _, ok := irKind(a.Op); !ok {
			return fmt.Errorf("assertions[%d]: unknown op %q", index, a.Op)
		}
	case AssertFinalCell:
		if a.Cell < 0 {
			return fmt.Errorf("assertions[%d]: cell must be non-negative for final_cell", index)
		}
		if a.Value < 0 || a.Value > 255 {
			return fmt.Errorf("assertions[%d]: value must be 0..255 for final_cell", index)
		}
	case AssertFinalPointer:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
