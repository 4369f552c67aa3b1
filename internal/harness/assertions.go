package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/optimizer"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Level    string
	Expected string
	Actual   string

	// Instructions gives the optimized program for context.
	Instructions ir.Ast
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (level %s)\n", e.Type, e.Level)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Instructions) > 0 {
		fmt.Fprintf(&buf, "\nInstructions:\n")
		for i, op := range e.Instructions {
			fmt.Fprintf(&buf, "  [%d] %s\n", i, op)
		}
	}

	return buf.String()
}

func irKind(name string) (ir.Kind, bool) {
	return ir.ParseKind(strings.ToLower(strings.TrimSpace(name)))
}

// checkAssertion applies a to each level it targets.
func checkAssertion(result *Result, a Assertion) error {
	for _, lr := range result.Levels {
		if a.Level != "" {
			level, err := optimizer.ParseLevel(a.Level)
			if err != nil {
				return err
			}
			if level.String() != lr.Level {
				continue
			}
		}
		if err := assertLevel(lr, a); err != nil {
			return err
		}
	}
	return nil
}

func assertLevel(lr LevelResult, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{
			Type:         a.Type,
			Level:        lr.Level,
			Expected:     expected,
			Actual:       actual,
			Instructions: lr.Instructions,
		}
	}

	switch a.Type {
	case AssertInstructionCount:
		if len(lr.Instructions) != a.Count {
			return fail(fmt.Sprintf("%d instructions", a.Count), fmt.Sprintf("%d instructions", len(lr.Instructions)))
		}
	case AssertContainsOp:
		kind, ok := irKind(a.Op)
		if !ok {
			return fmt.Errorf("unknown op %q", a.Op)
		}
		want := max(a.Count, 1)
		if got := lr.Instructions.Count()[kind]; got < want {
			return fail(fmt.Sprintf("at least %d %s", want, kind), fmt.Sprintf("%d %s", got, kind))
		}
	case AssertFinalCell:
		got, err := lr.Tape.Cell(a.Cell)
		if err != nil {
			return fail(fmt.Sprintf("cell %d = %d", a.Cell, a.Value), err.Error())
		}
		if int(got) != a.Value {
			return fail(fmt.Sprintf("cell %d = %d", a.Cell, a.Value), fmt.Sprintf("cell %d = %d", a.Cell, got))
		}
	case AssertFinalPointer:
		if lr.Pointer != a.Value {
			return fail(fmt.Sprintf("pointer %d", a.Value), fmt.Sprintf("pointer %d", lr.Pointer))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
