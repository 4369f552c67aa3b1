package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// FileCheck is the result for one checked file.
type FileCheck struct {
	Path         string `json:"path"`
	Valid        bool   `json:"valid"`
	Instructions int    `json:"instructions,omitempty"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message,omitempty"`
	Line         int    `json:"line,omitempty"`
	Column       int    `json:"column,omitempty"`
}

// CheckResult holds check results.
type CheckResult struct {
	Valid bool        `json:"valid"`
	Files []FileCheck `json:"files"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Check programs for syntax errors",
		Long: `Check source files (or IR documents) without optimizing or running them.

Every file is checked; unbalanced brackets are reported with their line and
column. Faster than compile for editor integration.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	result := CheckResult{Valid: true, Files: make([]FileCheck, 0, len(paths))}

	for _, path := range paths {
		fc := FileCheck{Path: path, Valid: true}
		prog, err := LoadProgram(path)
		if err != nil {
			fc.Valid = false
			result.Valid = false
			fc.Code, fc.Message = ErrCodeGeneric, err.Error()
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				fc.Code = loadErr.Code
				fc.Message = loadErr.Message
				fc.Line = loadErr.Line
				fc.Column = loadErr.Column
			}
		} else {
			fc.Instructions = len(prog.Ast)
			f.VerboseLog("%s: %d instructions", path, fc.Instructions)
		}
		result.Files = append(result.Files, fc)
	}

	text := func(w io.Writer) error {
		for _, fc := range result.Files {
			switch {
			case fc.Valid:
				fmt.Fprintf(w, "✓ %s (%d instructions)\n", fc.Path, fc.Instructions)
			case fc.Line > 0:
				fmt.Fprintf(w, "✗ %s:%d:%d: [%s] %s\n", fc.Path, fc.Line, fc.Column, fc.Code, fc.Message)
			default:
				fmt.Fprintf(w, "✗ %s: [%s] %s\n", fc.Path, fc.Code, fc.Message)
			}
		}
		return nil
	}

	if result.Valid {
		return f.Success(result, text)
	}

	invalid := 0
	for _, fc := range result.Files {
		if !fc.Valid {
			invalid++
		}
	}
	msg := fmt.Sprintf("%d of %d file(s) invalid", invalid, len(result.Files))
	_ = f.Failure(result.Files[firstInvalid(result.Files)].Code, msg, result, text)
	return NewExitError(ExitCommandError, msg)
}

func firstInvalid(files []FileCheck) int {
	for i, fc := range files {
		if !fc.Valid {
			return i
		}
	}
	return 0
}
