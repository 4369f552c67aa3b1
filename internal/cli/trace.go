package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/eval"
	"github.com/roach88/brutalist/internal/optimizer"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	pipelineFlags
	Input string
	Limit int64
}

// TraceStep is one executed instruction.
type TraceStep struct {
	Step    int64  `json:"step"`
	IP      int    `json:"ip"`
	Op      string `json:"op"`
	Pointer int    `json:"pointer"`
	Cell    uint8  `json:"cell"`
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	Source    string      `json:"source"`
	Level     string      `json:"level"`
	Steps     []TraceStep `json:"steps"`
	Truncated bool        `json:"truncated"`
	Output    string      `json:"output"`
	ErrorCode string      `json:"error_code,omitempty"`

	// Tape holds the final cells from TapeStart up to 8 past the pointer.
	Pointer   int   `json:"pointer"`
	TapeStart int   `json:"tape_start"`
	Tape      []int `json:"tape"`
}

// tapeRadius is how many cells either side of the final pointer trace shows.
const tapeRadius = 8

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Show the first executed instructions of a program",
		Long: `Run a program and print the machine state before each executed
instruction: step number, instruction index, instruction, pointer and the
value of the current cell.

Execution stops after --limit steps, so tracing a program that never halts
is safe.

Examples:
  brutalist trace hello.b
  brutalist trace --limit 20 -O none hello.b
  brutalist trace --input data.txt --format json cat.b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	opts.pipelineFlags.register(cmd, true)
	cmd.Flags().StringVar(&opts.Input, "input", "", "read program input from this file (default: no input)")
	cmd.Flags().Int64Var(&opts.Limit, "limit", 100, "maximum number of steps to trace")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	if opts.Limit <= 0 {
		return f.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("--limit must be positive, got %d", opts.Limit), nil)
	}

	prog, err := loadOrFail(f, path)
	if err != nil {
		return err
	}
	settings, err := opts.settings(opts.overrides(cmd))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "resolving settings", err)
	}

	var input io.Reader = strings.NewReader("")
	if opts.Input != "" {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "reading input", err)
		}
		input = bytes.NewReader(data)
	}

	// The configured quota still applies when it is tighter than the limit.
	quota := opts.Limit
	if settings.MaxSteps > 0 && settings.MaxSteps < quota {
		quota = settings.MaxSteps
	}

	ast := optimizer.New(settings.Optimizer, optimizer.WithLogger(logger)).Optimize(prog.Ast)

	result := TraceResult{Source: path, Level: settings.Level.String(), Steps: []TraceStep{}}
	var out bytes.Buffer
	res, runErr := execute(commandContext(cmd), ast, input, &out, settings, logger,
		eval.WithMaxSteps(quota),
		eval.WithTracer(func(s eval.Step) {
			result.Steps = append(result.Steps, TraceStep{
				Step:    s.N,
				IP:      s.IP,
				Op:      s.Op.String(),
				Pointer: s.Pointer,
				Cell:    s.Cell,
			})
		}),
	)
	result.Output = out.String()
	result.Pointer = res.Pointer
	result.TapeStart = max(res.Pointer-tapeRadius, 0)
	for _, c := range res.Tape.Window(result.TapeStart, res.Pointer+tapeRadius+1) {
		result.Tape = append(result.Tape, int(c))
	}

	switch {
	case runErr == nil:
	case eval.IsStepsExceeded(runErr) && quota == opts.Limit:
		result.Truncated = true
	default:
		result.ErrorCode = string(eval.CodeOf(runErr))
	}

	return f.Success(result, func(w io.Writer) error {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Step", "IP", "Op", "Ptr", "Cell"})
		for _, s := range result.Steps {
			t.AppendRow(table.Row{s.Step, s.IP, s.Op, s.Pointer, s.Cell})
		}
		fmt.Fprintln(w, t.Render())

		if result.Truncated {
			fmt.Fprintf(w, "... stopped after %d steps\n", opts.Limit)
		}
		if result.ErrorCode != "" {
			fmt.Fprintf(w, "Runtime error: %s\n", result.ErrorCode)
		}
		fmt.Fprintf(w, "Output: %q\n", result.Output)
		fmt.Fprintf(w, "Tape from cell %d (pointer %d): %v\n", result.TapeStart, result.Pointer, result.Tape)
		return nil
	})
}
