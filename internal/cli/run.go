package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/config"
	"github.com/roach88/brutalist/internal/eval"
	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/optimizer"
	"github.com/roach88/brutalist/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	pipelineFlags
	Input    string
	Database string
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	RunID        string `json:"run_id,omitempty"`
	ProgramHash  string `json:"program_hash,omitempty"`
	CacheHit     bool   `json:"cache_hit,omitempty"`
	Level        string `json:"level"`
	Instructions int    `json:"instructions"`
	Output       string `json:"output"`
	Steps        int64  `json:"steps"`
	Pointer      int    `json:"pointer"`
	ErrorCode    string `json:"error_code,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Optimize and run a program",
		Long: `Optimize and run a program against stdin and stdout.

The file is source text, or an IR document written by "brutalist compile -o"
when its name ends in .json. Program input comes from --input or stdin.

With --db the optimized program is cached in a SQLite database and the run
is recorded for "brutalist runs" and "brutalist replay".

Exit codes:
  0 - Program finished
  1 - Program failed at runtime (out of bounds, step limit, I/O)
  2 - Command error (unreadable file, syntax error, bad flags)

Examples:
  brutalist run hello.b
  brutalist run -O light --eof zero --input data.txt cat.b
  brutalist run --db ./runs.db --max-steps 1000000 mandelbrot.b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	opts.pipelineFlags.register(cmd, true)
	cmd.Flags().StringVar(&opts.Input, "input", "", "read program input from this file instead of stdin")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for the compile cache and run log")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	prog, err := loadOrFail(f, path)
	if err != nil {
		return err
	}
	settings, err := opts.settings(opts.overrides(cmd))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "resolving settings", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "opening database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	compiled, err := compile(ctx, st, prog.Ast, settings.Optimizer, logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "compiling program", err)
	}

	input, recorded, err := programInput(opts, cmd, st != nil)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "reading input", err)
	}

	// In text mode program output streams to stdout; JSON mode and the run
	// log both need a copy.
	var captured bytes.Buffer
	var out io.Writer = &captured
	if !f.JSON() {
		out = cmd.OutOrStdout()
		if st != nil {
			out = io.MultiWriter(cmd.OutOrStdout(), &captured)
		}
	}

	res, runErr := execute(ctx, compiled.Ast, input, out, settings, logger)

	result := RunResult{
		ProgramHash:  compiled.ProgramHash,
		CacheHit:     compiled.CacheHit,
		Level:        settings.Level.String(),
		Instructions: len(compiled.Ast),
		Output:       captured.String(),
		Steps:        res.Steps,
		Pointer:      res.Pointer,
		ErrorCode:    string(eval.CodeOf(runErr)),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	// A cancelled run is not recorded: replaying it could never finish.
	if st != nil && !eval.IsCancelled(runErr) {
		run, err := st.WriteRun(ctx, store.Run{
			ProgramHash: compiled.ProgramHash,
			ConfigHash:  compiled.ConfigHash,
			EOF:         settings.EOF.String(),
			MaxSteps:    settings.MaxSteps,
			Input:       recorded,
			Output:      captured.Bytes(),
			Steps:       res.Steps,
			ErrorCode:   result.ErrorCode,
		})
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "recording run", err)
		}
		result.RunID = run.ID
		logger.Info("run recorded", "id", run.ID, "seq", run.Seq)
	}

	if f.JSON() {
		if runErr != nil {
			_ = f.Failure(ErrCodeRuntime, runErr.Error(), result, nil)
			return WrapExitError(ExitFailure, ErrCodeRuntime, runErr)
		}
		return f.Success(result, nil)
	}

	f.VerboseLog("steps=%d pointer=%d instructions=%d level=%s", res.Steps, res.Pointer, len(compiled.Ast), settings.Level)
	if result.RunID != "" {
		f.VerboseLog("run id: %s", result.RunID)
	}
	if runErr != nil {
		_ = f.Error(ErrCodeRuntime, runErr.Error(), nil)
		return WrapExitError(ExitFailure, ErrCodeRuntime, runErr)
	}
	return nil
}

// compiledProgram is an optimizer result, possibly served from the cache.
type compiledProgram struct {
	Ast         ir.Ast
	ProgramHash string
	ConfigHash  string
	CacheHit    bool
}

// compile optimizes ast with cfg. With a store the result is looked up in
// and written to the compilation cache.
func compile(ctx context.Context, st *store.Store, ast ir.Ast, cfg optimizer.Config, logger *slog.Logger) (compiledProgram, error) {
	configHash, err := cfg.Hash()
	if err != nil {
		return compiledProgram{}, err
	}
	if st == nil {
		out := optimizer.New(cfg, optimizer.WithLogger(logger)).Optimize(ast)
		return compiledProgram{Ast: out, ConfigHash: configHash}, nil
	}

	program, err := st.PutProgram(ctx, ast)
	if err != nil {
		return compiledProgram{}, err
	}
	c := compiledProgram{ProgramHash: program.Hash, ConfigHash: configHash}

	cached, err := st.GetCompilation(ctx, program.Hash, configHash)
	switch {
	case err == nil:
		logger.Debug("compile cache hit", "program", program.Hash, "config", cfg.String())
		c.Ast = cached.Instructions
		c.CacheHit = true
		return c, nil
	case !errors.Is(err, store.ErrNotFound):
		return compiledProgram{}, err
	}

	c.Ast = optimizer.New(cfg, optimizer.WithLogger(logger)).Optimize(ast)
	configJSON, err := ir.MarshalCanonical(cfg.Options())
	if err != nil {
		return compiledProgram{}, err
	}
	if _, err := st.PutCompilation(ctx, store.Compilation{
		ProgramHash:  program.Hash,
		ConfigHash:   configHash,
		Config:       string(configJSON),
		Instructions: c.Ast,
	}); err != nil {
		return compiledProgram{}, err
	}
	return c, nil
}

// programInput returns the reader for Read instructions. When the run is
// recorded the input is read up front so the exact bytes can be stored.
func programInput(opts *RunOptions, cmd *cobra.Command, record bool) (io.Reader, []byte, error) {
	if opts.Input != "" {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return nil, nil, err
		}
		return bytes.NewReader(data), data, nil
	}
	if !record {
		return cmd.InOrStdin(), nil, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, nil, fmt.Errorf("stdin: %w", err)
	}
	return bytes.NewReader(data), data, nil
}

// execute runs ast with the evaluator settings until it halts, fails or
// ctx is cancelled.
func execute(ctx context.Context, ast ir.Ast, in io.Reader, out io.Writer, s config.Settings, logger *slog.Logger, extra ...eval.Option) (*eval.Result, error) {
	opts := append([]eval.Option{
		eval.WithInput(in),
		eval.WithOutput(out),
		eval.WithEOF(s.EOF),
		eval.WithMaxSteps(s.MaxSteps),
		eval.WithLogger(logger),
		eval.WithContext(ctx),
	}, extra...)
	return eval.New(opts...).Run(ast)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
