package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/emit"
	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/optimizer"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	pipelineFlags
	Output string   // IR document path
	Emit   []string // code generation targets
	OutDir string
}

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Source  string   `json:"source"`
	Level   string   `json:"level"`
	Passes  string   `json:"passes"`
	Before  int      `json:"before"`
	After   int      `json:"after"`
	Output  string   `json:"output,omitempty"`
	Emitted []string `json:"emitted,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Optimize a program and write IR or generated code",
		Long: `Optimize a program and write the result.

--output writes an IR document that "brutalist run" accepts in place of
source. --emit translates the optimized program into one or more targets
(c, rust, go, ir), writing <name>.<ext> files into --out-dir.

Examples:
  brutalist compile -o hello.json hello.b
  brutalist compile --emit c,rust --out-dir build hello.b
  brutalist compile -O standard --disable scan_loop --format json hello.b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.pipelineFlags.register(cmd, false)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the optimized IR document to this file")
	cmd.Flags().StringSliceVar(&opts.Emit, "emit", nil, fmt.Sprintf("code generation targets %v", emit.Names()))
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "directory for --emit output (default from config, else .)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	prog, err := loadOrFail(f, path)
	if err != nil {
		return err
	}

	overrides := opts.overrides(cmd)
	overrides.Emit = opts.Emit
	if cmd.Flags().Changed("out-dir") {
		overrides.EmitDir = &opts.OutDir
	}
	settings, err := opts.settings(overrides)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "resolving settings", err)
	}

	ast, report := optimizer.New(settings.Optimizer, optimizer.WithLogger(logger)).Run(prog.Ast)
	result := CompileResult{
		Source: path,
		Level:  settings.Level.String(),
		Passes: settings.Optimizer.String(),
		Before: report.Before,
		After:  report.After,
	}

	if opts.Output != "" {
		doc := ir.NewDocument(path, settings.Optimizer.Options(), ast)
		if err := writeFile(opts.Output, func(w io.Writer) error { return ir.WriteDocument(w, doc) }); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "writing IR document", err)
		}
		result.Output = opts.Output
	}

	for _, name := range settings.Emit {
		e, err := emit.Lookup(name)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, "emit target", err)
		}
		out := filepath.Join(settings.EmitDir, emit.FileName(prog.Base(), e))
		if err := writeFile(out, func(w io.Writer) error { return e.Emit(w, ast) }); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "emitting "+e.Name(), err)
		}
		result.Emitted = append(result.Emitted, out)
		logger.Debug("emitted", "target", e.Name(), "path", out)
	}

	return f.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "✓ Compiled %s: %d → %d instructions (level %s, passes %s)\n",
			path, result.Before, result.After, result.Level, result.Passes)
		if result.Output != "" {
			fmt.Fprintf(w, "Wrote IR to %s\n", result.Output)
		}
		for _, out := range result.Emitted {
			fmt.Fprintf(w, "Wrote %s\n", out)
		}
		return nil
	})
}

// writeFile creates path (and its directory) and fills it with write.
// A failed write leaves no partial file behind.
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
