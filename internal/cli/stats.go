package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/optimizer"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	pipelineFlags
}

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	Source string                `json:"source"`
	Level  string                `json:"level"`
	Before int                   `json:"before"`
	After  int                   `json:"after"`
	Passes []optimizer.PassStats `json:"passes"`
	Kinds  map[string]int        `json:"kinds"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Show what each optimizer pass did",
		Long: `Run the optimizer and report the instruction count before and after every
pass, followed by the instruction mix of the result.

Examples:
  brutalist stats hello.b
  brutalist stats -O light --enable copy_mul_loop hello.b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, args[0], cmd)
		},
	}

	opts.pipelineFlags.register(cmd, false)

	return cmd
}

func runStats(opts *StatsOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	prog, err := loadOrFail(f, path)
	if err != nil {
		return err
	}
	settings, err := opts.settings(opts.overrides(cmd))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "resolving settings", err)
	}

	ast, report := optimizer.New(settings.Optimizer, optimizer.WithLogger(opts.Logger(cmd.ErrOrStderr()))).Run(prog.Ast)

	result := StatsResult{
		Source: path,
		Level:  settings.Level.String(),
		Before: report.Before,
		After:  report.After,
		Passes: report.Passes,
		Kinds:  make(map[string]int),
	}
	for kind, n := range ast.Count() {
		result.Kinds[kind.String()] = n
	}

	return f.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "%s: %d → %d instructions (level %s)\n\n", path, result.Before, result.After, result.Level)

		passes := table.NewWriter()
		passes.SetTitle("Passes")
		passes.AppendHeader(table.Row{"Pass", "Enabled", "Before", "After", "Removed"})
		for _, p := range result.Passes {
			passes.AppendRow(table.Row{p.Name, p.Enabled, p.Before, p.After, p.Before - p.After})
		}
		fmt.Fprintln(w, passes.Render())
		fmt.Fprintln(w)

		kinds := table.NewWriter()
		kinds.SetTitle("Instructions")
		kinds.AppendHeader(table.Row{"Op", "Count"})
		counts := ast.Count()
		for k := ir.KindAdd; k <= ir.KindMul; k++ {
			if n := counts[k]; n > 0 {
				kinds.AppendRow(table.Row{k.String(), n})
			}
		}
		kinds.AppendFooter(table.Row{"total", len(ast)})
		fmt.Fprintln(w, kinds.Render())
		return nil
	})
}
