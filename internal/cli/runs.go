package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// RunRecord is one run as listed by the runs command.
type RunRecord struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	ProgramHash string `json:"program_hash"`
	ConfigHash  string `json:"config_hash"`
	EOF         string `json:"eof"`
	MaxSteps    int64  `json:"max_steps"`
	InputBytes  int    `json:"input_bytes"`
	Output      string `json:"output"`
	Steps       int64  `json:"steps"`
	ErrorCode   string `json:"error_code,omitempty"`
}

func recordOf(r store.Run) RunRecord {
	return RunRecord{
		ID:          r.ID,
		Seq:         r.Seq,
		ProgramHash: r.ProgramHash,
		ConfigHash:  r.ConfigHash,
		EOF:         r.EOF,
		MaxSteps:    r.MaxSteps,
		InputBytes:  len(r.Input),
		Output:      string(r.Output),
		Steps:       r.Steps,
		ErrorCode:   r.ErrorCode,
	}
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded by "brutalist run --db", oldest first.

Examples:
  brutalist runs --db ./runs.db
  brutalist runs --db ./runs.db --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent runs (0 = all)")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "opening database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd), opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "listing runs", err)
	}

	records := make([]RunRecord, len(runs))
	for i, r := range runs {
		records[i] = recordOf(r)
	}

	return f.Success(records, func(w io.Writer) error {
		if len(records) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Seq", "ID", "Program", "Steps", "Output", "Error"})
		for _, r := range records {
			t.AppendRow(table.Row{r.Seq, truncateID(r.ID), truncateID(r.ProgramHash), r.Steps, fmt.Sprintf("%d bytes", len(r.Output)), r.ErrorCode})
		}
		fmt.Fprintln(w, t.Render())
		return nil
	})
}

// truncateID shortens a long ID or hash for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
