package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/config"
	"github.com/roach88/brutalist/internal/eval"
	"github.com/roach88/brutalist/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"`
	Deterministic bool     `json:"deterministic"`
	Differences   []string `json:"differences,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded runs and verify determinism",
		Long: `Re-execute runs recorded by "brutalist run --db" and check that each one
produces the same output, error code and step count as the record.

Each run is replayed from the cached compilation it used, with its recorded
input, end-of-input policy and step limit.

Exit codes:
  0 - All runs are deterministic
  1 - At least one run differs from its record
  2 - Command error (database not found, unknown run, etc.)

Examples:
  brutalist replay --db ./runs.db
  brutalist replay --db ./runs.db --run 0190d6e2-...
  brutalist replay --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "opening database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "reading run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx, 0)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "listing runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		rr, err := replayRun(ctx, st, run, logger)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("replaying run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, rr)
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
	}

	text := func(w io.Writer) error {
		if result.TotalRuns == 0 {
			fmt.Fprintln(w, "No runs found in database.")
			return nil
		}
		fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
		for _, rr := range result.Runs {
			status := "✓"
			if !rr.Deterministic {
				status = "✗"
			}
			fmt.Fprintf(w, "%s [%d] %s\n", status, rr.Seq, rr.ID)
			for _, d := range rr.Differences {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
		fmt.Fprintln(w)
		if result.AllDeterministic {
			fmt.Fprintln(w, "All runs deterministic")
		} else {
			fmt.Fprintln(w, "Determinism verification failed")
		}
		return nil
	}

	if result.AllDeterministic {
		return f.Success(result, text)
	}
	_ = f.Failure(ErrCodeReplayDiffer, "determinism verification failed", result, text)
	return NewExitError(ExitFailure, "determinism verification failed")
}

// replayRun re-executes run from its cached compilation.
func replayRun(ctx context.Context, st *store.Store, run store.Run, logger *slog.Logger) (ReplayRunResult, error) {
	compiled, err := st.GetCompilation(ctx, run.ProgramHash, run.ConfigHash)
	if err != nil {
		return ReplayRunResult{}, fmt.Errorf("compilation for run: %w", err)
	}
	policy, err := eval.ParseEOFPolicy(run.EOF)
	if err != nil {
		return ReplayRunResult{}, err
	}

	settings := config.Default()
	settings.EOF = policy
	settings.MaxSteps = run.MaxSteps

	var out bytes.Buffer
	res, runErr := execute(ctx, compiled.Instructions, bytes.NewReader(run.Input), &out, settings, logger)

	rr := ReplayRunResult{ID: run.ID, Seq: run.Seq}
	if !bytes.Equal(out.Bytes(), run.Output) {
		rr.Differences = append(rr.Differences, fmt.Sprintf("output %q, recorded %q", out.String(), string(run.Output)))
	}
	if code := string(eval.CodeOf(runErr)); code != run.ErrorCode {
		rr.Differences = append(rr.Differences, fmt.Sprintf("error code %q, recorded %q", code, run.ErrorCode))
	}
	if res.Steps != run.Steps {
		rr.Differences = append(rr.Differences, fmt.Sprintf("steps %d, recorded %d", res.Steps, run.Steps))
	}
	rr.Deterministic = len(rr.Differences) == 0
	logger.Debug("replayed run", "id", run.ID, "deterministic", rr.Deterministic)
	return rr, nil
}
