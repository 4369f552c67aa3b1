package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/brutalist/internal/config"
)

// Version is printed by --version.
const Version = "0.1.0"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit project file; empty searches the working directory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the brutalist CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "brutalist",
		Short:   "brutalist - optimizing compiler for a tape language",
		Long:    "Parse, optimize, run and translate programs for the eight-command tape language.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "project file (brutalist.cue or brutalist.toml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Logger returns a text logger writing to w: debug level with --verbose,
// warnings only otherwise.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// pipelineFlags are the optimizer and evaluator flags shared by the
// commands that compile or run a program.
type pipelineFlags struct {
	Level    string
	Enable   []string
	Disable  []string
	EOF      string
	MaxSteps int64
}

func (p *pipelineFlags) register(cmd *cobra.Command, withEval bool) {
	fs := cmd.Flags()
	fs.StringVarP(&p.Level, "opt-level", "O", "", "optimization level (none|light|standard|aggressive or 0-3)")
	fs.StringSliceVar(&p.Enable, "enable", nil, "enable optimizer passes (comma separated)")
	fs.StringSliceVar(&p.Disable, "disable", nil, "disable optimizer passes (comma separated)")
	if withEval {
		fs.StringVar(&p.EOF, "eof", "", "end-of-input policy (unchanged|zero|max)")
		fs.Int64Var(&p.MaxSteps, "max-steps", 0, "stop after this many instructions (0 = unlimited)")
	}
}

// overrides returns only the flags the user actually set, so unset flags
// leave the project file alone.
func (p *pipelineFlags) overrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	fs := cmd.Flags()
	if fs.Changed("opt-level") {
		o.Level = &p.Level
	}
	o.Enable = p.Enable
	o.Disable = p.Disable
	if fs.Lookup("eof") != nil && fs.Changed("eof") {
		o.EOF = &p.EOF
	}
	if fs.Lookup("max-steps") != nil && fs.Changed("max-steps") {
		o.MaxSteps = &p.MaxSteps
	}
	return o
}

// settings resolves the project file and applies flag overrides.
func (o *RootOptions) settings(overrides config.Overrides) (config.Settings, error) {
	s, err := config.Resolve(o.Config, ".")
	if err != nil {
		return config.Settings{}, err
	}
	if err := s.Apply(overrides); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}
