package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/brutalist/internal/eval"
	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/optimizer"
	"github.com/roach88/brutalist/internal/parser"
)

// DefaultMaxSteps bounds scenario runs that set no max_steps, so a
// diverging scenario fails instead of hanging the suite.
const DefaultMaxSteps = 50_000_000

// Harness runs scenarios.
type Harness struct {
	logger *slog.Logger
	ctx    context.Context
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to the optimizer and evaluator.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithContext stops scenario runs once ctx is done. A cancelled run makes
// Run return an error instead of a failed scenario.
func WithContext(ctx context.Context) Option {
	return func(h *Harness) {
		h.ctx = ctx
	}
}

// New creates a harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and returns the result.
//
// The program is parsed once, then optimized and evaluated at every
// requested level. An error is returned only when the scenario cannot be
// executed at all (unreadable file, syntax error); failed expectations are
// reported in Result.Errors.
//
// Execution flow:
// 1. Parse the program
// 2. For each level: optimize, evaluate, record
// 3. Check expectations and assertions per level
// 4. Check that every level agrees with the first
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	ast, err := h.parse(scenario)
	if err != nil {
		return nil, err
	}

	levels, err := scenarioLevels(scenario)
	if err != nil {
		return nil, err
	}
	policy, err := eval.ParseEOFPolicy(scenario.EOF)
	if err != nil {
		return nil, err
	}
	maxSteps := scenario.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}

	result := NewResult()
	for _, level := range levels {
		program := optimizer.New(level.Config(), optimizer.WithLogger(h.logger)).Optimize(ast)

		var out bytes.Buffer
		res, runErr := eval.New(
			eval.WithInput(strings.NewReader(scenario.Input)),
			eval.WithOutput(&out),
			eval.WithEOF(policy),
			eval.WithMaxSteps(maxSteps),
			eval.WithLogger(h.logger),
			eval.WithContext(h.ctx),
		).Run(program)

		lr := LevelResult{
			Level:        level.String(),
			Instructions: program,
			Steps:        res.Steps,
			Output:       out.String(),
			ErrorCode:    string(eval.CodeOf(runErr)),
			Pointer:      res.Pointer,
			Tape:         res.Tape,
		}
		if eval.IsCancelled(runErr) {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, runErr)
		}
		if runErr != nil && lr.ErrorCode == "" {
			return nil, fmt.Errorf("level %s: %w", level, runErr)
		}
		result.Levels = append(result.Levels, lr)

		h.checkExpect(scenario, lr, result)
	}

	h.checkAgreement(result)
	for _, a := range scenario.Assertions {
		if err := checkAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"levels", len(result.Levels),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) parse(scenario *Scenario) (ir.Ast, error) {
	if scenario.File == "" {
		ast, err := parser.ParseString(scenario.Program)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		return ast, nil
	}

	f, err := os.Open(scenario.File)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	defer f.Close()

	ast, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %s:%w", scenario.Name, scenario.File, err)
	}
	return ast, nil
}

func scenarioLevels(scenario *Scenario) ([]optimizer.Level, error) {
	if len(scenario.Levels) == 0 {
		return []optimizer.Level{
			optimizer.LevelNone,
			optimizer.LevelLight,
			optimizer.LevelStandard,
			optimizer.LevelAggressive,
		}, nil
	}
	levels := make([]optimizer.Level, 0, len(scenario.Levels))
	for _, name := range scenario.Levels {
		level, err := optimizer.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func (h *Harness) checkExpect(scenario *Scenario, lr LevelResult, result *Result) {
	if want := scenario.Expect.Output; want != nil && *want != lr.Output {
		result.AddError(fmt.Sprintf("level %s: output %q, expected %q", lr.Level, lr.Output, *want))
	}
	if lr.ErrorCode != scenario.Expect.Error {
		result.AddError(fmt.Sprintf("level %s: error code %q, expected %q", lr.Level, lr.ErrorCode, scenario.Expect.Error))
	}
}

// checkAgreement requires every level to produce the first level's output
// and error code.
func (h *Harness) checkAgreement(result *Result) {
	if len(result.Levels) < 2 {
		return
	}
	base := result.Levels[0]
	for _, lr := range result.Levels[1:] {
		if lr.Output != base.Output {
			result.AddError(fmt.Sprintf("level %s output %q differs from level %s output %q", lr.Level, lr.Output, base.Level, base.Output))
		}
		if lr.ErrorCode != base.ErrorCode {
			result.AddError(fmt.Sprintf("level %s error %q differs from level %s error %q", lr.Level, lr.ErrorCode, base.Level, base.ErrorCode))
		}
	}
}
