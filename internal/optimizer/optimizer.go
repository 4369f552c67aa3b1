// Package optimizer rewrites an instruction sequence into a smaller,
// behaviourally equivalent one.
//
// Passes run in a fixed order; later passes rely on the normal forms that
// earlier ones establish:
//
//  1. leading dead-loop removal (always)
//  2. adjacent dead-loop removal (always)
//  3. contraction
//  4. clear-loop recognition
//  5. scan-loop recognition
//  6. copy/multiply-loop recognition
//
// Every pass is a pure function from a balanced Ast to a new balanced Ast.
package optimizer

import (
	"log/slog"

	"github.com/roach88/brutalist/internal/ir"
)

// Pass names for the two mandatory passes.
const (
	PassLeadingLoops = "leading_loops"
	PassDeadLoops    = "dead_loops"
)

// Pass is one stage of the pipeline.
type Pass struct {
	Name string

	// Mandatory passes run regardless of Config.
	Mandatory bool

	Apply func(ir.Ast) ir.Ast
}

// Pipeline lists every pass in execution order.
var Pipeline = []Pass{
	{Name: PassLeadingLoops, Mandatory: true, Apply: StripLeadingLoops},
	{Name: PassDeadLoops, Mandatory: true, Apply: StripDeadLoops},
	{Name: OptContraction, Apply: Contract},
	{Name: OptClearLoop, Apply: ClearLoops},
	{Name: OptScanLoop, Apply: ScanLoops},
	{Name: OptCopyMulLoop, Apply: CopyMulLoops},
}

// PassStats records the effect of one pass.
type PassStats struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
}

// Report summarizes a pipeline run.
type Report struct {
	Config Config      `json:"config"`
	Before int         `json:"before"`
	After  int         `json:"after"`
	Passes []PassStats `json:"passes"`
}

// Optimizer runs the pipeline with a fixed configuration.
type Optimizer struct {
	cfg    Config
	logger *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger used for per-pass debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) {
		o.logger = l
	}
}

// New creates an Optimizer for cfg.
func New(cfg Config, opts ...Option) *Optimizer {
	o := &Optimizer{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the pass selection.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Optimize returns the rewritten program. The input is left untouched.
func (o *Optimizer) Optimize(ast ir.Ast) ir.Ast {
	out, _ := o.Run(ast)
	return out
}

// Run is Optimize with a per-pass report.
func (o *Optimizer) Run(ast ir.Ast) (ir.Ast, Report) {
	report := Report{Config: o.cfg, Before: len(ast)}
	cur := ast.Clone()

	for _, p := range Pipeline {
		stats := PassStats{Name: p.Name, Before: len(cur)}
		stats.Enabled = p.Mandatory
		if !p.Mandatory {
			stats.Enabled, _ = o.cfg.Enabled(p.Name)
		}
		if stats.Enabled {
			cur = p.Apply(cur)
		}
		stats.After = len(cur)
		report.Passes = append(report.Passes, stats)

		o.logger.Debug("optimizer pass",
			"pass", p.Name,
			"enabled", stats.Enabled,
			"before", stats.Before,
			"after", stats.After)
	}

	report.After = len(cur)
	return cur, report
}

// Optimize runs the pipeline with cfg and the default logger.
func Optimize(ast ir.Ast, cfg Config) ir.Ast {
	return New(cfg).Optimize(ast)
}
