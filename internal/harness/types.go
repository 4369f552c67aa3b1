package harness

import (
	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/tape"
)

// LevelResult is the outcome of running the scenario at one level.
type LevelResult struct {
	Level        string `json:"level"`
	Instructions ir.Ast `json:"instructions"`
	Steps        int64  `json:"steps"`
	Output       string `json:"output"`
	ErrorCode    string `json:"error_code,omitempty"`
	Pointer      int    `json:"pointer"`

	// Tape is the final tape, kept for final_cell assertions.
	Tape *tape.Tape `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held and all
	// levels agreed.
	Pass bool `json:"pass"`

	// Levels holds one record per level, in the order they ran.
	Levels []LevelResult `json:"levels"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Levels: []LevelResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Level returns the record for the named level.
func (r *Result) Level(name string) (LevelResult, bool) {
	for _, lr := range r.Levels {
		if lr.Level == name {
			return lr, true
		}
	}
	return LevelResult{}, false
}
