// Package suggest finds the closest known name for a misspelled one.
package suggest

import (
	"fmt"
	"strings"

	"github.com/xrash/smetrics"
)

// Closest returns the candidate with the smallest edit distance to name.
// Only candidates within a third of the name's length (at least 2 edits)
// are considered; ok is false when none qualify.
func Closest(name string, candidates []string) (best string, ok bool) {
	name = strings.ToLower(name)
	limit := max(2, len(name)/3)
	bestDist := limit + 1
	for _, c := range candidates {
		// insert, delete and substitute cost 1, 1 and 2 so a swap of
		// neighbouring letters is cheaper than two unrelated edits.
		d := smetrics.WagnerFischer(name, strings.ToLower(c), 1, 1, 2)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist <= limit
}

// UnknownError describes a name that is not one of the accepted values.
type UnknownError struct {
	What       string
	Name       string
	Valid      []string
	Suggestion string
}

func (e *UnknownError) Error() string {
	msg := fmt.Sprintf("unknown %s %q", e.What, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg + fmt.Sprintf(": must be one of %s", strings.Join(e.Valid, ", "))
}

// Unknown builds an UnknownError with the closest suggestion filled in.
func Unknown(what, name string, valid []string) *UnknownError {
	e := &UnknownError{What: what, Name: name, Valid: valid}
	if s, ok := Closest(name, valid); ok {
		e.Suggestion = s
	}
	return e
}
