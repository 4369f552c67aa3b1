package optimizer

import (
	"slices"

	"github.com/roach88/brutalist/internal/ir"
)

// AnalyzeLoop decides whether a loop body has a closed-form effect.
//
// The body is the sequence strictly between an Open and its Close and may
// only hold Add, Sub and Shift. It is simulated once, tracking the pointer
// offset from loop entry and an unwrapped signed delta per visited cell.
// The loop is replaceable iff the pointer ends where it started and the
// entry cell changes by exactly -1 per iteration; the iteration count is
// then the entry cell's value.
//
// The replacement holds one Copy (delta 1) or Mul (any other nonzero
// delta) per affected cell, in ascending offset order, followed by Clear.
func AnalyzeLoop(body ir.Ast) (ir.Ast, bool) {
	deltas := make(map[int]int)
	offset := 0

	for _, op := range body {
		switch op.Kind {
		case ir.KindAdd:
			deltas[offset] += op.N
		case ir.KindSub:
			deltas[offset] -= op.N
		case ir.KindShift:
			offset += op.Offset()
		default:
			return nil, false
		}
	}

	if offset != 0 || deltas[0] != -1 {
		return nil, false
	}

	targets := make([]int, 0, len(deltas))
	for off, d := range deltas {
		if off != 0 && d != 0 {
			targets = append(targets, off)
		}
	}
	slices.Sort(targets)

	out := make(ir.Ast, 0, len(targets)+1)
	for _, off := range targets {
		dir, steps := ir.DirOf(off)
		if d := deltas[off]; d == 1 {
			out = append(out, ir.Copy(dir, steps))
		} else {
			out = append(out, ir.Mul(dir, steps, d))
		}
	}
	return append(out, ir.Clear()), true
}
