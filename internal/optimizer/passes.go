package optimizer

import (
	"github.com/roach88/brutalist/internal/ir"
)

// Every pass takes a balanced Ast and returns a new balanced Ast.
// The input is never modified.

// skipLoop returns the index just past the Close matching the Open at i.
// A missing Close consumes the rest of the sequence.
func skipLoop(ast ir.Ast, i int) int {
	depth := 0
	for ; i < len(ast); i++ {
		switch ast[i].Kind {
		case ir.KindOpen:
			depth++
		case ir.KindClose:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(ast)
}

// StripLeadingLoops removes every loop at the very start of the program.
// The tape starts zeroed, so such a loop never runs; nested loops inside it
// go with it.
func StripLeadingLoops(ast ir.Ast) ir.Ast {
	i := 0
	for i < len(ast) && ast[i].Kind == ir.KindOpen {
		i = skipLoop(ast, i)
	}
	return ast[i:].Clone()
}

// StripDeadLoops removes every loop that opens immediately after a Close.
// A loop only exits on a zero cell, so the following loop never runs.
// Runs of such loops collapse until a non-loop instruction intervenes.
func StripDeadLoops(ast ir.Ast) ir.Ast {
	out := make(ir.Ast, 0, len(ast))
	for i := 0; i < len(ast); {
		if ast[i].Kind == ir.KindOpen && len(out) > 0 && out[len(out)-1].Kind == ir.KindClose {
			i = skipLoop(ast, i)
			continue
		}
		out = append(out, ast[i])
		i++
	}
	return out
}

// Contract fuses adjacent Add/Sub and adjacent Shifts, cancelling opposite
// kinds, until no neighbouring pair can merge. Cell arithmetic is modulo
// 256, so a fused Add or Sub of a multiple of 256 disappears.
func Contract(ast ir.Ast) ir.Ast {
	out := contractOnce(ast)
	for {
		next := contractOnce(out)
		if next.Equal(out) {
			return next
		}
		out = next
	}
}

// contractOnce folds the sequence onto a stack. When a fused pair cancels,
// the new top becomes eligible to fuse with what follows, so one call
// already reaches the fixed point; Contract re-checks to be sure.
func contractOnce(ast ir.Ast) ir.Ast {
	out := make(ir.Ast, 0, len(ast))
	for _, op := range ast {
		if len(out) == 0 {
			out = append(out, op)
			continue
		}
		top := out[len(out)-1]
		fused, ok := fuse(top, op)
		if !ok {
			out = append(out, op)
			continue
		}
		out = out[:len(out)-1]
		out = append(out, fused...)
	}
	return out
}

// fuse combines two adjacent instructions of the same family. The result
// is empty when they cancel out.
func fuse(a, b ir.Op) (ir.Ast, bool) {
	switch {
	case isArith(a) && isArith(b):
		return arith(signedDelta(a) + signedDelta(b)), true
	case a.Kind == ir.KindShift && b.Kind == ir.KindShift:
		net := a.Offset() + b.Offset()
		if net == 0 {
			return nil, true
		}
		dir, steps := ir.DirOf(net)
		return ir.Ast{ir.Shift(dir, steps)}, true
	}
	return nil, false
}

func isArith(op ir.Op) bool {
	return op.Kind == ir.KindAdd || op.Kind == ir.KindSub
}

func signedDelta(op ir.Op) int {
	if op.Kind == ir.KindSub {
		return -op.N
	}
	return op.N
}

// arith turns a signed cell delta into at most one Add or Sub, keeping the
// sign of the larger operand.
func arith(delta int) ir.Ast {
	switch {
	case delta > 0 && delta%256 != 0:
		return ir.Ast{ir.Add(delta % 256)}
	case delta < 0 && (-delta)%256 != 0:
		return ir.Ast{ir.Sub((-delta) % 256)}
	}
	return nil
}

// ClearLoops replaces [-] and [+] with Clear.
func ClearLoops(ast ir.Ast) ir.Ast {
	return rewriteSingleOpLoops(ast, func(body ir.Op) (ir.Op, bool) {
		if isArith(body) && body.N == 1 {
			return ir.Clear(), true
		}
		return ir.Op{}, false
	})
}

// ScanLoops replaces [<] and [>] with Scan.
func ScanLoops(ast ir.Ast) ir.Ast {
	return rewriteSingleOpLoops(ast, func(body ir.Op) (ir.Op, bool) {
		if body.Kind == ir.KindShift && body.N == 1 {
			return ir.Scan(body.Dir), true
		}
		return ir.Op{}, false
	})
}

// rewriteSingleOpLoops replaces every Open, X, Close window for which
// replace accepts X.
func rewriteSingleOpLoops(ast ir.Ast, replace func(ir.Op) (ir.Op, bool)) ir.Ast {
	out := make(ir.Ast, 0, len(ast))
	for _, op := range ast {
		n := len(out)
		if op.Kind == ir.KindClose && n >= 2 && out[n-2].Kind == ir.KindOpen {
			if r, ok := replace(out[n-1]); ok {
				out = append(out[:n-2], r)
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

// CopyMulLoops collapses innermost loops whose body holds only Add, Sub
// and Shift and that AnalyzeLoop accepts. Loops containing I/O, nested
// loops or derived instructions are kept; their bodies are still searched.
func CopyMulLoops(ast ir.Ast) ir.Ast {
	out := make(ir.Ast, 0, len(ast))
	var opens []int
	for _, op := range ast {
		switch op.Kind {
		case ir.KindOpen:
			opens = append(opens, len(out))
		case ir.KindClose:
			if len(opens) == 0 {
				break
			}
			start := opens[len(opens)-1]
			opens = opens[:len(opens)-1]
			body := out[start+1:]
			if !onlyArithAndShift(body) {
				break
			}
			if replacement, ok := AnalyzeLoop(body); ok {
				out = append(out[:start], replacement...)
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

func onlyArithAndShift(body ir.Ast) bool {
	for _, op := range body {
		if !isArith(op) && op.Kind != ir.KindShift {
			return false
		}
	}
	return true
}
