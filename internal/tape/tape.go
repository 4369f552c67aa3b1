// Package tape implements the fixed-size byte memory the evaluator runs on.
//
// Cell arithmetic wraps modulo 256. The pointer does not wrap: any move or
// access outside [0, Size) fails with *OutOfBoundsError and leaves the
// pointer where it was.
package tape

import (
	"bytes"
	"fmt"

	"github.com/roach88/brutalist/internal/ir"
)

// Size is the number of cells on every tape.
const Size = 1 << 16

// OutOfBoundsError reports a pointer move or access outside the tape.
type OutOfBoundsError struct {
	Pointer int // pointer before the failed operation
	Target  int // address that was requested
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("pointer %d: address %d is outside the tape [0, %d)", e.Pointer, e.Target, Size)
}

// Tape is a zeroed cell array with a pointer register.
type Tape struct {
	cells [Size]uint8
	ptr   int
}

// New returns a zeroed tape with the pointer at cell 0.
func New() *Tape {
	return &Tape{}
}

// Pointer returns the current cell index.
func (t *Tape) Pointer() int {
	return t.ptr
}

// Get returns the current cell.
func (t *Tape) Get() uint8 {
	return t.cells[t.ptr]
}

// Set stores v in the current cell.
func (t *Tape) Set(v uint8) {
	t.cells[t.ptr] = v
}

// Add adds n to the current cell, wrapping.
func (t *Tape) Add(n int) {
	t.cells[t.ptr] += uint8(n)
}

// Sub subtracts n from the current cell, wrapping.
func (t *Tape) Sub(n int) {
	t.cells[t.ptr] -= uint8(n)
}

// Clear zeroes the current cell.
func (t *Tape) Clear() {
	t.cells[t.ptr] = 0
}

func (t *Tape) address(dir ir.Dir, steps int) (int, error) {
	target := t.ptr + dir.Sign()*steps
	if target < 0 || target >= Size {
		return 0, &OutOfBoundsError{Pointer: t.ptr, Target: target}
	}
	return target, nil
}

// Shift moves the pointer steps cells in dir.
func (t *Tape) Shift(dir ir.Dir, steps int) error {
	target, err := t.address(dir, steps)
	if err != nil {
		return err
	}
	t.ptr = target
	return nil
}

// Scan moves the pointer one cell at a time in dir until it rests on a
// zero cell. It does not move when the current cell is already zero.
// Running off the edge of the tape is an error.
func (t *Tape) Scan(dir ir.Dir) error {
	if t.cells[t.ptr] == 0 {
		return nil
	}
	var idx int
	if dir == ir.Right {
		idx = bytes.IndexByte(t.cells[t.ptr:], 0)
		if idx >= 0 {
			idx += t.ptr
		}
	} else {
		idx = bytes.LastIndexByte(t.cells[:t.ptr], 0)
	}
	if idx < 0 {
		target := Size
		if dir == ir.Left {
			target = -1
		}
		return &OutOfBoundsError{Pointer: t.ptr, Target: target}
	}
	t.ptr = idx
	return nil
}

// MulAdd adds current*factor to the cell steps away in dir, wrapping.
// A negative factor subtracts. Nothing happens when the current cell is
// zero, not even a bounds check, matching the loop it replaces which would
// not have run.
func (t *Tape) MulAdd(dir ir.Dir, steps, factor int) error {
	cur := t.cells[t.ptr]
	if cur == 0 {
		return nil
	}
	target, err := t.address(dir, steps)
	if err != nil {
		return err
	}
	t.cells[target] += uint8(int(cur) * factor)
	return nil
}

// Cell returns the cell at addr without moving the pointer.
func (t *Tape) Cell(addr int) (uint8, error) {
	if addr < 0 || addr >= Size {
		return 0, &OutOfBoundsError{Pointer: t.ptr, Target: addr}
	}
	return t.cells[addr], nil
}

// Window returns a copy of the cells in [from, to), clipped to the tape.
func (t *Tape) Window(from, to int) []uint8 {
	from = max(from, 0)
	to = min(to, Size)
	if from >= to {
		return []uint8{}
	}
	out := make([]uint8, to-from)
	copy(out, t.cells[from:to])
	return out
}
