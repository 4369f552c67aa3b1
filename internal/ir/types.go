package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Dir is the direction of a pointer move.
type Dir uint8

const (
	Left Dir = iota
	Right
)

func (d Dir) String() string {
	if d == Left {
		return "Left"
	}
	return "Right"
}

// Sign returns -1 for Left and +1 for Right.
func (d Dir) Sign() int {
	if d == Left {
		return -1
	}
	return 1
}

// DirOf returns the direction and magnitude of a signed offset.
// A zero offset reports Right.
func DirOf(offset int) (Dir, int) {
	if offset < 0 {
		return Left, -offset
	}
	return Right, offset
}

// Kind identifies an instruction variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAdd
	KindSub
	KindShift
	KindRead
	KindWrite
	KindOpen
	KindClose
	KindClear
	KindScan
	KindCopy
	KindMul
)

var kindNames = map[Kind]string{
	KindAdd:   "add",
	KindSub:   "sub",
	KindShift: "shift",
	KindRead:  "read",
	KindWrite: "write",
	KindOpen:  "open",
	KindClose: "close",
	KindClear: "clear",
	KindScan:  "scan",
	KindCopy:  "copy",
	KindMul:   "mul",
}

// String returns the lowercase wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// Derived reports whether the kind is only ever produced by the optimizer.
func (k Kind) Derived() bool {
	switch k {
	case KindClear, KindScan, KindCopy, KindMul:
		return true
	}
	return false
}

// Op is a single instruction.
//
// Field use by kind:
//   - Add, Sub: N is the magnitude, 1..255
//   - Shift: Dir and N (steps, >= 1)
//   - Scan: Dir
//   - Copy: Dir and N (distance to the target cell)
//   - Mul: Dir, N and Factor; a negative Factor subtracts
//
// Unused fields are zero, so Ops compare with ==.
type Op struct {
	Kind   Kind
	Dir    Dir
	N      int
	Factor int
}

// Add adds n to the current cell.
func Add(n int) Op { return Op{Kind: KindAdd, N: n} }

// Sub subtracts n from the current cell.
func Sub(n int) Op { return Op{Kind: KindSub, N: n} }

// Shift moves the pointer steps cells in dir.
func Shift(dir Dir, steps int) Op { return Op{Kind: KindShift, Dir: dir, N: steps} }

// Read stores the next input byte in the current cell.
func Read() Op { return Op{Kind: KindRead} }

// Write emits the current cell.
func Write() Op { return Op{Kind: KindWrite} }

// Open starts a loop.
func Open() Op { return Op{Kind: KindOpen} }

// Close ends a loop.
func Close() Op { return Op{Kind: KindClose} }

// Clear zeroes the current cell.
func Clear() Op { return Op{Kind: KindClear} }

// Scan moves the pointer in dir until it rests on a zero cell.
func Scan(dir Dir) Op { return Op{Kind: KindScan, Dir: dir} }

// Copy adds the current cell to the cell steps away in dir.
func Copy(dir Dir, steps int) Op { return Op{Kind: KindCopy, Dir: dir, N: steps} }

// Mul adds current*factor to the cell steps away in dir.
func Mul(dir Dir, steps, factor int) Op {
	return Op{Kind: KindMul, Dir: dir, N: steps, Factor: factor}
}

// String renders the instruction in its IR text form, e.g. "Shift(Right, 2)".
func (o Op) String() string {
	switch o.Kind {
	case KindAdd:
		return fmt.Sprintf("Add(%d)", o.N)
	case KindSub:
		return fmt.Sprintf("Sub(%d)", o.N)
	case KindShift:
		return fmt.Sprintf("Shift(%s, %d)", o.Dir, o.N)
	case KindRead:
		return "Read"
	case KindWrite:
		return "Write"
	case KindOpen:
		return "Open"
	case KindClose:
		return "Close"
	case KindClear:
		return "Clear"
	case KindScan:
		return fmt.Sprintf("Scan(%s)", o.Dir)
	case KindCopy:
		return fmt.Sprintf("Copy(%s, %d)", o.Dir, o.N)
	case KindMul:
		return fmt.Sprintf("Mul(%s, %d, %d)", o.Dir, o.N, o.Factor)
	default:
		return fmt.Sprintf("Invalid(%d)", uint8(o.Kind))
	}
}

// Offset returns the signed distance encoded by Dir and N.
func (o Op) Offset() int {
	return o.Dir.Sign() * o.N
}

// Check reports whether the operands are in range for the kind.
func (o Op) Check() error {
	switch o.Kind {
	case KindAdd, KindSub:
		if o.N < 1 || o.N > 255 {
			return fmt.Errorf("%s magnitude %d out of range 1..255", o.Kind, o.N)
		}
	case KindShift, KindCopy:
		if o.N < 1 {
			return fmt.Errorf("%s steps must be positive, got %d", o.Kind, o.N)
		}
	case KindMul:
		if o.N < 1 {
			return fmt.Errorf("mul steps must be positive, got %d", o.N)
		}
	case KindRead, KindWrite, KindOpen, KindClose, KindClear, KindScan:
	default:
		return fmt.Errorf("invalid instruction kind %d", uint8(o.Kind))
	}
	if o.Dir > Right {
		return fmt.Errorf("%s has invalid direction %d", o.Kind, uint8(o.Dir))
	}
	return nil
}

// Ast is an ordered instruction sequence: a whole program or a loop body.
type Ast []Op

// Clone returns an independent copy.
func (a Ast) Clone() Ast {
	if a == nil {
		return Ast{}
	}
	return slices.Clone(a)
}

// Equal reports whether both sequences hold the same instructions.
func (a Ast) Equal(b Ast) bool {
	return slices.Equal(a, b)
}

// String renders one instruction per line.
func (a Ast) String() string {
	var sb strings.Builder
	for _, op := range a {
		sb.WriteString(op.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Count returns the number of instructions of each kind.
func (a Ast) Count() map[Kind]int {
	counts := make(map[Kind]int)
	for _, op := range a {
		counts[op.Kind]++
	}
	return counts
}
