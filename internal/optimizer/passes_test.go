package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/parser"
	"github.com/roach88/brutalist/internal/testutil"
)

func TestStripLeadingLoops(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"comment loop", "[anything goes here, even .,+-<>]+.", "+."},
		{"nested", "[[-]+[>]]+", "+"},
		{"consecutive", "[-][.]>+", ">+"},
		{"not leading", "+[-]", "+[-]"},
		{"whole program", "[.]", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, parser.MustParse(tt.want), StripLeadingLoops(parser.MustParse(tt.src)))
		})
	}
}

func TestStripDeadLoops(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"after loop", "+[-][.]+", "+[-]+"},
		{"run of dead loops", "+[-][.][>[<]]-", "+[-]-"},
		{"inside a loop", "+[>[-][+]<-]", "+[>[-]<-]"},
		{"separated", "+[-]>[-]", "+[-]>[-]"},
		{"leading loop untouched", "[-].", "[-]."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, parser.MustParse(tt.want), StripDeadLoops(parser.MustParse(tt.src)))
		})
	}
}

func TestContract(t *testing.T) {
	tests := []struct {
		name string
		in   ir.Ast
		want ir.Ast
	}{
		{"add then sub cancels", ir.Ast{ir.Add(3), ir.Sub(3)}, ir.Ast{}},
		{"add then smaller sub", ir.Ast{ir.Add(5), ir.Sub(2)}, ir.Ast{ir.Add(3)}},
		{"sub wins", ir.Ast{ir.Add(2), ir.Sub(5)}, ir.Ast{ir.Sub(3)}},
		{"fuse adds", ir.Ast{ir.Add(1), ir.Add(1), ir.Add(1)}, ir.Ast{ir.Add(3)}},
		{"adds wrap", ir.Ast{ir.Add(200), ir.Add(100)}, ir.Ast{ir.Add(44)}},
		{"full turn vanishes", ir.Ast{ir.Add(128), ir.Add(128)}, ir.Ast{}},
		{"subs wrap", ir.Ast{ir.Sub(255), ir.Sub(2)}, ir.Ast{ir.Sub(1)}},
		{"shifts fuse", ir.Ast{ir.Shift(ir.Right, 2), ir.Shift(ir.Right, 3)}, ir.Ast{ir.Shift(ir.Right, 5)}},
		{"shifts cancel", ir.Ast{ir.Shift(ir.Right, 2), ir.Shift(ir.Left, 2)}, ir.Ast{}},
		{"left wins", ir.Ast{ir.Shift(ir.Right, 1), ir.Shift(ir.Left, 4)}, ir.Ast{ir.Shift(ir.Left, 3)}},
		{
			name: "cancellation exposes new neighbours",
			in:   ir.Ast{ir.Add(1), ir.Shift(ir.Right, 1), ir.Shift(ir.Left, 1), ir.Add(2)},
			want: ir.Ast{ir.Add(3)},
		},
		{
			name: "brackets are barriers",
			in:   ir.Ast{ir.Add(1), ir.Open(), ir.Add(1), ir.Close(), ir.Add(1)},
			want: ir.Ast{ir.Add(1), ir.Open(), ir.Add(1), ir.Close(), ir.Add(1)},
		},
		{
			name: "io is a barrier",
			in:   ir.Ast{ir.Add(1), ir.Write(), ir.Add(1)},
			want: ir.Ast{ir.Add(1), ir.Write(), ir.Add(1)},
		},
		{
			name: "mixed kinds do not fuse",
			in:   ir.Ast{ir.Add(1), ir.Shift(ir.Right, 1), ir.Sub(1)},
			want: ir.Ast{ir.Add(1), ir.Shift(ir.Right, 1), ir.Sub(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contract(tt.in))
		})
	}
}

func TestClearLoops(t *testing.T) {
	assert.Equal(t, ir.Ast{ir.Clear()}, ClearLoops(ir.Ast{ir.Open(), ir.Sub(1), ir.Close()}))
	assert.Equal(t, ir.Ast{ir.Clear()}, ClearLoops(ir.Ast{ir.Open(), ir.Add(1), ir.Close()}))

	// Only a single step of one is recognised.
	kept := ir.Ast{ir.Open(), ir.Sub(2), ir.Close()}
	assert.Equal(t, kept, ClearLoops(kept))

	nested := parser.MustParse("+[>[-]<-]")
	assert.Equal(t,
		ir.Ast{ir.Add(1), ir.Open(), ir.Shift(ir.Right, 1), ir.Clear(), ir.Shift(ir.Left, 1), ir.Sub(1), ir.Close()},
		ClearLoops(nested))
}

func TestScanLoops(t *testing.T) {
	assert.Equal(t, ir.Ast{ir.Scan(ir.Right)}, ScanLoops(ir.Ast{ir.Open(), ir.Shift(ir.Right, 1), ir.Close()}))
	assert.Equal(t, ir.Ast{ir.Add(1), ir.Scan(ir.Left)}, ScanLoops(ir.Ast{ir.Add(1), ir.Open(), ir.Shift(ir.Left, 1), ir.Close()}))

	kept := ir.Ast{ir.Open(), ir.Shift(ir.Right, 2), ir.Close()}
	assert.Equal(t, kept, ScanLoops(kept))
}

func TestCopyMulLoops(t *testing.T) {
	tests := []struct {
		name string
		in   ir.Ast
		want ir.Ast
	}{
		{
			name: "copy loop",
			in:   ir.Ast{ir.Add(2), ir.Open(), ir.Sub(1), ir.Shift(ir.Right, 2), ir.Add(1), ir.Shift(ir.Left, 2), ir.Close()},
			want: ir.Ast{ir.Add(2), ir.Copy(ir.Right, 2), ir.Clear()},
		},
		{
			name: "io inside is kept",
			in:   ir.Ast{ir.Open(), ir.Sub(1), ir.Write(), ir.Close()},
			want: ir.Ast{ir.Open(), ir.Sub(1), ir.Write(), ir.Close()},
		},
		{
			name: "outer loop kept, inner collapsed",
			in: ir.Ast{
				ir.Open(), ir.Shift(ir.Right, 1),
				ir.Open(), ir.Sub(1), ir.Shift(ir.Right, 1), ir.Add(3), ir.Shift(ir.Left, 1), ir.Close(),
				ir.Shift(ir.Left, 1), ir.Sub(1), ir.Close(),
			},
			want: ir.Ast{
				ir.Open(), ir.Shift(ir.Right, 1),
				ir.Mul(ir.Right, 1, 3), ir.Clear(),
				ir.Shift(ir.Left, 1), ir.Sub(1), ir.Close(),
			},
		},
		{
			name: "ineligible inner loop kept",
			in:   ir.Ast{ir.Open(), ir.Open(), ir.Shift(ir.Right, 1), ir.Close(), ir.Close()},
			want: ir.Ast{ir.Open(), ir.Open(), ir.Shift(ir.Right, 1), ir.Close(), ir.Close()},
		},
		{
			name: "loop holding derived instructions kept",
			in:   ir.Ast{ir.Open(), ir.Sub(1), ir.Clear(), ir.Close()},
			want: ir.Ast{ir.Open(), ir.Sub(1), ir.Clear(), ir.Close()},
		},
		{
			name: "sibling loops",
			in: ir.Ast{
				ir.Open(), ir.Sub(1), ir.Shift(ir.Right, 1), ir.Add(1), ir.Shift(ir.Left, 1), ir.Close(),
				ir.Shift(ir.Right, 1),
				ir.Open(), ir.Sub(1), ir.Shift(ir.Left, 1), ir.Add(2), ir.Shift(ir.Right, 1), ir.Close(),
			},
			want: ir.Ast{
				ir.Copy(ir.Right, 1), ir.Clear(),
				ir.Shift(ir.Right, 1),
				ir.Mul(ir.Left, 1, 2), ir.Clear(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CopyMulLoops(tt.in))
		})
	}
}

func TestPassesDoNotMutateInput(t *testing.T) {
	src := "[.]+++--[-]>>[<]<[->+<][.]"
	for _, p := range Pipeline {
		t.Run(p.Name, func(t *testing.T) {
			in := parser.MustParse(src)
			orig := in.Clone()
			_ = p.Apply(in)
			assert.Equal(t, orig, in)
		})
	}
}

func TestPassesAreIdempotentAndBalanced(t *testing.T) {
	gen := testutil.NewProgramGenerator(2024)
	for i := 0; i < 100; i++ {
		src := gen.Program()
		ast := parser.MustParse(src)
		for _, p := range Pipeline {
			once := p.Apply(ast)
			assert.NoError(t, ir.Validate(once), "%s on %q", p.Name, src)
			assert.Equal(t, once, p.Apply(once), "%s on %q", p.Name, src)
		}
	}
}
