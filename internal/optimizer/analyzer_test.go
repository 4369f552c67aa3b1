package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brutalist/internal/ir"
)

func TestAnalyzeLoop(t *testing.T) {
	tests := []struct {
		name string
		body ir.Ast
		want ir.Ast
		ok   bool
	}{
		{
			name: "copy",
			body: ir.Ast{ir.Sub(1), ir.Shift(ir.Right, 2), ir.Add(1), ir.Shift(ir.Left, 2)},
			want: ir.Ast{ir.Copy(ir.Right, 2), ir.Clear()},
			ok:   true,
		},
		{
			name: "multiply",
			body: ir.Ast{ir.Shift(ir.Right, 1), ir.Add(10), ir.Shift(ir.Left, 1), ir.Sub(1)},
			want: ir.Ast{ir.Mul(ir.Right, 1, 10), ir.Clear()},
			ok:   true,
		},
		{
			name: "subtracting multiply",
			body: ir.Ast{ir.Sub(1), ir.Shift(ir.Left, 3), ir.Sub(2), ir.Shift(ir.Right, 3)},
			want: ir.Ast{ir.Mul(ir.Left, 3, -2), ir.Clear()},
			ok:   true,
		},
		{
			name: "minus one becomes mul",
			body: ir.Ast{ir.Sub(1), ir.Shift(ir.Right, 1), ir.Sub(1), ir.Shift(ir.Left, 1)},
			want: ir.Ast{ir.Mul(ir.Right, 1, -1), ir.Clear()},
			ok:   true,
		},
		{
			name: "several targets in ascending offset order",
			body: ir.Ast{
				ir.Sub(1),
				ir.Shift(ir.Right, 2), ir.Add(5),
				ir.Shift(ir.Left, 3), ir.Add(1),
				ir.Shift(ir.Right, 2), ir.Add(2),
				ir.Shift(ir.Left, 1),
			},
			want: ir.Ast{ir.Copy(ir.Left, 1), ir.Mul(ir.Right, 1, 2), ir.Mul(ir.Right, 2, 5), ir.Clear()},
			ok:   true,
		},
		{
			name: "uncontracted body",
			body: ir.Ast{ir.Sub(1), ir.Shift(ir.Right, 1), ir.Add(1), ir.Add(1), ir.Shift(ir.Right, 1), ir.Shift(ir.Left, 2)},
			want: ir.Ast{ir.Mul(ir.Right, 1, 2), ir.Clear()},
			ok:   true,
		},
		{
			name: "cancelled target is dropped",
			body: ir.Ast{ir.Sub(1), ir.Shift(ir.Right, 1), ir.Add(3), ir.Sub(3), ir.Shift(ir.Left, 1)},
			want: ir.Ast{ir.Clear()},
			ok:   true,
		},
		{
			name: "plain clear",
			body: ir.Ast{ir.Sub(1)},
			want: ir.Ast{ir.Clear()},
			ok:   true,
		},
		{
			name: "pointer drifts",
			body: ir.Ast{ir.Sub(1), ir.Shift(ir.Right, 1), ir.Add(1)},
		},
		{
			name: "control cell steps by two",
			body: ir.Ast{ir.Sub(2), ir.Shift(ir.Right, 1), ir.Add(1), ir.Shift(ir.Left, 1)},
		},
		{
			name: "control cell counts up",
			body: ir.Ast{ir.Add(1), ir.Shift(ir.Right, 1), ir.Add(1), ir.Shift(ir.Left, 1)},
		},
		{
			name: "contains io",
			body: ir.Ast{ir.Sub(1), ir.Write()},
		},
		{
			name: "contains nested loop",
			body: ir.Ast{ir.Sub(1), ir.Open(), ir.Close()},
		},
		{
			name: "empty body",
			body: ir.Ast{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AnalyzeLoop(tt.body)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestAnalyzeLoopLeavesBodyUntouched(t *testing.T) {
	body := ir.Ast{ir.Sub(1), ir.Shift(ir.Right, 1), ir.Add(4), ir.Shift(ir.Left, 1)}
	orig := body.Clone()
	_, ok := AnalyzeLoop(body)
	require.True(t, ok)
	assert.Equal(t, orig, body)
}
