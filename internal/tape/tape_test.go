package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brutalist/internal/ir"
)

func TestNewTapeIsZeroed(t *testing.T) {
	tp := New()
	assert.Equal(t, 0, tp.Pointer())
	assert.Equal(t, uint8(0), tp.Get())
	assert.Equal(t, make([]uint8, 8), tp.Window(0, 8))
}

func TestCellArithmeticWraps(t *testing.T) {
	tp := New()

	tp.Set(255)
	tp.Add(1)
	assert.Equal(t, uint8(0), tp.Get(), "255 + 1 wraps to 0")

	tp.Sub(1)
	assert.Equal(t, uint8(255), tp.Get(), "0 - 1 wraps to 255")

	tp.Clear()
	tp.Add(200)
	tp.Add(100)
	assert.Equal(t, uint8(44), tp.Get())
}

func TestShift(t *testing.T) {
	tp := New()
	require.NoError(t, tp.Shift(ir.Right, 10))
	assert.Equal(t, 10, tp.Pointer())
	require.NoError(t, tp.Shift(ir.Left, 3))
	assert.Equal(t, 7, tp.Pointer())
	require.NoError(t, tp.Shift(ir.Right, Size-1-7))
	assert.Equal(t, Size-1, tp.Pointer())
}

func TestShiftOutOfBounds(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		dir    ir.Dir
		steps  int
		target int
	}{
		{"left of zero", 0, ir.Left, 1, -1},
		{"far left", 5, ir.Left, 6, -1},
		{"past end", Size - 1, ir.Right, 1, Size},
		{"far right", 0, ir.Right, Size + 10, Size + 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := New()
			require.NoError(t, tp.Shift(ir.Right, tt.start))

			err := tp.Shift(tt.dir, tt.steps)
			var oob *OutOfBoundsError
			require.ErrorAs(t, err, &oob)
			assert.Equal(t, tt.start, oob.Pointer)
			assert.Equal(t, tt.target, oob.Target)
			assert.Equal(t, tt.start, tp.Pointer(), "pointer unchanged on failure")
		})
	}
}

func TestScan(t *testing.T) {
	tp := New()
	for i := 0; i < 5; i++ {
		tp.Set(1)
		require.NoError(t, tp.Shift(ir.Right, 1))
	}
	// cells 0..4 hold 1, pointer at 5 (zero)
	require.NoError(t, tp.Shift(ir.Left, 3))
	require.NoError(t, tp.Scan(ir.Right))
	assert.Equal(t, 5, tp.Pointer())

	require.NoError(t, tp.Scan(ir.Right), "scan on a zero cell does not move")
	assert.Equal(t, 5, tp.Pointer())

	require.NoError(t, tp.Shift(ir.Left, 1))
	err := tp.Scan(ir.Left)
	var oob *OutOfBoundsError
	require.ErrorAs(t, err, &oob, "no zero cell to the left of cell 4")
	assert.Equal(t, -1, oob.Target)
	assert.Equal(t, 4, tp.Pointer())
}

func TestScanRightOffTheEnd(t *testing.T) {
	tp := New()
	require.NoError(t, tp.Shift(ir.Right, Size-2))
	tp.Set(1)
	require.NoError(t, tp.Shift(ir.Right, 1))
	tp.Set(1)
	require.NoError(t, tp.Shift(ir.Left, 1))

	err := tp.Scan(ir.Right)
	var oob *OutOfBoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, Size, oob.Target)
}

func TestMulAdd(t *testing.T) {
	tp := New()
	tp.Set(6)
	require.NoError(t, tp.MulAdd(ir.Right, 1, 10))
	require.NoError(t, tp.MulAdd(ir.Right, 2, 1))
	require.NoError(t, tp.MulAdd(ir.Right, 3, -2))

	cells := tp.Window(0, 4)
	assert.Equal(t, []uint8{6, 60, 6, 244}, cells)

	tp.Set(100)
	require.NoError(t, tp.MulAdd(ir.Right, 1, 3))
	got, err := tp.Cell(1)
	require.NoError(t, err)
	assert.Equal(t, uint8((60+300)%256), got)
}

func TestMulAddZeroCellIsNoop(t *testing.T) {
	tp := New()
	require.NoError(t, tp.MulAdd(ir.Left, 5, 3), "zero cell skips the bounds check")

	tp.Set(1)
	err := tp.MulAdd(ir.Left, 5, 3)
	var oob *OutOfBoundsError
	assert.ErrorAs(t, err, &oob)
}

func TestWindow(t *testing.T) {
	tp := New()
	require.NoError(t, tp.Shift(ir.Right, 3))
	tp.Set(9)

	assert.Equal(t, []uint8{0, 0, 0, 9}, tp.Window(-5, 4))
	assert.Equal(t, []uint8{}, tp.Window(10, 10))

	_, err := tp.Cell(Size)
	assert.Error(t, err)
}
