package varmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsContiguousSlices(t *testing.T) {
	vm := New()
	b := vm.Add("b", 2, 3, 5)
	d := vm.Add("d", 2, 4)
	e := vm.Add("e", 4)

	assert.Equal(t, 0, b.Start)
	assert.Equal(t, 30, b.Size)
	assert.Equal(t, 30, d.Start)
	assert.Equal(t, 8, d.Size)
	assert.Equal(t, 38, e.Start)
	assert.Equal(t, 42, vm.NVars())
	assert.Equal(t, 30, vm.NBals())
}

func TestIdxRowMajor(t *testing.T) {
	vm := New()
	b := vm.Add("b", 2, 3, 5)

	assert.Equal(t, 0, b.Idx(0, 0, 0))
	assert.Equal(t, 1, b.Idx(0, 0, 1))
	assert.Equal(t, 5, b.Idx(0, 1, 0))
	assert.Equal(t, 15, b.Idx(1, 0, 0))
	assert.Equal(t, 29, b.Idx(1, 2, 4))

	vm.Add("w", 7)
	w := vm.Get("w")
	assert.Equal(t, 30, w.Idx(0))
	assert.Equal(t, 36, w.Idx(6))
}

func TestIdxRankMismatchPanics(t *testing.T) {
	vm := New()
	b := vm.Add("b", 2, 3)
	assert.Panics(t, func() { b.Idx(1) })
	assert.Panics(t, func() { b.Idx(1, 2, 3) })
}

func TestExtractMatchesIdx(t *testing.T) {
	vm := New()
	vm.Add("pad", 4)
	b := vm.Add("b", 2, 3)

	x := make([]float64, vm.NVars())
	for i := range x {
		x[i] = float64(i)
	}

	got := b.Extract(x)
	require.Len(t, got, 6)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, x[b.Idx(i, j)], got[3*i+j])
			assert.Equal(t, x[b.Idx(i, j)], b.At(x, i, j))
		}
	}
}

func TestAddIfSkipsWithoutAdvancingCursor(t *testing.T) {
	vm := New()
	vm.Add("a", 3)
	skipped := vm.AddIf(false, "h", 5, 6)
	added := vm.AddIf(true, "m", 2)

	assert.Nil(t, skipped)
	assert.False(t, vm.Has("h"))
	require.NotNil(t, added)
	assert.Equal(t, 3, added.Start)
	assert.Equal(t, 5, vm.NVars())
}

func TestBinaryBoundary(t *testing.T) {
	vm := New()
	vm.Add("b", 2, 2)
	vm.Add("w", 3)
	vm.MarkBinaryStart()
	vm.Add("zx", 3, 2)
	vm.Add("zm", 4)

	assert.Equal(t, 17, vm.NVars())
	assert.Equal(t, 7, vm.NConts())
	assert.Equal(t, 10, vm.NBins())
}

func TestNoBinaryMarkerMeansAllContinuous(t *testing.T) {
	vm := New()
	vm.Add("b", 5)
	assert.Equal(t, 5, vm.NConts())
	assert.Equal(t, 0, vm.NBins())
}

func TestGetUnknownPanics(t *testing.T) {
	vm := New()
	assert.Panics(t, func() { vm.Get("zz") })
}

func TestNamesDeclarationOrder(t *testing.T) {
	vm := New()
	vm.Add("b", 1)
	vm.Add("d", 1)
	vm.Add("e", 1)
	assert.Equal(t, []string{"b", "d", "e"}, vm.Names())
}
