package heights

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Randomized test constants.
const (
	modelSeed      = 7
	modelSteps     = 2000
	modelMaxInsert = 5
	modelMaxHeight = 6
	epsilon        = 1e-6
)

// fakeSource is a slice of item heights acting as both source and delegate.
type fakeSource struct {
	heights  []float64
	variable bool
	calls    int
}

func (s *fakeSource) DataCount() int       { return len(s.heights) }
func (s *fakeSource) DataAt(index int) any { return s.heights[index] }

func (s *fakeSource) HasVariableItemHeight() bool { return s.variable }

func (s *fakeSource) EstimateItemHeight(index int, data any) float64 {
	s.calls++
	return data.(float64)
}

func newIndex(src *fakeSource, options ...Option) *Index {
	x := New(src, src, options...)
	x.Reload()
	return x
}

func quietLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestIndex_EmptyFixed(t *testing.T) {
	t.Parallel()

	x := newIndex(&fakeSource{})
	assert.False(t, x.HasVariableHeights())
	assert.Zero(t, x.TotalHeight())

	index, count := x.ItemIndexAndCount(0, 10)
	assert.Equal(t, 0, index)
	assert.Equal(t, 0, count)
}

func TestIndex_FixedAdd(t *testing.T) {
	t.Parallel()

	src := &fakeSource{heights: []float64{10, 10, 10}}
	x := newIndex(src)

	src.heights = slices.Insert(src.heights, 1, 10, 10)
	x.OnDataAdded(1, 2)

	assert.Equal(t, 5, x.Count())
	pos, h := x.ItemPositionAndHeight(4)
	assert.InDelta(t, 40, pos, epsilon)
	assert.InDelta(t, 10, h, epsilon)
	assert.InDelta(t, 50, x.TotalHeight(), epsilon)
	assert.Nil(t, x.Positions())
}

func TestIndex_FixedMeasuresFirstItemOnly(t *testing.T) {
	t.Parallel()

	src := &fakeSource{heights: []float64{3, 9, 9, 9}}
	x := newIndex(src)

	assert.Equal(t, 1, src.calls)
	assert.InDelta(t, 12, x.TotalHeight(), epsilon)

	// Replacing item zero changes the height of every item.
	src.heights[0] = 5
	x.OnDataUpdated(0, 1)
	assert.InDelta(t, 20, x.TotalHeight(), epsilon)

	// Other items are not measured.
	x.OnDataUpdated(2, 2)
	assert.Equal(t, 2, src.calls)
}

func TestIndex_FixedEmptyThenAdd(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	x := New(src, src, WithDefaultHeight(2))
	x.Reload()

	src.heights = []float64{4, 4}
	x.OnDataAdded(0, 2)
	assert.InDelta(t, 8, x.TotalHeight(), epsilon)

	src.heights = nil
	x.OnDataRemoved(0, 2)
	assert.Zero(t, x.TotalHeight())
}

func TestIndex_VariableRemove(t *testing.T) {
	t.Parallel()

	src := &fakeSource{heights: []float64{10, 11, 12}, variable: true}
	x := newIndex(src)
	require.Equal(t, []float64{0, 10, 21, 33}, x.Positions())

	src.heights = slices.Delete(src.heights, 1, 2)
	x.OnDataRemoved(1, 1)

	assert.Equal(t, []float64{0, 10, 22}, x.Positions())
	assert.InDelta(t, 22, x.TotalHeight(), epsilon)
}

func TestIndex_VariableAddUpdateMove(t *testing.T) {
	t.Parallel()

	src := &fakeSource{heights: []float64{1, 2, 3}, variable: true}
	x := newIndex(src)

	src.heights = slices.Insert(src.heights, 1, 5, 6)
	x.OnDataAdded(1, 2)
	assert.Equal(t, []float64{0, 1, 6, 12, 14, 17}, x.Positions())

	src.heights[3] = 4
	x.OnDataUpdated(3, 1)
	assert.Equal(t, []float64{0, 1, 6, 12, 16, 19}, x.Positions())

	// Move item 4 (height 3) to index 0.
	moved := src.heights[4]
	src.heights = slices.Delete(src.heights, 4, 5)
	src.heights = slices.Insert(src.heights, 0, moved)
	x.OnDataMoved(4, 0)
	assert.Equal(t, []float64{0, 3, 4, 9, 15, 19}, x.Positions())
}

func TestIndex_Spacing(t *testing.T) {
	t.Parallel()

	src := &fakeSource{heights: []float64{2, 3}, variable: true}
	x := newIndex(src, WithSpacing(1))
	assert.Equal(t, []float64{0, 3, 7}, x.Positions())

	pos, h := x.ItemPositionAndHeight(1)
	assert.InDelta(t, 3, pos, epsilon)
	assert.InDelta(t, 3, h, epsilon)

	fixed := newIndex(&fakeSource{heights: []float64{2, 2, 2}}, WithSpacing(1))
	pos, h = fixed.ItemPositionAndHeight(2)
	assert.InDelta(t, 6, pos, epsilon)
	assert.InDelta(t, 2, h, epsilon)
	assert.InDelta(t, 9, fixed.TotalHeight(), epsilon)
}

func TestIndex_ItemIndexAndCount(t *testing.T) {
	t.Parallel()

	fixed := newIndex(&fakeSource{heights: []float64{10, 10, 10, 10}})
	variable := newIndex(&fakeSource{heights: []float64{10, 10, 10, 10}, variable: true})

	tests := []struct {
		name       string
		begin, end float64
		index      int
		count      int
	}{
		{name: "whole list", begin: 0, end: 40, index: 0, count: 4},
		{name: "inverted", begin: 20, end: 10, index: 0, count: 0},
		{name: "point inside item", begin: 15, end: 15, index: 1, count: 1},
		{name: "point on boundary", begin: 20, end: 20, index: 2, count: 1},
		{name: "partial items", begin: 5, end: 25, index: 0, count: 3},
		{name: "end on boundary", begin: 10, end: 30, index: 1, count: 2},
		{name: "past the end", begin: 40, end: 50, index: 0, count: 0},
		{name: "clamped end", begin: 35, end: 100, index: 3, count: 1},
		{name: "negative begin", begin: -5, end: 5, index: 0, count: 1},
		{name: "NaN begin", begin: math.NaN(), end: 20, index: 0, count: 0},
		{name: "NaN end", begin: 10, end: math.NaN(), index: 0, count: 0},
		{name: "NaN point", begin: math.NaN(), end: math.NaN(), index: 0, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			index, count := fixed.ItemIndexAndCount(tt.begin, tt.end)
			assert.Equal(t, tt.index, index, "fixed index")
			assert.Equal(t, tt.count, count, "fixed count")

			index, count = variable.ItemIndexAndCount(tt.begin, tt.end)
			assert.Equal(t, tt.index, index, "variable index")
			assert.Equal(t, tt.count, count, "variable count")
		})
	}
}

func TestIndex_ContractViolations(t *testing.T) {
	t.Parallel()

	logger, buf := quietLogger()
	src := &fakeSource{heights: []float64{1, 2, 3}, variable: true}

	x := New(src, src, WithLogger(logger))
	x.OnDataAdded(0, 1)
	assert.Contains(t, buf.String(), "update before reload")
	assert.Zero(t, x.Count())

	x.Reload()
	before := x.Positions()

	x.OnDataAdded(4, 1)
	x.OnDataRemoved(3, 1)
	x.OnDataRemoved(1, 3)
	x.OnDataUpdated(-1, 1)
	x.OnDataMoved(0, 3)
	assert.Equal(t, before, x.Positions())
	assert.Equal(t, 3, x.Count())
	assert.Contains(t, buf.String(), "index out of range")

	// Zero counts are not violations.
	buf.Reset()
	x.OnDataAdded(3, 0)
	x.OnDataRemoved(0, 0)
	assert.Empty(t, buf.String())
}

func TestIndex_NilCollaborators(t *testing.T) {
	t.Parallel()

	x := New(nil, nil, WithDefaultHeight(3))
	x.Reload()
	assert.Zero(t, x.Count())
	assert.Zero(t, x.TotalHeight())

	src := &fakeSource{heights: []float64{7, 7}}
	y := New(src, nil, WithDefaultHeight(3))
	y.Reload()
	assert.False(t, y.HasVariableHeights())
	assert.InDelta(t, 6, y.TotalHeight(), epsilon)
}

// TestIndex_MutationStream drives random mutations through both modes and
// checks monotonic positions, the total height, and position round trips
// against a rebuilt index.
func TestIndex_MutationStream(t *testing.T) {
	t.Parallel()

	for _, variable := range []bool{false, true} {
		rng := rand.New(rand.NewSource(modelSeed))
		src := &fakeSource{heights: []float64{2, 3}, variable: variable}
		if !variable {
			src.heights = []float64{2, 2}
		}
		x := newIndex(src, WithSpacing(0.5))

		height := func() float64 {
			if !variable {
				return 2
			}
			return float64(1 + rng.Intn(modelMaxHeight))
		}

		for step := 0; step < modelSteps; step++ {
			n := len(src.heights)
			switch op := rng.Intn(4); {
			case op == 0 || n == 0:
				index := rng.Intn(n + 1)
				count := 1 + rng.Intn(modelMaxInsert)
				added := make([]float64, count)
				for i := range added {
					added[i] = height()
				}
				src.heights = slices.Insert(src.heights, index, added...)
				x.OnDataAdded(index, count)
			case op == 1:
				index := rng.Intn(n)
				count := 1 + rng.Intn(n-index)
				src.heights = slices.Delete(src.heights, index, index+count)
				x.OnDataRemoved(index, count)
			case op == 2:
				index := rng.Intn(n)
				src.heights[index] = height()
				x.OnDataUpdated(index, 1)
			default:
				from, to := rng.Intn(n), rng.Intn(n)
				moved := src.heights[from]
				src.heights = slices.Delete(src.heights, from, from+1)
				src.heights = slices.Insert(src.heights, to, moved)
				x.OnDataMoved(from, to)
			}

			require.Equal(t, len(src.heights), x.Count())

			rebuilt := newIndex(&fakeSource{heights: slices.Clone(src.heights), variable: variable}, WithSpacing(0.5))
			require.InDelta(t, rebuilt.TotalHeight(), x.TotalHeight(), epsilon, "step %d", step)

			if variable {
				positions := x.Positions()
				require.Len(t, positions, x.Count()+1)
				require.True(t, slices.IsSorted(positions), "step %d", step)
				require.InDelta(t, positions[len(positions)-1], x.TotalHeight(), epsilon)
			} else {
				require.InDelta(t, float64(x.Count())*2.5, x.TotalHeight(), epsilon)
			}

			for i := 0; i < x.Count(); i++ {
				pos, h := x.ItemPositionAndHeight(i)
				wantPos, wantH := rebuilt.ItemPositionAndHeight(i)
				require.InDelta(t, wantPos, pos, epsilon)
				require.InDelta(t, wantH, h, epsilon)

				index, count := x.ItemIndexAndCount(pos, pos+h-epsilon)
				require.LessOrEqual(t, index, i, "step %d item %d", step, i)
				require.Greater(t, index+count, i, "step %d item %d", step, i)
			}
		}
	}
}
