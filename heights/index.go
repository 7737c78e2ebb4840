// Package heights maps list item indices to vertical positions and back. It
// supports one fixed height for every item or a per-item height supplied by a
// delegate, and patches its bookkeeping incrementally as items are added,
// removed, updated, or moved.
package heights

import (
	"log/slog"
	"math"
	"slices"
	"sort"
)

// Source exposes the items of a list.
type Source interface {
	// DataCount returns the current number of items.
	DataCount() int
	// DataAt returns the item at index. The value is passed unchanged to the
	// delegate.
	DataAt(index int) any
}

// Delegate measures items.
type Delegate interface {
	// HasVariableItemHeight reports whether items may differ in height. It is
	// consulted on every Reload.
	HasVariableItemHeight() bool
	// EstimateItemHeight returns the height of the item at index. It must
	// depend only on its arguments; results are cached until the item is
	// reported as updated or the index is reloaded.
	EstimateItemHeight(index int, data any) float64
}

// Option configures an Index.
type Option func(*Index)

// WithSpacing adds a fixed gap after every item.
func WithSpacing(spacing float64) Option {
	return func(x *Index) {
		x.spacing = max(spacing, 0)
	}
}

// WithDefaultHeight sets the fixed height used when there is no item to
// measure or no delegate.
func WithDefaultHeight(height float64) Option {
	return func(x *Index) {
		x.defaultHeight = max(height, 0)
	}
}

// WithLogger sets the logger used to report contract violations.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Index) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// Index tracks item positions. In fixed mode it stores a single height; in
// variable mode it stores count+1 cumulative start positions, the last one
// being the total height.
//
// An Index must be loaded with Reload before the incremental methods are
// used. It is not safe for concurrent use.
type Index struct {
	source   Source
	delegate Delegate

	spacing       float64
	defaultHeight float64
	logger        *slog.Logger

	loaded   bool
	variable bool
	count    int

	// Fixed mode.
	height float64
	// Variable mode.
	positions []float64
}

// New returns an unloaded index over source measured by delegate. A nil
// delegate puts the index in fixed mode with the default height.
func New(source Source, delegate Delegate, options ...Option) *Index {
	x := &Index{
		source:        source,
		delegate:      delegate,
		defaultHeight: 1,
		logger:        slog.Default(),
	}
	for _, option := range options {
		option(x)
	}
	return x
}

// Spacing returns the gap added after every item.
func (x *Index) Spacing() float64 {
	return x.spacing
}

// SetSpacing changes the gap after every item. The index must be reloaded
// for the change to take effect.
func (x *Index) SetSpacing(spacing float64) {
	x.spacing = max(spacing, 0)
}

// Count returns the number of items known to the index.
func (x *Index) Count() int {
	return x.count
}

// HasVariableHeights reports whether the index is in variable mode.
func (x *Index) HasVariableHeights() bool {
	return x.variable
}

// Loaded reports whether Reload has run.
func (x *Index) Loaded() bool {
	return x.loaded
}

// Positions returns a copy of the cumulative start positions in variable
// mode, and nil in fixed mode.
func (x *Index) Positions() []float64 {
	if !x.variable {
		return nil
	}
	return slices.Clone(x.positions)
}

// Reload discards all cached heights and measures the source again.
func (x *Index) Reload() {
	x.loaded = true
	x.count = 0
	if x.source != nil {
		x.count = max(x.source.DataCount(), 0)
	}
	x.variable = x.delegate != nil && x.delegate.HasVariableItemHeight()

	if !x.variable {
		x.positions = nil
		x.measureFixed()
		return
	}

	x.positions = slices.Grow(x.positions[:0], x.count+1)
	x.positions = x.positions[:x.count+1]
	x.positions[0] = 0
	x.fill(0, x.count)
}

// OnDataAdded accounts for count items inserted at index. It returns false
// and leaves the index untouched when the arguments do not fit the current
// item count.
func (x *Index) OnDataAdded(index, count int) bool {
	if !x.check("added", index, count) {
		return false
	}
	if index > x.count {
		x.violation("added", index, count)
		return false
	}
	if count == 0 {
		return true
	}

	x.count += count
	if !x.variable {
		// A new first item determines the fixed height.
		if index == 0 {
			x.measureFixed()
		}
		return true
	}

	x.positions = slices.Insert(x.positions, index+1, make([]float64, count)...)
	x.fill(index, count)
	x.shift(index+count+1, x.positions[index+count]-x.positions[index])
	return true
}

// OnDataRemoved accounts for count items removed at index.
func (x *Index) OnDataRemoved(index, count int) bool {
	if !x.check("removed", index, count) {
		return false
	}
	if index >= x.count || count > x.count-index {
		x.violation("removed", index, count)
		return false
	}
	if count == 0 {
		return true
	}

	x.count -= count
	if !x.variable {
		if index == 0 {
			x.measureFixed()
		}
		return true
	}

	decrease := x.positions[index+count] - x.positions[index]
	x.positions = slices.Delete(x.positions, index+1, index+count+1)
	x.shift(index+1, -decrease)
	return true
}

// OnDataUpdated measures the count items at index again.
func (x *Index) OnDataUpdated(index, count int) bool {
	if !x.check("updated", index, count) {
		return false
	}
	if index >= x.count || count > x.count-index {
		x.violation("updated", index, count)
		return false
	}
	if count == 0 {
		return true
	}

	if !x.variable {
		if index == 0 {
			x.measureFixed()
		}
		return true
	}

	old := x.positions[index+count]
	x.fill(index, count)
	x.shift(index+count+1, x.positions[index+count]-old)
	return true
}

// OnDataMoved accounts for the item at from moving to to. Every item between
// the two indices, inclusive, is measured again.
func (x *Index) OnDataMoved(from, to int) bool {
	if !x.check("moved", from, 1) {
		return false
	}
	if from >= x.count || to < 0 || to >= x.count {
		x.logger.Error("heights: index out of range", "op", "moved", "from", from, "to", to, "items", x.count)
		return false
	}
	lo, hi := min(from, to), max(from, to)
	return x.OnDataUpdated(lo, hi-lo+1)
}

// ItemPositionAndHeight returns where the item at index starts and how tall
// it is, excluding spacing. Indices outside the index yield zeros.
func (x *Index) ItemPositionAndHeight(index int) (position, height float64) {
	if index < 0 || index >= x.count {
		return 0, 0
	}
	if !x.variable {
		return float64(index) * (x.height + x.spacing), x.height
	}
	position = x.positions[index]
	return position, x.positions[index+1] - position - x.spacing
}

// ItemIndexAndCount returns the items overlapping [begin, end). A query with
// begin equal to end returns the single item under that point. Inverted
// queries, NaN bounds and queries outside the total height return (0, 0).
func (x *Index) ItemIndexAndCount(begin, end float64) (index, count int) {
	if math.IsNaN(begin) || math.IsNaN(end) || begin > end || x.count == 0 {
		return 0, 0
	}
	begin = max(begin, 0)
	end = max(end, begin)
	total := x.TotalHeight()
	if begin >= total {
		return 0, 0
	}

	if !x.variable {
		stride := x.height + x.spacing
		if stride <= 0 {
			return 0, x.count
		}
		index = min(int(math.Floor(begin/stride)), x.count-1)
		last := index
		if end > begin {
			last = min(int(math.Ceil(end/stride))-1, x.count-1)
		}
		return index, max(last-index+1, 1)
	}

	// The last item starting at or before begin.
	index = sort.Search(len(x.positions), func(i int) bool {
		return x.positions[i] > begin
	}) - 1
	index = min(max(index, 0), x.count-1)
	last := index
	if end > begin {
		// The last item starting before end.
		last = sort.Search(len(x.positions), func(i int) bool {
			return x.positions[i] >= end
		}) - 1
		last = min(max(last, index), x.count-1)
	}
	return index, last - index + 1
}

// TotalHeight returns the height of all items including spacing.
func (x *Index) TotalHeight() float64 {
	if !x.variable {
		return float64(x.count) * (x.height + x.spacing)
	}
	if len(x.positions) == 0 {
		return 0
	}
	return x.positions[len(x.positions)-1]
}

// measureFixed sets the fixed height from the first item, falling back to the
// default height.
func (x *Index) measureFixed() {
	x.height = x.defaultHeight
	if x.delegate != nil && x.source != nil && x.count > 0 {
		x.height = max(x.delegate.EstimateItemHeight(0, x.source.DataAt(0)), 0)
	}
}

// fill recomputes positions[index+1 .. index+count] from positions[index].
func (x *Index) fill(index, count int) {
	for i := index; i < index+count; i++ {
		x.positions[i+1] = x.positions[i] + x.measure(i) + x.spacing
	}
}

func (x *Index) measure(index int) float64 {
	if x.delegate == nil || x.source == nil {
		return x.defaultHeight
	}
	return max(x.delegate.EstimateItemHeight(index, x.source.DataAt(index)), 0)
}

// shift adds delta to every position from start on.
func (x *Index) shift(start int, delta float64) {
	if delta == 0 {
		return
	}
	for i := start; i < len(x.positions); i++ {
		x.positions[i] += delta
	}
}

// check validates the arguments shared by every incremental update.
func (x *Index) check(op string, index, count int) bool {
	if !x.loaded {
		x.logger.Error("heights: update before reload", "op", op, "index", index, "count", count)
		return false
	}
	if index < 0 || count < 0 {
		x.violation(op, index, count)
		return false
	}
	return true
}

func (x *Index) violation(op string, index, count int) {
	x.logger.Error("heights: index out of range", "op", op, "index", index, "count", count, "items", x.count)
}
