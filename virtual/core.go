package virtual

import (
	"log/slog"
	"math"

	"github.com/xqrs/vlist/heights"
	"github.com/xqrs/vlist/ranges"
)

// maxRefreshPasses bounds the coalesced reloads run after one data event.
const maxRefreshPasses = 8

// Option configures a Core.
type Option func(*Core)

// WithSpacing sets the gap after every item.
func WithSpacing(spacing float64) Option {
	return func(c *Core) {
		c.spacing = max(spacing, 0)
	}
}

// WithDefaultHeight sets the item height used when no delegate is set.
func WithDefaultHeight(height float64) Option {
	return func(c *Core) {
		c.defaultHeight = max(height, 0)
	}
}

// WithLogger sets the logger used to report contract violations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Core binds a data source, a delegate, and an item container to a viewport.
// It keeps item heights, the visible range, the scroll offset, the focused
// item, and the selection consistent while the data changes.
//
// Collaborators are optional. A missing data source makes the list empty and
// its events are ignored; a missing delegate means fixed default heights; a
// missing container means nothing is materialized.
type Core struct {
	source    DataSource
	delegate  Delegate
	container ItemContainer
	cancel    func()

	heights       *heights.Index
	spacing       float64
	defaultHeight float64
	logger        *slog.Logger

	viewport float64
	offset   float64
	step     float64
	trackEnd bool
	extent   Extent

	visibleIndex int
	visibleCount int

	focus       int
	multiSelect bool
	selection   *ranges.Store[struct{}]

	// Guards against data events raised while one is being handled.
	handlingEvent bool
	// Set when such an event arrived; a retain-state reload follows.
	refreshAfterEvent bool

	extentChanged    func(extent Extent)
	focusChanged     func(index int)
	selectionChanged func()
}

// NewCore returns a core without collaborators.
func NewCore(options ...Option) *Core {
	c := &Core{
		defaultHeight: 1,
		logger:        slog.Default(),
		focus:         -1,
		selection:     ranges.New[struct{}](),
	}
	for _, option := range options {
		option(c)
	}
	c.rebuildIndex()
	c.heights.Reload()
	return c
}

// SetDataSource binds the core to source and reloads. A nil source unbinds.
func (c *Core) SetDataSource(source DataSource) *Core {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.source = source
	if source != nil {
		c.cancel = source.Observe(c)
	}
	c.rebuildIndex()
	c.Reload()
	return c
}

// DataSource returns the bound data source.
func (c *Core) DataSource() DataSource {
	return c.source
}

// SetDelegate sets the delegate measuring items and reloads.
func (c *Core) SetDelegate(delegate Delegate) *Core {
	c.delegate = delegate
	c.rebuildIndex()
	c.Reload()
	return c
}

// SetItemContainer sets the container materializing rows and reloads.
func (c *Core) SetItemContainer(container ItemContainer) *Core {
	c.container = container
	c.Reload()
	return c
}

// SetSpacing sets the gap after every item and reloads heights, keeping focus
// and selection.
func (c *Core) SetSpacing(spacing float64) *Core {
	spacing = max(spacing, 0)
	if spacing != c.spacing {
		c.spacing = spacing
		c.heights.SetSpacing(spacing)
		c.RefreshHeights()
	}
	return c
}

// SetTrackEnd keeps the viewport at the end of the content when it was there
// before the content grew or shrank.
func (c *Core) SetTrackEnd(track bool) *Core {
	c.trackEnd = track
	return c
}

// SetMultiSelect allows more than one selected item. Switching it off keeps
// only the first selected item.
func (c *Core) SetMultiSelect(multi bool) *Core {
	c.multiSelect = multi
	if !multi && (c.selection.Len() > 1 || c.SelectedCount() > 1) {
		first := c.selection.Items()[0].Index
		c.selection.Clear()
		c.selection.Add(ranges.Range{Index: first, Length: 1}, struct{}{})
		c.notifySelection()
	}
	return c
}

// SetExtentFunc sets a handler called whenever the content height, viewport
// height, scroll offset, or scroll step changes.
func (c *Core) SetExtentFunc(handler func(extent Extent)) *Core {
	c.extentChanged = handler
	return c
}

// SetFocusChangedFunc sets a handler called when the focused index changes.
func (c *Core) SetFocusChangedFunc(handler func(index int)) *Core {
	c.focusChanged = handler
	return c
}

// SetSelectionChangedFunc sets a handler called when the selection changes.
func (c *Core) SetSelectionChangedFunc(handler func()) *Core {
	c.selectionChanged = handler
	return c
}

// Reload drops all rows, focus, and selection and measures every item again.
func (c *Core) Reload() {
	if c.handlingEvent {
		c.refreshAfterEvent = true
		return
	}
	c.reload(false)
}

// RefreshHeights measures every item again, keeping focus and selection. Use
// it when item heights change for reasons other than data events, such as a
// new width.
func (c *Core) RefreshHeights() {
	if c.handlingEvent {
		c.refreshAfterEvent = true
		return
	}
	c.reload(true)
}

// Count returns the number of items.
func (c *Core) Count() int {
	return c.heights.Count()
}

// TotalHeight returns the height of all items.
func (c *Core) TotalHeight() float64 {
	return c.heights.TotalHeight()
}

// HasVariableHeights reports whether items are measured one by one.
func (c *Core) HasVariableHeights() bool {
	return c.heights.HasVariableHeights()
}

// ItemPositionAndHeight returns where the item at index starts and its height.
func (c *Core) ItemPositionAndHeight(index int) (position, height float64) {
	return c.heights.ItemPositionAndHeight(index)
}

// ItemIndexAndCount returns the items overlapping [begin, end).
func (c *Core) ItemIndexAndCount(begin, end float64) (index, count int) {
	return c.heights.ItemIndexAndCount(begin, end)
}

// ItemAtPosition returns the index of the item at content position y, or -1.
func (c *Core) ItemAtPosition(y float64) int {
	if y < 0 || y >= c.heights.TotalHeight() {
		return -1
	}
	index, count := c.heights.ItemIndexAndCount(y, y)
	if count == 0 {
		return -1
	}
	return index
}

// VisibleRange returns the materialized items.
func (c *Core) VisibleRange() (index, count int) {
	return c.visibleIndex, c.visibleCount
}

// Extent returns the current scroll extent.
func (c *Core) Extent() Extent {
	return c.extent
}

// ScrollOffset returns the scroll position.
func (c *Core) ScrollOffset() float64 {
	return c.offset
}

// SetViewport sets the visible height.
func (c *Core) SetViewport(height float64) {
	height = max(height, 0)
	if height == c.viewport {
		return
	}
	stick := c.pinnedToEnd()
	c.viewport = height
	c.adjustContentHeight(stick)
	c.updateVisibleRange(false)
}

// ScrollTo moves the viewport to offset, clamped to the content.
func (c *Core) ScrollTo(offset float64) {
	if math.IsNaN(offset) {
		return
	}
	c.offset = offset
	c.adjustContentHeight(false)
	c.updateVisibleRange(false)
}

// ScrollBy moves the viewport by delta.
func (c *Core) ScrollBy(delta float64) {
	c.ScrollTo(c.offset + delta)
}

// ScrollToStart moves the viewport to the first item.
func (c *Core) ScrollToStart() {
	c.ScrollTo(0)
}

// ScrollToEnd moves the viewport to the last item.
func (c *Core) ScrollToEnd() {
	c.ScrollTo(c.extent.MaxOffset())
}

// ScrollToItem scrolls the least amount needed to show the item at index.
// Items taller than the viewport are aligned to the top.
func (c *Core) ScrollToItem(index int) {
	if index < 0 || index >= c.heights.Count() {
		return
	}
	position, height := c.heights.ItemPositionAndHeight(index)
	switch {
	case position < c.offset || height > c.viewport:
		c.ScrollTo(position)
	case position+height > c.offset+c.viewport:
		c.ScrollTo(position + height - c.viewport)
	}
}

// Focus returns the focused index, or -1.
func (c *Core) Focus() int {
	return c.focus
}

// SetFocus focuses the item at index; -1 clears the focus.
func (c *Core) SetFocus(index int) {
	if index < -1 || index >= c.heights.Count() {
		c.logger.Error("virtual: focus out of range", "index", index, "items", c.heights.Count())
		return
	}
	c.setFocus(index)
}

// MoveFocus moves the focus by delta items, clamped to the list, and scrolls
// it into view. Without focus, moving forward starts at the first item and
// moving back at the last. It reports whether the focus changed.
func (c *Core) MoveFocus(delta int) bool {
	count := c.heights.Count()
	if count == 0 || delta == 0 {
		return false
	}
	target := c.focus + delta
	if c.focus < 0 {
		target = 0
		if delta < 0 {
			target = count - 1
		}
	}
	target = min(max(target, 0), count-1)
	if target == c.focus {
		return false
	}
	c.setFocus(target)
	c.ScrollToItem(target)
	return true
}

// IsSelected reports whether the item at index is selected.
func (c *Core) IsSelected(index int) bool {
	_, ok := c.selection.Find(index)
	return ok
}

// Select selects the item at index. Without multi-select, it replaces the
// current selection.
func (c *Core) Select(index int) {
	c.SelectRange(index, 1)
}

// SelectRange selects count items starting at index. Without multi-select,
// only the item at index is selected.
func (c *Core) SelectRange(index, count int) {
	items := c.heights.Count()
	if index < 0 || count < 0 || index >= items || count > items-index {
		c.logger.Error("virtual: selection out of range", "index", index, "count", count, "items", items)
		return
	}
	if count == 0 {
		return
	}
	if !c.multiSelect {
		c.selection.Clear()
		count = 1
	}
	c.selection.Add(ranges.Range{Index: index, Length: count}, struct{}{})
	c.notifySelection()
}

// Deselect deselects the item at index.
func (c *Core) Deselect(index int) {
	if !c.IsSelected(index) {
		return
	}
	c.selection.Remove(ranges.Range{Index: index, Length: 1})
	c.notifySelection()
}

// ToggleSelected flips the selection of the item at index.
func (c *Core) ToggleSelected(index int) {
	if c.IsSelected(index) {
		c.Deselect(index)
		return
	}
	c.Select(index)
}

// ClearSelection deselects every item.
func (c *Core) ClearSelection() {
	if c.selection.Len() == 0 {
		return
	}
	c.selection.Clear()
	c.notifySelection()
}

// SelectedRanges returns the selected indices as ascending ranges.
func (c *Core) SelectedRanges() []ranges.Range {
	out := make([]ranges.Range, 0, c.selection.Len())
	for item := range c.selection.All() {
		out = append(out, item.Range)
	}
	return out
}

// Selected returns the selected indices in ascending order.
func (c *Core) Selected() []int {
	out := make([]int, 0, c.SelectedCount())
	for item := range c.selection.All() {
		for i := item.Index; i < item.End(); i++ {
			out = append(out, i)
		}
	}
	return out
}

// SelectedCount returns the number of selected items.
func (c *Core) SelectedCount() int {
	n := 0
	for item := range c.selection.All() {
		n += item.Length
	}
	return n
}

// DataAdded handles count items inserted at index.
func (c *Core) DataAdded(index, count int) {
	if c.source == nil || !c.heights.OnDataAdded(index, count) || count == 0 {
		return
	}
	c.handleDataEvent(func() {
		if c.container != nil {
			c.container.ItemsInserted(index, count)
		}
		if c.focus >= index {
			c.setFocus(c.focus + count)
		}
		if c.selection.Len() > 0 {
			c.selection.InsertSpan(ranges.Range{Index: index, Length: count})
			c.notifySelection()
		}
	})
}

// DataRemoved handles count items removed at index.
func (c *Core) DataRemoved(index, count int) {
	if c.source == nil || !c.heights.OnDataRemoved(index, count) || count == 0 {
		return
	}
	c.handleDataEvent(func() {
		if c.container != nil {
			c.container.ItemsRemoved(index, count)
		}
		switch {
		case c.focus >= index+count:
			c.setFocus(c.focus - count)
		case c.focus >= index:
			// The focused item is gone; focus its nearest survivor.
			c.setFocus(min(index, c.heights.Count()-1))
		}
		removed := ranges.Range{Index: index, Length: count}
		if c.selection.Len() > 0 {
			c.selection.EraseSpan(removed)
			c.notifySelection()
		}
	})
}

// DataUpdated handles count items replaced at index.
func (c *Core) DataUpdated(index, count int) {
	if c.source == nil || !c.heights.OnDataUpdated(index, count) || count == 0 {
		return
	}
	c.handleDataEvent(func() {
		if c.container != nil {
			c.container.ItemsUpdated(index, count)
		}
	})
}

// DataMoved handles the item at from moving to to.
func (c *Core) DataMoved(from, to int) {
	if c.source == nil || !c.heights.OnDataMoved(from, to) || from == to {
		return
	}
	c.handleDataEvent(func() {
		if c.container != nil {
			c.container.ItemMoved(from, to)
		}
		switch {
		case c.focus == from:
			c.setFocus(to)
		case from < c.focus && c.focus <= to:
			c.setFocus(c.focus - 1)
		case to <= c.focus && c.focus < from:
			c.setFocus(c.focus + 1)
		}
		if c.selection.Len() > 0 {
			_, selected := c.selection.Find(from)
			c.selection.EraseSpan(ranges.Range{Index: from, Length: 1})
			c.selection.InsertSpan(ranges.Range{Index: to, Length: 1})
			if selected {
				c.selection.Add(ranges.Range{Index: to, Length: 1}, struct{}{})
			}
			c.notifySelection()
		}
	})
}

// handleDataEvent runs apply for the outermost data event only. Events raised
// while apply runs have already patched the heights; they are folded into a
// single reload that keeps focus and selection.
func (c *Core) handleDataEvent(apply func()) {
	if c.handlingEvent {
		c.refreshAfterEvent = true
		return
	}
	c.handlingEvent = true
	defer func() {
		c.handlingEvent = false
	}()

	stick := c.pinnedToEnd()
	c.updateStep()
	c.adjustContentHeight(stick)
	apply()
	c.updateVisibleRange(true)

	for pass := 0; c.refreshAfterEvent; pass++ {
		c.refreshAfterEvent = false
		if pass == maxRefreshPasses {
			c.logger.Warn("virtual: data events keep arriving during refresh", "passes", pass)
			break
		}
		c.reload(true)
	}
}

func (c *Core) reload(retainState bool) {
	stick := c.pinnedToEnd()
	if c.container != nil {
		c.container.Reset()
	}

	c.heights.Reload()
	count := c.heights.Count()

	if !retainState {
		c.setFocus(-1)
		c.ClearSelection()
	} else {
		if c.focus >= count {
			c.setFocus(count - 1)
		}
		if c.selection.Len() > 0 {
			c.selection.Remove(ranges.Range{Index: count, Length: math.MaxInt - count})
			c.notifySelection()
		}
	}

	c.updateStep()
	c.adjustContentHeight(stick)
	c.updateVisibleRange(true)
}

// updateStep derives the scroll step from the fixed item height.
func (c *Core) updateStep() {
	if !c.heights.HasVariableHeights() && c.heights.Count() > 0 {
		_, height := c.heights.ItemPositionAndHeight(0)
		c.step = height + c.spacing
	}
}

// pinnedToEnd reports whether the viewport should stay at the end of the
// content. A viewport that was never sized shows nothing and is not pinned.
func (c *Core) pinnedToEnd() bool {
	return c.trackEnd && c.extent.Viewport > 0 && c.extent.AtEnd()
}

func (c *Core) rebuildIndex() {
	var source heights.Source
	if c.source != nil {
		source = c.source
	}
	c.heights = heights.New(source, c.delegate,
		heights.WithSpacing(c.spacing),
		heights.WithDefaultHeight(c.defaultHeight),
		heights.WithLogger(c.logger),
	)
}

// adjustContentHeight clamps the offset to the current content and publishes
// the extent.
func (c *Core) adjustContentHeight(stickToEnd bool) {
	total := c.heights.TotalHeight()
	maxOffset := max(total-c.viewport, 0)
	if stickToEnd {
		c.offset = maxOffset
	} else {
		c.offset = min(max(c.offset, 0), maxOffset)
	}

	extent := Extent{
		Content:  total,
		Viewport: c.viewport,
		Offset:   c.offset,
		Step:     c.step,
	}
	if extent == c.extent {
		return
	}
	c.extent = extent
	if c.extentChanged != nil {
		c.extentChanged(extent)
	}
}

func (c *Core) updateVisibleRange(force bool) {
	index, count := 0, 0
	if c.viewport > 0 {
		index, count = c.heights.ItemIndexAndCount(c.offset, c.offset+c.viewport)
	}
	if !force && index == c.visibleIndex && count == c.visibleCount {
		return
	}
	c.visibleIndex, c.visibleCount = index, count
	if c.container != nil {
		c.container.SetVisibleRange(index, count)
	}
}

func (c *Core) setFocus(index int) {
	if c.focus == index {
		return
	}
	c.focus = index
	if c.focusChanged != nil {
		c.focusChanged(index)
	}
}

func (c *Core) notifySelection() {
	if c.selectionChanged != nil {
		c.selectionChanged()
	}
}
