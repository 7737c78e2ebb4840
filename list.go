package vlist

import (
	"math"

	"github.com/gdamore/tcell/v3"
	"github.com/rivo/uniseg"

	"github.com/xqrs/vlist/keybind"
	"github.com/xqrs/vlist/virtual"
)

// ListItem is a row of a List. The list sets its rectangle before every draw
// and tells it whether its item is focused or selected.
type ListItem interface {
	Primitive
	SetItemState(focused, selected bool)
}

// ListDelegate measures list items and builds rows for them.
type ListDelegate interface {
	// HasVariableItemHeight reports whether items may differ in height. When
	// false, every item is as tall as the first.
	HasVariableItemHeight() bool
	// ItemHeight returns the number of rows data needs at width. It must
	// depend only on its arguments.
	ItemHeight(index int, data any, width int) int
	// NewItem builds the row for data.
	NewItem(index int, data any) ListItem
}

// List displays a virtual list. Only rows inside the viewport exist; item
// heights and positions are tracked by a [virtual.Core] so that lists of
// millions of items scroll and mutate cheaply.
//
// Bind a [virtual.DataSource] with SetDataSource. Data events must be raised
// on the event loop goroutine, for example inside Application.QueueUpdateDraw.
type List struct {
	*Box

	core     *virtual.Core
	delegate ListDelegate
	rows     *rowCache

	keys      keybind.ListKeys
	wheelStep int

	scrollBar     *ScrollBar
	showScrollBar bool

	// Width used to measure items; heights are refreshed when it changes.
	itemWidth int

	changed  func(index int)
	selected func(index int)
}

// NewList returns an empty list. Options configure the underlying core.
func NewList(options ...virtual.Option) *List {
	l := &List{
		Box:       NewBox(),
		core:      virtual.NewCore(options...),
		keys:      keybind.DefaultListKeys(),
		wheelStep: 3,
		scrollBar: NewScrollBar(),
	}
	l.rows = &rowCache{list: l, rows: make(map[int]ListItem)}
	l.scrollBar.SetRect(0, 0, 0, 0)

	l.core.SetItemContainer(l.rows)
	l.core.SetExtentFunc(func(extent virtual.Extent) {
		l.scrollBar.SetExtent(extent)
		l.MarkDirty()
	})
	l.core.SetFocusChangedFunc(func(index int) {
		l.MarkDirty()
		if l.changed != nil {
			l.changed(index)
		}
	})
	l.core.SetSelectionChangedFunc(l.MarkDirty)
	l.scrollBar.SetChangedFunc(l.core.ScrollTo)
	return l
}

// Core returns the virtualization core driving the list.
func (l *List) Core() *virtual.Core {
	return l.core
}

// SetDataSource binds the list to source and reloads it.
func (l *List) SetDataSource(source virtual.DataSource) *List {
	l.core.SetDataSource(source)
	l.MarkDirty()
	return l
}

// SetDelegate sets the delegate measuring items and building rows, and
// reloads the list.
func (l *List) SetDelegate(delegate ListDelegate) *List {
	l.delegate = delegate
	if delegate == nil {
		l.core.SetDelegate(nil)
	} else {
		l.core.SetDelegate(listDelegate{list: l})
	}
	l.MarkDirty()
	return l
}

// SetGap sets the number of blank rows after every item.
func (l *List) SetGap(gap int) *List {
	l.core.SetSpacing(float64(max(gap, 0)))
	l.MarkDirty()
	return l
}

// SetTrackEnd keeps following the end of the list while new items arrive, as
// long as the view was at the end before.
func (l *List) SetTrackEnd(track bool) *List {
	l.core.SetTrackEnd(track)
	return l
}

// SetMultiSelect allows selecting more than one item.
func (l *List) SetMultiSelect(multi bool) *List {
	l.core.SetMultiSelect(multi)
	return l
}

// SetScrollBar shows or hides the scroll bar column.
func (l *List) SetScrollBar(show bool) *List {
	if l.showScrollBar != show {
		l.showScrollBar = show
		l.MarkDirty()
	}
	return l
}

// ScrollBar returns the list's scroll bar for styling.
func (l *List) ScrollBar() *ScrollBar {
	return l.scrollBar
}

// SetWheelStep sets the number of rows scrolled per wheel event.
func (l *List) SetWheelStep(rows int) *List {
	l.wheelStep = max(rows, 1)
	l.scrollBar.SetScrollStep(l.wheelStep)
	return l
}

// SetKeys sets the key bindings for navigation.
func (l *List) SetKeys(keys keybind.ListKeys) *List {
	l.keys = keys
	return l
}

// Keys returns the key bindings for navigation.
func (l *List) Keys() keybind.ListKeys {
	return l.keys
}

// SetChangedFunc sets a handler called when the focused item changes.
func (l *List) SetChangedFunc(handler func(index int)) *List {
	l.changed = handler
	return l
}

// SetSelectedFunc sets a handler called when the focused item is activated
// with the select key or a double click.
func (l *List) SetSelectedFunc(handler func(index int)) *List {
	l.selected = handler
	return l
}

// Count returns the number of items.
func (l *List) Count() int {
	return l.core.Count()
}

// Cursor returns the focused item index, or -1.
func (l *List) Cursor() int {
	return l.core.Focus()
}

// SetCursor focuses the item at index and scrolls it into view.
func (l *List) SetCursor(index int) *List {
	l.core.SetFocus(index)
	l.core.ScrollToItem(index)
	return l
}

// Selected returns the selected item indices in ascending order.
func (l *List) Selected() []int {
	return l.core.Selected()
}

// ScrollToStart scrolls to the first item without changing the cursor.
func (l *List) ScrollToStart() *List {
	l.core.ScrollToStart()
	return l
}

// ScrollToEnd scrolls to the last item without changing the cursor.
func (l *List) ScrollToEnd() *List {
	l.core.ScrollToEnd()
	return l
}

// VisibleItems returns the indices of the rows that currently exist.
func (l *List) VisibleItems() (index, count int) {
	return l.core.VisibleRange()
}

// IsDirty returns whether the list or one of its rows needs a redraw.
func (l *List) IsDirty() bool {
	if l.Box.IsDirty() || l.scrollBar.IsDirty() {
		return true
	}
	for _, row := range l.rows.rows {
		if d, ok := row.(interface{ IsDirty() bool }); ok && d.IsDirty() {
			return true
		}
	}
	return false
}

// MarkClean marks the list and its rows as clean.
func (l *List) MarkClean() {
	l.Box.MarkClean()
	l.scrollBar.MarkClean()
	for _, row := range l.rows.rows {
		if c, ok := row.(interface{ MarkClean() }); ok {
			c.MarkClean()
		}
	}
}

// Draw draws the visible rows at their positions relative to the scroll
// offset, clipped to the inner rectangle.
func (l *List) Draw(screen tcell.Screen) {
	l.DrawForSubclass(screen, l)

	x, y, width, height := l.GetInnerRect()
	if l.showScrollBar && width > 1 {
		width--
		l.scrollBar.SetRect(x+width, y, 1, height)
	}
	if width <= 0 || height <= 0 {
		l.core.SetViewport(0)
		return
	}

	if width != l.itemWidth {
		l.itemWidth = width
		l.core.RefreshHeights()
	}
	l.core.SetViewport(float64(height))

	offset := l.core.ScrollOffset()
	focus := l.core.Focus()
	clipped := newClippedScreen(screen, x, y, width, height)
	index, count := l.core.VisibleRange()
	for i := index; i < index+count; i++ {
		row := l.rows.rows[i]
		if row == nil {
			continue
		}
		position, rowHeight := l.core.ItemPositionAndHeight(i)
		top := int(math.Round(position - offset))
		row.SetItemState(i == focus && l.HasFocus(), l.core.IsSelected(i))
		row.SetRect(x, y+top, width, int(math.Round(rowHeight)))
		row.Draw(clipped)
	}

	if l.showScrollBar {
		l.scrollBar.Draw(screen)
	}
}

// InputHandler handles navigation keys.
func (l *List) InputHandler(event *tcell.EventKey) Command {
	return l.HandleKey(keybind.Key(event))
}

// HandleKey handles a key in the notation of package keybind. It returns a
// redraw command when the key was used.
func (l *List) HandleKey(key string) Command {
	page := l.pageItems()
	switch {
	case keybind.MatchesKey(key, l.keys.Up):
		l.core.MoveFocus(-1)
	case keybind.MatchesKey(key, l.keys.Down):
		l.core.MoveFocus(1)
	case keybind.MatchesKey(key, l.keys.PageUp):
		l.core.MoveFocus(-page)
	case keybind.MatchesKey(key, l.keys.PageDown):
		l.core.MoveFocus(page)
	case keybind.MatchesKey(key, l.keys.Top):
		if l.core.Count() > 0 {
			l.core.SetFocus(0)
		}
		l.core.ScrollToStart()
	case keybind.MatchesKey(key, l.keys.Bottom):
		if count := l.core.Count(); count > 0 {
			l.core.SetFocus(count - 1)
		}
		l.core.ScrollToEnd()
	case keybind.MatchesKey(key, l.keys.Toggle):
		if focus := l.core.Focus(); focus >= 0 {
			l.core.ToggleSelected(focus)
		}
	case keybind.MatchesKey(key, l.keys.Select):
		l.activate()
	default:
		return nil
	}
	return RedrawCommand{}
}

// pageItems returns how many items a page key moves the cursor.
func (l *List) pageItems() int {
	_, count := l.core.VisibleRange()
	return max(count-1, 1)
}

func (l *List) activate() {
	focus := l.core.Focus()
	if focus < 0 {
		return
	}
	l.core.Select(focus)
	if l.selected != nil {
		l.selected(focus)
	}
}

// MouseHandler focuses items on click, activates them on double click, and
// scrolls on wheel events. Events over the scroll bar are passed to it.
func (l *List) MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command) {
	x, y := event.Position()
	return l.handleMouse(action, x, y)
}

func (l *List) handleMouse(action MouseAction, x, y int) (Primitive, Command) {
	if !l.InRect(x, y) {
		return nil, nil
	}
	if l.showScrollBar && l.scrollBar.InRect(x, y) {
		return l.scrollBar.handleMouse(action, x, y)
	}

	switch action {
	case MouseLeftDown:
		return nil, SetFocusCommand{Target: l}
	case MouseLeftClick, MouseLeftDoubleClick:
		index := l.indexAtPoint(x, y)
		if index < 0 {
			return nil, nil
		}
		l.core.SetFocus(index)
		l.core.ScrollToItem(index)
		if action == MouseLeftDoubleClick {
			l.activate()
		}
		return nil, RedrawCommand{}
	case MouseScrollUp:
		l.core.ScrollBy(-float64(l.wheelStep))
		return nil, RedrawCommand{}
	case MouseScrollDown:
		l.core.ScrollBy(float64(l.wheelStep))
		return nil, RedrawCommand{}
	}
	return nil, nil
}

// indexAtPoint returns the item under a screen position, or -1. Rows of the
// gap after an item belong to that item.
func (l *List) indexAtPoint(x, y int) int {
	if !l.InInnerRect(x, y) {
		return -1
	}
	_, innerY, _, _ := l.GetInnerRect()
	return l.core.ItemAtPosition(l.core.ScrollOffset() + float64(y-innerY))
}

var _ Primitive = &List{}

// listDelegate adapts a ListDelegate to the core's delegate, measuring items
// at the list's current width.
type listDelegate struct {
	list *List
}

func (d listDelegate) HasVariableItemHeight() bool {
	return d.list.delegate.HasVariableItemHeight()
}

func (d listDelegate) EstimateItemHeight(index int, data any) float64 {
	return float64(max(d.list.delegate.ItemHeight(index, data, d.list.itemWidth), 1))
}

// rowCache is the list's item container. It holds the rows of the visible
// items keyed by item index.
type rowCache struct {
	list *List
	rows map[int]ListItem
}

func (c *rowCache) Reset() {
	clear(c.rows)
	c.list.MarkDirty()
}

func (c *rowCache) ItemsInserted(index, count int) {
	c.shift(func(i int) (int, bool) {
		if i >= index {
			return i + count, true
		}
		return i, true
	})
}

func (c *rowCache) ItemsRemoved(index, count int) {
	c.shift(func(i int) (int, bool) {
		switch {
		case i >= index+count:
			return i - count, true
		case i >= index:
			return 0, false
		}
		return i, true
	})
}

func (c *rowCache) ItemsUpdated(index, count int) {
	for i := index; i < index+count; i++ {
		delete(c.rows, i)
	}
	c.list.MarkDirty()
}

func (c *rowCache) ItemMoved(from, to int) {
	row, ok := c.rows[from]
	c.ItemsRemoved(from, 1)
	c.ItemsInserted(to, 1)
	if ok {
		c.rows[to] = row
	}
}

func (c *rowCache) SetVisibleRange(index, count int) {
	for i := range c.rows {
		if i < index || i >= index+count {
			delete(c.rows, i)
		}
	}
	source := c.list.core.DataSource()
	if source != nil && c.list.delegate != nil {
		for i := index; i < index+count; i++ {
			if _, ok := c.rows[i]; !ok {
				c.rows[i] = c.list.delegate.NewItem(i, source.DataAt(i))
			}
		}
	}
	c.list.MarkDirty()
}

// shift re-keys the rows; move returns false for rows to drop.
func (c *rowCache) shift(move func(int) (int, bool)) {
	rows := make(map[int]ListItem, len(c.rows))
	for i, row := range c.rows {
		if j, ok := move(i); ok {
			rows[j] = row
		}
	}
	c.rows = rows
	c.list.MarkDirty()
}

// clippedScreen restricts drawing to a rectangle so rows partly scrolled out
// of the list do not paint over its frame.
type clippedScreen struct {
	tcell.Screen
	x      int
	y      int
	width  int
	height int
}

func newClippedScreen(screen tcell.Screen, x, y, width, height int) *clippedScreen {
	return &clippedScreen{
		Screen: screen,
		x:      x,
		y:      y,
		width:  width,
		height: height,
	}
}

func (s *clippedScreen) inBounds(x, y int) bool {
	return x >= s.x && x < s.x+s.width && y >= s.y && y < s.y+s.height
}

func (s *clippedScreen) SetContent(x int, y int, primary rune, combining []rune, style tcell.Style) {
	if !s.inBounds(x, y) {
		return
	}
	s.Screen.SetContent(x, y, primary, combining, style)
}

func (s *clippedScreen) Put(x int, y int, str string, style tcell.Style) (string, int) {
	if !s.inBounds(x, y) {
		return str, 0
	}
	return s.Screen.Put(x, y, str, style)
}

func (s *clippedScreen) PutStr(x int, y int, str string) {
	s.PutStrStyled(x, y, str, tcell.StyleDefault)
}

func (s *clippedScreen) PutStrStyled(x int, y int, str string, style tcell.Style) {
	if y < s.y || y >= s.y+s.height {
		return
	}

	gr := uniseg.NewGraphemes(str)
	for gr.Next() {
		cluster := gr.Str()
		width := max(uniseg.StringWidth(cluster), 1)
		if x >= s.x+s.width {
			return
		}
		if x >= s.x && x+width <= s.x+s.width {
			s.Screen.Put(x, y, cluster, style)
		}
		x += width
	}
}

func (s *clippedScreen) ShowCursor(x int, y int) {
	if !s.inBounds(x, y) {
		s.Screen.ShowCursor(-1, -1)
		return
	}
	s.Screen.ShowCursor(x, y)
}
