package vlist

import (
	"fmt"

	"github.com/gdamore/tcell/v3"

	"github.com/xqrs/vlist/ranges"
)

// TextItem is a list row showing wrapped text. Spans of the text, addressed
// by byte offsets, can be highlighted with their own style; edits made with
// InsertText and DeleteText move the highlights along with the text.
type TextItem struct {
	*Box

	text       string
	highlights *ranges.Store[tcell.Style]

	style         tcell.Style
	focusedStyle  tcell.Style
	selectedStyle tcell.Style

	focused  bool
	selected bool
}

// NewTextItem returns a row showing text.
func NewTextItem(text string) *TextItem {
	base := tcell.StyleDefault.Foreground(Styles.PrimaryTextColor).Background(Styles.PrimitiveBackgroundColor)
	return &TextItem{
		Box:           NewBox(),
		text:          text,
		highlights:    ranges.New[tcell.Style](),
		style:         base,
		focusedStyle:  base.Background(Styles.FocusedBackgroundColor),
		selectedStyle: base.Foreground(Styles.SelectedTextColor),
	}
}

// Text returns the text.
func (t *TextItem) Text() string {
	return t.text
}

// SetText replaces the text and drops all highlights.
func (t *TextItem) SetText(text string) *TextItem {
	if t.text != text || t.highlights.Len() > 0 {
		t.text = text
		t.highlights.Clear()
		t.MarkDirty()
	}
	return t
}

// SetStyle sets the style of unfocused, unselected text.
func (t *TextItem) SetStyle(style tcell.Style) *TextItem {
	t.style = style
	t.MarkDirty()
	return t
}

// SetFocusedStyle sets the style used while the item is focused.
func (t *TextItem) SetFocusedStyle(style tcell.Style) *TextItem {
	t.focusedStyle = style
	t.MarkDirty()
	return t
}

// SetSelectedStyle sets the style used while the item is selected.
func (t *TextItem) SetSelectedStyle(style tcell.Style) *TextItem {
	t.selectedStyle = style
	t.MarkDirty()
	return t
}

// Highlight styles length bytes of the text starting at start, replacing any
// highlight there. The span is clipped to the text.
func (t *TextItem) Highlight(start, length int, style tcell.Style) *TextItem {
	end := min(start+length, len(t.text))
	start = max(start, 0)
	if end > start {
		t.highlights.Add(ranges.Range{Index: start, Length: end - start}, style)
		t.MarkDirty()
	}
	return t
}

// ClearHighlights removes every highlight.
func (t *TextItem) ClearHighlights() *TextItem {
	if t.highlights.Len() > 0 {
		t.highlights.Clear()
		t.MarkDirty()
	}
	return t
}

// Highlights returns the highlighted spans in ascending order.
func (t *TextItem) Highlights() []ranges.Item[tcell.Style] {
	return t.highlights.Items()
}

// InsertText inserts s before byte offset at. Highlights after the insertion
// point move right; a highlight containing it is split around the new text.
func (t *TextItem) InsertText(at int, s string) bool {
	if at < 0 || at > len(t.text) {
		return false
	}
	if s == "" {
		return true
	}
	t.text = t.text[:at] + s + t.text[at:]
	t.highlights.InsertSpan(ranges.Range{Index: at, Length: len(s)})
	t.MarkDirty()
	return true
}

// DeleteText removes n bytes starting at byte offset at. Highlights shrink
// with the text and rejoin when equal ones become adjacent.
func (t *TextItem) DeleteText(at, n int) bool {
	if at < 0 || n < 0 || at > len(t.text) || n > len(t.text)-at {
		return false
	}
	if n == 0 {
		return true
	}
	t.text = t.text[:at] + t.text[at+n:]
	t.highlights.EraseSpan(ranges.Range{Index: at, Length: n})
	t.MarkDirty()
	return true
}

// SetItemState implements [ListItem].
func (t *TextItem) SetItemState(focused, selected bool) {
	if t.focused != focused || t.selected != selected {
		t.focused, t.selected = focused, selected
		t.MarkDirty()
	}
}

// Height returns the number of rows the text needs at width.
func (t *TextItem) Height(width int) int {
	return max(len(wrapLines(t.text, width)), 1)
}

// Draw draws the wrapped text into the item's rectangle.
func (t *TextItem) Draw(screen tcell.Screen) {
	x, y, width, height := t.GetRect()
	if width <= 0 || height <= 0 {
		return
	}

	base := t.style
	switch {
	case t.focused && t.selected:
		base = t.focusedStyle.Foreground(t.selectedStyle.GetForeground())
	case t.focused:
		base = t.focusedStyle
	case t.selected:
		base = t.selectedStyle
	}
	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.Put(col, row, " ", base)
		}
	}

	for row, line := range wrapLines(t.text, width) {
		if row >= height {
			break
		}
		printClusters(screen, t.text[line.start:line.end], x, y+row, x+width, func(offset int) tcell.Style {
			return t.styleAt(base, line.start+offset)
		})
	}
}

func (t *TextItem) styleAt(base tcell.Style, offset int) tcell.Style {
	item, ok := t.highlights.Find(offset)
	if !ok {
		return base
	}
	style := item.Value
	if style.GetBackground() == tcell.ColorDefault {
		style = style.Background(base.GetBackground())
	}
	return style
}

// TextDelegate measures and builds rows for text items. Data items are shown
// as strings: string values as they are, everything else formatted with fmt.
type TextDelegate struct {
	// Variable makes every item as tall as its wrapped text. Otherwise every
	// item is as tall as the first one.
	Variable bool
	// Highlight, if set, is called for every new row to add highlights.
	Highlight func(index int, item *TextItem)
}

// HasVariableItemHeight implements [ListDelegate].
func (d TextDelegate) HasVariableItemHeight() bool {
	return d.Variable
}

// ItemHeight implements [ListDelegate].
func (d TextDelegate) ItemHeight(index int, data any, width int) int {
	return max(len(wrapLines(textOf(data), width)), 1)
}

// NewItem implements [ListDelegate].
func (d TextDelegate) NewItem(index int, data any) ListItem {
	item := NewTextItem(textOf(data))
	if d.Highlight != nil {
		d.Highlight(index, item)
	}
	return item
}

func textOf(data any) string {
	switch data := data.(type) {
	case string:
		return data
	case fmt.Stringer:
		return data.String()
	default:
		return fmt.Sprint(data)
	}
}

var _ ListItem = &TextItem{}
