// Package help draws a single line summarizing key bindings, such as
// "↑/k up • q quit".
package help

import (
	"strings"

	"github.com/gdamore/tcell/v3"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/xqrs/vlist"
	"github.com/xqrs/vlist/keybind"
)

// Bar is a one-line primitive listing key bindings. Entries that do not fit
// are dropped from the end and replaced by an ellipsis.
type Bar struct {
	*vlist.Box

	styles    Styles
	bindings  []keybind.Help
	separator string
	ellipsis  string
}

func New() *Bar {
	return &Bar{
		Box:       vlist.NewBox(),
		styles:    DefaultStyles(),
		separator: " • ",
		ellipsis:  "…",
	}
}

// SetBindings sets the entries to show, in order. Entries without a key and
// a description are skipped.
func (b *Bar) SetBindings(bindings ...keybind.Help) *Bar {
	b.bindings = bindings
	b.MarkDirty()
	return b
}

// SetSeparator sets the text between entries.
func (b *Bar) SetSeparator(separator string) *Bar {
	b.separator = separator
	b.MarkDirty()
	return b
}

// SetStyles sets the styles of keys, descriptions, and separators.
func (b *Bar) SetStyles(styles Styles) *Bar {
	b.styles = styles
	b.MarkDirty()
	return b
}

// Line returns the text drawn at width. A width of 0 or less means unlimited.
func (b *Bar) Line(width int) string {
	var sb strings.Builder
	for _, s := range b.segments(width) {
		sb.WriteString(s.text)
	}
	return sb.String()
}

// Draw draws this primitive onto the screen.
func (b *Bar) Draw(screen tcell.Screen) {
	b.DrawForSubclass(screen, b)

	x, y, width, height := b.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}
	for _, s := range b.segments(width) {
		x = drawText(screen, s.text, x, y, s.style)
	}
}

type segment struct {
	text  string
	style tcell.Style
}

func (b *Bar) segments(maxWidth int) []segment {
	separator := b.separator
	if separator == "" {
		separator = " "
	}
	sep := segment{text: separator, style: b.styles.SeparatorStyle}

	var out []segment
	for _, h := range b.bindings {
		item := b.itemSegments(h)
		if len(item) == 0 {
			continue
		}
		candidate := make([]segment, 0, len(out)+len(item)+1)
		candidate = append(candidate, out...)
		if len(out) > 0 {
			candidate = append(candidate, sep)
		}
		candidate = append(candidate, item...)
		if maxWidth > 0 && segmentsWidth(candidate) > maxWidth {
			return append(out, b.truncationTail(out, maxWidth)...)
		}
		out = candidate
	}
	return out
}

func (b *Bar) itemSegments(h keybind.Help) []segment {
	switch {
	case h.Key == "" && h.Desc == "":
		return nil
	case h.Key == "":
		return []segment{{text: h.Desc, style: b.styles.DescStyle}}
	case h.Desc == "":
		return []segment{{text: h.Key, style: b.styles.KeyStyle}}
	}
	return []segment{
		{text: h.Key, style: b.styles.KeyStyle},
		{text: " ", style: b.styles.DescStyle},
		{text: h.Desc, style: b.styles.DescStyle},
	}
}

// truncationTail returns the ellipsis if it fits after current.
func (b *Bar) truncationTail(current []segment, maxWidth int) []segment {
	if b.ellipsis == "" {
		return nil
	}
	tail := []segment{{text: " " + b.ellipsis, style: b.styles.EllipsisStyle}}
	if len(current) == 0 {
		tail[0].text = b.ellipsis
	}
	if segmentsWidth(current)+segmentsWidth(tail) > maxWidth {
		return nil
	}
	return tail
}

func segmentsWidth(segments []segment) int {
	width := 0
	for _, s := range segments {
		width += runewidth.StringWidth(s.text)
	}
	return width
}

// drawText puts the grapheme clusters of text from x on and returns the
// column after the last one.
func drawText(screen tcell.Screen, text string, x, y int, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		_, width := screen.Put(x, y, g.Str(), style)
		x += max(width, 1)
	}
	return x
}

var _ vlist.Primitive = &Bar{}
