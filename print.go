package vlist

import (
	"github.com/gdamore/tcell/v3"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

type Alignment int

const (
	AlignmentLeft Alignment = iota
	AlignmentCenter
	AlignmentRight
)

// printAligned prints text onto one row of the box (x, y, width), cutting it
// with an ellipsis when it does not fit. It returns the printed width.
func printAligned(screen tcell.Screen, text string, x, y, width int, alignment Alignment, style tcell.Style) int {
	if width <= 0 || text == "" {
		return 0
	}

	text = runewidth.Truncate(text, width, ellipsis)
	textWidth := min(runewidth.StringWidth(text), width)
	switch alignment {
	case AlignmentCenter:
		x += (width - textWidth) / 2
	case AlignmentRight:
		x += width - textWidth
	}
	return printClusters(screen, text, x, y, x+textWidth, func(int) tcell.Style { return style })
}

// printClusters prints the grapheme clusters of text from x on, stopping
// before limit. styleAt returns the style for the cluster at a byte offset.
// Clusters without width, such as line breaks, are skipped. It returns the
// printed width.
func printClusters(screen tcell.Screen, text string, x, y, limit int, styleAt func(offset int) tcell.Style) int {
	var (
		state   *stepState
		cluster string
		offset  int
	)
	start := x
	for len(text) > 0 && x < limit {
		cluster, text, state = step(text, state)
		width := state.Width()
		if width > 0 {
			if x+width > limit {
				break
			}
			screen.Put(x, y, cluster, styleAt(offset))
			x += width
		}
		offset += state.GrossLength()
	}
	return x - start
}
