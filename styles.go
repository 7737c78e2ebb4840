package vlist

import (
	"github.com/gdamore/tcell/v3"
	"github.com/gdamore/tcell/v3/color"
)

// Theme defines the colors used when primitives are initialized.
type Theme struct {
	PrimitiveBackgroundColor tcell.Color // Main background color for primitives.
	BorderColor              tcell.Color // Box borders.
	TitleColor               tcell.Color // Box titles and footers.
	PrimaryTextColor         tcell.Color // Item text.
	FocusedBackgroundColor   tcell.Color // Background of the focused item.
	SelectedTextColor        tcell.Color // Text of selected items.
	HighlightTextColor       tcell.Color // Highlighted spans within item text.
	ScrollBarColor           tcell.Color // Scroll bar thumb.
}

// Styles is the theme applied to new primitives.
var Styles = Theme{
	PrimitiveBackgroundColor: color.Black,
	BorderColor:              color.White,
	TitleColor:               color.White,
	PrimaryTextColor:         color.White,
	FocusedBackgroundColor:   color.Navy,
	SelectedTextColor:        color.Yellow,
	HighlightTextColor:       color.Green,
	ScrollBarColor:           color.White,
}
