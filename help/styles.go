package help

import (
	"github.com/gdamore/tcell/v3"

	"github.com/xqrs/vlist"
)

// Styles are the styles of the parts of a help line.
type Styles struct {
	KeyStyle       tcell.Style
	DescStyle      tcell.Style
	SeparatorStyle tcell.Style
	EllipsisStyle  tcell.Style
}

func DefaultStyles() Styles {
	normal := tcell.StyleDefault.Foreground(vlist.Styles.PrimaryTextColor).Background(vlist.Styles.PrimitiveBackgroundColor)
	dim := normal.Dim(true)
	return Styles{
		KeyStyle:       normal.Foreground(vlist.Styles.HighlightTextColor),
		DescStyle:      normal,
		SeparatorStyle: dim,
		EllipsisStyle:  dim,
	}
}
