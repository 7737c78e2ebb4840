package vlist

import "github.com/gdamore/tcell/v3"

// Primitive is the interface of everything drawn by an Application.
type Primitive interface {
	// Draw draws this primitive onto the screen. Implementers may call
	// ShowCursor() on the screen, but only while they have focus.
	Draw(screen tcell.Screen)

	// GetRect returns the current position of the primitive, x, y, width, and
	// height.
	GetRect() (int, int, int, int)
	// SetRect sets a new position of the primitive.
	SetRect(x, y, width, height int)

	// InputHandler receives key events when this primitive has focus.
	InputHandler(event *tcell.EventKey) Command
	// MouseHandler receives mouse events. The returned primitive, if not nil,
	// receives all following mouse events until it returns nil.
	MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command)
	// PasteHandler receives pasted text.
	PasteHandler(text string) Command

	// HasFocus reports whether the primitive or one of its children has focus.
	HasFocus() bool
	// Focus is called when the primitive receives focus. Implementers may call
	// delegate() to pass the focus on to another primitive.
	Focus(delegate func(p Primitive))
	// Blur is called when the primitive loses focus.
	Blur()
}
