package vlist

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v3"
)

const (
	// The size of the queued updates channel.
	updatesQueueSize = 100
	// The minimum time between two consecutive redraws.
	redrawPause = 50 * time.Millisecond
)

// DoubleClickInterval specifies the maximum time between clicks to register a
// double click rather than click.
var DoubleClickInterval = 500 * time.Millisecond

// MouseAction indicates one of the actions the mouse is logically doing.
type MouseAction int16

// Available mouse actions.
const (
	MouseMove MouseAction = iota
	MouseLeftDown
	MouseLeftUp
	MouseLeftClick
	MouseLeftDoubleClick
	MouseMiddleDown
	MouseMiddleUp
	MouseMiddleClick
	MouseMiddleDoubleClick
	MouseRightDown
	MouseRightUp
	MouseRightClick
	MouseRightDoubleClick
	MouseScrollUp
	MouseScrollDown
	MouseScrollLeft
	MouseScrollRight
)

// queuedUpdate is a function queued by Application.QueueUpdate. If done is not
// nil, it receives exactly one element after f has executed.
type queuedUpdate struct {
	f    func()
	done chan struct{}
}

// dirtyTracker is implemented by primitives that know whether their last
// frame is still current.
type dirtyTracker interface {
	IsDirty() bool
	MarkClean()
}

// Application runs the event loop that draws a root primitive and feeds it
// key, mouse and paste events. Primitives are only touched from the loop's
// goroutine; other goroutines hand work to it with QueueUpdate.
//
//	if err := vlist.NewApplication().SetRoot(list).Run(); err != nil {
//	    panic(err)
//	}
type Application struct {
	sync.RWMutex

	// The application's screen. Apart from Run and SetScreen, it is never set
	// directly.
	screen tcell.Screen

	// The primitive which currently has the keyboard focus.
	focus Primitive

	// The root primitive to be seen on the screen.
	root Primitive

	events chan tcell.Event

	// Functions queued from goroutines, used to serialize updates to primitives.
	updates chan queuedUpdate

	mouseCapturingPrimitive Primitive        // Receives all mouse events until its handler returns nil.
	lastMouseX, lastMouseY  int              // The last position of the mouse.
	mouseDownX, mouseDownY  int              // The position of the mouse when its button was last pressed.
	lastMouseClick          time.Time        // The time when a mouse button was last clicked.
	lastMouseButtons        tcell.ButtonMask // The last mouse button state.

	// forceRedraw requests a full clear before the next frame.
	forceRedraw bool

	logger *slog.Logger
}

// NewApplication creates and returns a new application.
func NewApplication() *Application {
	return &Application{
		updates: make(chan queuedUpdate, updatesQueueSize),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger used to report screen errors.
func (a *Application) SetLogger(logger *slog.Logger) *Application {
	a.Lock()
	defer a.Unlock()
	if logger != nil {
		a.logger = logger
	}
	return a
}

// SetScreen sets the application's screen. It has no effect once a screen
// is set.
func (a *Application) SetScreen(screen tcell.Screen) *Application {
	a.Lock()
	defer a.Unlock()
	if a.screen == nil {
		a.screen = screen
		a.forceRedraw = true
	}
	return a
}

// Run starts the event loop. It returns when [Application.Stop] was called or
// the screen reported an error.
//
// While the application is running it owns stdin and stdout; write logs to a
// file instead.
func (a *Application) Run() error {
	var (
		appErr      error
		lastRedraw  time.Time   // The time the screen was last redrawn.
		redrawTimer *time.Timer // A timer to schedule the next redraw.
	)
	a.Lock()

	if a.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			a.Unlock()
			return fmt.Errorf("failed to create screen: %w", err)
		}
		if err = screen.Init(); err != nil {
			a.Unlock()
			return fmt.Errorf("failed to initialize screen: %w", err)
		}
		screen.EnableMouse()
		screen.EnablePaste()
		a.screen = screen
		a.forceRedraw = true
	}

	// Panics leave the terminal in raw mode unless the screen is finalized.
	defer func() {
		if p := recover(); p != nil {
			a.Stop()
			panic(p)
		}
	}()

	screen := a.screen
	a.events = screen.EventQ()
	a.Unlock()

	a.draw()

	var (
		pasteBuffer strings.Builder
		pasting     bool // Set while paste key events arrive.
	)
EventLoop:
	for {
		select {
		case event := <-a.events:
			if event == nil {
				break EventLoop
			}

			switch event := event.(type) {
			case *tcell.EventKey:
				if pasting {
					switch event.Key() {
					case tcell.KeyRune:
						pasteBuffer.WriteString(event.Str())
					case tcell.KeyEnter:
						pasteBuffer.WriteRune('\n')
					case tcell.KeyTab:
						pasteBuffer.WriteRune('\t')
					}
					break
				}

				a.RLock()
				root := a.root
				a.RUnlock()
				if root != nil && root.HasFocus() {
					if a.executeCommand(root.InputHandler(event)) {
						a.draw()
					}
				}
			case *tcell.EventPaste:
				if event.Start() {
					pasting = true
					pasteBuffer.Reset()
				} else if event.End() {
					pasting = false
					a.RLock()
					root := a.root
					a.RUnlock()
					if root != nil && root.HasFocus() && pasteBuffer.Len() > 0 {
						if a.executeCommand(root.PasteHandler(pasteBuffer.String())) {
							a.draw()
						}
					}
				}
			case *tcell.EventResize:
				a.Lock()
				a.forceRedraw = true
				a.Unlock()
				if time.Since(lastRedraw) < redrawPause {
					if redrawTimer != nil {
						redrawTimer.Stop()
					}
					redrawTimer = time.AfterFunc(redrawPause, func() {
						a.QueueEvent(event)
					})
				}
				lastRedraw = time.Now()
				a.draw()
			case *tcell.EventMouse:
				handled, isMouseDownAction := a.fireMouseActions(event)
				if handled {
					a.draw()
				}
				a.lastMouseButtons = event.Buttons()
				if isMouseDownAction {
					a.mouseDownX, a.mouseDownY = event.Position()
				}
			case *tcell.EventError:
				a.logger.Error("screen error", "err", event)
				appErr = event
				a.Stop()
			}

		case update := <-a.updates:
			update.f()
			if update.done != nil {
				update.done <- struct{}{}
			}
		}

		a.RLock()
		stopped := a.screen == nil
		a.RUnlock()
		if stopped {
			break
		}
	}

	return appErr
}

// fireMouseActions derives mouse actions from event and forwards them to the
// capturing primitive or the root.
func (a *Application) fireMouseActions(event *tcell.EventMouse) (handled, isMouseDownAction bool) {
	// Follow-up actions of the same event go to the same primitive.
	var targetPrimitive Primitive

	fire := func(action MouseAction) {
		switch action {
		case MouseLeftDown, MouseMiddleDown, MouseRightDown:
			isMouseDownAction = true
		}

		var primitive, capturingPrimitive Primitive
		if a.mouseCapturingPrimitive != nil {
			primitive = a.mouseCapturingPrimitive
			targetPrimitive = a.mouseCapturingPrimitive
		} else if targetPrimitive != nil {
			primitive = targetPrimitive
		} else {
			primitive = a.root
		}
		if primitive != nil {
			var cmd Command
			capturingPrimitive, cmd = primitive.MouseHandler(action, event)
			if a.executeCommand(cmd) {
				handled = true
			}
		}
		a.mouseCapturingPrimitive = capturingPrimitive
	}

	x, y := event.Position()
	buttons := event.Buttons()
	clickMoved := x != a.mouseDownX || y != a.mouseDownY
	buttonChanges := buttons ^ a.lastMouseButtons

	if x != a.lastMouseX || y != a.lastMouseY {
		fire(MouseMove)
		a.lastMouseX = x
		a.lastMouseY = y
	}

	for _, buttonEvent := range []struct {
		button                  tcell.ButtonMask
		down, up, click, dclick MouseAction
	}{
		{tcell.ButtonPrimary, MouseLeftDown, MouseLeftUp, MouseLeftClick, MouseLeftDoubleClick},
		{tcell.ButtonMiddle, MouseMiddleDown, MouseMiddleUp, MouseMiddleClick, MouseMiddleDoubleClick},
		{tcell.ButtonSecondary, MouseRightDown, MouseRightUp, MouseRightClick, MouseRightDoubleClick},
	} {
		if buttonChanges&buttonEvent.button == 0 {
			continue
		}
		if buttons&buttonEvent.button != 0 {
			fire(buttonEvent.down)
			continue
		}
		fire(buttonEvent.up)
		if clickMoved {
			continue
		}
		if a.lastMouseClick.Add(DoubleClickInterval).Before(time.Now()) {
			fire(buttonEvent.click)
			a.lastMouseClick = time.Now()
		} else {
			fire(buttonEvent.dclick)
			a.lastMouseClick = time.Time{}
		}
	}

	for _, wheelEvent := range []struct {
		button tcell.ButtonMask
		action MouseAction
	}{
		{tcell.WheelUp, MouseScrollUp},
		{tcell.WheelDown, MouseScrollDown},
		{tcell.WheelLeft, MouseScrollLeft},
		{tcell.WheelRight, MouseScrollRight},
	} {
		if buttons&wheelEvent.button != 0 {
			fire(wheelEvent.action)
		}
	}

	return handled, isMouseDownAction
}

// Stop finalizes the screen, causing Run to return.
func (a *Application) Stop() {
	a.Lock()
	defer a.Unlock()
	screen := a.screen
	if screen == nil {
		return
	}
	screen.Fini()
	a.screen = nil
}

// Draw redraws the screen during the next update cycle. Calling it from the
// event loop goroutine deadlocks; use ForceDraw there.
func (a *Application) Draw() *Application {
	a.QueueUpdate(func() {
		a.ForceDraw()
	})
	return a
}

// ForceDraw redraws the screen immediately, even if the root reports that
// nothing changed. Only call it from the event loop goroutine.
func (a *Application) ForceDraw() *Application {
	a.Lock()
	a.forceRedraw = true
	a.Unlock()
	return a.draw()
}

// draw renders the root if it changed since the last frame or a full redraw
// was requested.
func (a *Application) draw() *Application {
	a.Lock()
	screen := a.screen
	root := a.root
	forceRedraw := a.forceRedraw
	a.Unlock()

	if screen == nil || root == nil {
		return a
	}

	width, height := screen.Size()
	x, y, w, h := root.GetRect()
	resized := x != 0 || y != 0 || w != width || h != height
	root.SetRect(0, 0, width, height)

	tracker, tracked := root.(dirtyTracker)
	if tracked && !forceRedraw && !resized && !tracker.IsDirty() {
		return a
	}

	// tcell keeps a back buffer and only emits deltas in Show, so the screen is
	// cleared for forced redraws only.
	if forceRedraw {
		screen.Clear()
	}
	root.Draw(screen)
	screen.Show()
	if tracked {
		tracker.MarkClean()
	}

	a.Lock()
	a.forceRedraw = false
	a.Unlock()

	return a
}

// Sync forces a full re-sync of the screen buffer with the terminal during
// the next event cycle.
func (a *Application) Sync() *Application {
	a.updates <- queuedUpdate{f: func() {
		a.Lock()
		screen := a.screen
		a.forceRedraw = true
		a.Unlock()
		if screen == nil {
			return
		}
		screen.Sync()
	}}
	return a
}

// SetRoot sets the root primitive and gives it the focus.
func (a *Application) SetRoot(root Primitive) *Application {
	a.Lock()
	a.root = root
	if a.screen != nil {
		a.forceRedraw = true
	}
	a.Unlock()

	a.SetFocus(root)
	return a
}

// SetFocus moves the keyboard focus to p. Blur is called on the previously
// focused primitive and Focus on p.
func (a *Application) SetFocus(p Primitive) *Application {
	a.Lock()
	if a.focus != nil {
		a.focus.Blur()
	}
	a.focus = p
	if a.screen != nil {
		a.screen.HideCursor()
	}
	a.Unlock()
	if p != nil {
		p.Focus(func(p Primitive) {
			a.SetFocus(p)
		})
	}

	return a
}

// GetFocus returns the primitive which has the current focus, or nil.
func (a *Application) GetFocus() Primitive {
	a.RLock()
	defer a.RUnlock()
	return a.focus
}

// QueueUpdate runs f on the event loop goroutine and returns after f has
// executed. Use it to change primitives from other goroutines. The screen is
// not redrawn; use QueueUpdateDraw for that.
func (a *Application) QueueUpdate(f func()) *Application {
	ch := make(chan struct{})
	a.updates <- queuedUpdate{f: f, done: ch}
	<-ch
	return a
}

// QueueUpdateDraw works like QueueUpdate and draws the screen after f.
func (a *Application) QueueUpdateDraw(f func()) *Application {
	a.QueueUpdate(func() {
		f()
		a.draw()
	})
	return a
}

// QueueEvent sends an event to the event loop. It has no effect before Run.
func (a *Application) QueueEvent(event tcell.Event) *Application {
	a.RLock()
	events := a.events
	a.RUnlock()
	if events == nil || event == nil {
		return a
	}
	events <- event
	return a
}

// executeCommand performs cmd and reports whether the screen needs a redraw.
func (a *Application) executeCommand(cmd Command) bool {
	if cmd == nil {
		return false
	}

	switch c := cmd.(type) {
	case BatchCommand:
		handled := false
		for _, item := range c {
			if a.executeCommand(item) {
				handled = true
			}
		}
		return handled
	case RedrawCommand:
		return true
	case QuitCommand:
		a.Stop()
		return false
	case SetFocusCommand:
		if c.Target == nil {
			return false
		}
		a.RLock()
		changed := a.focus != c.Target
		a.RUnlock()
		a.SetFocus(c.Target)
		return changed
	case SetTitleCommand:
		a.RLock()
		screen := a.screen
		a.RUnlock()
		if screen != nil {
			screen.SetTitle(string(c))
		}
		return false
	case ConsumeEventCommand:
		return false
	}

	return false
}
