package keybind

// ListKeys are the navigation keys of a list.
type ListKeys struct {
	Up       Keybind
	Down     Keybind
	PageUp   Keybind
	PageDown Keybind
	Top      Keybind
	Bottom   Keybind
	Toggle   Keybind
	Select   Keybind
}

// DefaultListKeys returns arrow and vi style bindings.
func DefaultListKeys() ListKeys {
	return ListKeys{
		Up:       NewKeybind(WithKeys("up", "k"), WithHelp("↑/k", "up")),
		Down:     NewKeybind(WithKeys("down", "j"), WithHelp("↓/j", "down")),
		PageUp:   NewKeybind(WithKeys("pgup", "ctrl+b"), WithHelp("pgup", "page up")),
		PageDown: NewKeybind(WithKeys("pgdn", "ctrl+f"), WithHelp("pgdn", "page down")),
		Top:      NewKeybind(WithKeys("home", "g"), WithHelp("g", "top")),
		Bottom:   NewKeybind(WithKeys("end", "G"), WithHelp("G", "bottom")),
		Toggle:   NewKeybind(WithKeys("space"), WithHelp("space", "toggle")),
		Select:   NewKeybind(WithKeys("enter"), WithHelp("enter", "select")),
	}
}

// Set returns the keybinds by action name. Changes made through the set
// apply to k.
func (k *ListKeys) Set() Set {
	return Set{
		"up":        &k.Up,
		"down":      &k.Down,
		"page_up":   &k.PageUp,
		"page_down": &k.PageDown,
		"top":       &k.Top,
		"bottom":    &k.Bottom,
		"toggle":    &k.Toggle,
		"select":    &k.Select,
	}
}
