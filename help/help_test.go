package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xqrs/vlist/keybind"
)

func TestBar_Line(t *testing.T) {
	t.Parallel()

	bar := New().SetBindings(
		keybind.Help{Key: "j", Desc: "down"},
		keybind.Help{},
		keybind.Help{Key: "q", Desc: "quit"},
		keybind.Help{Desc: "scroll"},
	)

	tests := []struct {
		name  string
		width int
		want  string
	}{
		{name: "unlimited", width: 0, want: "j down • q quit • scroll"},
		{name: "exact", width: 24, want: "j down • q quit • scroll"},
		{name: "truncated", width: 20, want: "j down • q quit …"},
		{name: "first entry only", width: 8, want: "j down …"},
		{name: "nothing fits", width: 1, want: "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bar.Line(tt.width))
		})
	}
}

func TestBar_Separator(t *testing.T) {
	t.Parallel()

	bar := New().SetBindings(keybind.Help{Key: "a", Desc: "add"}, keybind.Help{Key: "d"})
	bar.SetSeparator(" | ")
	assert.Equal(t, "a add | d", bar.Line(0))
	bar.SetSeparator("")
	assert.Equal(t, "a add d", bar.Line(0))
}

func TestBar_BindingsFromSet(t *testing.T) {
	t.Parallel()

	quit := keybind.NewKeybind(keybind.WithKeys("q"), keybind.WithHelp("q", "quit"))
	add := keybind.NewKeybind(keybind.WithKeys("a"), keybind.WithHelp("a", "add"))
	hidden := keybind.NewKeybind(keybind.WithKeys("x"))
	set := keybind.Set{"quit": &quit, "add": &add, "hidden": &hidden}

	bar := New().SetBindings(set.Help()...)
	assert.Equal(t, "a add • q quit", bar.Line(0))
}
