package main

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v3"

	"github.com/xqrs/vlist"
	"github.com/xqrs/vlist/config"
	"github.com/xqrs/vlist/help"
	"github.com/xqrs/vlist/keybind"
	"github.com/xqrs/vlist/virtual"
)

// appKeys are the bindings handled outside the list.
type appKeys struct {
	Quit   keybind.Keybind
	Insert keybind.Keybind
	Delete keybind.Keybind
}

func defaultAppKeys() appKeys {
	return appKeys{
		Quit:   keybind.NewKeybind(keybind.WithKeys("q", "ctrl+c"), keybind.WithHelp("q", "quit")),
		Insert: keybind.NewKeybind(keybind.WithKeys("a", "insert"), keybind.WithHelp("a", "add")),
		Delete: keybind.NewKeybind(keybind.WithKeys("d", "delete"), keybind.WithHelp("d", "delete")),
	}
}

func (k *appKeys) Set() keybind.Set {
	return keybind.Set{
		"quit":   &k.Quit,
		"insert": &k.Insert,
		"delete": &k.Delete,
	}
}

// view is the root primitive: the list above a line of key help.
type view struct {
	*vlist.Box

	list   *vlist.List
	help   *help.Bar
	source *virtual.Slice[string]
	keys   appKeys
	logger *slog.Logger

	// Number of items generated so far, used to name new ones.
	generated int
}

func newView(source *virtual.Slice[string], cfg config.Config, variable bool, logger *slog.Logger) (*view, error) {
	listKeys := keybind.DefaultListKeys()
	keys := defaultAppKeys()
	if err := cfg.Bind(listKeys.Set(), keys.Set()); err != nil {
		return nil, fmt.Errorf("failed to bind keys: %w", err)
	}

	v := &view{
		Box:       vlist.NewBox(),
		list:      vlist.NewList(virtual.WithLogger(logger)),
		help:      help.New(),
		source:    source,
		keys:      keys,
		logger:    logger,
		generated: source.Len(),
	}

	highlight := tcell.StyleDefault.Foreground(vlist.Styles.HighlightTextColor)
	v.list.SetKeys(listKeys).
		SetGap(cfg.List.Gap).
		SetTrackEnd(cfg.List.TrackEnd).
		SetMultiSelect(cfg.List.MultiSelect).
		SetScrollBar(cfg.List.ScrollBar).
		SetWheelStep(cfg.List.WheelStep).
		SetChangedFunc(func(int) { v.updateFooter() }).
		SetSelectedFunc(func(index int) {
			v.logger.Debug("item selected", "index", index, "item", v.source.At(index))
		}).
		SetDelegate(vlist.TextDelegate{
			Variable: variable,
			Highlight: func(_ int, item *vlist.TextItem) {
				for _, s := range digitSpans(item.Text()) {
					item.Highlight(s[0], s[1]-s[0], highlight)
				}
			},
		}).
		SetDataSource(source)

	if cfg.List.Border {
		v.list.SetBorders(vlist.BordersAll)
	}
	v.list.SetTitle(" vlist ")
	v.help.SetBindings(
		listKeys.Down.Help(),
		listKeys.Up.Help(),
		listKeys.Toggle.Help(),
		keys.Insert.Help(),
		keys.Delete.Help(),
		keys.Quit.Help(),
	)
	v.updateFooter()
	return v, nil
}

// Draw draws the list and the help line below it.
func (v *view) Draw(screen tcell.Screen) {
	v.DrawForSubclass(screen, v)

	x, y, width, height := v.GetInnerRect()
	helpHeight := min(height, 1)
	v.list.SetRect(x, y, width, height-helpHeight)
	v.help.SetRect(x, y+height-helpHeight, width, helpHeight)
	v.list.Draw(screen)
	v.help.Draw(screen)
}

func (v *view) IsDirty() bool {
	return v.Box.IsDirty() || v.list.IsDirty() || v.help.IsDirty()
}

func (v *view) MarkClean() {
	v.Box.MarkClean()
	v.list.MarkClean()
	v.help.MarkClean()
}

// Focus passes the focus to the list.
func (v *view) Focus(delegate func(p vlist.Primitive)) {
	v.list.Focus(delegate)
}

func (v *view) Blur() {
	v.list.Blur()
}

func (v *view) HasFocus() bool {
	return v.list.HasFocus()
}

func (v *view) MouseHandler(action vlist.MouseAction, event *tcell.EventMouse) (vlist.Primitive, vlist.Command) {
	return v.list.MouseHandler(action, event)
}

func (v *view) InputHandler(event *tcell.EventKey) vlist.Command {
	return v.handleKey(keybind.Key(event))
}

func (v *view) handleKey(key string) vlist.Command {
	switch {
	case keybind.MatchesKey(key, v.keys.Quit):
		return vlist.QuitCommand{}
	case keybind.MatchesKey(key, v.keys.Insert):
		index := v.list.Cursor() + 1
		v.source.Insert(index, v.nextItem(false))
		v.list.SetCursor(index)
	case keybind.MatchesKey(key, v.keys.Delete):
		cursor := v.list.Cursor()
		if cursor < 0 {
			return nil
		}
		v.source.Remove(cursor, 1)
		v.logger.Debug("item deleted", "index", cursor, "items", v.source.Len())
	default:
		cmd := v.list.HandleKey(key)
		if cmd != nil {
			v.updateFooter()
		}
		return cmd
	}
	v.updateFooter()
	return vlist.RedrawCommand{}
}

func (v *view) appendGenerated(variable bool) {
	v.source.Append(v.nextItem(variable))
	v.updateFooter()
}

func (v *view) nextItem(variable bool) string {
	item := generateItem(v.generated, variable)
	v.generated++
	return item
}

func (v *view) updateFooter() {
	count := v.list.Count()
	cursor := v.list.Cursor()
	footer := humanize.Comma(int64(count)) + " items"
	if cursor >= 0 {
		footer = fmt.Sprintf("%s/%s", humanize.Comma(int64(cursor+1)), footer)
	}
	if selected := len(v.list.Selected()); selected > 0 {
		footer += fmt.Sprintf(", %s selected", humanize.Comma(int64(selected)))
	}
	v.list.SetFooter(" " + footer + " ")
}

// digitSpans returns the byte ranges [start, end) of digit runs in s.
func digitSpans(s string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range s {
		switch {
		case unicode.IsDigit(r) && start < 0:
			start = i
		case !unicode.IsDigit(r) && start >= 0:
			spans = append(spans, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(s)})
	}
	return spans
}

var words = strings.Fields("lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor")

// generateItem returns the text of item n. Variable items repeat a phrase so
// that they wrap to different heights.
func generateItem(n int, variable bool) string {
	item := fmt.Sprintf("item %s", humanize.Comma(int64(n)))
	if !variable {
		return item
	}
	var b strings.Builder
	b.WriteString(item)
	for i := range n % 7 * 3 {
		b.WriteByte(' ')
		b.WriteString(words[(n+i)%len(words)])
	}
	return b.String()
}

func generateItems(from, count int, variable bool) []string {
	items := make([]string, count)
	for i := range items {
		items[i] = generateItem(from+i, variable)
	}
	return items
}
