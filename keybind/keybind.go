// Package keybind maps key strings such as "ctrl+d", "pgdn" or "G" to
// actions. Key strings are normalized so that configuration files and tcell
// key events compare equal.
package keybind

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v3"
)

var (
	// ErrUnknownAction is returned when binding keys to an action that does not
	// exist.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidKey is returned when a key string normalizes to nothing.
	ErrInvalidKey = errors.New("invalid key")
)

type Keybind struct {
	keys []string
	help Help
}

type Option func(*Keybind)

func NewKeybind(options ...Option) Keybind {
	k := &Keybind{}
	for _, option := range options {
		option(k)
	}
	return *k
}

func WithKeys(keys ...string) Option {
	return func(k *Keybind) {
		k.keys = normalizeKeys(keys...)
	}
}

func WithHelp(key, desc string) Option {
	return func(k *Keybind) {
		k.help = Help{Key: key, Desc: desc}
	}
}

func (k Keybind) Keys() []string {
	return k.keys
}

func (k *Keybind) SetKeys(keys ...string) {
	k.keys = normalizeKeys(keys...)
}

func (k Keybind) Help() Help {
	return k.help
}

type Help struct {
	Key  string
	Desc string
}

// Matches reports whether event triggers one of the keybinds.
func Matches(event *tcell.EventKey, keybinds ...Keybind) bool {
	if event == nil {
		return false
	}
	return MatchesKey(eventKeyString(event), keybinds...)
}

// MatchesKey reports whether the key string triggers one of the keybinds.
func MatchesKey(key string, keybinds ...Keybind) bool {
	key = normalizeKey(key)
	if key == "" {
		return false
	}
	for _, keybind := range keybinds {
		if slices.Contains(keybind.keys, key) {
			return true
		}
	}
	return false
}

// Key returns the normalized key string of event.
func Key(event *tcell.EventKey) string {
	return eventKeyString(event)
}

// Normalize returns the canonical form of a key string, or "" if it names no
// key.
func Normalize(key string) string {
	return normalizeKey(key)
}

// Set is a group of keybinds addressed by action name.
type Set map[string]*Keybind

// Apply replaces the keys of the named actions. Every action must exist and
// every key must be valid; on error nothing is changed.
func (s Set) Apply(overrides map[string][]string) error {
	for _, action := range sortedActions(overrides) {
		if _, ok := s[action]; !ok {
			return fmt.Errorf("keybind %q: %w", action, ErrUnknownAction)
		}
		for _, key := range overrides[action] {
			if normalizeKey(key) == "" {
				return fmt.Errorf("keybind %q: key %q: %w", action, key, ErrInvalidKey)
			}
		}
	}
	for action, keys := range overrides {
		s[action].SetKeys(keys...)
	}
	return nil
}

// Help returns the help of every keybind that has one, ordered by action.
func (s Set) Help() []Help {
	var help []Help
	for _, action := range sortedActions(s) {
		if h := s[action].Help(); h.Key != "" {
			help = append(help, h)
		}
	}
	return help
}

func sortedActions[V any](m map[string]V) []string {
	actions := make([]string, 0, len(m))
	for action := range m {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

func normalizeKeys(keys ...string) []string {
	normalized := make([]string, 0, len(keys))
	for _, key := range keys {
		key = normalizeKey(key)
		if key == "" {
			continue
		}
		normalized = append(normalized, key)
	}
	return normalized
}

func normalizeKey(key string) string {
	// The space and plus keys would be lost to trimming and splitting.
	if key == " " || key == "+" {
		return key
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "+")
	mods := make([]string, 0, len(parts))
	primary := ""
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		switch strings.ToLower(part) {
		case "ctrl", "control":
			mods = append(mods, "ctrl")
		case "alt":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		case "meta":
			mods = append(mods, "meta")
		default:
			primary = normalizePrimaryKey(part)
		}
	}

	if primary == "" {
		return ""
	}

	if primary == "backtab" {
		mods = append(mods, "shift")
		primary = "tab"
	}

	if len(mods) > 0 && len([]rune(primary)) == 1 {
		primary = strings.ToLower(primary)
	}

	if len(mods) == 0 {
		return primary
	}

	slices.SortStableFunc(mods, func(a, b string) int {
		return modifierRank(a) - modifierRank(b)
	})
	return strings.Join(append(slices.Compact(mods), primary), "+")
}

// modifierRank orders modifiers the way key events are reported.
func modifierRank(mod string) int {
	switch mod {
	case "ctrl":
		return 0
	case "alt":
		return 1
	case "shift":
		return 2
	default:
		return 3
	}
}

func normalizePrimaryKey(key string) string {
	if strings.HasPrefix(key, "Rune[") && strings.HasSuffix(key, "]") && len(key) >= 7 {
		return key[5 : len(key)-1]
	}

	switch strings.ToLower(key) {
	case "esc", "escape":
		return "esc"
	case "return":
		return "enter"
	case "pageup":
		return "pgup"
	case "pagedown":
		return "pgdn"
	case "space":
		return " "
	}

	if strings.HasPrefix(strings.ToLower(key), "ctrl-") && len(key) > len("ctrl-") {
		return "ctrl+" + strings.ToLower(key[len("ctrl-"):])
	}

	if len([]rune(key)) == 1 {
		return key
	}

	return strings.ToLower(key)
}

func eventKeyString(event *tcell.EventKey) string {
	if event == nil {
		return ""
	}

	key := event.Key()
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return "ctrl+" + string(rune('a'+(key-tcell.KeyCtrlA)))
	}

	primary := keyName(key)
	if primary == "" && key == tcell.KeyRune {
		primary = event.Str()
	}
	if primary == "" {
		return normalizeKey(event.Name())
	}

	mods := make([]string, 0, 4)
	if event.Modifiers()&tcell.ModCtrl != 0 {
		mods = append(mods, "ctrl")
	}
	if event.Modifiers()&tcell.ModAlt != 0 {
		mods = append(mods, "alt")
	}
	if event.Modifiers()&tcell.ModShift != 0 {
		mods = append(mods, "shift")
	}
	if event.Modifiers()&tcell.ModMeta != 0 {
		mods = append(mods, "meta")
	}
	if len(mods) == 0 {
		return primary
	}
	return normalizeKey(strings.Join(append(mods, primary), "+"))
}

func keyName(key tcell.Key) string {
	switch key {
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyEscape:
		return "esc"
	case tcell.KeyTab:
		return "tab"
	case tcell.KeyBacktab:
		return "shift+tab"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	case tcell.KeyDelete:
		return "delete"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace"
	case tcell.KeyInsert:
		return "insert"
	default:
		return ""
	}
}
