// Package config loads list settings and key bindings from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/xqrs/vlist/keybind"
)

// Config is the content of a vlist.toml file.
type Config struct {
	List ListConfig `toml:"list"`
	// Keys maps action names to key strings, for example
	// down = ["j", "down"].
	Keys map[string][]string `toml:"keys"`
}

// ListConfig configures list behavior.
type ListConfig struct {
	// Gap is the number of blank rows after every item.
	Gap int `toml:"gap"`
	// TrackEnd keeps the view at the end while items are appended.
	TrackEnd bool `toml:"track_end"`
	// ScrollBar shows the scroll bar column.
	ScrollBar bool `toml:"scroll_bar"`
	// WheelStep is the number of rows scrolled per mouse wheel event.
	WheelStep int `toml:"wheel_step"`
	// MultiSelect allows selecting more than one item.
	MultiSelect bool `toml:"multi_select"`
	// Border draws a frame around the list.
	Border bool `toml:"border"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		List: ListConfig{
			TrackEnd:  true,
			ScrollBar: true,
			WheelStep: 3,
			Border:    true,
		},
	}
}

// Parse decodes data on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	config := Default()
	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("failed to read %s: %w", path, err)
	}

	config, err := Parse(data)
	if err != nil {
		return config, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Validate reports settings out of range and key strings naming no key.
// Action names are checked when the keys are applied to a [keybind.Set].
func (c Config) Validate() error {
	if c.List.Gap < 0 {
		return fmt.Errorf("list.gap must not be negative, got %d", c.List.Gap)
	}
	if c.List.WheelStep < 1 {
		return fmt.Errorf("list.wheel_step must be at least 1, got %d", c.List.WheelStep)
	}
	for action, keys := range c.Keys {
		for _, key := range keys {
			if keybind.Normalize(key) == "" {
				return fmt.Errorf("keys.%s: %q: %w", action, key, keybind.ErrInvalidKey)
			}
		}
	}
	return nil
}

// Bind applies the configured keys to the keybinds in sets. Every configured
// action must exist in one of the sets.
func (c Config) Bind(sets ...keybind.Set) error {
	merged := make(keybind.Set)
	for _, set := range sets {
		for action, k := range set {
			merged[action] = k
		}
	}
	return merged.Apply(c.Keys)
}
