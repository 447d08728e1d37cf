// Package config loads the optional mission-control configuration file.
//
// The file is JSON and lives at ~/.config/mission-control/config.json by
// default. It carries two optional settings: the path to the gitops
// checkout used by the login helper, and keyboard shortcut bindings served
// to the dashboard frontend. A missing file yields the zero configuration
// rather than an error.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File holds the contents of the configuration file.
type File struct {
	// GitopsPath is the local checkout containing scripts/setup-access.sh,
	// used by the context login helper.
	GitopsPath string `json:"gitops_path,omitempty"`

	// KeyboardShortcuts maps keys to dashboard routes and actions.
	KeyboardShortcuts Shortcuts `json:"keyboard_shortcuts,omitempty"`
}

// Shortcuts groups keyboard bindings by kind. Navigation values are
// dashboard routes; action values are action identifiers interpreted by
// the frontend.
type Shortcuts struct {
	Navigation map[string]string `json:"navigation"`
	Actions    map[string]string `json:"actions"`
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".config", "mission-control", "config.json")
}

// Load reads the configuration file at path. A missing file is not an
// error; malformed JSON is.
func Load(path string) (*File, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &f, nil
}

// ShortcutsOrEmpty returns the keyboard shortcuts with nil maps replaced
// by empty ones, so the frontend always receives both sections.
func (f *File) ShortcutsOrEmpty() Shortcuts {
	s := f.KeyboardShortcuts
	if s.Navigation == nil {
		s.Navigation = map[string]string{}
	}
	if s.Actions == nil {
		s.Actions = map[string]string{}
	}
	return s
}
