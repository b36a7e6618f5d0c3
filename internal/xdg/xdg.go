// Package xdg provides helpers to resolve XDG Base Directory paths for firefly.
// It implements the XDG Base Directory specification for determining where the
// configuration file lives on Unix-like systems.
//
// The package handles fallback to traditional locations when XDG environment
// variables are not set and ensures private permissions on the directory.
package xdg

import (
	"os"
	"path/filepath"
)

// App is the directory name used under the XDG base directories.
const App = "firefly"

// ConfigDir returns the XDG config directory for firefly.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/firefly when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, App)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
