package config

import (
	"errors"
	"os"
	"path/filepath"
)

// EnsureDefaultConfig writes the embedded default template to path on
// first run. An empty path resolves to the user config dir. Returns
// the path actually in use.
func EnsureDefaultConfig(path string) (string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, defaultYAML, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
