package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validate runs the full check and flattens the errors into one value.
// Warnings do not fail validation.
func Validate(cfg Config) error {
	_, vr := NormalizeAndValidate(cfg)
	if !vr.OK() {
		return errors.New("config validation failed:\n- " + strings.Join(vr.Errors, "\n- "))
	}
	return nil
}

// SaveAtomic writes cfg to path, rotating the previous file to .bak.
// The write goes through a temp file and rename, so a crash mid-save
// never leaves a half-written config. Invalid configs are refused.
func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
