package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir writes rendered report files under a base directory.
type Dir struct {
	base string
}

// NewDir ensures base exists and returns a handle to it.
func NewDir(base string) (*Dir, error) {
	if base == "" {
		base = "./reports"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &Dir{base: base}, nil
}

// Save writes data to name under the base directory and returns the full
// path. The file is written to a temporary sibling and renamed into place so
// readers never observe a partial document.
func (d *Dir) Save(name string, data []byte) (string, error) {
	path, err := d.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move report file: %w", err)
	}
	return path, nil
}

func (d *Dir) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid report file name %q", name)
	}
	return filepath.Join(d.base, clean), nil
}
