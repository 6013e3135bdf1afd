package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ManifestName is the file name of the project manifest.
const ManifestName = "noisec.toml"

// FindManifest looks for noisec.toml in startDir and each of its parents.
// ok is false when the filesystem root is reached without one.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		candidate := filepath.Join(dir, ManifestName)
		st, err := os.Stat(candidate)
		switch {
		case err == nil && !st.IsDir():
			return candidate, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
	}
	return "", false, nil
}
