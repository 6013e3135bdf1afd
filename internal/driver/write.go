package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteArtifacts writes arts under outDir. Every file is staged next to its
// destination first; nothing is renamed into place until all of them are
// staged, so a failure leaves no new artefact behind.
func WriteArtifacts(outDir string, arts []Artifact) ([]string, error) {
	type staged struct {
		tmp, dst string
	}
	var (
		pending []staged
		err     error
	)
	defer func() {
		if err == nil {
			return
		}
		for _, s := range pending {
			_ = os.Remove(s.tmp)
		}
	}()

	for _, a := range arts {
		var dst string
		if dst, err = artifactPath(outDir, a.Path); err != nil {
			return nil, err
		}
		if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, err
		}
		var f *os.File
		if f, err = os.CreateTemp(filepath.Dir(dst), ".noisec-*"); err != nil {
			return nil, err
		}
		pending = append(pending, staged{tmp: f.Name(), dst: dst})
		if _, err = f.Write(a.Content); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write %s: %w", a.Path, err)
		}
		if err = f.Close(); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.Path, err)
		}
		if err = os.Chmod(f.Name(), 0o644); err != nil { //nolint:gosec // generated sources are meant to be read
			return nil, err
		}
	}

	written := make([]string, 0, len(pending))
	for i, s := range pending {
		if err = os.Rename(s.tmp, s.dst); err != nil {
			// earlier renames already landed; drop only what is still staged
			pending = pending[i:]
			return written, err
		}
		written = append(written, s.dst)
	}
	return written, nil
}

// artifactPath joins rel onto outDir, refusing anything that escapes it.
func artifactPath(outDir, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid artifact path %q", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.New("artifact path escapes output directory: " + rel)
	}
	return filepath.Join(outDir, clean), nil
}
