package buildpipeline

import (
	"path/filepath"
	"sort"
	"strings"
)

// DisplayFiles turns paths into the names shown in progress output: relative
// to baseDir when under it, slash separated, sorted and deduplicated.
func DisplayFiles(files []string, baseDir string) []string {
	if len(files) == 0 {
		return files
	}
	normalized := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))

	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}

	for _, file := range files {
		if file == "" {
			continue
		}
		path := DisplayName(file, base)
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		normalized = append(normalized, path)
	}
	sort.Strings(normalized)
	return normalized
}

// DisplayName is DisplayFiles for a single path.
func DisplayName(file, baseDir string) string {
	path := filepath.Clean(file)
	if baseDir != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(baseDir, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}
