// Package catalog ships the standard handshake patterns of the Noise
// Protocol Framework as pattern files.
package catalog

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed patterns/*.noise
var files embed.FS

const ext = ".noise"

// Names lists the bundled patterns in lexical order.
func Names() []string {
	entries, err := fs.ReadDir(files, "patterns")
	if err != nil {
		panic(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names
}

// Source returns the pattern text of a bundled pattern.
func Source(name string) (string, bool) {
	b, err := files.ReadFile("patterns/" + name + ext)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Path is the virtual file name used when a bundled pattern is loaded.
func Path(name string) string {
	return "builtin/" + name + ext
}
