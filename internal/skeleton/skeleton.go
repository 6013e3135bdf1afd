// Package skeleton embeds the fixed parts of every generated artefact. Each
// template carries $NOISEC_<SLOT>$ markers that the assembler fills in.
package skeleton

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed templates
var files embed.FS

// Template paths.
const (
	Model     = "pv/model.pv"
	GoSource  = "go/noise.go.tmpl"
	GoTest    = "go/noise_test.go.tmpl"
	GoMod     = "go/go.mod.tmpl"
	RustLib   = "rs/lib.rs.tmpl"
	RustTest  = "rs/handshake.rs.tmpl"
	RustCargo = "rs/Cargo.toml.tmpl"

	HTMLOverview = "html/index.html"
	HTMLDetail   = "html/detail.html"
	HTMLStyle    = "html/style.css"
)

// Read returns the template stored under name.
func Read(name string) (string, error) {
	b, err := files.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("skeleton %s: %w", name, err)
	}
	return string(b), nil
}

// MustRead is Read for templates known to exist.
func MustRead(name string) string {
	s, err := Read(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Names lists every embedded template.
func Names() []string {
	var out []string
	_ = fs.WalkDir(files, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		out = append(out, path[len("templates/"):])
		return nil
	})
	sort.Strings(out)
	return out
}
