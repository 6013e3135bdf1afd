package rust

import (
	"path"

	"noisec/internal/assemble"
	"noisec/internal/backend"
	"noisec/internal/sema"
	"noisec/internal/skeleton"
)

// Dir is the crate directory of the generated implementation.
func Dir(ir *sema.IR) string {
	return path.Join("rs", ir.Pattern.Name)
}

func SourcePath(ir *sema.IR) string {
	return path.Join(Dir(ir), "src", "lib.rs")
}

// Assemble produces lib.rs and Cargo.toml.
func Assemble(ir *sema.IR, fs *backend.FragmentSet) ([]assemble.Output, error) {
	return assemble.Assemble(assemble.Bundle{
		Backend: backend.Rust,
		Files: []assemble.File{
			{Path: SourcePath(ir), Template: skeleton.MustRead(skeleton.RustLib)},
			{Path: path.Join(Dir(ir), "Cargo.toml"), Template: skeleton.MustRead(skeleton.RustCargo)},
		},
		Repeatable: []backend.Slot{backend.SlotIdent},
	}, fs.Fragments)
}
