package golang

import (
	"path"

	"noisec/internal/assemble"
	"noisec/internal/backend"
	"noisec/internal/sema"
	"noisec/internal/skeleton"
)

// Dir is the package directory of the generated implementation.
func Dir(ir *sema.IR) string {
	return path.Join("go", ir.Pattern.Name)
}

// SourcePath is the generated implementation file.
func SourcePath(ir *sema.IR) string {
	ident, _ := ir.Pattern.Identifier()
	return path.Join(Dir(ir), ident+".go")
}

// Assemble produces the implementation and its go.mod.
func Assemble(ir *sema.IR, fs *backend.FragmentSet) ([]assemble.Output, error) {
	return assemble.Assemble(assemble.Bundle{
		Backend: backend.Go,
		Files: []assemble.File{
			{Path: SourcePath(ir), Template: skeleton.MustRead(skeleton.GoSource)},
			{Path: path.Join(Dir(ir), "go.mod"), Template: skeleton.MustRead(skeleton.GoMod)},
		},
		Repeatable: []backend.Slot{backend.SlotIdent},
	}, fs.Fragments)
}
