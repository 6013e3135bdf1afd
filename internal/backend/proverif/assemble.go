package proverif

import (
	"fmt"

	"noisec/internal/assemble"
	"noisec/internal/backend"
	"noisec/internal/sema"
	"noisec/internal/skeleton"
)

// Path is where the model for attacker is written.
func Path(ir *sema.IR, attacker Attacker) string {
	return fmt.Sprintf("%s.noise.%s.pv", ir.Pattern.Name, attacker)
}

// Assemble fills the model skeleton with fs.
func Assemble(ir *sema.IR, attacker Attacker, fs *backend.FragmentSet) (assemble.Output, error) {
	out, err := assemble.Assemble(assemble.Bundle{
		Backend: backend.Model,
		Files:   []assemble.File{{Path: Path(ir, attacker), Template: skeleton.MustRead(skeleton.Model)}},
	}, fs.Fragments)
	if err != nil {
		return assemble.Output{}, err
	}
	return out[0], nil
}
