package driver

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/sirupsen/logrus"

	"noisec/internal/backend"
	"noisec/internal/backend/proverif"
	"noisec/internal/render"
	"noisec/internal/sema"
	"noisec/internal/source"
	"noisec/internal/verifier"
)

// RenderRequest names the inputs of one render.
type RenderRequest struct {
	Pattern string
	// Active and Passive are verifier output files for the two models.
	Active  string
	Passive string
	// Model is the active model the verifier ran on; empty regenerates it
	// from the pattern.
	Model string
	// Message restricts output to one detail page; -1 renders everything.
	Message int
	Mermaid bool
}

// RenderResult is the rendered pages, not yet written.
type RenderResult struct {
	Overview  *render.DiagramModel
	Details   []*render.DiagramModel
	Artifacts []Artifact
}

// Render reads both verifier outputs and renders the pages of the pattern.
// Its errors never involve the compile pipeline: a ParseError here aborts
// only this render.
func Render(ctx context.Context, req RenderRequest, opts Options) (*RenderResult, error) {
	opts.normalize()
	log := opts.Log.WithField("pattern", req.Pattern)

	fs := source.NewFileSet()
	id, err := fs.Load(req.Pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", req.Pattern, err)
	}
	front, err := Check(fs, id, opts)
	if err != nil {
		return nil, err
	}
	ir := front.IR
	if req.Message >= len(ir.Pattern.Messages) {
		return nil, fmt.Errorf("pattern %s has %d messages, no message %d",
			ir.Pattern.Name, len(ir.Pattern.Messages), req.Message)
	}

	active, err := readResults(req.Active, proverif.Active)
	if err != nil {
		return nil, err
	}
	passive, err := readResults(req.Passive, proverif.Passive)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"active":  active.Summary.String(),
		"passive": passive.Summary.String(),
	}).Debug("verifier output read")

	model, err := activeModel(req.Model, ir)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &RenderResult{}
	if out.Overview, err = render.RenderOverview(ir.Pattern, active, passive); err != nil {
		return nil, err
	}
	if req.Message < 0 {
		page, err := render.Overview(out.Overview)
		if err != nil {
			return nil, err
		}
		out.add(render.OverviewPath(ir.Pattern), page)
		if req.Mermaid {
			out.add(path.Join(ir.Pattern.Name, "diagram.mmd"), []byte(render.Mermaid(out.Overview)))
		}
	}

	for i := range ir.Pattern.Messages {
		if req.Message >= 0 && i != req.Message {
			continue
		}
		d, err := render.RenderDetailed(model, ir.Pattern, i, active, passive)
		if err != nil {
			return nil, err
		}
		page, err := render.Detail(d)
		if err != nil {
			return nil, err
		}
		out.Details = append(out.Details, d)
		out.add(render.DetailPath(ir.Pattern, i), page)
	}
	return out, nil
}

func (r *RenderResult) add(p string, content []byte) {
	r.Artifacts = append(r.Artifacts, Artifact{Path: p, Backend: "html", Content: content})
}

func readResults(file string, att proverif.Attacker) (*verifier.Results, error) {
	text, err := os.ReadFile(file) // #nosec G304 -- path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read %s output: %w", att, err)
	}
	return verifier.Read(string(text), verifier.Options{Attacker: att, Name: file})
}

func activeModel(file string, ir *sema.IR) (string, error) {
	if file != "" {
		text, err := os.ReadFile(file) // #nosec G304 -- path comes from the command line
		if err != nil {
			return "", fmt.Errorf("failed to read model: %w", err)
		}
		return string(text), nil
	}
	fs, err := proverif.Generate(ir, proverif.Options{Attacker: proverif.Active})
	if err != nil {
		return "", err
	}
	out, err := proverif.Assemble(ir, proverif.Active, fs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", backend.Model, err)
	}
	return string(out.Content), nil
}
