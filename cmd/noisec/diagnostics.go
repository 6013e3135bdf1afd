package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"noisec/internal/diag"
	"noisec/internal/diagfmt"
	"noisec/internal/driver"
	"noisec/internal/version"
)

type diagFormat string

const (
	diagPretty diagFormat = "pretty"
	diagShort  diagFormat = "short"
	diagJSON   diagFormat = "json"
	diagSarif  diagFormat = "sarif"
)

func readDiagFormat(value string) (diagFormat, error) {
	switch f := diagFormat(strings.ToLower(value)); f {
	case diagPretty, diagShort, diagJSON, diagSarif:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (expected pretty|short|json|sarif)", value)
}

type diagPrinter struct {
	format   diagFormat
	fullPath bool
	notes    bool
	args     []string
}

func (p diagPrinter) pathMode() diagfmt.PathMode {
	if p.fullPath {
		return diagfmt.PathModeAbsolute
	}
	return diagfmt.PathModeRelative
}

// print writes the diagnostics of every result; results without any are
// skipped, except for json and sarif which always emit a document per result.
func (p diagPrinter) print(w io.Writer, results []*driver.Result) error {
	for _, r := range results {
		if r == nil || r.Bag == nil {
			continue
		}
		r.Bag.Sort()
		switch p.format {
		case diagPretty:
			if r.Bag.Len() == 0 {
				continue
			}
			diagfmt.Pretty(w, r.Bag, r.FileSet, diagfmt.PrettyOpts{
				Color:     !color.NoColor,
				Context:   1,
				PathMode:  p.pathMode(),
				ShowNotes: p.notes,
				ShowFixes: p.notes,
			})
		case diagShort:
			if r.Bag.Len() == 0 {
				continue
			}
			fmt.Fprint(w, diag.FormatShortDiagnostics(r.Bag.Items(), r.FileSet, p.notes))
		case diagJSON:
			if err := diagfmt.JSON(w, r.Bag, r.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         p.pathMode(),
				IncludeNotes:     p.notes,
				IncludeFixes:     p.notes,
			}); err != nil {
				return err
			}
		case diagSarif:
			if err := diagfmt.Sarif(w, r.Bag, r.FileSet, diagfmt.SarifRunMeta{
				ToolName:       "noisec",
				ToolVersion:    version.Version,
				InvocationArgs: p.args,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// reportFailures prints errors that carry no diagnostics, such as unreadable
// files, and returns errReported when anything failed.
func reportFailures(results []*driver.Result) error {
	failed := 0
	for _, r := range results {
		if r == nil || r.Err == nil {
			continue
		}
		failed++
		if r.Bag == nil || !r.Bag.HasErrors() {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), r.Display, r.Err)
		}
	}
	if failed > 0 {
		return errReported
	}
	return nil
}
