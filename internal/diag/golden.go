package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"noisec/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics one per line, sorted by position,
// in the form "error SYN2006 NX.noise:2:8 message". Used by tests and --format short.
func FormatGoldenDiagnostics(diags []*Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return formatDiagnostics(diags, fs, includeNotes, true)
}

// FormatShortDiagnostics keeps emission order.
func FormatShortDiagnostics(diags []*Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return formatDiagnostics(diags, fs, includeNotes, false)
}

func formatDiagnostics(diags []*Diagnostic, fs *source.FileSet, includeNotes, sorted bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = appendDiagnostic(rendered, d, fs, includeNotes)
	}

	if sorted {
		sort.SliceStable(rendered, func(i, j int) bool {
			di, dj := rendered[i], rendered[j]
			if di.Path != dj.Path {
				return di.Path < dj.Path
			}
			if di.Line != dj.Line {
				return di.Line < dj.Line
			}
			if di.Column != dj.Column {
				return di.Column < dj.Column
			}
			if di.Severity != dj.Severity {
				return di.Severity < dj.Severity
			}
			if di.Code != dj.Code {
				return di.Code < dj.Code
			}
			return di.Message < dj.Message
		})
	}

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []goldenDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []goldenDiagnostic {
	if loc, ok := resolveSpan(fs, d.Primary); ok {
		out = append(out, goldenDiagnostic{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Path:     loc.Path,
			Line:     loc.Line,
			Column:   loc.Column,
			Message:  sanitizeMessage(d.Message),
		})
	}
	if !includeNotes {
		return out
	}
	for _, note := range d.Notes {
		nloc, ok := resolveSpan(fs, note.Span)
		if !ok {
			continue
		}
		out = append(out, goldenDiagnostic{
			Severity: "note",
			Code:     d.Code.ID(),
			Path:     nloc.Path,
			Line:     nloc.Line,
			Column:   nloc.Column,
			Message:  sanitizeMessage(note.Msg),
		})
	}
	return out
}

type resolvedSpan struct {
	Path   string
	Line   uint32
	Column uint32
}

func resolveSpan(fs *source.FileSet, span source.Span) (resolvedSpan, bool) {
	if int(span.File) >= fs.Len() {
		return resolvedSpan{}, false
	}
	file := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return resolvedSpan{
		Path:   normalizePath(file.FormatPath("relative", fs.BaseDir())),
		Line:   start.Line,
		Column: start.Col,
	}, true
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
