package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"noisec/internal/diag"
	"noisec/internal/source"
)

type palette struct {
	err, warn, info, note, path, code, caret, gutter *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		note:   mk(color.FgBlue),
		path:   mk(color.Bold),
		code:   mk(color.FgMagenta),
		caret:  mk(color.FgGreen, color.Bold),
		gutter: mk(color.FgHiBlack),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	loc, file, ok := locate(fs, d.Primary, opts.PathMode)
	msg := d.Message
	if opts.Width > 0 {
		msg = runewidth.Truncate(msg, int(opts.Width), "…")
	}
	if ok {
		fmt.Fprintf(w, "%s: ", p.path.Sprint(loc))
	}
	fmt.Fprintf(w, "%s %s: %s\n", p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()), msg)
	if ok {
		writeContext(w, fs, file, d.Primary, opts.Context, p)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nloc, nfile, nok := locate(fs, n.Span, opts.PathMode)
			if !nok {
				fmt.Fprintf(w, "  %s: %s\n", p.note.Sprint("note"), n.Msg)
				continue
			}
			fmt.Fprintf(w, "  %s: %s: %s\n", p.note.Sprint("note"), p.path.Sprint(nloc), n.Msg)
			writeContext(w, fs, nfile, n.Span, 0, p)
		}
	}
	if opts.ShowFixes {
		for _, fix := range d.Fixes {
			fmt.Fprintf(w, "  %s: %s\n", p.note.Sprint("fix"), fix.Title)
			if !opts.ShowPreview {
				continue
			}
			for _, edit := range fix.Edits {
				before, after, err := previewEdit(fs, edit)
				if err != nil {
					continue
				}
				for _, l := range before {
					fmt.Fprintf(w, "    %s %s\n", p.err.Sprint("-"), l)
				}
				for _, l := range after {
					fmt.Fprintf(w, "    %s %s\n", p.caret.Sprint("+"), l)
				}
			}
		}
	}
}

func locate(fs *source.FileSet, sp source.Span, mode PathMode) (string, *source.File, bool) {
	if fs == nil || int(sp.File) >= fs.Len() {
		return "", nil, false
	}
	f := fs.Get(sp.File)
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode.String(), fs.BaseDir()), start.Line, start.Col), f, true
}

// writeContext prints the lines around sp with a gutter and marks the span
// on its first line.
func writeContext(w io.Writer, fs *source.FileSet, f *source.File, sp source.Span, context int8, p palette) {
	start, end := fs.Resolve(sp)
	first := start.Line
	if c := uint32(max(context, 0)); first > c {
		first -= c
	} else {
		first = 1
	}
	last := start.Line + uint32(max(context, 0))
	width := len(fmt.Sprint(last))

	for n := first; n <= last; n++ {
		line := f.GetLine(n)
		if n > start.Line && line == "" {
			break
		}
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, n), line)
		if n != start.Line {
			continue
		}
		col := int(start.Col) - 1
		span := 1
		if end.Line == start.Line && end.Col > start.Col {
			span = int(end.Col - start.Col)
		}
		pad := runewidth.StringWidth(safePrefix(line, col))
		marker := "^" + strings.Repeat("~", span-1)
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", pad), p.caret.Sprint(marker))
	}
}

func safePrefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n > len(s) {
		return s
	}
	return s[:n]
}
