package backend

import (
	"fmt"
	"strings"
)

// Writer is an indenting text buffer for generated code.
type Writer struct {
	buf    strings.Builder
	indent int
	unit   string
}

// NewWriter returns a Writer indenting with unit (e.g. "\t" or "    ").
func NewWriter(unit string) *Writer {
	return &Writer{unit: unit}
}

// Line writes one indented line.
func (w *Writer) Line(format string, args ...any) {
	if format == "" {
		w.buf.WriteByte('\n')
		return
	}
	for range w.indent {
		w.buf.WriteString(w.unit)
	}
	if len(args) == 0 {
		w.buf.WriteString(format)
	} else {
		fmt.Fprintf(&w.buf, format, args...)
	}
	w.buf.WriteByte('\n')
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.buf.WriteByte('\n') }

func (w *Writer) Indent() { w.indent++ }

func (w *Writer) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

// Raw appends text as is.
func (w *Writer) Raw(text string) { w.buf.WriteString(text) }

func (w *Writer) String() string { return w.buf.String() }

func (w *Writer) Len() int { return w.buf.Len() }
