package diagfmt

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"noisec/internal/diag"
	"noisec/internal/source"
)

// previewEdit applies edit to the whole lines it touches and returns those
// lines before and after the change.
func previewEdit(fs *source.FileSet, edit diag.FixEdit) (before, after []string, err error) {
	if fs == nil {
		return nil, nil, errors.New("nil FileSet")
	}
	f := fs.Get(edit.Span.File)
	if f == nil {
		return nil, nil, fmt.Errorf("file %d not in FileSet", edit.Span.File)
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return nil, nil, err
	}
	if edit.Span.Start > edit.Span.End || edit.Span.End > size {
		return nil, nil, fmt.Errorf("edit span %s outside file", edit.Span)
	}

	from := lineStart(f, edit.Span.Start)
	to := lineEnd(f, edit.Span.End, size)
	block := string(f.Content[from:to])
	changed := block[:edit.Span.Start-from] + edit.NewText + block[edit.Span.End-from:]
	return previewLines(block), previewLines(changed), nil
}

// lineStart is the offset of the first byte of the line holding off.
func lineStart(f *source.File, off uint32) uint32 {
	start := uint32(0)
	for _, nl := range f.LineIdx {
		if nl >= off {
			break
		}
		start = nl + 1
	}
	return start
}

// lineEnd is the offset just past the newline ending the line holding off.
func lineEnd(f *source.File, off, size uint32) uint32 {
	for _, nl := range f.LineIdx {
		if nl >= off {
			return nl + 1
		}
	}
	return size
}

func previewLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
