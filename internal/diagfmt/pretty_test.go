package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"noisec/internal/diag"
	"noisec/internal/source"
)

func nxBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	content := []byte("NX:\n  -> e\n  <- e, ee, s, ex\n")
	fileID := fs.AddVirtual("/home/user/patterns/NX.noise", content)
	fs.SetBaseDir("/home/user")

	bag := diag.NewBag(10)
	d := diag.New(
		diag.SevError,
		diag.SynUnknownToken,
		source.Span{File: fileID, Start: 26, End: 28},
		"unknown token \"ex\"",
	)
	d = d.WithNote(source.Span{File: fileID, Start: 4, End: 11}, "first message here")
	d = d.WithFix("replace with es", diag.FixEdit{Span: source.Span{File: fileID, Start: 26, End: 28}, NewText: "es"})
	bag.Add(d)
	return bag, fs
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag, fs := nxBag(t)

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/patterns/NX.noise:3:16"},
		{"Relative path", PathModeRelative, "patterns/NX.noise:3:16"},
		{"Basename only", PathModeBasename, "NX.noise:3:16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR SYN2006: unknown token") {
				t.Errorf("Expected header line, got:\n%s", output)
			}
		})
	}
}

// TestPrettyContext проверяет вывод строки контекста и подчёркивания
func TestPrettyContext(t *testing.T) {
	bag, fs := nxBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})
	lines := strings.Split(buf.String(), "\n")
	want := []string{
		"NX.noise:3:16: ERROR SYN2006: unknown token \"ex\"",
		"2 |   -> e",
		"3 |   <- e, ee, s, ex",
		"  |"+strings.Repeat(" ", 16)+"^~",
	}
	if len(lines) < len(want) {
		t.Fatalf("too few lines:\n%s", buf.String())
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d:\n got %q\nwant %q", i, lines[i], w)
		}
	}
}

// TestPrettyNotesAndFixes проверяет вывод заметок и исправлений
func TestPrettyNotesAndFixes(t *testing.T) {
	bag, fs := nxBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true, ShowPreview: true})
	out := buf.String()
	for _, s := range []string{
		"note: NX.noise:2:1: first message here",
		"fix: replace with es",
		"- " + "  <- e, ee, s, ex",
		"+ " + "  <- e, ee, s, es",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("missing %q in:\n%s", s, out)
		}
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") || strings.Contains(buf.String(), "fix:") {
		t.Errorf("notes and fixes printed without options:\n%s", buf.String())
	}
}

// TestPrettyColor проверяет, что цвет управляется опцией
func TestPrettyColor(t *testing.T) {
	bag, fs := nxBag(t)
	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Error("plain output contains escape codes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("colored output has no escape codes")
	}
}

// TestPrettyWithoutFile проверяет диагностику без файла (ошибки вывода верификатора)
func TestPrettyWithoutFile(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.VerNoQueries, source.Span{File: 3}, "no query results"))
	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{})
	if got := buf.String(); got != "ERROR VER5001: no query results\n" {
		t.Errorf("got %q", got)
	}
}

func TestPreviewEdit(t *testing.T) {
	bag, fs := nxBag(t)
	edit := bag.Items()[0].Fixes[0].Edits[0]
	before, after, err := previewEdit(fs, edit)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 1 || before[0] != "  <- e, ee, s, ex" {
		t.Fatalf("before = %q", before)
	}
	if len(after) != 1 || after[0] != "  <- e, ee, s, es" {
		t.Fatalf("after = %q", after)
	}

	edit.Span.End = 1000
	if _, _, err := previewEdit(fs, edit); err == nil {
		t.Fatal("expected error for span past end of file")
	}
}
