package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("NX.noise", []byte("NX:\n  -> e\n"), 0)
	id2 := fs.Add("NX.noise", []byte("NX:\n  -> e\n  <- e, ee\n"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("NX.noise")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d, true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "NX:\n  -> e\n" {
		t.Errorf("old version content changed: %q", got)
	}
	if fs.Len() != 2 {
		t.Errorf("Len = %d, want 2", fs.Len())
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem", []byte("NX:\n  -> e\n  <- e, ee"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{3, LineCol{Line: 1, Col: 4}},
		{4, LineCol{Line: 2, Col: 1}},
		{7, LineCol{Line: 2, Col: 4}},
		{16, LineCol{Line: 3, Col: 6}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "KK.noise")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("KK:\r\n  -> s\r\n")...)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "KK:\n  -> s\n" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF bits", f.Flags)
	}
	if f.Flags&FileVirtual != 0 {
		t.Errorf("loaded file must not be virtual")
	}
}

func TestNormalizeNFC(t *testing.T) {
	// "e" + combining acute accent composes to a single rune
	content, flags := Normalize([]byte("e\u0301"))
	if string(content) != "\u00e9" {
		t.Errorf("content = %q", content)
	}
	if flags&FileNormalizedNFC == 0 {
		t.Errorf("expected NFC flag")
	}
}

func TestGetLineAndText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem", []byte("XX:\n  -> e\n  <- e, ee, s, es\n"))
	f := fs.Get(id)

	if got := f.GetLine(2); got != "  -> e" {
		t.Errorf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Errorf("GetLine(9) = %q, want empty", got)
	}
	if got := f.Text(Span{File: id, Start: 0, End: 2}); got != "XX" {
		t.Errorf("Text = %q", got)
	}
}
