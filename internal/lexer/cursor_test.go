package lexer

import (
	"testing"

	"noisec/internal/source"
)

func createFile(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.noise", []byte(content))
	return fs.Get(id)
}

func TestCursorSequentialReading(t *testing.T) {
	cursor := NewCursor(createFile("e\ns"))

	for _, want := range []byte{'e', '\n', 's'} {
		if cursor.EOF() {
			t.Fatalf("unexpected EOF before %q", want)
		}
		if got := cursor.Bump(); got != want {
			t.Fatalf("Bump = %q, want %q", got, want)
		}
	}
	if !cursor.EOF() || cursor.Peek() != 0 || cursor.Bump() != 0 {
		t.Fatalf("cursor must stay at EOF")
	}
}

func TestCursorMarkResetEat(t *testing.T) {
	cursor := NewCursor(createFile("->x"))
	m := cursor.Mark()
	if !cursor.Eat('-') || !cursor.Eat('>') || cursor.Eat('>') {
		t.Fatalf("Eat sequence mismatch")
	}
	sp := cursor.SpanFrom(m)
	if sp.Start != 0 || sp.End != 2 {
		t.Fatalf("SpanFrom = %v", sp)
	}
	cursor.Reset(m)
	if b0, b1, ok := cursor.Peek2(); !ok || b0 != '-' || b1 != '>' {
		t.Fatalf("Peek2 after reset = %q %q %v", b0, b1, ok)
	}
}
