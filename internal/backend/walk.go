package backend

import (
	"strings"

	"noisec/internal/diag"
	"noisec/internal/sema"
)

// Path selects the sending or the receiving side of a message.
type Path uint8

const (
	WritePath Path = iota
	ReadPath
)

func (p Path) String() string {
	if p == WritePath {
		return "write"
	}
	return "read"
}

// Emitter is the per-language strategy driven by Walk. Walk calls Token once
// per token, in token order, between BeginMessage and EndMessage.
type Emitter interface {
	Kind() Kind
	// Indent is the indentation unit of the target language.
	Indent() string
	// Covers reports whether the backend emits a block for m. Implementation
	// backends handle transport messages in their fixed skeleton code.
	Covers(m *sema.Message) bool
	Init(w *Writer, ir *sema.IR)
	BeginMessage(w *Writer, ir *sema.IR, m *sema.Message, path Path)
	Token(w *Writer, ir *sema.IR, m *sema.Message, st sema.Step, path Path)
	EndMessage(w *Writer, ir *sema.IR, m *sema.Message, path Path)
	// Declarations returns the session glue and any backend-specific slots.
	Declarations(ir *sema.IR) ([]Fragment, error)
	// Slots lists every slot the backend must produce.
	Slots() []Slot
}

// Walk drives em over ir and collects its fragments.
func Walk(ir *sema.IR, em Emitter) (*FragmentSet, error) {
	if ir == nil || ir.Pattern == nil {
		return nil, newPrecondition(em.Kind(), diag.GenPrecondition, "nil IR")
	}
	if _, ok := ir.Pattern.Identifier(); !ok {
		return nil, Preconditionf(em.Kind(), diag.GenPrecondition,
			"pattern name %q does not yield a valid identifier", ir.Pattern.Name)
	}

	fs := NewFragmentSet(em.Kind(), len(ir.Messages))
	if err := fs.Put(SlotHeader, Header(ir)); err != nil {
		return nil, err
	}

	w := NewWriter(em.Indent())
	em.Init(w, ir)
	if err := fs.Put(SlotInit, w.String()); err != nil {
		return nil, err
	}

	for _, path := range []Path{WritePath, ReadPath} {
		w := NewWriter(em.Indent())
		for i := range ir.Messages {
			m := &ir.Messages[i]
			if !em.Covers(m) {
				continue
			}
			em.BeginMessage(w, ir, m, path)
			for _, st := range m.Steps {
				em.Token(w, ir, m, st, path)
				fs.count(i, path, true)
			}
			em.EndMessage(w, ir, m, path)
			fs.count(i, path, false)
		}
		slot := SlotWrite
		if path == ReadPath {
			slot = SlotRead
		}
		if err := fs.Put(slot, w.String()); err != nil {
			return nil, err
		}
	}

	decls, err := em.Declarations(ir)
	if err != nil {
		return nil, err
	}
	for _, f := range decls {
		if err := fs.Put(f.Slot, f.Text); err != nil {
			return nil, err
		}
	}
	if err := fs.Require(em.Slots()...); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FragmentSet) count(i int, path Path, token bool) {
	e := &fs.Effects[i]
	switch {
	case path == WritePath && token:
		e.WriteTokens++
	case path == WritePath:
		e.WriteBlocks++
	case token:
		e.ReadTokens++
	default:
		e.ReadBlocks++
	}
}

// Header is the pattern in canonical notation, one line per message and
// no trailing newline.
func Header(ir *sema.IR) string {
	lines := strings.Split(strings.TrimRight(ir.Pattern.String(), "\n"), "\n")
	return strings.Join(lines, "\n")
}

// AllSlots appends extra to CommonSlots.
func AllSlots(extra ...Slot) []Slot {
	out := make([]Slot, 0, len(CommonSlots)+len(extra))
	out = append(out, CommonSlots...)
	return append(out, extra...)
}
