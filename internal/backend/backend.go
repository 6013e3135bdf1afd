// Package backend holds what the three generators share: the IR walker, the
// Emitter contract and the slot-keyed FragmentSet the assembler consumes.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"noisec/internal/diag"
	"noisec/internal/source"
)

// Kind identifies a generator.
type Kind uint8

const (
	Model Kind = iota // ProVerif model
	Go
	Rust
)

var kindNames = [...]string{Model: "pv", Go: "go", Rust: "rs"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind accepts pv, go and rs (also proverif and rust).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "pv", "proverif", "model":
		return Model, nil
	case "go", "golang":
		return Go, nil
	case "rs", "rust":
		return Rust, nil
	}
	return 0, fmt.Errorf("unknown backend %q (want pv, go or rs)", s)
}

// Slot names a fragment position in a skeleton.
type Slot string

const (
	SlotHeader    Slot = "header"
	SlotInit      Slot = "init"
	SlotWrite     Slot = "write"
	SlotRead      Slot = "read"
	SlotProcesses Slot = "processes"

	// model-only slots
	SlotParams    Slot = "params"
	SlotMessages  Slot = "messages"
	SlotQueries   Slot = "queries"
	SlotKeys      Slot = "keys"
	SlotLeaks     Slot = "leaks"
	SlotMain      Slot = "main"

	// manifest and harness slots
	SlotIdent   Slot = "ident"
	SlotVectors Slot = "vectors"
	SlotSession Slot = "session"
)

// CommonSlots are produced by every generator.
var CommonSlots = []Slot{SlotHeader, SlotInit, SlotWrite, SlotRead, SlotProcesses}

// Fragment is one slot's text.
type Fragment struct {
	Slot Slot
	Text string
}

// EffectCount records how many token effects and message blocks a path produced.
type EffectCount struct {
	WriteTokens int
	ReadTokens  int
	WriteBlocks int
	ReadBlocks  int
}

// FragmentSet is a generator's output: text per slot plus bookkeeping that
// tests use to check one block per message and one effect per token.
type FragmentSet struct {
	Backend   Kind
	Fragments map[Slot]string
	Effects   []EffectCount
}

func NewFragmentSet(kind Kind, messages int) *FragmentSet {
	return &FragmentSet{
		Backend:   kind,
		Fragments: make(map[Slot]string),
		Effects:   make([]EffectCount, messages),
	}
}

// Put stores a fragment; a slot may be produced only once.
func (fs *FragmentSet) Put(slot Slot, text string) error {
	if _, dup := fs.Fragments[slot]; dup {
		return newPrecondition(fs.Backend, diag.GenSlotDuplicate, fmt.Sprintf("slot %s produced twice", slot))
	}
	fs.Fragments[slot] = text
	return nil
}

// Get returns the fragment of slot.
func (fs *FragmentSet) Get(slot Slot) (string, bool) {
	text, ok := fs.Fragments[slot]
	return text, ok
}

// Slots lists produced slots in lexical order.
func (fs *FragmentSet) Slots() []Slot {
	out := make([]Slot, 0, len(fs.Fragments))
	for s := range fs.Fragments {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Require fails when any of slots was not produced.
func (fs *FragmentSet) Require(slots ...Slot) error {
	for _, s := range slots {
		if _, ok := fs.Fragments[s]; !ok {
			return newPrecondition(fs.Backend, diag.GenSlotMissing, fmt.Sprintf("slot %s was not produced", s))
		}
	}
	return nil
}

func noSpan() source.Span { return source.Span{} }
