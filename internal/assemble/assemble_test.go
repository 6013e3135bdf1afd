package assemble

import (
	"errors"
	"testing"

	"noisec/internal/backend"
	"noisec/internal/diag"
)

func code(t *testing.T, err error) diag.Code {
	t.Helper()
	var pe *backend.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PreconditionError", err)
	}
	return pe.Diag.Code
}

func TestFill(t *testing.T) {
	got, err := Fill(backend.Go, "a.go", "package $NOISEC_IDENT$\n\n$NOISEC_WRITE$\n// $NOISEC_IDENT$\n",
		map[backend.Slot]string{backend.SlotIdent: "nn", backend.SlotWrite: "func w() {}\n\n"}, backend.SlotIdent)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if want := "package nn\n\nfunc w() {}\n// nn\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMarkerWithoutFragment(t *testing.T) {
	_, err := Fill(backend.Model, "m.pv", "$NOISEC_QUERIES$", map[backend.Slot]string{})
	if c := code(t, err); c != diag.GenSlotMissing {
		t.Fatalf("code = %v", c)
	}
}

func TestFragmentWithoutMarker(t *testing.T) {
	_, err := Fill(backend.Model, "m.pv", "nothing", map[backend.Slot]string{backend.SlotMain: "process 0"})
	if c := code(t, err); c != diag.GenMarkerMissing {
		t.Fatalf("code = %v", c)
	}
}

func TestDuplicateMarker(t *testing.T) {
	_, err := Fill(backend.Rust, "lib.rs", "$NOISEC_INIT$ $NOISEC_INIT$", map[backend.Slot]string{backend.SlotInit: "x"})
	if c := code(t, err); c != diag.GenSlotDuplicate {
		t.Fatalf("code = %v", c)
	}
}

func TestBundleCountsAcrossFiles(t *testing.T) {
	b := Bundle{
		Backend: backend.Go,
		Files: []File{
			{Path: "x.go", Template: "$NOISEC_INIT$"},
			{Path: "y.go", Template: "$NOISEC_INIT$"},
		},
	}
	_, err := Assemble(b, map[backend.Slot]string{backend.SlotInit: "x"})
	if c := code(t, err); c != diag.GenSlotDuplicate {
		t.Fatalf("code = %v", c)
	}
}

func TestMerge(t *testing.T) {
	m, err := Merge(backend.Go, map[backend.Slot]string{"a": "1"}, map[backend.Slot]string{"b": "2"})
	if err != nil || len(m) != 2 {
		t.Fatalf("Merge = %v, %v", m, err)
	}
	if _, err := Merge(backend.Go, map[backend.Slot]string{"a": "1"}, map[backend.Slot]string{"a": "2"}); err == nil {
		t.Fatal("duplicate slot accepted")
	}
}

func TestMarker(t *testing.T) {
	if got := Marker(backend.SlotProcesses); got != "$NOISEC_PROCESSES$" {
		t.Fatalf("Marker = %s", got)
	}
}
