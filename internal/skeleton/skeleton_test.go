package skeleton

import (
	"strings"
	"testing"
)

func TestEveryTemplateReadable(t *testing.T) {
	for _, name := range []string{Model, GoSource, GoTest, GoMod, RustLib, RustTest, RustCargo, HTMLOverview, HTMLDetail, HTMLStyle} {
		s, err := Read(name)
		if err != nil {
			t.Fatalf("Read(%s): %v", name, err)
		}
		if strings.TrimSpace(s) == "" {
			t.Fatalf("%s is empty", name)
		}
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) < 10 {
		t.Fatalf("got %d templates: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read("nope.tmpl"); err == nil {
		t.Fatal("expected error for missing template")
	}
}
