package catalog

import (
	"strings"
	"testing"
)

func TestNamesAndSource(t *testing.T) {
	names := Names()
	if len(names) != 59 {
		t.Fatalf("bundled patterns = %d, want 59", len(names))
	}
	for _, name := range names {
		src, ok := Source(name)
		if !ok {
			t.Fatalf("Source(%s) missing", name)
		}
		if !strings.HasPrefix(src, name+":\n") {
			t.Fatalf("%s: header line mismatch: %q", name, strings.SplitN(src, "\n", 2)[0])
		}
	}
	if _, ok := Source("ZZ"); ok {
		t.Fatalf("unexpected pattern ZZ")
	}
}
