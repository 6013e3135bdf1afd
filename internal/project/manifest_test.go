package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"noisec/internal/backend"
	"noisec/internal/backend/proverif"
)

func writeManifest(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[generate]\nout = \"gen\"\n")
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Load(deep)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
	if m.Config.Generate.Out != "gen" {
		t.Fatalf("out = %q", m.Config.Generate.Out)
	}
	// defaults survive for keys the file leaves out
	if len(m.Config.Generate.Backends) != 3 || m.Config.Render.Out != "html" {
		t.Fatalf("defaults lost: %+v", m.Config)
	}
	if got := m.Resolve("gen"); got != filepath.Join(root, "gen") {
		t.Fatalf("Resolve = %q", got)
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	_, ok, err := Load(t.TempDir())
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"backend":  "[generate]\nbackends = [\"java\"]\n",
		"attacker": "[generate]\nattackers = [\"eavesdropper\"]\n",
		"psk":      "[vectors]\npsk = \"00\"\n",
		"prologue": "[vectors]\nprologue = \"zz\"\n",
		"unknown":  "[generate]\nlanguage = \"go\"\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), text)
			if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), path) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefault(dir)
	if err != nil {
		t.Fatal(err)
	}
	m, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	kinds, err := m.Config.Backends()
	if err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 3 || kinds[0] != backend.Model || kinds[2] != backend.Rust {
		t.Fatalf("backends = %v", kinds)
	}
	atts, err := m.Config.Attackers()
	if err != nil || len(atts) != 2 || atts[1] != proverif.Passive {
		t.Fatalf("attackers = %v, %v", atts, err)
	}
	if _, err := WriteDefault(dir); err == nil {
		t.Fatal("second init should fail")
	}
}

func TestHash(t *testing.T) {
	a := Hash([]byte("ab"), []byte("c"))
	b := Hash([]byte("a"), []byte("bc"))
	if a == b {
		t.Fatal("length prefix missing")
	}
	if a != Hash([]byte("ab"), []byte("c")) {
		t.Fatal("hash not stable")
	}
	if a.IsZero() || len(a.String()) != 64 {
		t.Fatalf("digest %s", a)
	}
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("Combine ignores order")
	}
}
