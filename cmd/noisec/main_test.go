package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"noisec/internal/catalog"
	"noisec/internal/driver"
)

// execute runs the root command in a fresh temporary directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--color", "off", "--quiet", "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadDiagFormat(t *testing.T) {
	for _, ok := range []string{"pretty", "SHORT", "json", "sarif"} {
		if _, err := readDiagFormat(ok); err != nil {
			t.Fatalf("readDiagFormat(%q): %v", ok, err)
		}
	}
	if _, err := readDiagFormat("xml"); err == nil {
		t.Fatal("expected error for xml")
	}
}

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "auto": uiModeAuto, " On ": uiModeOn, "off": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Fatal("expected error")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatal("explicit ui modes must win")
	}
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "XX.noise")
	if err := os.WriteFile(file, []byte("XX:\n  -> e\n  <- e, ee, s, es\n  -> s, se\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if in, err := resolveInput("builtin:NN"); err != nil || in.kind != inputCatalog || in.name != "NN" {
		t.Fatalf("builtin:NN = %+v, %v", in, err)
	}
	if in, err := resolveInput("builtin:all"); err != nil || in.name != "all" {
		t.Fatalf("builtin:all = %+v, %v", in, err)
	}
	if _, err := resolveInput("builtin:QQ"); err == nil {
		t.Fatal("expected error for unknown built-in")
	}
	if in, err := resolveInput(dir); err != nil || in.kind != inputDir {
		t.Fatalf("dir = %+v, %v", in, err)
	}
	if in, err := resolveInput(file); err != nil || in.kind != inputFile {
		t.Fatalf("file = %+v, %v", in, err)
	}
	if _, err := resolveInput(filepath.Join(dir, "missing.noise")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGeneratePlanCatalog(t *testing.T) {
	var opts driver.Options
	files, _, err := generatePlan(input{kind: inputCatalog, name: "NN"}, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != catalog.Path("NN") {
		t.Fatalf("files = %v", files)
	}

	files, _, err = generatePlan(input{kind: inputCatalog, name: "all"}, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != len(catalog.Names()) {
		t.Fatalf("got %d files, want %d", len(files), len(catalog.Names()))
	}
}

func TestGenerateWritesArtifacts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	if _, err := execute(t, "generate", "--ui", "off", "-o", out, "builtin:NN"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, rel := range []string{"NN.noise.active.pv", "NN.noise.passive.pv", "go/NN/nn.go", "rs/NN/src/lib.rs"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("missing %s: %v", rel, err)
		}
	}
}

func TestCheckReportsErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.noise")
	if err := os.WriteFile(bad, []byte("NN:\n  -> e, ee\n  <- e\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "check", "--format", "short", bad)
	if err != errReported { //nolint:errorlint // sentinel
		t.Fatalf("check err = %v, want errReported", err)
	}
}

func TestParseJSON(t *testing.T) {
	out, err := execute(t, "parse", "--format", "json", "builtin:XX")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(doc) == 0 {
		t.Fatal("empty document")
	}
}

func TestVectorsYAML(t *testing.T) {
	out, err := execute(t, "vectors", "--format", "yaml", "builtin:NN")
	if err != nil {
		t.Fatalf("vectors: %v", err)
	}
	if !strings.Contains(out, "protocol_name: Noise_NN_25519_ChaChaPoly_BLAKE2s") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestInitRefusesSecondRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	if _, err := execute(t, "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, rel := range []string{"noisec.toml", "patterns/XX.noise"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("missing %s: %v", rel, err)
		}
	}
	if _, err := execute(t, "init", dir); err == nil {
		t.Fatal("second init should fail")
	}
}

func TestCatalogLists(t *testing.T) {
	out, err := execute(t, "catalog")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(out, "Noise_XX_25519_ChaChaPoly_BLAKE2s") {
		t.Fatalf("XX missing from listing:\n%s", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var p versionPayload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatal(err)
	}
	if p.Tool != "noisec" || p.Version == "" {
		t.Fatalf("payload = %+v", p)
	}
}
