package diag

import "testing"

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"info":    SevInfo,
		"WARNING": SevWarning,
		"warn":    SevWarning,
		" error ": SevError,
	}
	for in, want := range cases {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Fatalf("ParseSeverity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSeverityLabel(t *testing.T) {
	for _, sev := range []Severity{SevInfo, SevWarning, SevError} {
		back, err := ParseSeverity(sev.Label())
		if err != nil || back != sev {
			t.Fatalf("%v does not round-trip through its label", sev)
		}
	}
}
