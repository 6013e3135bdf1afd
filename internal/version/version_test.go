package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	_ = GitCommit
	_ = BuildDate
}

func TestColoredPlain(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	if got := Colored(); got != Version {
		t.Fatalf("Colored() = %q, want %q", got, Version)
	}
}

func TestDescribeOverrides(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		color.NoColor = old
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "1.2.3"
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"

	got := Describe()
	for _, want := range []string{"noisec 1.2.3\n", "commit: abc123def456\n", "built: 2024-01-15T10:30:00Z\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "message:") {
		t.Errorf("empty GitMessage printed:\n%s", got)
	}
}
