// Package version holds build metadata for the noisec CLI. The variables can
// be overridden at build time via -ldflags.
package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored returns Version with major, minor and patch in distinct colours.
// Color output follows color.NoColor.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Describe is the multi-line text printed by noisec version.
func Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "noisec %s\n", Colored())
	if GitCommit != "" {
		fmt.Fprintf(&b, "commit: %s\n", GitCommit)
	}
	if GitMessage != "" {
		fmt.Fprintf(&b, "message: %s\n", GitMessage)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, "built: %s\n", BuildDate)
	}
	return b.String()
}
