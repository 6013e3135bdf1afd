package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"noisec/internal/version"
)

// errReported means the failure was already printed (diagnostics).
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "noisec",
	Short: "Noise handshake pattern compiler",
	Long: `noisec compiles Noise Protocol handshake patterns into ProVerif models and
Go and Rust implementations with known-answer tests, and renders verifier
results as HTML.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupOutput,
}

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(vectorsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("config", "", "path to noisec.toml (default: search upwards)")
}

// main executes the root command. Any error exits with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		}
		os.Exit(1)
	}
}

// setupOutput applies --color and --log-level before any command runs.
func setupOutput(cmd *cobra.Command, _ []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stderr)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}

	levelFlag, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return err
	}
	level, err := logrus.ParseLevel(levelFlag)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:    color.NoColor,
		DisableTimestamp: true,
	})
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
