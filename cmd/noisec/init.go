package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"noisec/internal/catalog"
	"noisec/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a noisec project",
	Long: `Create a project manifest (noisec.toml) with default settings and a
patterns directory holding one example pattern. If [path] is omitted, the
current directory is initialized; a missing directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("example", "XX", "built-in pattern copied into patterns/ (empty for none)")
}

func runInit(cmd *cobra.Command, args []string) error {
	example, err := cmd.Flags().GetString("example")
	if err != nil {
		return fmt.Errorf("failed to get example flag: %w", err)
	}
	var src string
	if example != "" {
		var ok bool
		if src, ok = catalog.Source(example); !ok {
			return fmt.Errorf("no built-in pattern %q (see noisec catalog)", example)
		}
	}

	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath, err := project.WriteDefault(target)
	if err != nil {
		return err
	}
	created := []string{manifestPath}

	if src != "" {
		dir := filepath.Join(target, "patterns")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		p := filepath.Join(dir, example+".noise")
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%s already exists", p)
		}
		if err := os.WriteFile(p, []byte(src), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
		created = append(created, p)
	}

	out := cmd.OutOrStdout()
	for _, p := range created {
		fmt.Fprintf(out, "created %s\n", p)
	}
	return nil
}
