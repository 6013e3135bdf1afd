package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"noisec/internal/buildpipeline"
	"noisec/internal/catalog"
	"noisec/internal/driver"
	"noisec/internal/project"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] <file.noise|directory|builtin:NAME|builtin:all>",
	Short: "Generate models, implementations and tests for handshake patterns",
	Long: `Compile handshake patterns into ProVerif models for each attacker, Go and
Rust implementations, and known-answer tests. A pattern with errors produces
no files at all; other patterns in the same run are unaffected.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("out", "o", "", "output directory (default from noisec.toml, else build)")
	generateCmd.Flags().StringSlice("backend", nil, "backends to run (pv,go,rs)")
	generateCmd.Flags().StringSlice("attacker", nil, "attacker models for the ProVerif backend (active,passive)")
	generateCmd.Flags().Bool("no-tests", false, "skip test vectors and generated tests")
	generateCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	generateCmd.Flags().Bool("cache", false, "reuse artifacts from the on-disk cache")
	generateCmd.Flags().Bool("clean-cache", false, "drop the artifact cache before generating")
	generateCmd.Flags().Bool("dry-run", false, "compile but do not write files")
	generateCmd.Flags().String("format", "pretty", "diagnostics format (pretty|short|json|sarif)")
	generateCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	df, err := readDiagFormat(format)
	if err != nil {
		return err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	cleanCache, err := cmd.Flags().GetBool("clean-cache")
	if err != nil {
		return fmt.Errorf("failed to get clean-cache flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	opts, manifest, err := compileOptions(cmd)
	if err != nil {
		return err
	}
	if cleanCache && opts.Cache != nil {
		if err := opts.Cache.DropAll(); err != nil {
			return fmt.Errorf("failed to clean cache: %w", err)
		}
	}
	outDir, err := outputDir(cmd, manifest, func(c *project.Config) string { return c.Generate.Out }, "build")
	if err != nil {
		return err
	}
	in, err := resolveInput(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	files, compile, err := generatePlan(in, &opts)
	if err != nil {
		return err
	}
	var results []*driver.Result
	if df == diagPretty && !quiet && shouldUseTUI(mode) {
		results, err = runCompileWithUI(ctx, "generating", files, opts, compile)
	} else {
		results, err = compile(ctx, opts)
	}
	if err != nil {
		return err
	}

	printer := diagPrinter{format: df, args: os.Args[1:]}
	if err := printer.print(cmd.ErrOrStderr(), results); err != nil {
		return err
	}

	written := 0
	for _, r := range results {
		if !r.OK() {
			continue
		}
		if showTimings {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", r.Display)
			printStageTimings(cmd.ErrOrStderr(), r.Timings)
		}
		if dryRun {
			continue
		}
		paths, err := driver.WriteArtifacts(outDir, r.Artifacts)
		if err != nil {
			return fmt.Errorf("%s: %w", r.Display, err)
		}
		written += len(paths)
		logrus.WithFields(logrus.Fields{"pattern": r.Display, "files": len(paths), "cached": r.Cached}).Info("artifacts written")
	}

	failed := driver.Failed(results)
	if !quiet && df == diagPretty {
		summary := fmt.Sprintf("%d pattern(s), %d file(s) in %s", len(results)-failed, written, outDir)
		if dryRun {
			summary = fmt.Sprintf("%d pattern(s) compiled, nothing written", len(results)-failed)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("generated"), summary)
	}
	return reportFailures(results)
}

// generatePlan picks the compile entry point for in, and the display names
// the progress UI tracks.
func generatePlan(in input, opts *driver.Options) ([]string, func(context.Context, driver.Options) ([]*driver.Result, error), error) {
	switch in.kind {
	case inputDir:
		files, err := driver.ListPatternFiles(in.path)
		if err != nil {
			return nil, nil, err
		}
		if len(files) == 0 {
			return nil, nil, fmt.Errorf("no %s files in %s", driver.PatternExt, in.path)
		}
		opts.BaseDir = in.path
		return buildpipeline.DisplayFiles(files, in.path), func(ctx context.Context, o driver.Options) ([]*driver.Result, error) {
			return driver.CompileFiles(ctx, files, o)
		}, nil
	case inputCatalog:
		var names []string
		if in.name != "all" {
			names = []string{in.name}
		}
		all := names
		if all == nil {
			all = catalog.Names()
		}
		display := make([]string, len(all))
		for i, n := range all {
			display[i] = catalog.Path(n)
		}
		return display, func(ctx context.Context, o driver.Options) ([]*driver.Result, error) {
			return driver.CompileCatalog(ctx, names, o)
		}, nil
	default:
		opts.BaseDir = filepath.Dir(in.path)
		return buildpipeline.DisplayFiles([]string{in.path}, opts.BaseDir), func(ctx context.Context, o driver.Options) ([]*driver.Result, error) {
			return driver.CompileFiles(ctx, []string{in.path}, o)
		}, nil
	}
}
