package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"noisec/internal/diag"
	"noisec/internal/driver"
	"noisec/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.noise|directory|builtin:NAME>",
	Short: "Check handshake patterns for syntax and causality errors",
	Long: `Run the parser and the semantic analyzer over a pattern file, every *.noise
file in a directory, or a built-in pattern, and report diagnostics. Nothing is
generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().String("fail-on", "error", "lowest severity that fails the check (warning|error)")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	df, err := readDiagFormat(format)
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	failOnFlag, err := cmd.Flags().GetString("fail-on")
	if err != nil {
		return fmt.Errorf("failed to get fail-on flag: %w", err)
	}
	failOn, err := diag.ParseSeverity(failOnFlag)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	opts, _, err := compileOptions(cmd)
	if err != nil {
		return err
	}
	in, err := resolveInput(args[0])
	if err != nil {
		return err
	}
	results, err := checkInput(in, opts)
	if err != nil {
		return err
	}

	printer := diagPrinter{format: df, fullPath: fullPath, notes: withNotes, args: os.Args[1:]}
	out := cmd.OutOrStdout()
	if df == diagPretty || df == diagShort {
		out = cmd.ErrOrStderr()
	}
	if err := printer.print(out, results); err != nil {
		return err
	}
	if showTimings {
		for _, r := range results {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", r.Display)
			printTimer(cmd.ErrOrStderr(), r.Timer)
		}
	}
	if err := reportFailures(results); err != nil {
		return err
	}
	for _, r := range results {
		if r.Bag.First(failOn) != nil {
			return errReported
		}
	}
	if !quiet && (df == diagPretty || df == diagShort) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d pattern(s) ok\n", len(results))
	}
	return nil
}

// checkInput runs the front end over every pattern named by in.
func checkInput(in input, opts driver.Options) ([]*driver.Result, error) {
	if in.kind != inputDir {
		if in.name == "all" {
			return nil, fmt.Errorf("use noisec catalog --check for the whole catalog")
		}
		fs := source.NewFileSet()
		id, err := addInput(fs, in)
		if err != nil {
			return nil, err
		}
		res, _ := driver.Check(fs, id, opts)
		return []*driver.Result{res}, nil
	}

	files, err := driver.ListPatternFiles(in.path)
	if err != nil {
		return nil, err
	}
	opts.BaseDir = in.path
	results := make([]*driver.Result, 0, len(files))
	for _, f := range files {
		fs := source.NewFileSet()
		fs.SetBaseDir(in.path)
		id, err := fs.Load(f)
		if err != nil {
			return nil, err
		}
		res, _ := driver.Check(fs, id, opts)
		results = append(results, res)
	}
	return results, nil
}
