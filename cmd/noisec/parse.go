package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"noisec/internal/driver"
	"noisec/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file.noise|builtin:NAME>",
	Short: "Parse a handshake pattern and print it",
	Long: `Parse and analyze a handshake pattern, then print the pattern in canonical
text form or as a JSON or YAML document.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "text", "output format (text|json|yaml)")
	parseCmd.Flags().String("diagnostics", "pretty", "diagnostics format (pretty|short)")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	diagFlag, err := cmd.Flags().GetString("diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get diagnostics flag: %w", err)
	}
	df, err := readDiagFormat(diagFlag)
	if err != nil {
		return err
	}

	in, err := resolveInput(args[0])
	if err != nil {
		return err
	}
	if in.kind == inputDir || in.name == "all" {
		return fmt.Errorf("parse takes a single pattern")
	}
	opts, _, err := compileOptions(cmd)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	id, err := addInput(fs, in)
	if err != nil {
		return err
	}
	res, err := driver.Check(fs, id, opts)
	if err != nil {
		if perr := (diagPrinter{format: df}).print(os.Stderr, []*driver.Result{res}); perr != nil {
			return perr
		}
		return reportFailures([]*driver.Result{res})
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "text":
		fmt.Fprint(out, res.Spec.String())
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Spec)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(res.Spec); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (expected text|json|yaml)", format)
	}
	return nil
}
