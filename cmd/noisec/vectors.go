package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"noisec/internal/driver"
	"noisec/internal/source"
	"noisec/internal/vector"
)

var vectorsCmd = &cobra.Command{
	Use:   "vectors [flags] <file.noise|builtin:NAME>",
	Short: "Print the known-answer test vector of a pattern",
	Long: `Run the pattern once with the fixed test fixture and print the resulting
transcript. With --check the transcript is replayed against an independent
Noise implementation.`,
	Args: cobra.ExactArgs(1),
	RunE: runVectors,
}

func init() {
	vectorsCmd.Flags().String("format", "json", "output format (json|yaml)")
	vectorsCmd.Flags().Bool("check", false, "cross-check against the reference Noise implementation")
}

func runVectors(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return fmt.Errorf("failed to get check flag: %w", err)
	}

	in, err := resolveInput(args[0])
	if err != nil {
		return err
	}
	if in.kind == inputDir || in.name == "all" {
		return fmt.Errorf("vectors takes a single pattern")
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
		if perr := (diagPrinter{format: diagPretty}).print(cmd.ErrOrStderr(), []*driver.Result{res}); perr != nil {
			return perr
		}
		return reportFailures([]*driver.Result{res})
	}

	fx := vector.DefaultFixture()
	if opts.Fixture != nil {
		fx = *opts.Fixture
	}
	v, err := vector.Compute(res.IR, fx)
	if err != nil {
		return err
	}
	if check {
		switch err := vector.CrossCheck(res.IR, v); {
		case err == nil:
			fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("ok"), "matches reference implementation")
		case errors.Is(err, vector.ErrUnsupported):
			fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("skipped"), "reference implementation does not support", res.IR.ProtocolName)
		default:
			return err
		}
	}

	var out []byte
	switch strings.ToLower(format) {
	case "json":
		out, err = vector.JSON([]*vector.Vector{v})
	case "yaml":
		out, err = vector.YAML([]*vector.Vector{v})
	default:
		return fmt.Errorf("unknown format %q (expected json|yaml)", format)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
