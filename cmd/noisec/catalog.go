package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"noisec/internal/catalog"
	"noisec/internal/driver"
	"noisec/internal/source"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [NAME]",
	Short: "List the built-in handshake patterns or print one",
	Long: `Without arguments, list every built-in pattern with its protocol name.
With NAME, print the pattern source. Built-in patterns can be passed to other
commands as builtin:NAME.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		src, ok := catalog.Source(args[0])
		if !ok {
			return fmt.Errorf("no built-in pattern %q", args[0])
		}
		_, err := fmt.Fprint(out, src)
		return err
	}

	opts, _, err := compileOptions(cmd)
	if err != nil {
		return err
	}
	names := catalog.Names()
	width := 0
	for _, n := range names {
		width = max(width, runewidth.StringWidth(n))
	}
	head := lipgloss.NewStyle().Bold(true)
	fmt.Fprintln(out, head.Render(runewidth.FillRight("PATTERN", width+2)+"PROTOCOL"))

	failed := 0
	for _, n := range names {
		src, _ := catalog.Source(n)
		fs := source.NewFileSet()
		res, err := driver.Check(fs, fs.AddVirtual(catalog.Path(n), []byte(src)), opts)
		proto := color.RedString("error: %v", err)
		if err == nil {
			proto = res.IR.ProtocolName
		} else {
			failed++
		}
		fmt.Fprintf(out, "%s%s\n", runewidth.FillRight(n, width+2), proto)
	}
	if failed > 0 {
		return errReported
	}
	return nil
}
