package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"noisec/internal/driver"
	"noisec/internal/project"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render verifier results as HTML",
}

var renderHandshakeCmd = &cobra.Command{
	Use:   "handshake [flags] <file.noise>",
	Short: "Render the overview and every message page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, args[0], -1)
	},
}

var renderMessageCmd = &cobra.Command{
	Use:   "message [flags] <file.noise> <index>",
	Short: "Render the page of one message (0-based index)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var i int
		if _, err := fmt.Sscanf(args[1], "%d", &i); err != nil || i < 0 {
			return fmt.Errorf("invalid message index %q", args[1])
		}
		return runRender(cmd, args[0], i)
	},
}

func init() {
	for _, c := range []*cobra.Command{renderHandshakeCmd, renderMessageCmd} {
		c.Flags().String("active", "", "verifier output for the active-attacker model (required)")
		c.Flags().String("passive", "", "verifier output for the passive-attacker model (required)")
		c.Flags().String("model", "", "active model the verifier ran (default: regenerate)")
		c.Flags().StringP("out", "o", "", "output directory (default from noisec.toml, else html)")
		c.Flags().String("format", "html", "output format (html|mermaid)")
		_ = c.MarkFlagRequired("active")
		_ = c.MarkFlagRequired("passive")
		renderCmd.AddCommand(c)
	}
}

func runRender(cmd *cobra.Command, file string, message int) error {
	active, err := cmd.Flags().GetString("active")
	if err != nil {
		return fmt.Errorf("failed to get active flag: %w", err)
	}
	passive, err := cmd.Flags().GetString("passive")
	if err != nil {
		return fmt.Errorf("failed to get passive flag: %w", err)
	}
	model, err := cmd.Flags().GetString("model")
	if err != nil {
		return fmt.Errorf("failed to get model flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var mermaid bool
	switch strings.ToLower(format) {
	case "html":
	case "mermaid":
		mermaid = true
	default:
		return fmt.Errorf("unknown format %q (expected html|mermaid)", format)
	}

	opts, manifest, err := compileOptions(cmd)
	if err != nil {
		return err
	}
	outDir, err := outputDir(cmd, manifest, func(c *project.Config) string { return c.Render.Out }, "html")
	if err != nil {
		return err
	}

	res, err := driver.Render(cmd.Context(), driver.RenderRequest{
		Pattern: file,
		Active:  active,
		Passive: passive,
		Model:   model,
		Message: message,
		Mermaid: mermaid,
	}, opts)
	if err != nil {
		return err
	}
	if mermaid && message >= 0 {
		// mermaid covers the whole handshake only
		fmt.Fprintln(os.Stderr, color.YellowString("warning:"), "--format mermaid is ignored for a single message")
	}

	paths, err := driver.WriteArtifacts(outDir, res.Artifacts)
	if err != nil {
		return err
	}
	if !quiet {
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
	}
	return nil
}
