package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sherafyk/vectorize-svc/pkg/svg"
)

// styleCommand creates the style command, the standalone style
// post-processor.
func (c *CLI) styleCommand() *cobra.Command {
	var (
		sf     styleFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "style [file.svg|-]",
		Short: "Set fill, stroke and stroke width on every path of an SVG",
		Example: `  vectorize style logo.svg --fill '#333' -o logo-dark.svg
  cat logo.svg | vectorize style - --stroke black --stroke-width 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			styled, err := svg.ApplyStyle(doc, sf.style(cmd))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), styled)
				return err
			}
			if err := os.WriteFile(output, []byte(styled), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Styled %s", args[0])
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	addStyleFlags(cmd, &sf)

	return cmd
}

func readDocument(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read svg: %w", err)
	}
	return string(data), nil
}
