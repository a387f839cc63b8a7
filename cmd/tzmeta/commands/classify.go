package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/display"
)

// ClassifyCmd parses a metadata document and reports its TZIP-12 status
var ClassifyCmd = &cobra.Command{
	Use:   "classify <file|uri>",
	Short: "Parse and classify contract metadata",
	Long: `Parse a TZIP-16 metadata document and decide whether it claims the
TZIP-12 token standard. For token-standard documents every canonical view,
the interface claim and the permissions descriptor are checked.

The document is read from a local file, or fetched when the argument is a
metadata URI (https://, ipfs://, sha256://...).`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	ClassifyCmd.Flags().String("format", "text", "Output format: text, json, yaml")
}

func runClassify(cmd *cobra.Command, args []string) error {
	format, err := display.FormatFor(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := loadClassified(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}

	return display.Output(cmd.OutOrStdout(), format, result, func(w io.Writer) error {
		return display.RenderClassification(w, result)
	})
}
