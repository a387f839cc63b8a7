package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/display"
	"github.com/teranos/tzmeta/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show tzmeta version information",
	Long:  `Display version, build time, commit hash, and platform information for the tzmeta binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := display.FormatFor(cmd)
		if err != nil {
			return err
		}
		info := version.Get()
		return display.Output(cmd.OutOrStdout(), format, info, func(w io.Writer) error {
			fmt.Fprintln(w, info.String())
			fmt.Fprintf(w, "Platform: %s\n", info.Platform)
			fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
			return nil
		})
	},
}

func init() {
	VersionCmd.Flags().String("format", "text", "Output format: text, json, yaml")
}
