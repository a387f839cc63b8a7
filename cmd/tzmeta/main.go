package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/am"
	"github.com/teranos/tzmeta/cmd/tzmeta/commands"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tzmeta",
	Short: "tzmeta - Tezos contract metadata explorer",
	Long: `tzmeta - Tezos contract metadata explorer.

Parses TZIP-16 contract metadata, checks TZIP-12 token views, runs
off-chain views against a Tezos node and lists a contract's tokens.

Available commands:
  classify  - Parse and classify a metadata document
  call-view - Run an off-chain view
  tokens    - Enumerate a token contract
  node      - Inspect the configured Tezos node
  server    - Start the HTTP/WebSocket explorer server
  am        - Manage tzmeta configuration ("I am")

Examples:
  tzmeta classify metadata.json
  tzmeta call-view ipfs://Qm... --contract KT1... --view get_balance --param '...'
  tzmeta tokens metadata.json --contract KT1... --format json
  tzmeta server`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")

		// Config problems surface later with hints; here they only cost the log settings
		if cfg, err := am.Load(); err == nil {
			if !cmd.Flags().Changed("log-json") {
				jsonLogs = cfg.Log.JSON
			}
			logger.SetTheme(cfg.GetServerLogTheme())
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(commands.ClassifyCmd)
	rootCmd.AddCommand(commands.CallViewCmd)
	rootCmd.AddCommand(commands.TokensCmd)
	rootCmd.AddCommand(commands.NodeCmd)
	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		pterm.Error.Println(err.Error())
		if hint := errors.FlattenHints(err); hint != "" {
			pterm.Info.Println(hint)
		}
		os.Exit(1)
	}
}
