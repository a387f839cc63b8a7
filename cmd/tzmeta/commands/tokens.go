package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/display"
	"github.com/teranos/tzmeta/tokens"
)

// TokensCmd lists every token of a TZIP-12 contract
var TokensCmd = &cobra.Command{
	Use:   "tokens <file|uri>",
	Short: "Enumerate the tokens of a contract",
	Long: `Call all_tokens, then token_metadata and total_supply for each token.

A failure for one token or one field is reported in its row; the command
only fails when all_tokens itself cannot be used.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

func init() {
	TokensCmd.Flags().String("contract", "", "Contract address (KT1...)")
	TokensCmd.Flags().String("format", "text", "Output format: text, json, yaml")
}

func runTokens(cmd *cobra.Command, args []string) error {
	format, err := display.FormatFor(cmd)
	if err != nil {
		return err
	}
	address, err := requireContract(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	classified, err := loadClassified(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}
	client, _, err := viewClient(cfg)
	if err != nil {
		return err
	}

	emitter := display.NewCLIEmitter(cmd.ErrOrStderr(), verbosity(cmd))
	records, err := tokens.Enumerate(cmd.Context(), client, address, classified, emitter)
	emitter.Stop()
	if err != nil {
		return err
	}

	return display.Output(cmd.OutOrStdout(), format, records, func(w io.Writer) error {
		return display.RenderTokens(w, records)
	})
}
