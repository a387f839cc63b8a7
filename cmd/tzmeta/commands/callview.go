package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/display"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/metadata"
	"github.com/teranos/tzmeta/micheline"
	"github.com/teranos/tzmeta/offchain"
	"github.com/teranos/tzmeta/validation"
)

// CallViewCmd runs one off-chain view against the configured node
var CallViewCmd = &cobra.Command{
	Use:   "call-view <file|uri>",
	Short: "Run an off-chain view of a contract",
	Long: `Run a Michelson storage view declared in the contract's metadata.

The parameter and the optional storage override are Micheline JSON.
Views without a declared parameter take no --param.

Examples:
  tzmeta call-view meta.json --contract KT1... --view total_supply --param '{"int": "0"}'
  tzmeta call-view meta.json --contract KT1... --view all_tokens --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCallView,
}

func init() {
	CallViewCmd.Flags().String("contract", "", "Contract address (KT1...)")
	CallViewCmd.Flags().String("view", "", "View name")
	CallViewCmd.Flags().String("param", "", "View parameter as Micheline JSON")
	CallViewCmd.Flags().String("storage", "", "Storage to run against instead of the on-chain storage (Micheline JSON)")
	CallViewCmd.Flags().String("format", "text", "Output format: text, json, yaml")
	_ = CallViewCmd.MarkFlagRequired("view")
}

func runCallView(cmd *cobra.Command, args []string) error {
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
	viewName, _ := cmd.Flags().GetString("view")

	req, err := buildViewRequest(cmd, classified.Document, address, viewName)
	if err != nil {
		return err
	}

	client, _, err := viewClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.NodeTimeout()*2)
	defer cancel()

	emitter := display.NewCLIEmitter(cmd.ErrOrStderr(), verbosity(cmd))
	emitter.EmitInfo("Calling " + viewName + " on " + address)
	reply := <-client.CallViewAsync(ctx, req)
	emitter.Stop()
	if reply.Err != nil {
		return reply.Err
	}

	return display.Output(cmd.OutOrStdout(), format, reply.Outcome, func(w io.Writer) error {
		return display.RenderOutcome(w, viewName, reply.Outcome)
	})
}

// buildViewRequest picks the implementation to run and decodes the
// Micheline flags. When the view's types check out against a known
// signature the selected implementation is used, otherwise the first
// Michelson implementation.
func buildViewRequest(cmd *cobra.Command, doc *metadata.Document, address, viewName string) (offchain.Request, error) {
	req := offchain.Request{Address: address, ViewName: viewName}

	view, _, ok := doc.FindView(viewName)
	if !ok {
		return req, errors.WithHint(errors.NewNotFoundError("view %q", viewName), "run tzmeta classify to list the declared views")
	}

	res := validation.ResolveView(doc, viewName)
	if impl, ok := res.Implementation(); ok {
		req.View = impl
	} else {
		impls, _ := view.MichelsonImplementations()
		if len(impls) == 0 {
			return req, errors.NewInvalidRequestError("view %q has no Michelson storage implementation", viewName)
		}
		req.View = impls[0]
		if res.Kind == validation.Invalid {
			logger.ComponentLogger("cli").Warnw("View types do not match the TZIP-12 signature",
				logger.FieldView, viewName,
				"parameter", res.Parameter.Kind.String(),
				"return", res.Return.Kind.String(),
			)
		}
	}

	if raw, _ := cmd.Flags().GetString("param"); raw != "" {
		param, err := micheline.Parse([]byte(raw))
		if err != nil {
			return req, errors.Wrap(err, "invalid --param")
		}
		req.Parameter = &param
	}
	if raw, _ := cmd.Flags().GetString("storage"); raw != "" {
		storage, err := micheline.Parse([]byte(raw))
		if err != nil {
			return req, errors.Wrap(err, "invalid --storage")
		}
		req.StorageHint = &storage
	}
	return req, nil
}
