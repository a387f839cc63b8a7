package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/am"
	"github.com/teranos/tzmeta/classify"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/internal/httpclient"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/metadata"
	"github.com/teranos/tzmeta/node"
	"github.com/teranos/tzmeta/offchain"
	"github.com/teranos/tzmeta/resolver"
)

// loadConfig loads the cascade and refuses to continue on invalid settings
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func nodeClient(cfg *am.Config) (*node.Client, error) {
	hc := httpclient.New(httpclient.Options{Timeout: cfg.NodeTimeout()})
	return node.New(node.Config{
		Endpoint:          cfg.Node.Endpoint,
		RequestsPerSecond: cfg.Node.RequestsPerSecond,
		MinVersion:        cfg.Node.MinVersion,
	}, hc)
}

// viewClient builds the off-chain view client over the configured node
func viewClient(cfg *am.Config) (*offchain.Client, *node.Client, error) {
	rpc, err := nodeClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return offchain.NewClient(rpc), rpc, nil
}

func metadataResolver(cfg *am.Config) *resolver.Resolver {
	blockPrivate := cfg.Resolver.BlockPrivateIP
	hc := httpclient.New(httpclient.Options{
		Timeout:        cfg.ResolverTimeout(),
		MaxBytes:       cfg.Resolver.MaxBytes,
		BlockPrivateIP: &blockPrivate,
	})
	return resolver.New(resolver.Config{IPFSGateway: cfg.Resolver.IPFSGateway}, hc)
}

// readDocument returns the raw metadata named by source: a local file when
// one exists at that path, a metadata URI otherwise
func readDocument(ctx context.Context, cfg *am.Config, source string) ([]byte, error) {
	if !strings.Contains(source, "://") && !strings.HasPrefix(source, "tezos-storage:") {
		raw, err := os.ReadFile(source)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", source)
		}
		return raw, nil
	}

	logger.ComponentLogger("cli").Debugw("Resolving metadata", logger.FieldURI, source)
	return metadataResolver(cfg).Resolve(ctx, source)
}

// loadClassified reads, parses and classifies the document named by source
func loadClassified(ctx context.Context, cfg *am.Config, source string) (classify.Result, error) {
	raw, err := readDocument(ctx, cfg, source)
	if err != nil {
		return classify.Result{}, err
	}
	doc, err := metadata.Parse(raw)
	if err != nil {
		return classify.Result{}, errors.Wrapf(err, "failed to parse metadata from %s", source)
	}
	return classify.Classify(doc), nil
}

// requireContract reads and checks the --contract flag
func requireContract(cmd *cobra.Command) (string, error) {
	address, _ := cmd.Flags().GetString("contract")
	if address == "" {
		return "", errors.WithHint(errors.New("no contract address given"), "pass --contract KT1...")
	}
	if err := node.ValidateContractAddress(address); err != nil {
		return "", err
	}
	return address, nil
}

func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}
