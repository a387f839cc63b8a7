package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/display"
)

// NodeCmd inspects the configured Tezos node
var NodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect the configured Tezos node",
}

var nodeInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the node's chain, version and compatibility",
	RunE:  runNodeInfo,
}

func init() {
	nodeInfoCmd.Flags().String("format", "text", "Output format: text, json, yaml")
	NodeCmd.AddCommand(nodeInfoCmd)
}

type nodeInfo struct {
	Endpoint   string `json:"endpoint"`
	ChainID    string `json:"chain_id"`
	Version    string `json:"version"`
	MinVersion string `json:"min_version,omitempty"`
	Compatible bool   `json:"compatible"`
	Problem    string `json:"problem,omitempty"`
}

func runNodeInfo(cmd *cobra.Command, args []string) error {
	format, err := display.FormatFor(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rpc, err := nodeClient(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	info := nodeInfo{Endpoint: rpc.Endpoint(), MinVersion: cfg.Node.MinVersion}
	if info.ChainID, err = rpc.ChainID(ctx); err != nil {
		return err
	}
	v, err := rpc.NodeVersion(ctx)
	if err != nil {
		return err
	}
	info.Version = v.String()
	info.Compatible = true
	if err := rpc.CheckVersion(ctx); err != nil {
		info.Compatible = false
		info.Problem = err.Error()
	}

	return display.Output(cmd.OutOrStdout(), format, info, func(w io.Writer) error {
		fmt.Fprintf(w, "Endpoint: %s\n", info.Endpoint)
		fmt.Fprintf(w, "Chain:    %s\n", info.ChainID)
		fmt.Fprintf(w, "Version:  %s\n", info.Version)
		if info.Compatible {
			pterm.Success.WithWriter(w).Println("Node is compatible")
		} else {
			pterm.Warning.WithWriter(w).Println(info.Problem)
		}
		return nil
	})
}
