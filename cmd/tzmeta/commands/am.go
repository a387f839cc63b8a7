package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/am"
	"github.com/teranos/tzmeta/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage tzmeta configuration",
	Long: `am - Manage tzmeta configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (TZMETA_* prefix)
3. Project config (am.toml, searched upward from the working directory)
4. User config (~/.tzmeta/am.toml)
5. System config (/etc/tzmeta/am.toml)
6. Default values

Examples:
  tzmeta am show                  # Show current configuration
  tzmeta am show --format json    # Show configuration in JSON format
  tzmeta am get node.endpoint     # Get specific config value
  tzmeta am validate              # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., node.endpoint, resolver.ipfs_gateway)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade, the files that were found and the
source of every effective setting.`,
	RunE: runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", am.FormatTOML, "Output format: toml, json, yaml")
	amWhereCmd.Flags().String("format", "text", "Output format: text, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	data, err := am.Render(cfg, configFormat)
	if err != nil {
		return err
	}
	if configFormat != am.FormatJSON {
		fmt.Fprintln(cmd.OutOrStdout(), "# tzmeta configuration")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(
			errors.NewNotFoundError("configuration key %q", key),
			"run tzmeta am where to list every key",
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	intro := am.Introspect()

	if format != "text" {
		data, err := am.Render(intro, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	for i, c := range am.CandidatePaths() {
		status := "missing"
		if c.Exists() {
			status = "found"
		}
		fmt.Fprintf(out, "  %d. [%-8s] %s (%s)\n", i+2, c.Source, c.Path, status)
	}
	fmt.Fprintf(out, "  %d. [ENV]      %s_* environment variables\n", len(am.CandidatePaths())+2, am.EnvPrefix)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Active configuration:")
	for _, setting := range intro.Settings {
		value := fmt.Sprintf("%v", setting.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		origin := string(setting.Source)
		if setting.SourcePath != "" {
			origin += " " + setting.SourcePath
		}
		fmt.Fprintf(out, "  %s = %s  %s\n", setting.Key, value, pterm.Gray("("+origin+")"))
	}
	return nil
}
