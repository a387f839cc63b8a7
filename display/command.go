package display

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/errors"
)

// Format selects how a command prints its result
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	case "":
		return FormatText, nil
	}
	return "", errors.WithHint(errors.Newf("unknown output format %q", s), "use text, json or yaml")
}

// FormatFor determines the output format of cmd from its --format flag and
// the global --json flag. An explicit --format wins.
func FormatFor(cmd *cobra.Command) (Format, error) {
	if cmd == nil {
		return FormatText, nil
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		return ParseFormat(f.Value.String())
	}
	if jsonFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); jsonFlag {
		return FormatJSON, nil
	}
	if f := cmd.Flags().Lookup("format"); f != nil {
		return ParseFormat(f.Value.String())
	}
	return FormatText, nil
}

// Output writes v as JSON or YAML. For FormatText it calls text, which
// renders the human-readable form.
func Output(w io.Writer, format Format, v interface{}, text func(io.Writer) error) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(v)
	case FormatYAML:
		data, err = MarshalYAML(v)
	default:
		return text(w)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to render %s", format)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
