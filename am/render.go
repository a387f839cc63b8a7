package am

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tzmeta/errors"
)

// Output formats accepted by Render
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render serializes v (a *Config or *Introspection) in the given format
func Render(v interface{}, format string) ([]byte, error) {
	switch format {
	case FormatTOML, "":
		out, err := toml.Marshal(v)
		return out, errors.Wrap(err, "failed to render TOML")
	case FormatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		return out, errors.Wrap(err, "failed to render JSON")
	case FormatYAML:
		out, err := yaml.Marshal(v)
		return out, errors.Wrap(err, "failed to render YAML")
	default:
		return nil, errors.WithHint(errors.Newf("unknown format %q", format), "use toml, json or yaml")
	}
}
