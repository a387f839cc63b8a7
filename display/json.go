package display

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/teranos/tzmeta/errors"
)

// MarshalJSON marshals v with two-space indentation
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// MarshalYAML renders v as YAML. Values go through their JSON form first so
// that custom MarshalJSON methods (classification results, jobs, records)
// shape the YAML too.
func MarshalYAML(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal value")
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, errors.Wrap(err, "failed to convert JSON to YAML")
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal YAML")
	}
	return out, nil
}
