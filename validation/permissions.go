package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teranos/tzmeta/metadata"
)

// OperatorPolicy says who may transfer tokens
type OperatorPolicy string

const (
	OwnerOrOperatorTransfer OperatorPolicy = "owner-or-operator-transfer"
	OwnerTransfer           OperatorPolicy = "owner-transfer"
	NoTransfer              OperatorPolicy = "no-transfer"
)

// OwnerHookPolicy says whether sender/receiver hooks are called
type OwnerHookPolicy string

const (
	OwnerNoHook       OwnerHookPolicy = "owner-no-hook"
	OptionalOwnerHook OwnerHookPolicy = "optional-owner-hook"
	RequiredOwnerHook OwnerHookPolicy = "required-owner-hook"
)

// CustomPolicy names a contract-specific permission extension
type CustomPolicy struct {
	Tag       string  `json:"tag"`
	ConfigAPI *string `json:"config-api,omitempty"`
}

// PermissionsDescriptor is the TZIP-12 "permissions" metadata field
type PermissionsDescriptor struct {
	Operator OperatorPolicy  `json:"operator"`
	Receiver OwnerHookPolicy `json:"receiver"`
	Sender   OwnerHookPolicy `json:"sender"`
	Custom   *CustomPolicy   `json:"custom,omitempty"`
}

// DefaultPermissions is what an absent descriptor means
func DefaultPermissions() PermissionsDescriptor {
	return PermissionsDescriptor{
		Operator: OwnerOrOperatorTransfer,
		Receiver: OwnerNoHook,
		Sender:   OwnerNoHook,
	}
}

// TraceEntry is one problem found while reading the descriptor
type TraceEntry struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrorTrace collects every problem in a malformed descriptor
type ErrorTrace []TraceEntry

func (t ErrorTrace) Error() string {
	parts := make([]string, len(t))
	for i, e := range t {
		parts[i] = fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return "malformed permissions descriptor: " + strings.Join(parts, "; ")
}

// PermissionsOutcome holds either a Descriptor or a Trace, never both
type PermissionsOutcome struct {
	Descriptor *PermissionsDescriptor
	Trace      ErrorTrace
}

// Ok reports whether the descriptor was well-formed
func (o *PermissionsOutcome) Ok() bool {
	return o == nil || len(o.Trace) == 0
}

func (o *PermissionsOutcome) MarshalJSON() ([]byte, error) {
	if len(o.Trace) > 0 {
		return json.Marshal(map[string]interface{}{"status": "invalid", "trace": o.Trace})
	}
	return json.Marshal(map[string]interface{}{"status": "valid", "descriptor": o.Descriptor})
}

// ParsePermissions reads the "permissions" extra key. It returns nil when
// the key is absent or null, which means default permissions and is not an error.
func ParsePermissions(doc *metadata.Document) *PermissionsOutcome {
	raw, ok := doc.Extra["permissions"]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return &PermissionsOutcome{Trace: ErrorTrace{{Path: "permissions", Message: "expected an object"}}}
	}

	desc := DefaultPermissions()
	var trace ErrorTrace

	if v, ok := fields["operator"]; ok {
		s, msg := enumValue(v, string(OwnerOrOperatorTransfer), string(OwnerTransfer), string(NoTransfer))
		if msg != "" {
			trace = append(trace, TraceEntry{Path: "permissions.operator", Message: msg})
		}
		desc.Operator = OperatorPolicy(s)
	}
	for _, hook := range []struct {
		key    string
		target *OwnerHookPolicy
	}{{"receiver", &desc.Receiver}, {"sender", &desc.Sender}} {
		v, ok := fields[hook.key]
		if !ok {
			continue
		}
		s, msg := enumValue(v, string(OwnerNoHook), string(OptionalOwnerHook), string(RequiredOwnerHook))
		if msg != "" {
			trace = append(trace, TraceEntry{Path: "permissions." + hook.key, Message: msg})
		}
		*hook.target = OwnerHookPolicy(s)
	}
	if v, ok := fields["custom"]; ok {
		custom, entries := parseCustom(v)
		trace = append(trace, entries...)
		desc.Custom = custom
	}

	if len(trace) > 0 {
		return &PermissionsOutcome{Trace: trace}
	}
	return &PermissionsOutcome{Descriptor: &desc}
}

func enumValue(raw json.RawMessage, allowed ...string) (string, string) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Sprintf("expected a string, got %s", raw)
	}
	for _, a := range allowed {
		if s == a {
			return s, ""
		}
	}
	return s, fmt.Sprintf("%q is not one of %s", s, strings.Join(allowed, ", "))
}

func parseCustom(raw json.RawMessage) (*CustomPolicy, ErrorTrace) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, ErrorTrace{{Path: "permissions.custom", Message: "expected an object"}}
	}

	var trace ErrorTrace
	custom := &CustomPolicy{}
	tag, ok := fields["tag"]
	if !ok {
		trace = append(trace, TraceEntry{Path: "permissions.custom.tag", Message: "required"})
	} else if err := json.Unmarshal(tag, &custom.Tag); err != nil {
		trace = append(trace, TraceEntry{Path: "permissions.custom.tag", Message: "expected a string"})
	}
	if api, ok := fields["config-api"]; ok {
		var s string
		if err := json.Unmarshal(api, &s); err != nil {
			trace = append(trace, TraceEntry{Path: "permissions.custom.config-api", Message: "expected a string"})
		} else {
			custom.ConfigAPI = &s
		}
	}
	return custom, trace
}
