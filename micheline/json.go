package micheline

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/teranos/tzmeta/errors"
)

// SyntaxError reports a JSON value that is not valid Micheline.
// Path holds the steps from the root of the parsed value ("args", "1", ...).
type SyntaxError struct {
	Path    []string
	Message string
}

func (e *SyntaxError) Error() string {
	if len(e.Path) == 0 {
		return "micheline: " + e.Message
	}
	return fmt.Sprintf("micheline: at %s: %s", strings.Join(e.Path, "."), e.Message)
}

// Parse decodes a Micheline JSON expression
func Parse(raw []byte) (Node, error) {
	return parse(raw, nil)
}

// MustParse is Parse for literals known to be valid; it panics otherwise
func MustParse(raw string) Node {
	n, err := Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return n
}

func syntaxErr(path []string, format string, args ...interface{}) error {
	return &SyntaxError{Path: append([]string(nil), path...), Message: fmt.Sprintf(format, args...)}
}

func parse(raw []byte, path []string) (Node, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Node{}, syntaxErr(path, "empty value")
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Node{}, syntaxErr(path, "invalid sequence: %v", err)
		}
		nodes := make([]Node, 0, len(items))
		for i, item := range items {
			n, err := parse(item, append(path, fmt.Sprint(i)))
			if err != nil {
				return Node{}, err
			}
			nodes = append(nodes, n)
		}
		return Seq(nodes...), nil
	case '{':
		return parseObject(trimmed, path)
	default:
		return Node{}, syntaxErr(path, "expected object or array, got %s", abbreviate(trimmed))
	}
}

func parseObject(raw []byte, path []string) (Node, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Node{}, syntaxErr(path, "invalid object: %v", err)
	}

	if v, ok := fields["int"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return Node{}, syntaxErr(append(path, "int"), "expected decimal string")
		}
		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Node{}, syntaxErr(append(path, "int"), "invalid integer %q", s)
		}
		return Node{Kind: KindInt, Int: i}, nil
	}

	if v, ok := fields["string"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return Node{}, syntaxErr(append(path, "string"), "expected string")
		}
		return String(s), nil
	}

	if v, ok := fields["bytes"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return Node{}, syntaxErr(append(path, "bytes"), "expected hex string")
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return Node{}, syntaxErr(append(path, "bytes"), "invalid hex %q", s)
		}
		return Node{Kind: KindBytes, Bytes: b}, nil
	}

	v, ok := fields["prim"]
	if !ok {
		return Node{}, syntaxErr(path, "object has none of int, string, bytes, prim")
	}
	var name string
	if err := json.Unmarshal(v, &name); err != nil {
		return Node{}, syntaxErr(append(path, "prim"), "expected string")
	}

	node := Node{Kind: KindPrim, Prim: name}
	if rawArgs, ok := fields["args"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(rawArgs, &items); err != nil {
			return Node{}, syntaxErr(append(path, "args"), "expected array")
		}
		for i, item := range items {
			arg, err := parse(item, append(path, "args", fmt.Sprint(i)))
			if err != nil {
				return Node{}, err
			}
			node.Args = append(node.Args, arg)
		}
	}
	if rawAnnots, ok := fields["annots"]; ok {
		if err := json.Unmarshal(rawAnnots, &node.Annots); err != nil {
			return Node{}, syntaxErr(append(path, "annots"), "expected array of strings")
		}
	}
	return node, nil
}

func abbreviate(raw []byte) string {
	const max = 40
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}

// UnmarshalJSON implements json.Unmarshaler using Parse
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalJSON renders the canonical Micheline JSON form
func (n Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindInt:
		if n.Int == nil {
			return nil, errors.New("micheline: int node without value")
		}
		return json.Marshal(map[string]string{"int": n.Int.String()})
	case KindString:
		return json.Marshal(map[string]string{"string": n.Str})
	case KindBytes:
		return json.Marshal(map[string]string{"bytes": hex.EncodeToString(n.Bytes)})
	case KindSeq:
		items := n.Items
		if items == nil {
			items = []Node{}
		}
		return json.Marshal(items)
	case KindPrim:
		obj := struct {
			Prim   string   `json:"prim"`
			Args   []Node   `json:"args,omitempty"`
			Annots []string `json:"annots,omitempty"`
		}{n.Prim, n.Args, n.Annots}
		return json.Marshal(obj)
	default:
		return nil, errors.Newf("micheline: unknown node kind %d", n.Kind)
	}
}
