// Package decode turns Micheline values returned by view execution into
// typed Go values: token metadata maps, token id lists, and naturals.
package decode

import (
	"encoding/hex"
	"math/big"
	"unicode/utf8"

	"github.com/teranos/tzmeta/micheline"
)

// Failure reports a node whose shape does not match what the decoder expects.
// Rendered holds the offending node in Michelson concrete syntax.
type Failure struct {
	Expected string
	Rendered string
}

func (f *Failure) Error() string {
	return "expected " + f.Expected + ", got: " + f.Rendered
}

func fail(expected string, n micheline.Node) *Failure {
	return &Failure{Expected: expected, Rendered: micheline.Render(n)}
}

// KV is one entry of a decoded metadata map, in node order
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MetadataMap decodes the token_metadata return value
//
//	Pair <token_id> { Elt "key" 0x... ; ... }
//
// Byte values become UTF-8 strings when valid, "0x"-prefixed hex otherwise.
func MetadataMap(n micheline.Node) ([]KV, error) {
	const expected = "pair of token id and map of string to bytes"
	if !n.IsPrim("Pair", 2) {
		return nil, fail(expected, n)
	}
	entries := n.Args[1]
	if entries.Kind != micheline.KindSeq {
		return nil, fail(expected, n)
	}

	out := make([]KV, 0, len(entries.Items))
	for _, elt := range entries.Items {
		if !elt.IsPrim("Elt", 2) ||
			elt.Args[0].Kind != micheline.KindString ||
			elt.Args[1].Kind != micheline.KindBytes {
			return nil, fail(expected, n)
		}
		out = append(out, KV{Key: elt.Args[0].Str, Value: BytesToText(elt.Args[1].Bytes)})
	}
	return out, nil
}

// BytesToText renders b as UTF-8 when valid, otherwise as 0x-hex
func BytesToText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

// IntList decodes a sequence of integer leaves
func IntList(n micheline.Node) ([]*big.Int, error) {
	const expected = "sequence of integers"
	if n.Kind != micheline.KindSeq {
		return nil, fail(expected, n)
	}
	out := make([]*big.Int, 0, len(n.Items))
	for _, it := range n.Items {
		if it.Kind != micheline.KindInt || it.Int == nil {
			return nil, fail(expected, n)
		}
		out = append(out, new(big.Int).Set(it.Int))
	}
	return out, nil
}

// Nat decodes a single integer leaf
func Nat(n micheline.Node) (*big.Int, error) {
	if n.Kind != micheline.KindInt || n.Int == nil {
		return nil, fail("integer", n)
	}
	return new(big.Int).Set(n.Int), nil
}
