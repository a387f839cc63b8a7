// Package micheline models Micheline expressions, the tree format used for
// both Michelson code and data in metadata documents and node RPC payloads.
//
// A Node is a closed tagged variant: exactly one of Int, String, Bytes, Prim
// (name + args + annotations) or Seq, selected by Kind.
package micheline

import (
	"math/big"
)

// Kind selects which variant a Node holds
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindBytes
	KindPrim
	KindSeq
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindPrim:
		return "prim"
	case KindSeq:
		return "seq"
	default:
		return "unknown"
	}
}

// Node is one Micheline expression.
// Nodes are treated as immutable values once built.
type Node struct {
	Kind   Kind
	Int    *big.Int
	Str    string
	Bytes  []byte
	Prim   string
	Args   []Node
	Annots []string
	Items  []Node
}

// Int builds an integer leaf
func Int(v int64) Node {
	return Node{Kind: KindInt, Int: big.NewInt(v)}
}

// BigInt builds an integer leaf from an arbitrary precision value
func BigInt(v *big.Int) Node {
	return Node{Kind: KindInt, Int: new(big.Int).Set(v)}
}

// String builds a string leaf
func String(s string) Node {
	return Node{Kind: KindString, Str: s}
}

// Bytes builds a byte-string leaf
func Bytes(b []byte) Node {
	return Node{Kind: KindBytes, Bytes: append([]byte(nil), b...)}
}

// Prim builds a primitive application without annotations
func Prim(name string, args ...Node) Node {
	return Node{Kind: KindPrim, Prim: name, Args: args}
}

// PrimAnnots builds a primitive application with annotations
func PrimAnnots(name string, annots []string, args ...Node) Node {
	return Node{Kind: KindPrim, Prim: name, Args: args, Annots: annots}
}

// Seq builds a sequence
func Seq(items ...Node) Node {
	if items == nil {
		items = []Node{}
	}
	return Node{Kind: KindSeq, Items: items}
}

// Unit is the canonical empty-value parameter
func Unit() Node {
	return Prim("Unit")
}

// IsPrim reports whether n is the primitive name with the given arity
func (n Node) IsPrim(name string, arity int) bool {
	return n.Kind == KindPrim && n.Prim == name && len(n.Args) == arity
}

// StripAnnots returns a copy of n with annotations removed at every depth
func StripAnnots(n Node) Node {
	switch n.Kind {
	case KindPrim:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = StripAnnots(a)
		}
		return Node{Kind: KindPrim, Prim: n.Prim, Args: args}
	case KindSeq:
		items := make([]Node, len(n.Items))
		for i, it := range n.Items {
			items[i] = StripAnnots(it)
		}
		return Node{Kind: KindSeq, Items: items}
	default:
		return n
	}
}
