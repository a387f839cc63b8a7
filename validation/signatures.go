// Package validation checks declared off-chain views against the TZIP-12
// canonical signatures and validates the other pieces of a token-standard
// claim: the interface tag and the permissions descriptor.
//
// Results are values, not errors. A view that fails to validate is reported
// with the reason (missing, no Michelson implementation, wrong types) so a
// renderer can show it without re-deriving anything.
package validation

import "github.com/teranos/tzmeta/micheline"

// Canonical TZIP-12 view names
const (
	ViewGetBalance    = "get_balance"
	ViewTotalSupply   = "total_supply"
	ViewAllTokens     = "all_tokens"
	ViewIsOperator    = "is_operator"
	ViewTokenMetadata = "token_metadata"
)

// Signature is the expected parameter and return type of a canonical view.
// A nil Parameter means the view takes no parameter.
type Signature struct {
	Parameter *micheline.Node
	Return    micheline.Node
	Mandatory bool
}

func typeOf(name string, args ...micheline.Node) micheline.Node {
	return micheline.Prim(name, args...)
}

func ptr(n micheline.Node) *micheline.Node { return &n }

var (
	tNat     = typeOf("nat")
	tAddress = typeOf("address")
)

var signatures = map[string]Signature{
	ViewGetBalance: {
		Parameter: ptr(typeOf("pair", tAddress, tNat)),
		Return:    tNat,
	},
	ViewTotalSupply: {
		Parameter: ptr(tNat),
		Return:    tNat,
		Mandatory: true,
	},
	ViewAllTokens: {
		Return:    typeOf("list", tNat),
		Mandatory: true,
	},
	ViewIsOperator: {
		Parameter: ptr(typeOf("pair", tAddress, typeOf("pair", tAddress, tNat))),
		Return:    typeOf("bool"),
		Mandatory: true,
	},
	ViewTokenMetadata: {
		Parameter: ptr(tNat),
		Return:    typeOf("pair", tNat, typeOf("map", typeOf("string"), typeOf("bytes"))),
		Mandatory: true,
	},
}

// CanonicalViews lists the TZIP-12 view names in a stable order
var CanonicalViews = []string{
	ViewGetBalance,
	ViewTotalSupply,
	ViewAllTokens,
	ViewIsOperator,
	ViewTokenMetadata,
}

// SignatureOf returns the canonical signature for name
func SignatureOf(name string) (Signature, bool) {
	s, ok := signatures[name]
	return s, ok
}
