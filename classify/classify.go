// Package classify decides whether a metadata document is plain TZIP-16 or
// claims the TZIP-12 token standard, and validates the token-standard views.
package classify

import (
	"encoding/json"
	"fmt"

	"github.com/teranos/tzmeta/metadata"
	"github.com/teranos/tzmeta/micheline"
	"github.com/teranos/tzmeta/validation"
)

// Kind tags a Result
type Kind int

const (
	BaseOnly Kind = iota
	TokenStandard
)

func (k Kind) String() string {
	if k == TokenStandard {
		return "token-standard"
	}
	return "base-only"
}

// Result is the classification of one document. The view results,
// Interface and Permissions are populated only for TokenStandard.
// Permissions is nil when the document has no descriptor.
type Result struct {
	Kind     Kind
	Document *metadata.Document

	Interface     validation.InterfaceClaim
	GetBalance    validation.Result
	TotalSupply   validation.Result
	AllTokens     validation.Result
	IsOperator    validation.Result
	TokenMetadata validation.Result
	Permissions   *validation.PermissionsOutcome
}

// Classify is a pure function of doc. A document is token-standard when it
// declares an all_tokens view; a missing or malformed interface tag only
// produces a warning.
func Classify(doc *metadata.Document) Result {
	if !doc.HasView(validation.ViewAllTokens) {
		return Result{Kind: BaseOnly, Document: doc}
	}
	return Result{
		Kind:          TokenStandard,
		Document:      doc,
		Interface:     validation.ParseInterfaceClaim(doc),
		GetBalance:    validation.ResolveView(doc, validation.ViewGetBalance),
		TotalSupply:   validation.ResolveView(doc, validation.ViewTotalSupply),
		AllTokens:     validation.ResolveView(doc, validation.ViewAllTokens),
		IsOperator:    validation.ResolveView(doc, validation.ViewIsOperator),
		TokenMetadata: validation.ResolveView(doc, validation.ViewTokenMetadata),
		Permissions:   validation.ParsePermissions(doc),
	}
}

// Views returns the canonical view results in CanonicalViews order
func (r Result) Views() []validation.Result {
	if r.Kind != TokenStandard {
		return nil
	}
	return []validation.Result{r.GetBalance, r.TotalSupply, r.AllTokens, r.IsOperator, r.TokenMetadata}
}

// GloballyValid reports TZIP-12 validity: every mandatory view valid,
// a well-formed interface claim, and a well-formed permissions descriptor
// when one is present. get_balance does not count.
func (r Result) GloballyValid() bool {
	if r.Kind != TokenStandard {
		return false
	}
	for _, v := range r.Views() {
		sig, _ := validation.SignatureOf(v.Name)
		if sig.Mandatory && !v.IsValid() {
			return false
		}
	}
	return r.Interface.Status == validation.ClaimValid && r.Permissions.Ok()
}

// Warnings lists human readable reasons the document is not globally valid,
// plus an optional get_balance problem
func (r Result) Warnings() []string {
	if r.Kind != TokenStandard {
		return nil
	}

	var warnings []string
	switch r.Interface.Status {
	case validation.ClaimMissing:
		warnings = append(warnings, "interfaces does not claim TZIP-012")
	case validation.ClaimInvalid:
		warnings = append(warnings, fmt.Sprintf("interface tag %q is not a well-formed TZIP-012 claim", r.Interface.Tag))
	}

	for _, v := range r.Views() {
		if v.IsValid() || (v.Name == validation.ViewGetBalance && v.Kind == validation.Missing) {
			continue
		}
		warnings = append(warnings, describe(v))
	}

	if !r.Permissions.Ok() {
		warnings = append(warnings, r.Permissions.Trace.Error())
	}
	return warnings
}

func describe(v validation.Result) string {
	switch v.Kind {
	case validation.Missing:
		return fmt.Sprintf("view %s is missing", v.Name)
	case validation.NoMichelsonImplementation:
		return fmt.Sprintf("view %s has no Michelson storage implementation", v.Name)
	default:
		return fmt.Sprintf("view %s has the wrong type: parameter %s, return %s",
			v.Name, statusText(v.Parameter), statusText(v.Return))
	}
}

func statusText(s validation.TypeStatus) string {
	if s.Kind == validation.TypeWrong && s.Found != nil {
		return "wrong (found " + micheline.Render(*s.Found) + ")"
	}
	return s.Kind.String()
}

// MarshalJSON renders the classification for the presentation boundary
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"kind": r.Kind.String(),
	}
	if r.Document != nil {
		out["name"] = r.Document.Name
		out["interfaces"] = r.Document.Interfaces
		names := make([]string, 0, len(r.Document.Views))
		for _, v := range r.Document.Views {
			names = append(names, v.Name)
		}
		out["views"] = names
	}
	if r.Kind == TokenStandard {
		out["interface_claim"] = r.Interface
		out["canonical_views"] = r.Views()
		if r.Permissions != nil {
			out["permissions"] = r.Permissions
		}
		out["globally_valid"] = r.GloballyValid()
		out["warnings"] = r.Warnings()
	}
	return json.Marshal(out)
}
