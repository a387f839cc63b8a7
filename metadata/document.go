// Package metadata models TZIP-16 contract metadata documents.
//
// Parse turns raw JSON into an immutable *Document. Fields the standard does
// not define are kept verbatim in Extra so extensions (TZIP-12 permissions,
// token lists) can read them later.
package metadata

import (
	"encoding/json"
	"sort"

	"github.com/teranos/tzmeta/micheline"
)

// Document is a parsed metadata document.
// Optional scalar fields are nil when absent.
type Document struct {
	Name        *string
	Description *string
	Version     *string
	License     *License
	Homepage    *string
	Source      *Source
	Authors     []string
	Interfaces  []string
	Errors      []ErrorTranslation
	Views       []View
	Extra       map[string]json.RawMessage
}

// License names the license the contract is published under
type License struct {
	Name    string  `json:"name"`
	Details *string `json:"details,omitempty"`
}

// Source describes the tooling used to build the contract
type Source struct {
	Tools    []string `json:"tools,omitempty"`
	Location *string  `json:"location,omitempty"`
}

// ErrorTranslation maps a contract failure value to a human message.
// Exactly one of Static or Dynamic is set.
type ErrorTranslation struct {
	Static  *StaticError
	Dynamic *DynamicError
}

// StaticError translates a fixed error value
type StaticError struct {
	Error     micheline.Node `json:"error"`
	Expansion micheline.Node `json:"expansion"`
	Languages []string       `json:"languages,omitempty"`
}

// DynamicError delegates translation to an off-chain view
type DynamicError struct {
	View      string   `json:"view"`
	Languages []string `json:"languages,omitempty"`
}

// View is a named off-chain view with one or more implementations
type View struct {
	Name            string
	Description     *string
	Pure            bool
	Implementations []Implementation
}

// Implementation is a closed sum type: *MichelsonStorageView or *RestAPIQuery.
// Switch on the concrete type; no other implementations exist.
type Implementation interface {
	implementation()
}

// MichelsonStorageView is Michelson code run against the contract storage
type MichelsonStorageView struct {
	Parameter   *micheline.Node
	ReturnType  micheline.Node
	Code        micheline.Node
	Annotations []Annotation
	Version     *string
}

// Annotation documents one annotation used in a view's types
type Annotation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RestAPIQuery is a view served by an HTTP API described by an OpenAPI spec
type RestAPIQuery struct {
	SpecificationURI string
	BaseURI          *string
	Path             string
	Method           string
}

func (*MichelsonStorageView) implementation() {}
func (*RestAPIQuery) implementation()         {}

// FindView returns the first view with the given name and its index.
// When several views share a name the lowest index wins.
func (d *Document) FindView(name string) (*View, int, bool) {
	for i := range d.Views {
		if d.Views[i].Name == name {
			return &d.Views[i], i, true
		}
	}
	return nil, -1, false
}

// HasView reports whether any view carries the given name
func (d *Document) HasView(name string) bool {
	_, _, ok := d.FindView(name)
	return ok
}

// ExtraKeys returns the unknown top-level keys in sorted order
func (d *Document) ExtraKeys() []string {
	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MichelsonImplementations returns the Michelson storage implementations of v
// together with their positions in v.Implementations
func (v *View) MichelsonImplementations() ([]*MichelsonStorageView, []int) {
	var impls []*MichelsonStorageView
	var idx []int
	for i, impl := range v.Implementations {
		if m, ok := impl.(*MichelsonStorageView); ok {
			impls = append(impls, m)
			idx = append(idx, i)
		}
	}
	return impls, idx
}
