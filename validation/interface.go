package validation

import (
	"encoding/json"
	"strings"

	"github.com/teranos/tzmeta/metadata"
)

// ClaimStatus tags an InterfaceClaim
type ClaimStatus int

const (
	ClaimMissing ClaimStatus = iota
	ClaimInvalid
	ClaimValid
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimMissing:
		return "missing"
	case ClaimInvalid:
		return "invalid"
	case ClaimValid:
		return "valid"
	default:
		return "unknown"
	}
}

const tzip12Tag = "TZIP-012"

// InterfaceClaim is what the document says about implementing TZIP-12.
// Tag is the interfaces entry the status was derived from; Version is the
// suffix after "TZIP-012-" for a valid claim, empty when none was given.
type InterfaceClaim struct {
	Status  ClaimStatus
	Tag     string
	Version string
}

// ParseInterfaceClaim inspects doc.Interfaces. A well-formed tag anywhere in
// the list wins; otherwise the first tag that looks like an attempt at
// TZIP-12 ("TZIP-12", "tzip-012", "TZIP-012-") is reported as invalid.
func ParseInterfaceClaim(doc *metadata.Document) InterfaceClaim {
	var invalid *InterfaceClaim
	for _, tag := range doc.Interfaces {
		if tag == tzip12Tag {
			return InterfaceClaim{Status: ClaimValid, Tag: tag}
		}
		if v, ok := strings.CutPrefix(tag, tzip12Tag+"-"); ok && v != "" {
			return InterfaceClaim{Status: ClaimValid, Tag: tag, Version: v}
		}
		if invalid == nil && looksLikeTZIP12(tag) {
			invalid = &InterfaceClaim{Status: ClaimInvalid, Tag: tag}
		}
	}
	if invalid != nil {
		return *invalid
	}
	return InterfaceClaim{Status: ClaimMissing}
}

func looksLikeTZIP12(tag string) bool {
	t := strings.ToUpper(strings.TrimSpace(tag))
	for _, prefix := range []string{"TZIP-012", "TZIP-12", "TZIP12", "TZIP012"} {
		if t == prefix || strings.HasPrefix(t, prefix+"-") || strings.HasPrefix(t, prefix+" ") {
			return true
		}
	}
	return false
}

func (c InterfaceClaim) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status  string `json:"status"`
		Tag     string `json:"tag,omitempty"`
		Version string `json:"version,omitempty"`
	}{c.Status.String(), c.Tag, c.Version})
}
