package metadata

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/teranos/tzmeta/errors"
)

// Scheme identifies how a metadata reference is resolved
type Scheme string

const (
	SchemeTezosStorage Scheme = "tezos-storage"
	SchemeHTTP         Scheme = "http"
	SchemeHTTPS        Scheme = "https"
	SchemeIPFS         Scheme = "ipfs"
	SchemeSHA256       Scheme = "sha256"
)

// URI is a parsed metadata reference as found in a contract's %metadata big map.
// Fields are populated according to Scheme.
type URI struct {
	Scheme Scheme
	Raw    string

	// tezos-storage: Contract and Network are empty for the short form,
	// meaning "the contract holding the big map"
	Contract string
	Network  string
	Key      string

	// ipfs
	CID  string
	Path string

	// sha256: Hash is the expected digest of the bytes Inner resolves to
	Hash  []byte
	Inner *URI
}

// ParseURI classifies a metadata reference. It never fetches anything.
func ParseURI(s string) (URI, error) {
	raw := strings.TrimSpace(s)
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "no scheme in %q", raw)
	}

	switch Scheme(strings.ToLower(scheme)) {
	case SchemeTezosStorage:
		return parseTezosStorage(raw, rest)
	case SchemeHTTP, SchemeHTTPS:
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "malformed http uri %q", raw)
		}
		return URI{Scheme: Scheme(strings.ToLower(u.Scheme)), Raw: raw}, nil
	case SchemeIPFS:
		rest = strings.TrimPrefix(rest, "//")
		cid, path, _ := strings.Cut(rest, "/")
		if cid == "" {
			return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "ipfs uri %q has no CID", raw)
		}
		return URI{Scheme: SchemeIPFS, Raw: raw, CID: cid, Path: path}, nil
	case SchemeSHA256:
		return parseSHA256(raw, rest)
	default:
		return URI{}, errors.WithHint(
			errors.Wrapf(errors.ErrUnsupportedURI, "scheme %q", scheme),
			"supported schemes: tezos-storage, http, https, ipfs, sha256",
		)
	}
}

func parseTezosStorage(raw, rest string) (URI, error) {
	u := URI{Scheme: SchemeTezosStorage, Raw: raw}
	encoded := rest
	if strings.HasPrefix(rest, "//") {
		host, key, ok := strings.Cut(strings.TrimPrefix(rest, "//"), "/")
		if !ok {
			return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "tezos-storage uri %q has no key", raw)
		}
		contract, network, _ := strings.Cut(host, ".")
		if !strings.HasPrefix(contract, "KT1") {
			return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "tezos-storage host %q is not a KT1 address", contract)
		}
		u.Contract = contract
		u.Network = network
		encoded = key
	}

	key, err := url.PathUnescape(encoded)
	if err != nil {
		return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "tezos-storage key %q: %v", encoded, err)
	}
	if key == "" {
		return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "tezos-storage uri %q has an empty key", raw)
	}
	u.Key = key
	return u, nil
}

func parseSHA256(raw, rest string) (URI, error) {
	body := strings.TrimPrefix(rest, "//")
	digest, escaped, ok := strings.Cut(body, "/")
	if !ok || !strings.HasPrefix(digest, "0x") {
		return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "sha256 uri %q must look like sha256://0x<hash>/<uri>", raw)
	}
	hash, err := hex.DecodeString(strings.TrimPrefix(digest, "0x"))
	if err != nil || len(hash) != 32 {
		return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "sha256 uri %q has a malformed digest", raw)
	}
	innerRaw, err := url.PathUnescape(escaped)
	if err != nil {
		return URI{}, errors.Wrapf(errors.ErrUnsupportedURI, "sha256 inner uri %q: %v", escaped, err)
	}
	inner, err := ParseURI(innerRaw)
	if err != nil {
		return URI{}, errors.Wrap(err, "sha256 inner uri")
	}
	return URI{Scheme: SchemeSHA256, Raw: raw, Hash: hash, Inner: &inner}, nil
}

func (u URI) String() string {
	return u.Raw
}
