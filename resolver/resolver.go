// Package resolver fetches the bytes a metadata URI points to.
//
// http(s) URIs are fetched directly, ipfs URIs through a gateway, and
// sha256 URIs resolve their inner URI and check the digest. tezos-storage
// URIs need a big map lookup on the contract and are reported as
// unsupported.
package resolver

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/internal/httpclient"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/metadata"
)

// DefaultIPFSGateway is used when Config.IPFSGateway is empty
const DefaultIPFSGateway = "https://ipfs.io/ipfs/"

// Config configures a Resolver
type Config struct {
	IPFSGateway string
}

// Resolver turns metadata URIs into document bytes
type Resolver struct {
	http    *httpclient.SaferClient
	gateway string
	log     *zap.SugaredLogger
}

// New creates a resolver fetching through hc
func New(cfg Config, hc *httpclient.SaferClient) *Resolver {
	gateway := cfg.IPFSGateway
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Resolver{
		http:    hc,
		gateway: gateway,
		log:     logger.ComponentLogger("resolver"),
	}
}

// Resolve parses raw and fetches what it points to
func (r *Resolver) Resolve(ctx context.Context, raw string) ([]byte, error) {
	u, err := metadata.ParseURI(raw)
	if err != nil {
		return nil, err
	}
	return r.ResolveURI(ctx, u)
}

// ResolveURI fetches an already parsed URI
func (r *Resolver) ResolveURI(ctx context.Context, u metadata.URI) ([]byte, error) {
	r.log.Debugw("Resolving metadata", logger.FieldURI, u.Raw, logger.FieldScheme, string(u.Scheme))

	switch u.Scheme {
	case metadata.SchemeHTTP, metadata.SchemeHTTPS:
		return r.fetch(ctx, u.Raw)
	case metadata.SchemeIPFS:
		target := r.gateway + u.CID
		if u.Path != "" {
			target += "/" + u.Path
		}
		return r.fetch(ctx, target)
	case metadata.SchemeSHA256:
		data, err := r.ResolveURI(ctx, *u.Inner)
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(data)
		if !bytes.Equal(sum[:], u.Hash) {
			return nil, errors.WithDetailf(
				errors.Wrapf(errors.ErrHashMismatch, "content of %s", u.Inner.Raw),
				"expected %s, got %s", hex.EncodeToString(u.Hash), hex.EncodeToString(sum[:]),
			)
		}
		return data, nil
	case metadata.SchemeTezosStorage:
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrUnsupportedURI, "%s is stored in the contract's %%metadata big map", u.Raw),
			"read the document from the big map with a block explorer and pass the file instead",
		)
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedURI, "scheme %q", u.Scheme)
	}
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	data, err := r.http.Fetch(ctx, http.MethodGet, url, nil, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", url)
	}
	r.log.Debugw("Fetched metadata", logger.FieldURI, url, logger.FieldSize, len(data))
	return data, nil
}
