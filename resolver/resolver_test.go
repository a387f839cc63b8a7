package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/internal/httpclient"
)

const body = `{"name": "resolved"}`

func newServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata.json", "/ipfs/QmTest/metadata.json":
			_, _ = w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveHTTP(t *testing.T) {
	srv := newServer(t)
	r := New(Config{}, httpclient.WrapClient(srv.Client()))

	data, err := r.Resolve(context.Background(), srv.URL+"/metadata.json")
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	_, err = r.Resolve(context.Background(), srv.URL+"/missing.json")
	require.Error(t, err)
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestResolveIPFSThroughGateway(t *testing.T) {
	srv := newServer(t)
	r := New(Config{IPFSGateway: srv.URL + "/ipfs"}, httpclient.WrapClient(srv.Client()))

	data, err := r.Resolve(context.Background(), "ipfs://QmTest/metadata.json")
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestResolveSHA256(t *testing.T) {
	srv := newServer(t)
	r := New(Config{}, httpclient.WrapClient(srv.Client()))
	inner := url.PathEscape(srv.URL + "/metadata.json")

	sum := sha256.Sum256([]byte(body))
	data, err := r.Resolve(context.Background(), "sha256://0x"+hex.EncodeToString(sum[:])+"/"+inner)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	wrong := sha256.Sum256([]byte("something else"))
	_, err = r.Resolve(context.Background(), "sha256://0x"+hex.EncodeToString(wrong[:])+"/"+inner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrHashMismatch))
}

func TestResolveTezosStorageUnsupported(t *testing.T) {
	r := New(Config{}, httpclient.New(httpclient.Options{}))
	_, err := r.Resolve(context.Background(), "tezos-storage:here")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedURI))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestResolveBlocksPrivateTargets(t *testing.T) {
	r := New(Config{}, httpclient.New(httpclient.Options{}))
	_, err := r.Resolve(context.Background(), "http://127.0.0.1/metadata.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private IP")
}
