// Package httpclient provides the outbound HTTP client shared by the node
// RPC adapter and the metadata resolver.
//
// Metadata URIs come from third-party contracts, so the client refuses
// non-http(s) schemes, localhost, and private addresses (checked both on the
// URL and again on every dial, which covers DNS rebinding), and caps how much
// of a response body is read.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/version"
)

var userAgent = version.Get().UserAgent()

// DefaultMaxBytes caps response bodies when Options.MaxBytes is zero
const DefaultMaxBytes = 8 << 20

// Options configures a SaferClient. Zero values select the defaults.
type Options struct {
	Timeout        time.Duration
	AllowedSchemes []string // default: http, https
	MaxRedirects   int      // default: 10
	MaxBytes       int64    // default: DefaultMaxBytes
	BlockPrivateIP *bool    // default: true
}

// SaferClient is an http.Client with SSRF protection and bounded reads
type SaferClient struct {
	*http.Client
	guard    guard
	maxBytes int64
}

// New builds a SaferClient from opts
func New(opts Options) *SaferClient {
	g := guard{
		allowedSchemes: []string{"http", "https"},
		blockPrivateIP: true,
		maxRedirects:   10,
	}
	if opts.AllowedSchemes != nil {
		g.allowedSchemes = opts.AllowedSchemes
	}
	if opts.MaxRedirects > 0 {
		g.maxRedirects = opts.MaxRedirects
	}
	if opts.BlockPrivateIP != nil {
		g.blockPrivateIP = *opts.BlockPrivateIP
	}

	c := &SaferClient{
		Client:   &http.Client{Timeout: opts.Timeout},
		guard:    g,
		maxBytes: opts.MaxBytes,
	}
	if c.maxBytes <= 0 {
		c.maxBytes = DefaultMaxBytes
	}
	c.CheckRedirect = c.checkRedirect

	if g.blockPrivateIP {
		dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
		c.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if err := g.checkDial(ctx, addr); err != nil {
					return nil, err
				}
				return dialer.DialContext(ctx, network, addr)
			},
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}
	return c
}

// WrapClient wraps an existing client without private address blocking.
// Only for tests that talk to httptest servers on loopback.
func WrapClient(client *http.Client) *SaferClient {
	c := &SaferClient{
		Client: client,
		guard: guard{
			allowedSchemes: []string{"http", "https"},
			maxRedirects:   10,
		},
		maxBytes: DefaultMaxBytes,
	}
	return c
}

func (c *SaferClient) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= c.guard.maxRedirects {
		return errors.Newf("stopped after %d redirects", c.guard.maxRedirects)
	}
	if err := c.guard.checkURL(req.URL); err != nil {
		return errors.Wrap(err, "redirect blocked")
	}
	return nil
}

// ValidateURL parses and checks a URL without sending anything
func (c *SaferClient) ValidateURL(raw string) error {
	_, err := c.guard.parse(raw)
	return err
}

// Do executes req after checking its URL
func (c *SaferClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.guard.checkURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked by SSRF protection")
	}
	return c.Client.Do(req)
}

// StatusError is returned for non-2xx responses; Body holds the start of the body
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return http.StatusText(e.StatusCode)
	}
	return http.StatusText(e.StatusCode) + ": " + e.Body
}

// Fetch performs a request and returns the body, at most MaxBytes of it.
// Non-2xx responses become *StatusError.
func (c *SaferClient) Fetch(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s request", method)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if int64(len(data)) > c.maxBytes {
		return nil, errors.Newf("response from %s exceeds %d bytes", req.URL.Host, c.maxBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return data, nil
}

// GetJSON fetches url and decodes the JSON body into out
func (c *SaferClient) GetJSON(ctx context.Context, url string, out interface{}) error {
	data, err := c.Fetch(ctx, http.MethodGet, url, nil, jsonHeader)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

// PostJSON encodes in, posts it to url, and decodes the JSON reply into out
func (c *SaferClient) PostJSON(ctx context.Context, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "failed to encode request body")
	}
	data, err := c.Fetch(ctx, http.MethodPost, url, body, jsonHeader)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

var jsonHeader = http.Header{
	"Accept":       {"application/json"},
	"Content-Type": {"application/json"},
}

func decodeJSON(data []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "failed to decode JSON response")
	}
	return nil
}
