// Package node talks to a Tezos node over its JSON RPC and implements the
// view simulation used by the offchain package.
//
// A storage view is run by wrapping its code in a throwaway script and
// calling helpers/scripts/run_code:
//
//	parameter (pair P S) ; storage (option R) ;
//	code { CAR ; <view code> ; SOME ; NIL operation ; PAIR }
//
// where P is the view parameter type, S the contract storage type and R the
// view return type. The result is the payload of the returned Some.
package node

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/internal/httpclient"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/metadata"
	"github.com/teranos/tzmeta/micheline"
)

// Config selects the node and how hard to hit it
type Config struct {
	Endpoint          string
	RequestsPerSecond float64 // <= 0 disables pacing
	MinVersion        string  // semver constraint, e.g. ">= 18.0"
}

// Client is a Tezos RPC client. Safe for concurrent use.
type Client struct {
	endpoint   string
	http       *httpclient.SaferClient
	limiter    *rate.Limiter
	minVersion string
	logger     *zap.SugaredLogger

	mu      sync.Mutex
	chainID string
}

// New creates a client for cfg.Endpoint using hc for transport
func New(cfg Config, hc *httpclient.SaferClient) (*Client, error) {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		return nil, errors.WithHint(errors.New("node endpoint is empty"), "set [node] endpoint in am.toml or TZMETA_NODE_ENDPOINT")
	}
	if err := hc.ValidateURL(endpoint); err != nil {
		return nil, errors.Wrapf(err, "node endpoint %q", endpoint)
	}

	c := &Client{
		endpoint:   endpoint,
		http:       hc,
		minVersion: cfg.MinVersion,
		logger:     logger.ComponentLogger("node"),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// Endpoint returns the node base URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return rpcError(c.http.GetJSON(ctx, c.endpoint+path, out))
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return rpcError(c.http.PostJSON(ctx, c.endpoint+path, in, out))
}

// ChainID returns the chain id of the node's main chain, cached after the first call
func (c *Client) ChainID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	var id string
	if err := c.get(ctx, "/chains/main/chain_id", &id); err != nil {
		return "", errors.Wrap(err, "failed to fetch chain id")
	}

	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	c.logger.Debugw("Chain id", logger.FieldEndpoint, c.endpoint, logger.FieldChainID, id)
	return id, nil
}

// Script is a contract's code and current storage
type Script struct {
	Code    micheline.Node `json:"code"`
	Storage micheline.Node `json:"storage"`
}

// StorageType extracts the type from the script's storage section
func (s Script) StorageType() (micheline.Node, error) {
	if s.Code.Kind != micheline.KindSeq {
		return micheline.Node{}, errors.New("contract code is not a sequence")
	}
	for _, section := range s.Code.Items {
		if section.IsPrim("storage", 1) {
			return section.Args[0], nil
		}
	}
	return micheline.Node{}, errors.New("contract code has no storage section")
}

// ContractScript fetches the code and storage of address
func (c *Client) ContractScript(ctx context.Context, address string) (Script, error) {
	if err := ValidateContractAddress(address); err != nil {
		return Script{}, err
	}
	var script Script
	path := "/chains/main/blocks/head/context/contracts/" + url.PathEscape(address) + "/script"
	if err := c.get(ctx, path, &script); err != nil {
		return Script{}, errors.Wrapf(err, "failed to fetch script of %s", address)
	}
	return script, nil
}

type runCodeRequest struct {
	Script  micheline.Node `json:"script"`
	Storage micheline.Node `json:"storage"`
	Input   micheline.Node `json:"input"`
	Amount  string         `json:"amount"`
	Balance string         `json:"balance"`
	ChainID string         `json:"chain_id"`
}

type runCodeResponse struct {
	Storage micheline.Node `json:"storage"`
}

// SimulateView runs view against address via run_code. The parameter is
// ignored when the view declares none; the view code then sees only the
// storage. storageHint replaces the on-chain storage value when set.
func (c *Client) SimulateView(ctx context.Context, address string, view *metadata.MichelsonStorageView, parameter micheline.Node, storageHint *micheline.Node) (micheline.Node, micheline.Node, error) {
	script, err := c.ContractScript(ctx, address)
	if err != nil {
		return micheline.Node{}, micheline.Node{}, err
	}
	storageType, err := script.StorageType()
	if err != nil {
		return micheline.Node{}, micheline.Node{}, errors.Wrapf(err, "contract %s", address)
	}
	storage := script.Storage
	if storageHint != nil {
		storage = *storageHint
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return micheline.Node{}, micheline.Node{}, err
	}

	req := runCodeRequest{
		Script:  viewScript(view, storageType),
		Storage: micheline.Prim("None"),
		Input:   viewInput(view, parameter, storage),
		Amount:  "0",
		Balance: "0",
		ChainID: chainID,
	}

	var resp runCodeResponse
	if err := c.post(ctx, "/chains/main/blocks/head/helpers/scripts/run_code", req, &resp); err != nil {
		return micheline.Node{}, micheline.Node{}, err
	}
	if !resp.Storage.IsPrim("Some", 1) {
		return micheline.Node{}, micheline.Node{}, errors.Newf("run_code returned %s, expected Some", micheline.Render(resp.Storage))
	}

	c.logger.Debugw("Simulated view", logger.FieldContract, address, logger.FieldChainID, chainID)
	return resp.Storage.Args[0], storage, nil
}

// viewScript wraps view code into a full script
func viewScript(view *metadata.MichelsonStorageView, storageType micheline.Node) micheline.Node {
	paramType := storageType
	if view.Parameter != nil {
		paramType = micheline.Prim("pair", *view.Parameter, storageType)
	}

	code := []micheline.Node{micheline.Prim("CAR")}
	if view.Code.Kind == micheline.KindSeq {
		code = append(code, view.Code.Items...)
	} else {
		code = append(code, view.Code)
	}
	code = append(code,
		micheline.Prim("SOME"),
		micheline.Prim("NIL", micheline.Prim("operation")),
		micheline.Prim("PAIR"),
	)

	return micheline.Seq(
		micheline.Prim("parameter", paramType),
		micheline.Prim("storage", micheline.Prim("option", view.ReturnType)),
		micheline.Prim("code", micheline.Seq(code...)),
	)
}

func viewInput(view *metadata.MichelsonStorageView, parameter, storage micheline.Node) micheline.Node {
	if view.Parameter == nil {
		return storage
	}
	return micheline.Prim("Pair", parameter, storage)
}

// rpcFailure is one entry of the error array a Tezos node returns
type rpcFailure struct {
	Kind     string          `json:"kind"`
	ID       string          `json:"id"`
	With     *micheline.Node `json:"with,omitempty"`
	Msg      string          `json:"msg,omitempty"`
	Location *int            `json:"location,omitempty"`
}

// rpcError turns a node error body into a readable message. Script
// failures carry the FAILWITH value, which is surfaced as a hint.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}

	out := describeFailures(se)
	if se.StatusCode == http.StatusNotFound {
		out = errors.Mark(out, errors.ErrNotFound)
	}
	return out
}

func describeFailures(se *httpclient.StatusError) error {
	var failures []rpcFailure
	if err := json.Unmarshal([]byte(se.Body), &failures); err != nil || len(failures) == 0 {
		return errors.Newf("node returned %d %s", se.StatusCode, strings.TrimSpace(se.Body))
	}

	ids := make([]string, 0, len(failures))
	var with *micheline.Node
	for _, f := range failures {
		id := f.ID
		if f.Msg != "" {
			id += ": " + f.Msg
		}
		ids = append(ids, id)
		if f.With != nil && with == nil {
			with = f.With
		}
	}

	out := errors.Newf("node rejected the call: %s", strings.Join(ids, ", "))
	if with != nil {
		out = errors.WithHint(out, "FAILWITH "+micheline.Render(*with))
	}
	return out
}
