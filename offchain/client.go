// Package offchain invokes TZIP-16 Michelson storage views by simulating
// their code against a contract's current storage.
//
// The node transport is a collaborator (NodeRPC). Whatever goes wrong on the
// way (bad address, transport failure, a FAILWITH in the view) comes back as
// a single *InvocationError carrying a human readable message.
package offchain

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/metadata"
	"github.com/teranos/tzmeta/micheline"
)

// NodeRPC simulates a view against a contract. storageHint, when non-nil,
// replaces the storage the node would otherwise read from the chain.
// It returns the view result and the storage value actually used.
type NodeRPC interface {
	SimulateView(ctx context.Context, address string, view *metadata.MichelsonStorageView, parameter micheline.Node, storageHint *micheline.Node) (result, storage micheline.Node, err error)
}

// Request describes one view call. A nil Parameter means Unit.
type Request struct {
	Address     string
	ViewName    string
	View        *metadata.MichelsonStorageView
	Parameter   *micheline.Node
	StorageHint *micheline.Node
}

// Outcome is a successful call: the view result and the storage it ran against
type Outcome struct {
	Result  micheline.Node `json:"result"`
	Storage micheline.Node `json:"storage"`
}

// MarshalJSON renders {result, storage}; storage is left out when the
// node did not report one
func (o Outcome) MarshalJSON() ([]byte, error) {
	out := map[string]micheline.Node{"result": o.Result}
	if o.Storage.Kind != micheline.KindInt || o.Storage.Int != nil {
		out["storage"] = o.Storage
	}
	return json.Marshal(out)
}

// InvocationError is the only error CallView returns. Callers must treat
// Message as opaque text.
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string {
	return e.Message
}

// Client runs view calls through a NodeRPC
type Client struct {
	rpc    NodeRPC
	logger *zap.SugaredLogger
}

// NewClient creates a client over rpc
func NewClient(rpc NodeRPC) *Client {
	return &Client{
		rpc:    rpc,
		logger: logger.ComponentLogger("offchain"),
	}
}

// CallView simulates one view call and blocks until the node answers.
// Independent calls may run concurrently on the same Client.
func (c *Client) CallView(ctx context.Context, req Request) (Outcome, error) {
	if req.View == nil {
		return Outcome{}, &InvocationError{Message: "view " + req.ViewName + " has no Michelson implementation to run"}
	}
	if req.Address == "" {
		return Outcome{}, &InvocationError{Message: "no contract address given"}
	}

	param := micheline.Unit()
	if req.Parameter != nil {
		param = *req.Parameter
	}

	start := time.Now()
	result, storage, err := c.rpc.SimulateView(ctx, req.Address, req.View, param, req.StorageHint)
	if err != nil {
		c.logger.Debugw("View call failed",
			logger.FieldContract, req.Address,
			logger.FieldView, req.ViewName,
			logger.FieldError, err.Error(),
		)
		return Outcome{}, asInvocationError(err)
	}

	c.logger.Debugw("View call succeeded",
		logger.FieldContract, req.Address,
		logger.FieldView, req.ViewName,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return Outcome{Result: result, Storage: storage}, nil
}

// Reply is delivered once on the channel returned by CallViewAsync
type Reply struct {
	Outcome Outcome
	Err     error
}

// CallViewAsync starts CallView in a goroutine. The returned channel yields
// exactly one Reply and is then closed.
func (c *Client) CallViewAsync(ctx context.Context, req Request) <-chan Reply {
	ch := make(chan Reply, 1)
	go func() {
		defer close(ch)
		out, err := c.CallView(ctx, req)
		ch <- Reply{Outcome: out, Err: err}
	}()
	return ch
}

func asInvocationError(err error) *InvocationError {
	msg := err.Error()
	if hints := errors.FlattenHints(err); hints != "" {
		msg += " (" + hints + ")"
	}
	return &InvocationError{Message: msg}
}
