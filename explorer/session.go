// Package explorer holds one user's exploration session: the view-call and
// token-enumeration job slots, and the goroutines that drive them.
package explorer

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/tzmeta/classify"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/micheline"
	"github.com/teranos/tzmeta/offchain"
	"github.com/teranos/tzmeta/pulse"
	"github.com/teranos/tzmeta/tokens"
	"github.com/teranos/tzmeta/validation"
)

// Slot names
const (
	SlotViewCall         = "view-call"
	SlotTokenEnumeration = "token-enumeration"
)

// Invoker runs view calls. *offchain.Client implements it.
type Invoker interface {
	CallView(ctx context.Context, req offchain.Request) (offchain.Outcome, error)
}

// Session owns the job slots of one exploration. Jobs started on the same
// slot supersede each other; the two slots run independently.
type Session struct {
	ID string

	invoker Invoker
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.SugaredLogger

	ViewCall *pulse.Slot[offchain.Outcome]
	Tokens   *pulse.Slot[[]tokens.Record]
}

// NewSession creates a session whose jobs call views through invoker.
// Jobs run until they finish or Close is called; superseded jobs are not
// cancelled, only ignored.
func NewSession(id string, invoker Invoker) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:       id,
		invoker:  invoker,
		ctx:      ctx,
		cancel:   cancel,
		log:      logger.ComponentLogger("explorer").With(logger.FieldSessionID, id),
		ViewCall: pulse.NewSlot[offchain.Outcome](SlotViewCall),
		Tokens:   pulse.NewSlot[[]tokens.Record](SlotTokenEnumeration),
	}
}

// Close cancels every job the session started
func (s *Session) Close() {
	s.cancel()
}

// ViewCallRequest names a view of a classified document and its argument
type ViewCallRequest struct {
	Classified classify.Result
	Address    string
	View       string
	Parameter  *micheline.Node
}

// StartViewCall resolves the view synchronously and then runs the call in
// the background on the view-call slot. The returned generation identifies
// the job; it is superseded by the next StartViewCall. The implementation
// ResolveView selects is run, falling back to the first Michelson one.
func (s *Session) StartViewCall(req ViewCallRequest) (uint64, error) {
	if req.Classified.Document == nil {
		return 0, errors.NewInvalidRequestError("no metadata document")
	}
	view, _, ok := req.Classified.Document.FindView(req.View)
	if !ok {
		return 0, errors.NewNotFoundError("view %q", req.View)
	}
	call := offchain.Request{Address: req.Address, ViewName: req.View, Parameter: req.Parameter}
	if impl, ok := validation.ResolveView(req.Classified.Document, req.View).Implementation(); ok {
		call.View = impl
	} else if impls, _ := view.MichelsonImplementations(); len(impls) > 0 {
		call.View = impls[0]
	}

	h := s.ViewCall.Start()
	s.log.Infow("Starting view call",
		logger.FieldView, req.View,
		logger.FieldContract, req.Address,
		logger.FieldGeneration, h.Generation(),
	)

	go func() {
		h.Logf("Calling %s on %s", req.View, req.Address)
		out, err := s.invoker.CallView(s.ctx, call)
		if err != nil {
			if !h.Fail(err) {
				s.log.Debugw("Discarded stale view call failure", logger.FieldGeneration, h.Generation())
			}
			return
		}
		if !h.Succeed(out) {
			s.log.Debugw("Discarded stale view call result", logger.FieldGeneration, h.Generation())
		}
	}()
	return h.Generation(), nil
}

// StartTokenEnumeration runs the token pipeline in the background on the
// token-enumeration slot.
func (s *Session) StartTokenEnumeration(classified classify.Result, address string) (uint64, error) {
	if classified.Kind != classify.TokenStandard {
		return 0, errors.NewInvalidRequestError("metadata is not token-standard")
	}
	if !classified.AllTokens.IsValid() {
		return 0, errors.NewInvalidRequestError("all_tokens view is %s", classified.AllTokens.Kind)
	}

	h := s.Tokens.Start()
	s.log.Infow("Starting token enumeration",
		logger.FieldContract, address,
		logger.FieldGeneration, h.Generation(),
	)

	go func() {
		records, err := tokens.Enumerate(s.ctx, s.invoker, address, classified, h)
		if err != nil {
			h.Fail(err)
			return
		}
		if h.Succeed(records) {
			s.log.Infow("Token enumeration done", logger.FieldCount, len(records))
		}
	}()
	return h.Generation(), nil
}

// SlotSnapshot returns the current job of the named slot as a JSON-ready value
func (s *Session) SlotSnapshot(name string) (interface{}, error) {
	switch name {
	case SlotViewCall:
		return s.ViewCall.Snapshot(), nil
	case SlotTokenEnumeration:
		return s.Tokens.Snapshot(), nil
	default:
		return nil, errors.NewNotFoundError("slot %q", name)
	}
}

// Follow is Watch preceded by the current job of each slot
func (s *Session) Follow(b pulse.JobBroadcaster) func() {
	stopViews := s.ViewCall.Follow(func(j pulse.Job[offchain.Outcome]) {
		b.BroadcastJobUpdate(SlotViewCall, j)
	})
	stopTokens := s.Tokens.Follow(func(j pulse.Job[[]tokens.Record]) {
		b.BroadcastJobUpdate(SlotTokenEnumeration, j)
	})
	return func() {
		stopViews()
		stopTokens()
	}
}

// Watch forwards every accepted transition of both slots to b.
// The returned function stops forwarding.
func (s *Session) Watch(b pulse.JobBroadcaster) func() {
	stopViews := s.ViewCall.Subscribe(func(j pulse.Job[offchain.Outcome]) {
		b.BroadcastJobUpdate(SlotViewCall, j)
	})
	stopTokens := s.Tokens.Subscribe(func(j pulse.Job[[]tokens.Record]) {
		b.BroadcastJobUpdate(SlotTokenEnumeration, j)
	})
	return func() {
		stopViews()
		stopTokens()
	}
}
