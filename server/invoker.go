package server

import (
	"context"
	"sync"

	"github.com/teranos/tzmeta/explorer"
	"github.com/teranos/tzmeta/offchain"
)

// swapInvoker lets a config reload point running sessions at a new node.
// Calls already in flight keep the invoker they started with.
type swapInvoker struct {
	mu      sync.RWMutex
	current explorer.Invoker
}

func newSwapInvoker(inv explorer.Invoker) *swapInvoker {
	return &swapInvoker{current: inv}
}

func (s *swapInvoker) set(inv explorer.Invoker) {
	s.mu.Lock()
	s.current = inv
	s.mu.Unlock()
}

func (s *swapInvoker) CallView(ctx context.Context, req offchain.Request) (offchain.Outcome, error) {
	s.mu.RLock()
	inv := s.current
	s.mu.RUnlock()
	return inv.CallView(ctx, req)
}
