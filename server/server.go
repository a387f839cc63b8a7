// Package server is the HTTP and websocket boundary of tzmeta. It classifies
// posted metadata, runs view calls and token enumerations in per-session job
// slots, and streams every accepted job transition to websocket clients of
// that session.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/tzmeta/am"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/explorer"
	"github.com/teranos/tzmeta/logger"
)

// Limits
const (
	MaxClients  = 256
	MaxSessions = 1024
)

// Server holds sessions and websocket clients
type Server struct {
	invoker *swapInvoker
	cache   *classificationCache
	logger  *zap.SugaredLogger

	mu       sync.RWMutex
	sessions map[string]*explorer.Session
	clients  map[*Client]bool
	origins  []string

	register   chan *Client
	unregister chan *Client

	httpServer *http.Server

	// Lifecycle management
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
}

// New creates a server whose sessions call views through invoker
func New(invoker explorer.Invoker, cfg *am.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		invoker:    newSwapInvoker(invoker),
		cache:      newClassificationCache(defaultCacheEntries),
		logger:     logger.ComponentLogger("server"),
		sessions:   make(map[string]*explorer.Session),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.ApplyConfig(cfg)
	return s
}

// ApplyConfig updates the settings that can change without a restart
func (s *Server) ApplyConfig(cfg *am.Config) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	s.origins = cfg.GetServerAllowedOrigins()
	s.mu.Unlock()
}

// SetInvoker swaps the view invoker for jobs started from now on
func (s *Server) SetInvoker(invoker explorer.Invoker) {
	s.invoker.set(invoker)
	s.logger.Infow("View invoker replaced")
}

// CreateSession starts a new exploration session and returns it
func (s *Server) CreateSession() (*explorer.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= MaxSessions {
		return nil, errors.Newf("session limit %d reached", MaxSessions)
	}
	id := uuid.NewString()
	session := explorer.NewSession(id, s.invoker)
	s.sessions[id] = session
	s.logger.Infow("Session created", logger.FieldSessionID, shortID(id), "total_sessions", len(s.sessions))
	return session, nil
}

// Session looks up a session by id
func (s *Server) Session(id string) (*explorer.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session %q", id)
	}
	return session, nil
}

// CloseSession cancels the session's jobs and forgets it
func (s *Server) CloseSession(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return errors.NewNotFoundError("session %q", id)
	}
	session.Close()
	s.logger.Infow("Session closed", logger.FieldSessionID, shortID(id))
	return nil
}

// handleClientRegister attaches a new client to its session's job stream
func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}
	s.clients[client] = true
	totalClients := len(s.clients)
	s.mu.Unlock()

	// Current state of both slots first, then every transition
	client.stopFollow = client.session.Follow(client)

	s.logger.Infow("Client connected",
		logger.FieldClientID, client.id,
		logger.FieldSessionID, shortID(client.session.ID),
		"total_clients", totalClients,
	)
}

// handleClientUnregister detaches a client. Unsubscribing takes the slot
// locks, so no observer can send on the channel once it is closed.
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	totalClients := len(s.clients)
	s.mu.Unlock()

	if client.stopFollow != nil {
		client.stopFollow()
	}
	client.close()

	s.logger.Infow("Client disconnected",
		logger.FieldClientID, client.id,
		"total_clients", totalClients,
	)
}

// Run starts the server hub event loop
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		}
	}
}

// Start runs the hub and serves HTTP on port until Shutdown
func (s *Server) Start(port int) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}
	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort,
		)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", actualPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()
	s.logger.Infow("Server ready", "url", fmt.Sprintf("http://localhost:%d", actualPort))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "HTTP server failed")
	}
	return nil
}

// Shutdown stops accepting requests, cancels every session's jobs and
// waits for the hub and client pumps to exit
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	httpServer := s.httpServer
	s.mu.RUnlock()

	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}
	s.cancel()

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*explorer.Session)
	s.mu.Unlock()
	for _, session := range sessions {
		session.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "timed out waiting for client goroutines")
	}

	if drops := s.broadcastDrops.Load(); drops > 0 {
		s.logger.Warnw("Job updates dropped for slow clients", logger.FieldCount, drops)
	}
	return err
}
