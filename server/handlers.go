package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/teranos/tzmeta/classify"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/explorer"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/micheline"
	"github.com/teranos/tzmeta/node"
	"github.com/teranos/tzmeta/version"
)

// HandleHealth serves health check endpoint with version info
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	s.mu.RLock()
	clientCount := len(s.clients)
	sessionCount := len(s.sessions)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"version":    versionInfo.Version,
		"commit":     versionInfo.CommitHash,
		"build_time": versionInfo.BuildTime,
		"clients":    clientCount,
		"sessions":   sessionCount,
	})
}

// HandleClassify classifies the metadata document in the request body
func (s *Server) HandleClassify(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	start := time.Now()
	result, err := s.cache.classify(raw)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	s.logger.Debugw("Classified metadata",
		logger.FieldKind, result.Kind.String(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, result)
}

// HandleCreateSession creates an exploration session
func (s *Server) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.CreateSession()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{ID: session.ID})
}

// HandleDeleteSession closes a session and cancels its jobs
func (s *Server) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.CloseSession(r.PathValue("id")); err != nil {
		writeErrorFor(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStartViewCall starts a view call on the session's view-call slot,
// superseding any call already running there
func (s *Server) HandleStartViewCall(w http.ResponseWriter, r *http.Request) {
	session, err := s.Session(r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	var req ViewCallRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	classified, err := s.classifyRequest(req.Metadata, req.Contract)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	var param *micheline.Node
	if len(req.Parameter) > 0 && string(req.Parameter) != "null" {
		p, err := micheline.Parse(req.Parameter)
		if err != nil {
			writeErrorFor(w, errors.Mark(errors.Wrap(err, "parameter"), errors.ErrInvalidRequest))
			return
		}
		param = &p
	}

	gen, err := session.StartViewCall(explorer.ViewCallRequest{
		Classified: classified,
		Address:    req.Contract,
		View:       req.View,
		Parameter:  param,
	})
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobStartedResponse{Session: session.ID, Slot: explorer.SlotViewCall, Generation: gen})
}

// HandleStartTokens starts token enumeration on the session's
// token-enumeration slot
func (s *Server) HandleStartTokens(w http.ResponseWriter, r *http.Request) {
	session, err := s.Session(r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	var req TokensRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	classified, err := s.classifyRequest(req.Metadata, req.Contract)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	gen, err := session.StartTokenEnumeration(classified, req.Contract)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobStartedResponse{Session: session.ID, Slot: explorer.SlotTokenEnumeration, Generation: gen})
}

// HandleSlot returns the current job snapshot of one slot
func (s *Server) HandleSlot(w http.ResponseWriter, r *http.Request) {
	session, err := s.Session(r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	snapshot, err := session.SlotSnapshot(r.PathValue("slot"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// HandleWebSocket streams job updates of the session named by ?session=
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, err := s.Session(r.URL.Query().Get("session"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.logger.Warnw("WebSocket upgrade failed", logger.FieldError, err)
		return
	}

	client := &Client{
		server:  s,
		conn:    conn,
		session: session,
		sendMsg: make(chan interface{}, sendBuffer),
		id:      fmt.Sprintf("%s_%d", r.RemoteAddr, time.Now().UnixNano()),
	}

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
}

// classifyRequest checks the contract address and classifies the document
func (s *Server) classifyRequest(raw []byte, contract string) (classify.Result, error) {
	if len(raw) == 0 {
		return classify.Result{}, errors.NewInvalidRequestError("metadata is required")
	}
	if err := node.ValidateContractAddress(contract); err != nil {
		return classify.Result{}, err
	}
	return s.cache.classify(raw)
}
