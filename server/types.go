package server

import "encoding/json"

// JobUpdateMessage is pushed to websocket clients on every accepted job
// transition of their session
type JobUpdateMessage struct {
	Type      string      `json:"type"` // always "job_update"
	Slot      string      `json:"slot"`
	Job       interface{} `json:"job"`
	Timestamp int64       `json:"timestamp"`
}

// SessionResponse is returned by POST /api/sessions
type SessionResponse struct {
	ID string `json:"id"`
}

// ViewCallRequest starts a view call on a session.
// Parameter is a Micheline JSON value; omitted means Unit.
type ViewCallRequest struct {
	Metadata  json.RawMessage `json:"metadata"`
	Contract  string          `json:"contract"`
	View      string          `json:"view"`
	Parameter json.RawMessage `json:"parameter,omitempty"`
}

// TokensRequest starts a token enumeration on a session
type TokensRequest struct {
	Metadata json.RawMessage `json:"metadata"`
	Contract string          `json:"contract"`
}

// JobStartedResponse answers an accepted job start (202)
type JobStartedResponse struct {
	Session    string `json:"session"`
	Slot       string `json:"slot"`
	Generation uint64 `json:"generation"`
}
