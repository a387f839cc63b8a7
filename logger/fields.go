package logger

import (
	"go.uber.org/zap"
)

// Standard field names for structured logging.
// Use these constants instead of raw strings so log queries stay stable.
const (
	// Identity
	FieldSessionID  = "session_id"
	FieldClientID   = "client_id"
	FieldSlot       = "slot"
	FieldGeneration = "generation"

	// Chain
	FieldContract = "contract"
	FieldView     = "view"
	FieldTokenID  = "token_id"
	FieldEndpoint = "endpoint"
	FieldChainID  = "chain_id"

	// Metadata
	FieldURI    = "uri"
	FieldScheme = "scheme"
	FieldKind   = "kind"

	// Operations
	FieldMethod = "method"
	FieldPath   = "path"
	FieldStatus = "status"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors and counts
	FieldError = "error"
	FieldCount = "count"
	FieldSize  = "size"
	FieldFile  = "file"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection:
//
//	c := &Client{log: logger.ComponentLogger("node")}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
