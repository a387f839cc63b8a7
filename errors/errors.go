// Package errors provides error handling for tzmeta.
//
// This package re-exports github.com/cockroachdb/errors so every package
// gets stack traces, wrapping, and user-facing hints from one import:
//
//	if err := resolve(); err != nil {
//	    return errors.Wrap(err, "failed to resolve metadata URI")
//	}
//
//	return errors.WithHint(err, "pass --contract with a KT1 address")
//
// Domain failures that callers must inspect (metadata decode errors,
// invocation errors) are typed errors in their own packages and are
// extracted with errors.As.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	FlattenHints = crdb.FlattenHints
	GetAllHints  = crdb.GetAllHints
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinels shared across packages. Wrap them to add context; test with Is.
var (
	// ErrNotFound indicates a session, slot, or view does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed caller input
	ErrInvalidRequest = New("invalid request")

	// ErrUnsupportedURI indicates a metadata URI scheme this resolver cannot fetch
	ErrUnsupportedURI = New("unsupported metadata URI")

	// ErrHashMismatch indicates fetched bytes do not match a sha256:// URI
	ErrHashMismatch = New("content hash mismatch")

	// ErrNodeIncompatible indicates the node version fails the configured constraint
	ErrNodeIncompatible = New("incompatible node version")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}
