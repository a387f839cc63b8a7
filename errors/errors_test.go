package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	original := New("node unreachable")
	wrapped := Wrap(original, "failed to call all_tokens")

	assert.Contains(t, wrapped.Error(), "failed to call all_tokens")
	assert.Contains(t, wrapped.Error(), "node unreachable")
	assert.True(t, Is(wrapped, original))
}

type pathError struct {
	path string
}

func (e *pathError) Error() string { return "bad value at " + e.path }

func TestAsExtractsTypedError(t *testing.T) {
	wrapped := Wrap(&pathError{path: "views[0].name"}, "parse metadata")

	var pe *pathError
	require.True(t, As(wrapped, &pe))
	assert.Equal(t, "views[0].name", pe.path)
}

func TestHints(t *testing.T) {
	err := WithHint(New("no contract address"), "pass --contract KT1...")
	assert.Equal(t, "pass --contract KT1...", FlattenHints(err))
}

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		badRequest bool
	}{
		{"nil", nil, false, false},
		{"not found", NewNotFoundError("session %s", "abc"), true, false},
		{"invalid request", NewInvalidRequestError("view %q", "x"), false, true},
		{"wrapped not found", Wrap(ErrNotFound, "slot tokens"), true, false},
		{"plain", New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.badRequest, IsInvalidRequestError(tt.err))
		})
	}
}

func TestNewNotFoundErrorMessage(t *testing.T) {
	err := NewNotFoundError("session %s", "s-1")
	assert.Contains(t, err.Error(), "session s-1")
	assert.Contains(t, err.Error(), "not found")
}
