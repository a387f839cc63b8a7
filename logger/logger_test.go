package logger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{"console quiet", false, 0},
		{"console debug", false, 2},
		{"json info", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.True(t, Logger.Desugar().Core().Enabled(VerbosityToLevel(tt.verbosity)))
		})
	}

	Logger = zap.NewNop().Sugar()
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, "Info (-v)", LevelName(1))
}

func TestSetThemeIgnoresUnknown(t *testing.T) {
	SetTheme("gruvbox")
	assert.Equal(t, "gruvbox", Theme())
	SetTheme("solarized")
	assert.Equal(t, "gruvbox", Theme())
	SetTheme("everforest")
}

func TestConsoleEncoderRendersContextAndCallFields(t *testing.T) {
	enc := newConsoleEncoder()
	enc.AddString(FieldContract, "KT1Hkg5qeNhfwpKW4fXvq7HGZB9z2EnmCCA9")

	clone := enc.Clone()
	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2024, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "node",
		Message:    "view call failed",
	}

	buf, err := clone.EncodeEntry(entry, []zapcore.Field{zap.String(FieldView, "all_tokens")})
	require.NoError(t, err)
	line := buf.String()

	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "13:04:35")
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "node")
	assert.Contains(t, line, "view call failed")
	assert.Contains(t, line, "KT1Hkg5qeNhfwpKW4fXvq7HGZB9z2EnmCCA9")
	assert.Contains(t, line, "all_tokens")
	// Contract sorts before view
	assert.Less(t, strings.Index(line, FieldContract+"="), strings.Index(line, FieldView+"="))
}

func TestConsoleEncoderHidesInfoLevel(t *testing.T) {
	enc := newConsoleEncoder()
	buf, err := enc.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Now(), Message: "listening"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "INFO")
}

func TestComponentLoggerIsNamed(t *testing.T) {
	Logger = zap.NewExample().Sugar()
	defer func() { Logger = zap.NewNop().Sugar() }()

	named := ComponentLogger("tokens")
	assert.NotNil(t, named)
	child := ChildLogger(named, FieldSlot, "token-enumeration")
	assert.NotNil(t, child)
}
