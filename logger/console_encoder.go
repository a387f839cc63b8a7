package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

type palette struct {
	time      string
	component string
	key       string
	value     string
	warn      string
	err       string
	errBg     string
}

var palettes = map[string]palette{
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;108m",
		key:       "\x1b[38;5;65m",
		value:     "\x1b[38;5;223m",
		warn:      "\x1b[38;5;179m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;208m",
		key:       "\x1b[38;5;109m",
		value:     "\x1b[38;5;223m",
		warn:      "\x1b[38;5;214m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
}

var currentTheme = "everforest"

// SetTheme configures the color scheme for console output.
// Unknown names are ignored.
func SetTheme(theme string) {
	if _, ok := palettes[theme]; ok {
		currentTheme = theme
	}
}

// Theme returns the active console theme name
func Theme() string {
	return currentTheme
}

var bufferPool = buffer.NewPool()

// consoleEncoder renders one compact line per entry:
//
//	13:04:35  node  view call failed  contract=KT1... view=all_tokens
//
// Context fields added through With are kept in the embedded map encoder.
type consoleEncoder struct {
	*zapcore.MapObjectEncoder
}

func newConsoleEncoder() *consoleEncoder {
	return &consoleEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &consoleEncoder{MapObjectEncoder: clone}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := palettes[currentTheme]
	line := bufferPool.Get()

	line.AppendString(p.time)
	line.AppendString(ent.Time.Format("15:04:05"))
	line.AppendString(colorReset)

	if lvl := levelLabel(p, ent.Level); lvl != "" {
		line.AppendString("  ")
		line.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(p.component)
		line.AppendString(ent.LoggerName)
		line.AppendString(colorReset)
	}

	line.AppendString("  ")
	line.AppendString(ent.Message)

	all := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		all.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(all)
	}
	if rendered := renderFields(p, all.Fields); rendered != "" {
		line.AppendString("  ")
		line.AppendString(rendered)
	}

	line.AppendString("\n")
	return line, nil
}

func levelLabel(p palette, level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel, zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return colorBold + p.warn + "WARN" + colorReset
	default:
		return colorBold + p.errBg + p.err + level.CapitalString() + colorReset
	}
}

// renderFields prints key=value pairs sorted by key
func renderFields(p palette, fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s%s=%s%s%v%s", p.key, k, colorReset, p.value, fields[k], colorReset))
	}
	return strings.Join(parts, " ")
}
