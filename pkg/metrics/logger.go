package metrics

import (
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync/atomic"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Level is a logging threshold.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent // disables all output
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "SILENT"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelSilent {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel parses a level name, case-insensitively. "warning", "off" and
// "none" are accepted as aliases.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "WARNING":
		return LevelWarn, nil
	case "OFF", "NONE":
		return LevelSilent, nil
	}
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s (use debug, info, warn, error, silent)", s)
}

// Format selects the line encoding.
type Format int

const (
	FormatText Format = iota // logfmt
	FormatJSON               // one JSON object per line
)

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "logfmt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("invalid log format: %s (use text or json)", s)
}

// Fields are structured key/value pairs attached to a log line.
type Fields map[string]any

// Logger writes leveled, structured lines through go-kit/log.
//
// Every line carries ts, level, an optional logger name, msg, then the
// fields sorted by key. Loggers derived with With or Named share the
// parent's sink and level, so SetLevel on any of them applies to all.
type Logger struct {
	sink   kitlog.Logger
	level  *atomic.Int32
	name   string
	fields Fields
}

type loggerOptions struct {
	out    io.Writer
	level  Level
	format Format
	fields Fields
	name   string
}

// LoggerOption configures NewLogger.
type LoggerOption func(*loggerOptions)

// WithOutput sets the destination. The default is os.Stdout.
func WithOutput(w io.Writer) LoggerOption {
	return func(o *loggerOptions) { o.out = w }
}

// WithLevel sets the minimum level written. The default is LevelInfo.
func WithLevel(l Level) LoggerOption {
	return func(o *loggerOptions) { o.level = l }
}

// WithFormat sets the line encoding.
func WithFormat(f Format) LoggerOption {
	return func(o *loggerOptions) { o.format = f }
}

// WithFields sets fields added to every line.
func WithFields(f Fields) LoggerOption {
	return func(o *loggerOptions) { o.fields = f }
}

// WithName sets the logger name.
func WithName(name string) LoggerOption {
	return func(o *loggerOptions) { o.name = name }
}

// NewLogger creates a logger.
func NewLogger(opts ...LoggerOption) *Logger {
	o := loggerOptions{out: os.Stdout, level: LevelInfo}
	for _, opt := range opts {
		opt(&o)
	}

	w := kitlog.NewSyncWriter(o.out)
	var sink kitlog.Logger
	if o.format == FormatJSON {
		sink = kitlog.NewJSONLogger(w)
	} else {
		sink = kitlog.NewLogfmtLogger(w)
	}

	l := &Logger{
		sink:   kitlog.With(sink, "ts", kitlog.DefaultTimestampUTC),
		level:  new(atomic.Int32),
		name:   o.name,
		fields: maps.Clone(o.fields),
	}
	l.level.Store(int32(o.level))
	return l
}

// With returns a logger that adds fields to every line.
func (l *Logger) With(fields Fields) *Logger {
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(Fields, len(fields))
	}
	maps.Copy(merged, fields)
	return &Logger{sink: l.sink, level: l.level, name: l.name, fields: merged}
}

// Named returns a logger whose name is extended with name, dot-separated.
func (l *Logger) Named(name string) *Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return &Logger{sink: l.sink, level: l.level, name: name, fields: l.fields}
}

// SetLevel changes the threshold for this logger and every logger derived
// from the same root.
func (l *Logger) SetLevel(lv Level) {
	l.level.Store(int32(lv))
}

// Enabled reports whether a line at lv would be written.
func (l *Logger) Enabled(lv Level) bool {
	return lv >= Level(l.level.Load()) && lv < LevelSilent
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, fields ...Fields) { l.log(LevelDebug, msg, fields) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, fields ...Fields) { l.log(LevelInfo, msg, fields) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, fields ...Fields) { l.log(LevelWarn, msg, fields) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, fields ...Fields) { l.log(LevelError, msg, fields) }

func (l *Logger) log(lv Level, msg string, extra []Fields) {
	if !l.Enabled(lv) {
		return
	}

	all := maps.Clone(l.fields)
	if all == nil {
		all = make(Fields)
	}
	for _, f := range extra {
		maps.Copy(all, f)
	}

	kv := make([]any, 0, 4+2*len(all))
	if l.name != "" {
		kv = append(kv, "logger", l.name)
	}
	kv = append(kv, "msg", msg)
	for _, k := range slices.Sorted(maps.Keys(all)) {
		kv = append(kv, k, fieldValue(all[k]))
	}

	_ = leveled(l.sink, lv).Log(kv...)
}

func leveled(sink kitlog.Logger, lv Level) kitlog.Logger {
	switch lv {
	case LevelDebug:
		return level.Debug(sink)
	case LevelWarn:
		return level.Warn(sink)
	case LevelError:
		return level.Error(sink)
	default:
		return level.Info(sink)
	}
}

// Fingerprint is a log-safe stand-in for a public value such as a key or a
// ciphertext: its leading bytes and its length.
type Fingerprint []byte

const fingerprintLen = 8

func (f Fingerprint) String() string {
	if len(f) <= fingerprintLen {
		return hex.EncodeToString(f)
	}
	return fmt.Sprintf("%s..(%d)", hex.EncodeToString(f[:fingerprintLen]), len(f))
}

// fieldValue renders raw byte slices as a length only, so key material
// passed by mistake never reaches the log.
func fieldValue(v any) any {
	switch x := v.(type) {
	case Fingerprint:
		return x.String()
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(x))
	case error:
		return x.Error()
	default:
		return v
	}
}

// NullLogger discards everything.
func NullLogger() *Logger {
	return NewLogger(WithOutput(io.Discard), WithLevel(LevelSilent))
}

// TestLogger writes logfmt at debug level to w.
func TestLogger(w io.Writer) *Logger {
	return NewLogger(WithOutput(w), WithLevel(LevelDebug))
}

// ProductionLogger writes JSON at info level to w.
func ProductionLogger(w io.Writer) *Logger {
	return NewLogger(WithOutput(w), WithLevel(LevelInfo), WithFormat(FormatJSON))
}
