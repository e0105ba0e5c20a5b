// Package logging provides structured logging utilities used across the CLI and services.
package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different log levels.
type LogLevel int

const (
	// LevelDebug is verbose diagnostic logging.
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel. Unknown names yield LevelInfo.
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// ToSlogLevel converts our LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l LogLevel) toZapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Config holds logging configuration
type Config struct {
	Level         LogLevel
	Format        string // "text" or "json"
	Output        io.Writer
	IncludeSource bool
	Quiet         bool
	Verbose       bool
	MaskSecrets   bool
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() *Config {
	return &Config{
		Level:       LevelInfo,
		Format:      "text",
		Output:      os.Stderr,
		MaskSecrets: true,
	}
}

// effectiveLevel applies the quiet/verbose overrides. Quiet wins.
func (c *Config) effectiveLevel() LogLevel {
	switch {
	case c.Quiet:
		return LevelError
	case c.Verbose:
		return LevelDebug
	default:
		return c.Level
	}
}

// Logger wraps slog with secret masking and a zap bridge for the HTTP client.
type Logger struct {
	slog   *slog.Logger
	config *Config
}

// New creates a new logger with the given configuration
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     config.effectiveLevel().ToSlogLevel(),
		AddSource: config.IncludeSource,
	}

	var handler slog.Handler
	switch config.Format {
	case "json":
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &Logger{
		slog:   slog.New(handler),
		config: config,
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, l.mask(args)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, l.mask(args)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, l.mask(args)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, l.mask(args)...)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		slog:   l.slog.With(l.mask(args)...),
		config: l.config,
	}
}

// Zap builds a zap logger that writes to the same output at the same level. The HTTP client
// traces requests through it.
func (l *Logger) Zap() *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if l.config.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(l.config.Output), l.config.effectiveLevel().toZapLevel())
	return zap.New(core)
}

// Operation tracks a multi-request task such as a space cleanup.
type Operation struct {
	Name      string
	StartTime time.Time
	logger    *Logger
}

// StartOperation begins tracking an operation
func (l *Logger) StartOperation(name string, fields map[string]any) *Operation {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["operation"] = name
	op := &Operation{Name: name, StartTime: time.Now(), logger: l.WithFields(fields)}
	op.logger.Debug("Operation started")
	return op
}

// Complete marks the operation as completed
func (op *Operation) Complete(args ...any) {
	op.logger.Debug("Operation completed", append(args, "duration", time.Since(op.StartTime).String())...)
}

// Fail marks the operation as failed
func (op *Operation) Fail(err error, args ...any) {
	op.logger.Error("Operation failed", append(args, "error", err.Error(), "duration", time.Since(op.StartTime).String())...)
}

var (
	secretKeywords = []string{
		"password", "passwd", "pwd",
		"token", "authorization", "bearer",
		"secret", "credential", "cookie", "session",
		"api_key", "apikey",
	}
	basicAuthURL = regexp.MustCompile(`^https?://[^/\s]+:[^/\s]+@`)
)

// mask replaces values of secret-looking keys and credentials embedded in URLs.
func (l *Logger) mask(args []any) []any {
	if !l.config.MaskSecrets || len(args) < 2 {
		return args
	}
	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if isSecretKey(key) || looksLikeSecret(out[i+1]) {
			out[i+1] = maskValue(out[i+1])
		}
	}
	return out
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range secretKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func looksLikeSecret(v any) bool {
	s, ok := v.(string)
	return ok && basicAuthURL.MatchString(s)
}

func maskValue(v any) any {
	s, ok := v.(string)
	if !ok || len(s) <= 4 {
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}

// Global logger instance
var defaultLogger *Logger

// SetDefault sets the default global logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the default global logger.
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}
