// Package sink holds the external logger contract the tracker writes events to,
// and the implementations shipped with pageanalytics.
package sink

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pageanalytics/internal/logging"
)

// Sink accepts one pre-formatted line per event. Failures are the sink's own
// business; the tracker does not inspect them.
type Sink interface {
	Log(level zapcore.Level, line string)
}

// Func adapts an ordinary function to Sink.
type Func func(level zapcore.Level, line string)

// Log calls f.
func (f Func) Log(level zapcore.Level, line string) {
	f(level, line)
}

// ZapSink writes each line as the message of a zap entry.
type ZapSink struct {
	logger *zap.Logger
}

// NewZap wraps an existing zap logger.
func NewZap(l *zap.Logger) *ZapSink {
	return &ZapSink{logger: l}
}

// NewDefault builds a named zap logger on stdout at level whose entries are the
// bare event line, so the output is one JSON object per line.
func NewDefault(name string, level zapcore.Level) (*ZapSink, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig = zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build event logger: %w", err)
	}
	logging.Get(logging.CategorySink).Debug("event logger %q writing to stdout at %s", name, level)
	return &ZapSink{logger: l.Named(name)}, nil
}

// Log writes line at level.
func (s *ZapSink) Log(level zapcore.Level, line string) {
	s.logger.Log(level, line)
}

// Sync flushes the underlying logger.
func (s *ZapSink) Sync() error {
	return s.logger.Sync()
}

// WriterSink writes lines at or above a minimum level to an io.Writer.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	min zapcore.Level
}

// NewWriter creates a WriterSink.
func NewWriter(w io.Writer, min zapcore.Level) *WriterSink {
	return &WriterSink{w: w, min: min}
}

// Log writes line followed by a newline when level is enabled.
func (s *WriterSink) Log(level zapcore.Level, line string) {
	if !s.min.Enabled(level) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line+"\n"); err != nil {
		logging.Get(logging.CategorySink).Warn("event write failed: %v", err)
	}
}
