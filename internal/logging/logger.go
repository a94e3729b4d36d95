// Package logging provides config-driven categorized diagnostics for pageanalytics.
// Every category writes through one shared zap logger, named after the category.
// Logging is controlled by debug_mode - when false, nothing is written.
//
// This is the library's own diagnostic channel. Tracked user events never go
// through it; they are handed to the configured event sink.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryTracker Category = "tracker" // Install/restore, page tracking
	CategoryWidget  Category = "widget"  // Interception, extraction, callback wrapping
	CategoryRecipe  Category = "recipe"  // Recipe table loading and watching
	CategorySink    Category = "sink"    // Event sink setup
	CategoryAppTest Category = "apptest" // Simulated host runtime
	CategoryCLI     Category = "cli"     // pagetrack command
)

// Settings mirrors config.LoggingConfig to avoid circular imports.
type Settings struct {
	DebugMode  bool
	Categories map[string]bool
	Level      string // debug, info, warn, error
	JSONFormat bool
}

// Logger is a category-scoped printf-style logger. The zero value is a no-op.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu       sync.RWMutex
	base     *zap.Logger
	settings Settings
	loggers  = make(map[Category]*Logger)
)

// Configure builds the shared zap logger from s. With DebugMode off the
// package stays silent and no logger is built.
func Configure(s Settings) error {
	if !s.DebugMode {
		install(nil, s)
		return nil
	}

	level, err := ParseLevel(s.Level)
	if err != nil {
		return err
	}

	var cfg zap.Config
	if s.JSONFormat {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	install(l, s)
	return nil
}

// UseLogger installs an externally built logger (tests, the CLI).
// Category toggles from s still apply; DebugMode is implied.
func UseLogger(l *zap.Logger, s Settings) {
	s.DebugMode = true
	install(l, s)
}

// Reset returns the package to its silent default.
func Reset() {
	install(nil, Settings{})
}

func install(l *zap.Logger, s Settings) {
	mu.Lock()
	defer mu.Unlock()
	if base != nil {
		_ = base.Sync()
	}
	base = l
	settings = s
	loggers = make(map[Category]*Logger)
}

// Sync flushes the shared logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

// ParseLevel maps a config level string onto a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return settings.DebugMode && base != nil
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !settings.DebugMode || base == nil {
		return false
	}
	if settings.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := settings.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	l := &Logger{category: category}
	if categoryEnabledLocked(category) {
		l.sugar = base.Named(string(category)).Sugar()
	}
	loggers[category] = l
	return l
}

// With returns a logger that attaches the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// Convenience functions for common categories

func Tracker(format string, args ...interface{}) {
	Get(CategoryTracker).Info(format, args...)
}

func TrackerDebug(format string, args ...interface{}) {
	Get(CategoryTracker).Debug(format, args...)
}

func WidgetDebug(format string, args ...interface{}) {
	Get(CategoryWidget).Debug(format, args...)
}

func AppTestDebug(format string, args ...interface{}) {
	Get(CategoryAppTest).Debug(format, args...)
}
