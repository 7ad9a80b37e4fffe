// Package logging provides categorized logging for taskmind, built on zap.
// Each subsystem logs under its own category; categories can be enabled or
// disabled independently. When debug mode is off the whole facade is a
// silent no-op so library callers pay nothing for it.
package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup and configuration
	CategoryAPI          Category = "api"          // Completion-service calls
	CategoryRetry        Category = "retry"        // Backoff and error classification
	CategoryPerception   Category = "perception"   // Intent classification
	CategoryResolve      Category = "resolve"      // Update resolution
	CategoryOrchestrator Category = "orchestrator" // Orchestration decisions
	CategoryDialogue     Category = "dialogue"     // Clarification state machine
)

// Options controls logger construction.
type Options struct {
	// Debug enables debug-level output. When false only warnings and errors
	// are emitted.
	Debug bool

	// Categories enables/disables individual categories. Empty means all
	// categories are enabled.
	Categories map[string]bool
}

var (
	mu      sync.RWMutex
	root    *zap.Logger
	opts    Options
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the shared zap logger. Safe to call more than once; the
// last call wins. Before Initialize every category logger is a no-op.
func Initialize(o Options) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if o.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	logger, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	root = logger
	opts = o
	loggers = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// Get returns the sugared logger for a category. Disabled categories (and
// everything before Initialize) get a no-op logger.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}

	var l *zap.SugaredLogger
	if root == nil || !categoryEnabled(cat) {
		l = zap.NewNop().Sugar()
	} else {
		l = root.Named(string(cat)).Sugar()
	}
	loggers[cat] = l
	return l
}

// categoryEnabled reports whether a category should emit. Caller holds mu.
func categoryEnabled(cat Category) bool {
	if len(opts.Categories) == 0 {
		return true
	}
	enabled, ok := opts.Categories[string(cat)]
	return !ok || enabled
}

// =============================================================================
// CATEGORY CONVENIENCE HELPERS
// =============================================================================

// Perception logs an info-level message under the perception category.
func Perception(format string, args ...interface{}) {
	Get(CategoryPerception).Infof(format, args...)
}

// PerceptionDebug logs a debug-level message under the perception category.
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debugf(format, args...)
}

// Resolve logs an info-level message under the resolve category.
func Resolve(format string, args ...interface{}) {
	Get(CategoryResolve).Infof(format, args...)
}

// Orchestrator logs an info-level message under the orchestrator category.
func Orchestrator(format string, args ...interface{}) {
	Get(CategoryOrchestrator).Infof(format, args...)
}

// Dialogue logs an info-level message under the dialogue category.
func Dialogue(format string, args ...interface{}) {
	Get(CategoryDialogue).Infof(format, args...)
}

// API logs an info-level message under the api category.
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Infof(format, args...)
}

// =============================================================================
// TIMERS
// =============================================================================

// Timer measures the duration of an operation.
type Timer struct {
	cat   Category
	label string
	start time.Time
}

// StartTimer begins timing an operation for the given category.
func StartTimer(cat Category, label string) *Timer {
	return &Timer{cat: cat, label: label, start: time.Now()}
}

// Stop logs the elapsed time at debug level.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	Get(t.cat).Debugf("%s took %s", t.label, time.Since(t.start))
}
