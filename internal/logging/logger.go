// Package logging provides categorized file-based debug logging for the
// BrandOS core. Logs are written under <dir>/logs with one file per
// category per day. When debug mode is off every call is a no-op, so hot
// paths can log freely.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup and configuration
	CategoryAPI          Category = "api"          // Gemini API calls
	CategoryRouting      Category = "routing"      // Intent classification
	CategoryConversation Category = "conversation" // Turn persistence and history
	CategoryKnowledge    Category = "knowledge"    // Knowledge context assembly
	CategoryInterpreter  Category = "interpreter"  // Site action batches
	CategoryRenderer     Category = "renderer"     // Site document rendering
	CategoryStore        Category = "store"        // SQLite operations
	CategoryEvents       Category = "events"       // Event bus activity
	CategoryPipeline     Category = "pipeline"     // Content pipeline synthesis
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Options controls logger behavior. Passed in by the caller so this
// package does not depend on the config package.
type Options struct {
	DebugMode  bool
	Level      string // debug, info, warn, error
	Categories map[string]bool
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	opts      Options
	optsMu    sync.RWMutex
	logLevel  int
)

// Initialize sets up the logging directory. Should be called once at
// startup. A no-op when debug mode is disabled.
func Initialize(dir string, o Options) error {
	optsMu.Lock()
	opts = o
	switch o.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	optsMu.Unlock()

	if !o.DebugMode {
		return nil
	}
	if dir == "" {
		return fmt.Errorf("logging directory required")
	}

	logsDir = filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== BrandOS logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", o.Level)
	return nil
}

// IsCategoryEnabled reports whether a category produces output.
func IsCategoryEnabled(category Category) bool {
	optsMu.RLock()
	defer optsMu.RUnlock()

	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category. Returns a
// no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

func API(format string, args ...interface{})      { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }
func APIError(format string, args ...interface{}) { Get(CategoryAPI).Error(format, args...) }

func Routing(format string, args ...interface{})      { Get(CategoryRouting).Info(format, args...) }
func RoutingDebug(format string, args ...interface{}) { Get(CategoryRouting).Debug(format, args...) }
func RoutingWarn(format string, args ...interface{})  { Get(CategoryRouting).Warn(format, args...) }

func Conversation(format string, args ...interface{}) {
	Get(CategoryConversation).Info(format, args...)
}
func ConversationDebug(format string, args ...interface{}) {
	Get(CategoryConversation).Debug(format, args...)
}

func Knowledge(format string, args ...interface{}) { Get(CategoryKnowledge).Debug(format, args...) }

func Interpreter(format string, args ...interface{}) {
	Get(CategoryInterpreter).Info(format, args...)
}
func InterpreterDebug(format string, args ...interface{}) {
	Get(CategoryInterpreter).Debug(format, args...)
}
func InterpreterWarn(format string, args ...interface{}) {
	Get(CategoryInterpreter).Warn(format, args...)
}

func Renderer(format string, args ...interface{}) { Get(CategoryRenderer).Debug(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

func Pipeline(format string, args ...interface{})     { Get(CategoryPipeline).Info(format, args...) }
func PipelineWarn(format string, args ...interface{}) { Get(CategoryPipeline).Warn(format, args...) }

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
