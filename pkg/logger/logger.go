package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

/**
 * CONTEXT:   Structured logging implementation for system-wide logging consistency
 * INPUT:     Component name and configured log level for filtered output
 * OUTPUT:    Leveled, timestamped log lines with component prefixes
 * BUSINESS:  Need consistent logging across scheduler components with proper level filtering
 * CHANGE:    Initial implementation.
 * RISK:      Low - Logging failures should not affect core scheduling functionality
 */

// LogLevel represents different logging levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns string representation of log level
func (ll LogLevel) String() string {
	switch ll {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface consumed by scheduler components
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})
	SetLevel(level string)
}

// DefaultLogger implements the Logger interface
type DefaultLogger struct {
	component string
	level     LogLevel
	logger    *log.Logger
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger(component, levelStr string) *DefaultLogger {
	level := parseLogLevel(levelStr)

	logger := log.New(os.Stdout, "", 0) // No default prefix, we format ourselves

	return &DefaultLogger{
		component: component,
		level:     level,
		logger:    logger,
	}
}

// parseLogLevel converts string to LogLevel
func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// SetLevel updates the logger level at runtime
func (dl *DefaultLogger) SetLevel(levelStr string) {
	dl.level = parseLogLevel(levelStr)
}

func (dl *DefaultLogger) logf(level LogLevel, format string, args ...interface{}) {
	if level < dl.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, args...)
	dl.logger.Printf("[%s] [%s] [%s] %s", timestamp, level.String(), dl.component, message)
}

// Debug logs debug-level messages
func (dl *DefaultLogger) Debug(format string, args ...interface{}) {
	dl.logf(LevelDebug, format, args...)
}

// Info logs info-level messages
func (dl *DefaultLogger) Info(format string, args ...interface{}) {
	dl.logf(LevelInfo, format, args...)
}

// Warn logs warning-level messages
func (dl *DefaultLogger) Warn(format string, args ...interface{}) {
	dl.logf(LevelWarn, format, args...)
}

// Error logs error-level messages
func (dl *DefaultLogger) Error(format string, args ...interface{}) {
	dl.logf(LevelError, format, args...)
}

// Fatal logs fatal-level messages and exits
func (dl *DefaultLogger) Fatal(format string, args ...interface{}) {
	dl.logf(LevelFatal, format, args...)
	os.Exit(1)
}
