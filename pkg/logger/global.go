package logger

import (
	"os"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	once.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		if globalLogger != nil {
			return
		}

		level := "info"
		if os.Getenv("DEBUG") == "true" {
			level = "debug"
		} else if v := os.Getenv("SEARCHABULL_LOGGER_LEVEL"); v != "" {
			level = v
		} else if v := os.Getenv("LOG_LEVEL"); v != "" {
			level = v
		}

		globalLogger = New(Config{
			Level:  level,
			Format: "json",
			Output: "stdout",
		})
	})

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the global logger, typically once config is loaded.
func SetLogger(logger *Logger) {
	once.Do(func() {})
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
	SetGlobalLogger(logger)
}

// Debug logs a debug message
func Debug(msg string) {
	GetLogger().Debug(msg)
}

// Info logs an info message
func Info(msg string) {
	GetLogger().Info(msg)
}

// Warn logs a warning message
func Warn(msg string) {
	GetLogger().Warn(msg)
}

// Error logs an error message
func Error(msg string) {
	GetLogger().Error(msg)
}

// WithField adds a field to the logger
func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields adds multiple fields to the logger
func WithFields(fields map[string]interface{}) *Logger {
	return GetLogger().WithFields(fields)
}

// WithError adds an error to the logger
func WithError(err error) *Logger {
	return GetLogger().WithError(err)
}
