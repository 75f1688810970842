package dashfetch

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
)

// Logger is the minimal structured logging interface used for debug output.
// Key-value pairs alternate key, value.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger is a console logger for development use.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger creates a logger writing to stdout.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		logger: log.New(os.Stdout, "[dashfetch] ", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) {
	l.log("DEBUG", msg, keysAndValues...)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...any) {
	l.log("INFO", msg, keysAndValues...)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...any) {
	l.log("WARN", msg, keysAndValues...)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...any) {
	l.log("ERROR", msg, keysAndValues...)
}

func (l *SimpleLogger) log(level, msg string, keysAndValues ...any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 == 1 {
		fmt.Fprintf(&b, " %v=", keysAndValues[len(keysAndValues)-1])
	}
	l.logger.Println(b.String())
}

// DebugConfig controls which lifecycle events are logged.
type DebugConfig struct {
	Enabled     bool
	LogRequests bool
	LogRetries  bool
	LogCache    bool
	LogCircuit  bool
	LogFallback bool
	// RequestIDGen produces a correlation ID per Fetch call.
	RequestIDGen func() string
}

// DefaultDebugConfig enables all event categories with a random hex
// request ID generator.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogRetries:   true,
		LogCache:     true,
		LogCircuit:   true,
		LogFallback:  true,
		RequestIDGen: defaultRequestID,
	}
}

func defaultRequestID() string {
	return fmt.Sprintf("%08x", rand.Uint32())
}
