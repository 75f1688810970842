package dashfetch

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record("DEBUG", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("INFO", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("WARN", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("ERROR", msg) }

func (l *recordingLogger) contains(fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == fragment {
			return true
		}
	}
	return false
}

func TestNewSimpleLogger(t *testing.T) {
	logger := NewSimpleLogger()

	if logger == nil {
		t.Fatal("NewSimpleLogger() returned nil")
	}

	// Must not panic, including with an odd number of pairs.
	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "dangling")
	logger.Warn("warn message")
	logger.Error("error message", "a", 1, "b", 2)
}

func TestDefaultDebugConfig(t *testing.T) {
	cfg := DefaultDebugConfig()

	if cfg.Enabled {
		t.Error("Expected debug disabled by default")
	}
	if !cfg.LogRequests || !cfg.LogRetries || !cfg.LogCache || !cfg.LogCircuit || !cfg.LogFallback {
		t.Error("Expected all log categories enabled by default")
	}
	if cfg.RequestIDGen == nil {
		t.Fatal("Expected a request ID generator")
	}
	if cfg.RequestIDGen() == "" {
		t.Error("Expected non-empty request IDs")
	}
}

func TestDebugLoggingLifecycle(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, nil, `{"v":1}`))
	defer server.Close()

	logger := &recordingLogger{}
	client := New(fastOpts(WithDebug(), WithLogger(logger))...)

	_, _ = client.Fetch(context.Background(), server.URL, nil)
	_, _ = client.Fetch(context.Background(), server.URL, nil)

	if !logger.contains("DEBUG: Starting request") {
		t.Error("Expected a request start log entry")
	}
	if !logger.contains("DEBUG: Cache miss") {
		t.Error("Expected a cache miss log entry")
	}
	if !logger.contains("DEBUG: Response cached") {
		t.Error("Expected a response cached log entry")
	}
	if !logger.contains("DEBUG: Cache hit") {
		t.Error("Expected a cache hit log entry")
	}
}

func TestDebugDisabledStaysQuiet(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, nil, `{"v":1}`))
	defer server.Close()

	logger := &recordingLogger{}
	client := New(fastOpts(WithLogger(logger))...)

	_, _ = client.Fetch(context.Background(), server.URL, nil)

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.entries) != 0 {
		t.Errorf("Expected no log entries with debug disabled, got %v", logger.entries)
	}
}
