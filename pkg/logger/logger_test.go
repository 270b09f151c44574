package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantLevel zapcore.Level
	}{
		{
			name: "Development Config",
			config: Config{
				Level:       "debug",
				Environment: "development",
				ServiceName: "test-service",
			},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name: "Production Config",
			config: Config{
				Level:       "info",
				Environment: "production",
				ServiceName: "prod-service",
			},
			wantLevel: zapcore.InfoLevel,
		},
		{
			name: "Invalid Level Defaults to Info",
			config: Config{
				Level:       "invalid",
				Environment: "development",
				ServiceName: "test-service",
			},
			wantLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !l.zap.Core().Enabled(tt.wantLevel) {
				t.Errorf("Expected level %v to be enabled", tt.wantLevel)
			}
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	l.Info("info message", zap.String("key", "value"))
	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	entry := observed.All()[0]
	if entry.Message != "info message" {
		t.Errorf("Expected message 'info message', got '%s'", entry.Message)
	}
	if entry.ContextMap()["key"] != "value" {
		t.Errorf("Expected key=value, got %v", entry.ContextMap()["key"])
	}

	observed.TakeAll()
	l.Error("error message", errors.New("test error"))
	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	entry = observed.All()[0]
	if entry.ContextMap()["error"] != "test error" {
		t.Errorf("Expected error field, got %v", entry.ContextMap()["error"])
	}

	// Debug is below the observer level and must be dropped
	observed.TakeAll()
	l.Debug("debug message")
	if observed.Len() != 0 {
		t.Errorf("Expected 0 log entries, got %d", observed.Len())
	}
}

func TestWith(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	child := l.With(zap.String("component", "queue"))
	child.Info("child message")

	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	if observed.All()[0].ContextMap()["component"] != "queue" {
		t.Errorf("Expected component=queue, got %v", observed.All()[0].ContextMap())
	}
}
