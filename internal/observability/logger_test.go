package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in     string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"debug", zap.DebugLevel},
		{"  warn  ", zap.WarnLevel},
		{"verbose", zap.InfoLevel},
	}
	for _, tt := range tests {
		level := parseLogLevel(tt.in)
		if got := level.Level(); got != tt.expect {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.expect)
		}
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() returned nil logger")
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Error("NewLogger(\"debug\") should enable debug level")
	}
	logger.Info("test message")
	_ = FlushTelemetry(logger)
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("OrNop(logger) should return the same logger")
	}
}

func TestFlushTelemetry_NilLogger(t *testing.T) {
	if err := FlushTelemetry(nil); err != nil {
		t.Errorf("FlushTelemetry(nil) error = %v, want nil", err)
	}
}
