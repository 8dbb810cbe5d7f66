package model

import (
	"bytes"
	"strings"
	"testing"
)

func TestDefaultLoggerLevels(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := NewWriterLogger(buffer, LogLevelDebug)

	logged := []struct {
		log  func(string, ...interface{})
		want string
	}{
		{logger.Debug, "[DEBUG] frame 3"},
		{logger.Info, "[INFO] frame 3"},
		{logger.Warn, "[WARN] frame 3"},
		{logger.Error, "[ERROR] frame 3"},
	}
	for _, l := range logged {
		l.log("frame %d", 3)
		if !strings.Contains(buffer.String(), l.want) {
			t.Errorf("Expected %q in output, got %q", l.want, buffer.String())
		}
		buffer.Reset()
	}

	// Messages below the configured level are dropped
	logger.level = LogLevelWarn
	logger.Info("info message")
	if buffer.Len() != 0 {
		t.Errorf("Info message should not be logged at Warn level, got %q", buffer.String())
	}
	logger.Warn("warn message")
	if !strings.Contains(buffer.String(), "[WARN] warn message") {
		t.Error("Expected warn message to be logged at Warn level")
	}
	buffer.Reset()

	logger.level = LogLevelError
	logger.Warn("warn message")
	if buffer.Len() != 0 {
		t.Error("Warn message should not be logged at Error level")
	}

	if logger.IsLevelEnabled(LogLevelWarn) {
		t.Error("Warn should be disabled at Error level")
	}
	if !logger.IsLevelEnabled(LogLevelError) {
		t.Error("Error should be enabled at Error level")
	}
}

func TestDefaultLoggerWithPrefix(t *testing.T) {
	buffer := &bytes.Buffer{}
	parent := NewWriterLogger(buffer, LogLevelInfo)
	child := parent.WithPrefix("swap")

	child.Info("opened %s", "vm.swap")
	if !strings.Contains(buffer.String(), "[INFO] (swap) opened vm.swap") {
		t.Errorf("Expected prefixed message, got %q", buffer.String())
	}
	buffer.Reset()

	child.Debug("hidden")
	if buffer.Len() != 0 {
		t.Error("Prefixed logger should keep the parent's level")
	}

	parent.Info("plain")
	if strings.Contains(buffer.String(), "(swap)") {
		t.Error("Parent logger should not pick up the child's prefix")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{" info ", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"Warning", LogLevelWarn},
		{"error", LogLevelError},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.name); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if LogLevel(42).String() != "UNKNOWN" {
		t.Errorf("Expected UNKNOWN for an out-of-range level, got %s", LogLevel(42))
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	for _, level := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if logger.IsLevelEnabled(level) {
			t.Errorf("NoOpLogger should not enable %s", level)
		}
	}
}

func TestSetDefaultLogger(t *testing.T) {
	original := DefaultLoggerInstance
	defer func() {
		DefaultLoggerInstance = original
	}()

	customLogger := NewNoOpLogger()
	SetDefaultLogger(customLogger)

	if GetDefaultLogger() != customLogger {
		t.Error("Expected GetDefaultLogger to return the custom logger")
	}
}
