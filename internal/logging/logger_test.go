package logging

import (
	"bytes"
	"strings"
	"testing"
)

// captureLogOutput routes both streams into a buffer for the duration of fn
func captureLogOutput(level string, fn func()) string {
	var buf bytes.Buffer

	SetTimestamps(false)
	SetOutput(&buf)
	SetLevel(level)

	fn()

	SetOutput(nil)
	SetTimestamps(true)
	SetLevel("INFO")

	return strings.TrimSpace(buf.String())
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func()
		expected string
	}{
		{"Debug level", func() { Debug("test debug message") }, "test debug message"},
		{"Info level", func() { Info("test info message") }, "test info message"},
		{"Warn level", func() { Warn("test warn message") }, "test warn message"},
		{"Error level", func() { Error("test error message") }, "test error message"},
		{"Success level", func() { Success("test success message") }, "SUCCESS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput("DEBUG", tt.logFunc)

			if !strings.Contains(output, tt.expected) {
				t.Errorf("Expected output to contain '%s', got '%s'", tt.expected, output)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		logFunc      func()
		shouldOutput bool
	}{
		{"Info logged at INFO level", "INFO", func() { Info("info message") }, true},
		{"Debug filtered at INFO level", "INFO", func() { Debug("debug message") }, false},
		{"Error logged at WARN level", "WARN", func() { Error("error message") }, true},
		{"Success filtered at WARN level", "WARN", func() { Success("done") }, false},
		{"Unknown level falls back to INFO", "VERBOSE", func() { Info("info message") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.level, tt.logFunc)

			if tt.shouldOutput && output == "" {
				t.Error("Expected output but got none")
			}
			if !tt.shouldOutput && output != "" {
				t.Errorf("Expected no output but got: %s", output)
			}
		})
	}
}

func TestLogFormatting(t *testing.T) {
	output := captureLogOutput("DEBUG", func() {
		Info("dispatched %s (%d of %d)", "RF00001_seq1", 1, 3)
	})

	expected := "dispatched RF00001_seq1 (1 of 3)"
	if !strings.Contains(output, expected) {
		t.Errorf("Expected output to contain '%s', got '%s'", expected, output)
	}
}

func TestParseLevel(t *testing.T) {
	for _, valid := range []string{"debug", "INFO", "", "Warn", "warning", "ERROR"} {
		if _, err := ParseLevel(valid); err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", valid, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}
