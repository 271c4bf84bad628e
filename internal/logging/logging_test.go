package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}

	logger.Debug("hello", "episode", "pathways-2022")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("Expected JSON output with msg field, got: %s", out)
	}
	if !strings.Contains(out, "pathways-2022") {
		t.Errorf("Expected attribute in output, got: %s", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("Expected info line to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("Expected warn line in output, got: %s", out)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(Options{Level: "verbose"}); err == nil {
		t.Error("Expected error for unsupported level")
	}
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
