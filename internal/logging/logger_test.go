package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantError bool
	}{
		{name: "valid json debug", level: "debug", format: "json"},
		{name: "valid console info", level: "info", format: "console"},
		{name: "valid json warn", level: "warn", format: "json"},
		{name: "valid console error", level: "error", format: "console"},
		{name: "invalid level", level: "invalid", format: "json", wantError: true},
		{name: "invalid format", level: "info", format: "invalid", wantError: true},
		{name: "case insensitive level", level: "INFO", format: "json"},
		{name: "case insensitive format", level: "info", format: "JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format, &bytes.Buffer{})
			if (err != nil) != tt.wantError {
				t.Errorf("NewLogger() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && logger == nil {
				t.Error("expected logger to be non-nil")
			}
		})
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", "json", &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("checksum verified")
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "checksum verified" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
