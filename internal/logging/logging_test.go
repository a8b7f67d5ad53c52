package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "text", &buf)
	logger.Info("dispatch", "task", "X")

	out := buf.String()
	if !strings.Contains(out, "msg=dispatch") || !strings.Contains(out, "task=X") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "JSON", &buf)
	logger.Warn("deadline missed", "now", 144)

	out := buf.String()
	if !strings.Contains(out, `"msg":"deadline missed"`) || !strings.Contains(out, `"now":144`) {
		t.Errorf("unexpected json output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf).With("component", "sched")
	logger.Debug("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=sched") {
		t.Errorf("missing warn record: %s", out)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nowhere")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCheckFormat(t *testing.T) {
	for _, ok := range []string{"text", "json", "JSON", ""} {
		if err := CheckFormat(ok); err != nil {
			t.Errorf("CheckFormat(%q) = %v", ok, err)
		}
	}
	if err := CheckFormat("xml"); err == nil {
		t.Error("CheckFormat(xml) should fail")
	}
}
