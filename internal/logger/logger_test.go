package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureOutput(t, func() {
		Init(&Config{
			Level:     "debug",
			Format:    FormatText,
			Component: "test",
		})
		Info("sweep finished", "case_id", 7)
	})

	if !strings.Contains(out, "sweep finished") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "case_id=7") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureOutput(t, func() {
		Init(&Config{
			Level:     "info",
			Format:    FormatJSON,
			Component: "matcher",
		})
		Warn("push delivery failed", "recipient", "user9")
	})

	if !strings.Contains(out, `"msg":"push delivery failed"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"matcher"`) {
		t.Errorf("expected component attribute, got: %s", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	out := captureOutput(t, func() {
		Init(&Config{
			Level:  "warn",
			Format: FormatText,
		})
		Debug("hidden debug line")
		Info("hidden info line")
		Error("visible error line")
	})

	if strings.Contains(out, "hidden debug line") || strings.Contains(out, "hidden info line") {
		t.Errorf("lines below warn should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "visible error line") {
		t.Errorf("expected error line, got: %s", out)
	}
}

func TestLogger_DefaultWhenUninitialized(t *testing.T) {
	// L must never return nil even before Init is called.
	logger = nil
	if L() == nil {
		t.Fatal("expected non-nil default logger")
	}
}
