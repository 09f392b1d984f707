package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_WritesJSONToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "interbot.log")

	log, err := New(&Config{
		Level:      LevelInfo,
		OutputPath: path,
		MaxSize:    1,
		MaxBackups: 1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("dispatch completed", zap.String("command", "ping"))
	log.Debug("hidden at info level")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"command":"ping"`) {
		t.Fatalf("expected structured field in file, got %s", content)
	}
	if strings.Contains(content, "hidden at info level") {
		t.Fatalf("debug entry should be filtered at info level")
	}
}

func TestSetLevel_AppliesToChildren(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interbot.log")
	log, err := New(&Config{Level: LevelError, OutputPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := log.WithFields(zap.String("component", "dispatcher"))

	if err := log.SetLevel(LevelDebug); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	child.Debug("visible after level change")
	_ = log.Sync()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "visible after level change") {
		t.Fatalf("child logger did not follow parent level change")
	}
	if log.Level() != LevelDebug {
		t.Fatalf("expected level debug, got %s", log.Level())
	}
}

func TestParseLevel_RejectsUnknown(t *testing.T) {
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New(&Config{Level: "verbose"}); err == nil {
		t.Fatal("expected New to reject unknown level")
	}
}
