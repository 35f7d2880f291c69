package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	if _, err := Init(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	l, err := Init(Config{Level: "debug", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	Info("hello %s", "hedge")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("expected log output in %s", path)
	}
}

func TestNamedWithoutInit(t *testing.T) {
	old := InfoLogger
	InfoLogger = nil
	defer func() { InfoLogger = old }()

	if Named("engine") == nil {
		t.Fatalf("expected nop logger")
	}
}
