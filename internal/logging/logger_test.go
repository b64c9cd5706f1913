package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestHelpersWithoutLogger(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	Info("dropped")
	Debug("dropped")
	Warn("dropped", "component", "coord")
	Error("dropped")
	Close()
}

func TestLevelFiltering(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	var buf bytes.Buffer
	InitWriter(&buf, log.WarnLevel)

	Info("cache loaded", "count", 19)
	Warn("sync failed", "component", "coord", "attempt", 3)

	out := buf.String()
	if strings.Contains(out, "cache loaded") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "sync failed") || !strings.Contains(out, "component=coord") || !strings.Contains(out, "attempt=3") {
		t.Errorf("warn line missing key/values: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{" warn ", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWritesDailyFile(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	dir := t.TempDir()
	if err := Init(dir, log.InfoLevel); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Close()

	data, err := os.ReadFile(filepath.Join(dir, "logs", fileName(time.Now())))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hotspot started") {
		t.Errorf("log missing startup line: %s", data)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	days := []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04"}
	for _, d := range days {
		if err := os.WriteFile(filepath.Join(dir, "hotspot-"+d+".log"), nil, 0644); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	removed, err := prune(dir, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}
	left, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(left) != 3 {
		t.Errorf("left %v, want two newest logs plus notes.txt", left)
	}
	if _, err := os.Stat(filepath.Join(dir, "hotspot-2026-03-04.log")); err != nil {
		t.Error("newest log was removed")
	}
}
