package otel

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// decodeLines parses every JSONL line written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSONL line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestSyncEventLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{
		Level:  LevelInfo,
		Kind:   KindSyncComplete,
		Comp:   "coord",
		Count:  23,
		Status: "synced",
		Dur:    1500 * time.Millisecond,
		Extra:  map[string]any{"presets": 19, "community": 4},
	})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]
	for k, want := range map[string]any{
		"kind":   "sync.complete",
		"level":  "info",
		"comp":   "coord",
		"count":  float64(23),
		"status": "synced",
		"dur_ms": float64(1500),
	} {
		if got[k] != want {
			t.Errorf("%s = %v, want %v", k, got[k], want)
		}
	}
	if sid, _ := got["session_id"].(string); len(sid) != 16 {
		t.Errorf("session_id = %q, want 16 hex chars", sid)
	}
	if _, ok := got["t"]; !ok {
		t.Error("time missing")
	}
}

func TestEmptyFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	line := buf.String()
	for _, field := range []string{"dur_ms", "count", "status", "lat", "lon", "err", "msg", "extra"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("field %q should be omitted: %s", field, line)
		}
	}
}

func TestEventRoundTripKeepsDuration(t *testing.T) {
	in := Event{Time: time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC), Kind: KindRankComplete, Dur: 42 * time.Millisecond, Count: 7}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Event
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Dur != in.Dur || out.Count != 7 || out.Kind != KindRankComplete || !out.Time.Equal(in.Time) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestSubsystem(t *testing.T) {
	if got := KindSyncError.Subsystem(); got != "sync" {
		t.Errorf("Subsystem = %q, want sync", got)
	}
	if got := EventKind("plain").Subsystem(); got != "plain" {
		t.Errorf("Subsystem = %q, want plain", got)
	}
}

func TestHelpersSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Info(KindStartup, "main", "hotspot 0.3.0")
	l.Warn(KindGeoFallback, "recommend", "location unavailable")
	l.Error(KindSyncError, "coord", errors.New("remote: 503"))
	l.Error(KindCacheError, "coord", nil)
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	want := []struct{ level, kind string }{
		{"info", "sys.startup"},
		{"warn", "geo.fallback"},
		{"error", "sync.error"},
		{"error", "cache.error"},
	}
	for i, w := range want {
		if lines[i]["level"] != w.level || lines[i]["kind"] != w.kind {
			t.Errorf("line %d = %v/%v, want %s/%s", i, lines[i]["level"], lines[i]["kind"], w.level, w.kind)
		}
	}
	if lines[2]["err"] != "remote: 503" {
		t.Errorf("err = %v", lines[2]["err"])
	}
	if _, ok := lines[3]["err"]; ok {
		t.Error("nil error should leave err empty")
	}
}

func TestConcurrentEmitKeepsOrderPerLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Emit(Event{Kind: KindRankComplete, Comp: "recommend"})
			}
		}()
	}
	wg.Wait()
	l.Close()

	if got := len(decodeLines(t, &buf)); got != 400 {
		t.Errorf("got %d lines, want 400", got)
	}
	if l.Dropped() != 0 {
		t.Errorf("dropped %d events under capacity", l.Dropped())
	}
}

// stallWriter blocks its first Write until released.
type stallWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *stallWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestFullQueueDrops(t *testing.T) {
	w := &stallWriter{entered: make(chan struct{}), release: make(chan struct{})}
	l := NewLogger(w)

	l.Emit(Event{Kind: KindSyncStart})
	<-w.entered // writer goroutine is now stuck in Write

	for i := 0; i < queueSize+10; i++ {
		l.Emit(Event{Kind: KindSyncStart})
	}
	if l.Dropped() == 0 {
		t.Error("a full queue should drop events")
	}
	close(w.release)
	l.Close()
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Close()
	l.Close()

	l.Emit(Event{Kind: KindShutdown})
	if l.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", l.Dropped())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Info(KindSyncStart, "coord", "x")
	l.Error(KindSyncError, "coord", errors.New("x"))
	l.SetRingBuffer(NewRingBuffer(4))
	if l.Dropped() != 0 || l.Session() != "" {
		t.Error("nil logger should report nothing")
	}
	l.Close()
}

func TestRingMirror(t *testing.T) {
	ring := NewRingBuffer(8)
	l := NewNullLogger()
	l.SetRingBuffer(ring)
	l.Emit(Event{Kind: KindSyncStart})
	l.Emit(Event{Kind: KindSyncComplete, Count: 3})
	l.Close()

	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("ring holds %d events, want 2", len(events))
	}
	if events[1].Kind != KindSyncComplete || events[1].SessionID != l.Session() {
		t.Errorf("unexpected ring tail: %+v", events[1])
	}
}

func TestOpenRotatesByEventDay(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Emit(Event{Kind: KindSyncComplete, Status: "synced", Time: time.Date(2026, 3, 4, 23, 59, 0, 0, time.Local)})
	l.Emit(Event{Kind: KindSyncComplete, Status: "offline", Time: time.Date(2026, 3, 5, 0, 1, 0, 0, time.Local)})
	l.Close()

	for day, status := range map[string]string{"2026-03-04": "synced", "2026-03-05": "offline"} {
		data, err := os.ReadFile(filepath.Join(dir, "events", "events-"+day+".jsonl"))
		if err != nil {
			t.Fatalf("read %s: %v", day, err)
		}
		if !strings.Contains(string(data), `"status":"`+status+`"`) {
			t.Errorf("%s file missing status %s: %s", day, status, data)
		}
	}
}
