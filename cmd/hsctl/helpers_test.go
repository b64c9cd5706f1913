package main

import (
	"testing"
	"time"

	"github.com/abelbrown/hotspot/internal/config"
	"github.com/abelbrown/hotspot/internal/geo"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"Alun-Alun Bandung Plaza", 12, "Alun-Alun..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPointOrFallback(t *testing.T) {
	cfg := config.DefaultConfig()

	p, precise := pointOrFallback(cfg, 0, 0)
	if precise {
		t.Error("zero flags should not count as a device point")
	}
	if p != cfg.Fallback() {
		t.Errorf("got %v, want fallback %v", p, cfg.Fallback())
	}

	p, precise = pointOrFallback(cfg, -6.89, 107.61)
	if !precise || p != (geo.Point{Lat: -6.89, Lon: 107.61}) {
		t.Errorf("got %v precise=%v, want the flag point", p, precise)
	}
}

func TestFormatSyncedAt(t *testing.T) {
	if got := formatSyncedAt(0, time.UTC); got != "-" {
		t.Errorf("zero = %q, want -", got)
	}
	ms := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC).UnixMilli()
	if got := formatSyncedAt(ms, time.UTC); got != "2026-03-04 08:00" {
		t.Errorf("got %q", got)
	}
}
