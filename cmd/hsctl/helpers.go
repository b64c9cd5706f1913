package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/abelbrown/hotspot/internal/config"
	"github.com/abelbrown/hotspot/internal/geo"
	"github.com/abelbrown/hotspot/internal/logging"
	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/remote"
	"github.com/abelbrown/hotspot/internal/store"
	"github.com/abelbrown/hotspot/internal/timectx"
	"github.com/abelbrown/hotspot/internal/weather"
)

var (
	headerColor  = color.New(color.Bold, color.FgCyan)
	presetColor  = color.New(color.FgBlue)
	remoteColor  = color.New(color.FgGreen)
	cautionColor = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	goodColor    = color.New(color.FgGreen)
	badColor     = color.New(color.FgYellow)
)

// loadConfig loads and validates ~/.hotspot/config.json, creating the data
// directory and pointing the logger at stderr.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	logging.InitWriter(os.Stderr, logging.ParseLevel(envOrDefault("HOTSPOT_LOG_LEVEL", "warn")))
	return cfg
}

// clockFor returns the wall clock in the configured time zone.
func clockFor(cfg *config.Config) timectx.Clock {
	return timectx.SystemClock{Location: cfg.ClockLocation()}
}

// openDB opens the store or fatals.
func openDB(cfg *config.Config) *store.Store {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	st.SetClock(clockFor(cfg))
	return st
}

// newRemote builds the remote client from config.
func newRemote(cfg *config.Config) *remote.Client {
	return remote.NewClient(remote.Options{
		Endpoint: cfg.Remote.Endpoint,
		APIKey:   cfg.Remote.APIKey,
		Timeout:  cfg.RemoteTimeout(),
		Attempts: cfg.Remote.Attempts,
	})
}

// newWeather builds the weather client from config.
func newWeather(cfg *config.Config) *weather.Client {
	return weather.NewClient(weather.Options{
		Endpoint: cfg.Weather.Endpoint,
		Timezone: cfg.Weather.Timezone,
		CacheTTL: cfg.WeatherCacheTTL(),
	})
}

// pointOrFallback returns (lat, lon) when both flags were given, otherwise
// the configured fallback center. The bool reports a device-supplied point.
func pointOrFallback(cfg *config.Config, lat, lon float64) (geo.Point, bool) {
	p := geo.Point{Lat: lat, Lon: lon}
	if p == (geo.Point{}) {
		return cfg.Fallback(), false
	}
	if !p.Valid() {
		fmt.Fprintf(os.Stderr, "error: invalid coordinate %.5f,%.5f\n", lat, lon)
		os.Exit(1)
	}
	return p, true
}

// envOrDefault returns the environment variable value or a fallback.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// provenanceLabel colors a record by where it came from.
func provenanceLabel(p model.PointOfInterest) string {
	if p.IsPreset() {
		return presetColor.Sprint("curated")
	}
	return remoteColor.Sprint("community")
}

// formatSyncedAt renders epoch milliseconds as local time.
func formatSyncedAt(ms int64, loc *time.Location) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04")
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
