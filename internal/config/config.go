// Package config loads and saves the JSON application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // zone lookups must work on hosts without a zoneinfo database

	"github.com/abelbrown/hotspot/internal/geo"
	"github.com/abelbrown/hotspot/internal/logging"
)

// Config is the persistent application configuration
type Config struct {
	// Remote point-of-interest store
	Remote RemoteConfig `json:"remote"`

	// Weather lookup
	Weather WeatherConfig `json:"weather"`

	// Device location and fallback center
	Location LocationConfig `json:"location"`

	// Ranking limits
	Ranking RankingConfig `json:"ranking"`

	// DataDir holds the cache database, logs, and event stream
	DataDir string `json:"data_dir"`

	// Timezone for time-of-day and day-type classification
	Timezone string `json:"timezone"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level"`
}

// RemoteConfig holds the backing store connection
type RemoteConfig struct {
	Endpoint    string `json:"endpoint,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	TimeoutSecs int    `json:"timeout_secs"`
	Attempts    uint   `json:"attempts"`
}

// WeatherConfig holds the Open-Meteo settings
type WeatherConfig struct {
	Endpoint     string `json:"endpoint"`
	Timezone     string `json:"timezone"`
	CacheMinutes int    `json:"cache_minutes"`
}

// LocationConfig holds geolocation settings
type LocationConfig struct {
	FallbackLat float64 `json:"fallback_lat"`
	FallbackLon float64 `json:"fallback_lon"`
	TimeoutSecs int     `json:"timeout_secs"`
	MaxAgeSecs  int     `json:"max_age_secs"`
}

// RankingConfig bounds the recommendation list
type RankingConfig struct {
	MaxDistanceKm float64 `json:"max_distance_km"`
	Limit         int     `json:"limit"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			TimeoutSecs: 30,
			Attempts:    3,
		},
		Weather: WeatherConfig{
			Endpoint:     "https://api.open-meteo.com/v1/forecast",
			Timezone:     "Asia/Jakarta",
			CacheMinutes: 10,
		},
		Location: LocationConfig{
			FallbackLat: -6.9175, // Bandung city center
			FallbackLon: 107.6191,
			TimeoutSecs: 10,
			MaxAgeSecs:  60,
		},
		Ranking: RankingConfig{
			MaxDistanceKm: 5,
			Limit:         20,
		},
		DataDir:  defaultDataDir(),
		Timezone: "Asia/Jakarta",
		LogLevel: "info",
	}
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hotspot")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults. Fields
// absent from the file keep their defaults. Environment variables fill in
// remote credentials the file leaves empty.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		logging.Warn("config unreadable, using defaults", "path", path, "error", err)
		cfg = DefaultConfig()
	}
	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// AutoPopulateFromEnv fills in remote credentials from environment variables.
// HOTSPOT_* wins over the SUPABASE_* names.
func (c *Config) AutoPopulateFromEnv() {
	if c.Remote.Endpoint == "" {
		c.Remote.Endpoint = firstEnv("HOTSPOT_REMOTE_URL", "SUPABASE_URL")
	}
	if c.Remote.APIKey == "" {
		c.Remote.APIKey = firstEnv("HOTSPOT_REMOTE_KEY", "SUPABASE_ANON_KEY")
	}
}

// LoadKeysFromFile loads keys from a shell script (like keys.sh)
func (c *Config) LoadKeysFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Simple parser for export KEY=value lines
	for _, line := range splitLines(string(data)) {
		if len(line) > 7 && line[:7] == "export " {
			line = line[7:]
		}
		parts := splitFirst(line, '=')
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], unquote(parts[1])

		switch key {
		case "HOTSPOT_REMOTE_URL", "SUPABASE_URL":
			c.Remote.Endpoint = value
		case "HOTSPOT_REMOTE_KEY", "SUPABASE_ANON_KEY":
			c.Remote.APIKey = value
		}
	}

	return nil
}

// RemoteConfigured reports whether a remote endpoint and key are both set
func (c *Config) RemoteConfigured() bool {
	return c.Remote.Endpoint != "" && c.Remote.APIKey != ""
}

// Validate rejects values the app cannot run with
func (c *Config) Validate() error {
	var errs []error
	if !(geo.Point{Lat: c.Location.FallbackLat, Lon: c.Location.FallbackLon}).Valid() {
		errs = append(errs, fmt.Errorf("location: fallback (%f, %f) out of range", c.Location.FallbackLat, c.Location.FallbackLon))
	}
	if c.Ranking.MaxDistanceKm <= 0 {
		errs = append(errs, fmt.Errorf("ranking: max_distance_km must be positive, got %v", c.Ranking.MaxDistanceKm))
	}
	if c.Ranking.Limit < 0 {
		errs = append(errs, fmt.Errorf("ranking: limit must not be negative, got %d", c.Ranking.Limit))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.Weather.Timezone != "" {
		if _, err := time.LoadLocation(c.Weather.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("weather timezone %q: %w", c.Weather.Timezone, err))
		}
	}
	return errors.Join(errs...)
}

// ClockLocation returns the clock's time zone, or UTC if it cannot be loaded
func (c *Config) ClockLocation() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Fallback returns the reference point used when no device fix is available
func (c *Config) Fallback() geo.Point {
	return geo.Point{Lat: c.Location.FallbackLat, Lon: c.Location.FallbackLon}
}

// DBPath returns the cache database location
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "hotspot.db")
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// RemoteTimeout is the per-request remote timeout
func (c *Config) RemoteTimeout() time.Duration { return secs(c.Remote.TimeoutSecs) }

// LocationTimeout bounds one geolocation attempt
func (c *Config) LocationTimeout() time.Duration { return secs(c.Location.TimeoutSecs) }

// LocationMaxAge is how long a fix is reused
func (c *Config) LocationMaxAge() time.Duration { return secs(c.Location.MaxAgeSecs) }

// WeatherCacheTTL is how long an observation is reused
func (c *Config) WeatherCacheTTL() time.Duration {
	return time.Duration(c.Weather.CacheMinutes) * time.Minute
}

// Helpers

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitFirst(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
