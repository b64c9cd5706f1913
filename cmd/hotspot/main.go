// Command hotspot is the interactive recommendation viewer.
//
// Usage:
//
//	hotspot                     Rank hotspots around the device (or the fallback center)
//	hotspot -lat -6.89 -lon 107.61
//	hotspot -offline            Start without contacting the remote service
//	hotspot -keys ~/keys.sh     Read HOTSPOT_REMOTE_URL / HOTSPOT_REMOTE_KEY from a shell file
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hotspot/internal/config"
	"github.com/abelbrown/hotspot/internal/coord"
	"github.com/abelbrown/hotspot/internal/geo"
	"github.com/abelbrown/hotspot/internal/geoloc"
	"github.com/abelbrown/hotspot/internal/logging"
	"github.com/abelbrown/hotspot/internal/otel"
	"github.com/abelbrown/hotspot/internal/presets"
	"github.com/abelbrown/hotspot/internal/recommend"
	"github.com/abelbrown/hotspot/internal/remote"
	"github.com/abelbrown/hotspot/internal/session"
	"github.com/abelbrown/hotspot/internal/store"
	"github.com/abelbrown/hotspot/internal/timectx"
	"github.com/abelbrown/hotspot/internal/ui"
	"github.com/abelbrown/hotspot/internal/weather"
)

func main() {
	lat := flag.Float64("lat", 0, "Device latitude (omit to use the fallback center)")
	lon := flag.Float64("lon", 0, "Device longitude")
	offline := flag.Bool("offline", false, "Start offline and serve the local cache")
	keysFile := flag.String("keys", "", "Shell file with export HOTSPOT_REMOTE_URL=... lines")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *keysFile != "" {
		if err := cfg.LoadKeysFromFile(*keysFile); err != nil {
			log.Fatalf("Failed to read keys: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	if err := logging.Init(cfg.DataDir, logging.ParseLevel(cfg.LogLevel)); err != nil {
		log.Printf("Warning: file logging disabled: %v", err)
	}
	defer logging.Close()

	// Event log: JSONL on disk plus an in-memory ring for the D pane
	ring := otel.NewRingBuffer(512)
	events, err := otel.Open(cfg.DataDir)
	if err != nil {
		log.Printf("Warning: event log disabled: %v", err)
		events = otel.NewNullLogger()
	}
	events.SetRingBuffer(ring)
	defer events.Close()
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Msg: "hotspot " + logging.Version})

	clock := timectx.SystemClock{Location: cfg.ClockLocation()}

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()
	st.SetClock(clock)

	rc := remote.NewClient(remote.Options{
		Endpoint: cfg.Remote.Endpoint,
		APIKey:   cfg.Remote.APIKey,
		Timeout:  cfg.RemoteTimeout(),
		Attempts: cfg.Remote.Attempts,
	})
	wc := weather.NewClient(weather.Options{
		Endpoint: cfg.Weather.Endpoint,
		Timezone: cfg.Weather.Timezone,
		CacheTTL: cfg.WeatherCacheTTL(),
	})

	var locator geoloc.Locator = geoloc.Unavailable{}
	if device := (geo.Point{Lat: *lat, Lon: *lon}); device != (geo.Point{}) {
		locator = geoloc.Static(device)
	}
	acquirer := geoloc.NewAcquirer(locator, geoloc.Options{
		Timeout:  cfg.LocationTimeout(),
		MaxAge:   cfg.LocationMaxAge(),
		Fallback: cfg.Fallback(),
		Clock:    clock,
	})

	coordinator := coord.New(st, rc, coord.Options{
		Presets:      presets.All(),
		Clock:        clock,
		Events:       events,
		FetchTimeout: cfg.RemoteTimeout(),
	})
	recommender := recommend.New(coordinator, acquirer, recommend.Options{
		Weather:       wc,
		Clock:         clock,
		MaxDistanceKm: cfg.Ranking.MaxDistanceKm,
		Limit:         cfg.Ranking.Limit,
		Events:        events,
	})
	sess := session.Load(st)

	online := rc.Configured() && !*offline
	if !rc.Configured() {
		logging.Info("remote not configured, serving presets and cache", "component", "main")
	}

	// Subscribe before Start so the first snapshot is not missed
	updates := coordinator.Subscribe()

	now := clock.Now()
	appCfg := ui.AppConfig{
		LoadRecommendations: func() tea.Cmd {
			return func() tea.Msg {
				res, err := recommender.Recommend(ctx)
				return ui.RecommendationsLoaded{Result: res, Err: err}
			}
		},
		ForceSync: func() tea.Cmd {
			return func() tea.Msg {
				return ui.SyncDone{Err: coordinator.ForceSync(ctx)}
			}
		},
		SetOnline: func(on bool) tea.Cmd {
			return func() tea.Msg {
				coordinator.SetOnline(ctx, on)
				return ui.ConnectivityChanged{Online: on}
			}
		},
		WaitForSync: func() tea.Cmd {
			return func() tea.Msg {
				select {
				case snap := <-updates:
					return ui.SyncUpdated{Snapshot: snap}
				case <-ctx.Done():
					return nil
				}
			}
		},
		MarkGreetingShown: func() tea.Cmd {
			return func() tea.Msg {
				return ui.GreetingDismissed{Err: sess.MarkShown(clock.Now())}
			}
		},
		Greeting:     session.GreetingFor(timectx.At(now)),
		ShowGreeting: sess.ShouldShowDailyRecommendation(now),
		Online:       online,
		Snapshot:     coordinator.Snapshot(),
		Ring:         ring,
		Events:       events,
		Clock:        clock,
	}

	app := ui.NewApp(appCfg)

	// Create program
	program := tea.NewProgram(app, tea.WithAltScreen())

	// Start coordinator: offline exposes the cache, online syncs in the background
	coordinator.Start(ctx, online)

	// Run UI (blocks until quit)
	start := time.Now()
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		events.Error(otel.KindError, "main", err)
	}

	// Graceful shutdown
	cancel()
	coordinator.Wait()
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main", Dur: time.Since(start)})
}
