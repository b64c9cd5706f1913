package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/hotspot/internal/coord"
	"github.com/abelbrown/hotspot/internal/otel"
	"github.com/abelbrown/hotspot/internal/presets"
)

func runSync() {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	rc := newRemote(cfg)
	if !rc.Configured() {
		fmt.Fprintln(os.Stderr, "error: remote endpoint is not configured")
		fmt.Fprintln(os.Stderr, "  export HOTSPOT_REMOTE_URL=... HOTSPOT_REMOTE_KEY=... or set remote.endpoint in config.json")
		os.Exit(1)
	}

	st := openDB(cfg)
	defer st.Close()

	events, err := otel.Open(cfg.DataDir)
	if err != nil {
		events = otel.NewNullLogger()
	}
	defer events.Close()

	coordinator := coord.New(st, rc, coord.Options{
		Presets:      presets.All(),
		Clock:        clockFor(cfg),
		Events:       events,
		FetchTimeout: cfg.RemoteTimeout(),
	})

	start := time.Now()
	coordinator.Start(context.Background(), true)
	coordinator.Wait()

	snap := coordinator.Snapshot()
	if snap.Status == coord.StatusError {
		badColor.Printf("Sync failed after %s: %v\n", time.Since(start).Round(time.Millisecond), snap.Err)
		fmt.Println("The local cache was left untouched.")
		os.Exit(1)
	}

	goodColor.Printf("Synced in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Curated:    %d\n", snap.PresetCount)
	fmt.Printf("Community:  %d\n", snap.CommunityCount)
	fmt.Printf("Total:      %d\n", len(snap.Points))

	n, err := st.Count()
	if err != nil {
		badColor.Printf("Cache count unavailable: %v\n", err)
		return
	}
	fmt.Printf("Cached:     %d\n", n)
}
