package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abelbrown/hotspot/internal/coord"
	"github.com/abelbrown/hotspot/internal/geoloc"
	"github.com/abelbrown/hotspot/internal/otel"
	"github.com/abelbrown/hotspot/internal/presets"
	"github.com/abelbrown/hotspot/internal/recommend"
)

func runRank() {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Reference latitude (default: configured fallback center)")
	lon := fs.Float64("lon", 0, "Reference longitude")
	maxKm := fs.Float64("max", 0, "Maximum distance in km (default: config ranking.max_distance_km)")
	offline := fs.Bool("offline", false, "Rank the cache only, without syncing")
	limit := fs.Int("n", 0, "Number of hotspots to show (default: config ranking.limit)")
	verbose := fs.Bool("v", false, "Show reasons for each hotspot")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	ctx := context.Background()
	clock := clockFor(cfg)
	events := otel.NewNullLogger()
	defer events.Close()

	rc := newRemote(cfg)
	coordinator := coord.New(st, rc, coord.Options{
		Presets:      presets.All(),
		Clock:        clock,
		Events:       events,
		FetchTimeout: cfg.RemoteTimeout(),
	})
	coordinator.Start(ctx, rc.Configured() && !*offline)
	coordinator.Wait()

	ref, precise := pointOrFallback(cfg, *lat, *lon)
	var locator geoloc.Locator = geoloc.Unavailable{}
	if precise {
		locator = geoloc.Static(ref)
	}
	acquirer := geoloc.NewAcquirer(locator, geoloc.Options{
		Timeout:  cfg.LocationTimeout(),
		Fallback: cfg.Fallback(),
		Clock:    clock,
	})

	if *maxKm <= 0 {
		*maxKm = cfg.Ranking.MaxDistanceKm
	}
	if *limit <= 0 {
		*limit = cfg.Ranking.Limit
	}
	svc := recommend.New(coordinator, acquirer, recommend.Options{
		Weather:       newWeather(cfg),
		Clock:         clock,
		MaxDistanceKm: *maxKm,
		Limit:         *limit,
		Events:        events,
	})

	res, err := svc.Recommend(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	snap := coordinator.Snapshot()
	where := "device"
	if !res.Precise {
		where = "fallback center"
	}
	headerColor.Printf("Hotspots near %.4f,%.4f (%s)\n", res.Reference.Lat, res.Reference.Lon, where)
	fmt.Printf("Sync:      %s", snap.Status)
	if snap.Err != nil {
		fmt.Printf(" (%v)", snap.Err)
	}
	fmt.Println()
	fmt.Printf("Records:   %d curated / %d community\n", snap.PresetCount, snap.CommunityCount)
	fmt.Printf("Context:   %s · %s · %s\n", res.Summary.TimeContext, res.Summary.DayType, res.Summary.WeatherContext)
	if res.Summary.TopCategory != "" {
		fmt.Printf("Mostly:    %s\n", res.Summary.TopCategory)
	}
	fmt.Printf("Showing:   %d of %d within %.1f km\n\n", len(res.Candidates), res.Summary.Total, *maxKm)

	if len(res.Candidates) == 0 {
		dimColor.Println("No hotspots in range.")
		return
	}

	headerColor.Printf("%3s  %-34s %-10s %6s %8s  %s\n", "#", "NAME", "CATEGORY", "SCORE", "DIST", "SOURCE")
	for i, c := range res.Candidates {
		name := fmt.Sprintf("%-34s", truncate(c.Name, 34))
		if !c.IsSafeZone {
			name = cautionColor.Sprint(name)
		}
		peak := " "
		if c.IsPeakNow {
			peak = goodColor.Sprint("*")
		}
		fmt.Printf("%3d%s %s %-10s %6.0f %7.2fkm  %s\n",
			i+1, peak, name, c.Category, c.Score, c.DistanceKm, provenanceLabel(c.PointOfInterest))
		if *verbose && len(c.Reasons) > 0 {
			dimColor.Printf("      %s\n", strings.Join(c.Reasons, ", "))
		}
	}
}
