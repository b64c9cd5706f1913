package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/weather"
)

func runWeather() {
	fs := flag.NewFlagSet("weather", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude (default: configured fallback center)")
	lon := fs.Float64("lon", 0, "Longitude")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	p, _ := pointOrFallback(cfg, *lat, *lon)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeout())
	defer cancel()

	obs, err := newWeather(cfg).Current(ctx, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	headerColor.Printf("Weather at %.4f,%.4f\n", p.Lat, p.Lon)
	fmt.Printf("Condition:     %s (WMO %d)\n", obs.Description, obs.Code)
	fmt.Printf("Temperature:   %.1f°C\n", obs.Temperature)
	fmt.Printf("Wind:          %.1f km/h\n", obs.WindSpeed)
	fmt.Printf("Precipitation: %.1f mm\n", obs.Precipitation)
	if obs.IsGoodForDriving {
		goodColor.Println("Driving:       safe to drive")
	} else {
		badColor.Println("Driving:       drive carefully")
	}

	fmt.Println()
	headerColor.Printf("%-12s %6s  %s\n", "CATEGORY", "BONUS", "REASON")
	for _, c := range model.Categories() {
		score, reason := weather.Modifier(obs, c)
		line := fmt.Sprintf("%-12s %+6d  %s", c, score, reason)
		switch {
		case score > 0:
			goodColor.Println(line)
		case score < 0:
			badColor.Println(line)
		default:
			dimColor.Println(line)
		}
	}
}
