package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/abelbrown/hotspot/internal/model"
)

func runCache() {
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	category := fs.String("category", "", "Only records in this category")
	area := fs.String("area", "", "Only records in this area")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	count, err := st.Count()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	headerColor.Println("=== Cache ===")
	fmt.Printf("Database:      %s\n", cfg.DBPath())
	fmt.Printf("Records:       %d\n", count)
	fmt.Printf("Offline ready: %v\n", st.HasOfflineData())
	last, err := st.LastSync()
	switch {
	case err != nil:
		badColor.Printf("Last sync:     unavailable (%v)\n", err)
	case last.IsZero():
		fmt.Println("Last sync:     never")
	default:
		fmt.Printf("Last sync:     %s\n", last.In(cfg.ClockLocation()).Format("2006-01-02 15:04:05"))
	}

	var records []model.CacheRecord
	switch {
	case *category != "":
		var c model.Category
		c, err = model.ParseCategory(*category)
		if err == nil {
			records, err = st.GetByCategory(c)
		}
	case *area != "":
		records, err = st.GetByArea(*area)
	default:
		records, err = st.GetAll()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Per-category counts
	byCategory := map[model.Category]int{}
	for _, r := range records {
		byCategory[r.Category]++
	}
	cats := make([]model.Category, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return byCategory[cats[i]] > byCategory[cats[j]] })

	fmt.Printf("\nCategories (%d):\n", len(cats))
	for _, c := range cats {
		fmt.Printf("  %-12s %d\n", c, byCategory[c])
	}

	if len(records) == 0 {
		return
	}
	fmt.Println()
	headerColor.Printf("%-28s %-10s %-14s %-16s %s\n", "NAME", "CATEGORY", "AREA", "SYNCED", "SOURCE")
	for _, r := range records {
		fmt.Printf("%-28s %-10s %-14s %s %s\n",
			truncate(r.Name, 28), r.Category, truncate(r.Area, 14),
			dimColor.Sprintf("%-16s", formatSyncedAt(r.SyncedAt, cfg.ClockLocation())),
			provenanceLabel(r.PointOfInterest))
	}
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	before, _ := st.Count()
	if err := st.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	goodColor.Printf("Cleared %d cached hotspots\n", before)
}
