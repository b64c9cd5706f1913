// Command hsctl is the maintenance CLI for the hotspot cache.
//
// Usage:
//
//	hsctl                   Show help
//	hsctl rank              Rank hotspots once and print the list
//	hsctl sync              Pull remote hotspots into the local cache
//	hsctl cache             Inspect the local cache
//	hsctl clear             Empty the local cache
//	hsctl weather           Current weather and its effect per category
package main

import (
	"fmt"
	"os"
)

const usage = `hsctl - hotspot maintenance CLI

Usage:
  hsctl <command> [flags]

Commands:
  rank        Rank hotspots once and print them (-lat -lon -max -offline)
  sync        Pull remote hotspots into the local cache
  cache       Show cache size, last sync and records (-category -area)
  clear       Delete every cached hotspot
  weather     Current weather and per-category modifiers (-lat -lon)

Environment:
  HOTSPOT_REMOTE_URL   Remote base URL (or SUPABASE_URL)
  HOTSPOT_REMOTE_KEY   Remote API key (or SUPABASE_ANON_KEY)
  HOTSPOT_LOG_LEVEL    debug, info, warn, error (default warn)

Run 'hsctl <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "rank":
		runRank()
	case "sync":
		runSync()
	case "cache":
		runCache()
	case "clear":
		runClear()
	case "weather":
		runWeather()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "hsctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
