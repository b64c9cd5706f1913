package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/hotspot/internal/otel"
)

// eventPaneChrome is the border plus vertical padding of EventPanel.
const eventPaneChrome = 4

// recentEvents is how many events the pane lists below the counters.
const recentEvents = 20

// debugOverlay renders the event pane: sync and ranking counters followed by
// the newest events. It returns "" without a ring.
func debugOverlay(ring *otel.RingBuffer, width, height int, now time.Time) string {
	if ring == nil {
		return ""
	}
	stats := ring.Stats()

	lines := []string{
		EventHeader.Render("Sync Stats"),
		statLine("Syncs", "%d started, %d complete, %d errors",
			stats[otel.KindSyncStart], stats[otel.KindSyncComplete], stats[otel.KindSyncError]),
		statLine("Cache", "%d loads, %d errors, %d offline",
			stats[otel.KindCacheLoad], stats[otel.KindCacheError], stats[otel.KindSyncOffline]),
		statLine("Ranking", "%d passes, %d geo fallbacks, %d weather errors",
			stats[otel.KindRankComplete], stats[otel.KindGeoFallback], stats[otel.KindWeatherError]),
	}
	if last, ok := ring.LastOfKind(otel.KindSyncComplete); ok {
		lines = append(lines, statLine("Last sync", "%d records in %s", last.Count, formatAge(last.Dur)))
	}
	if last, ok := ring.LastOfKind(otel.KindSyncError); ok {
		lines = append(lines, statLine("Last error", "%s ago: %s", formatAge(now.Sub(last.Time)), truncateRunes(last.Err, 40)))
	}
	lines = append(lines,
		statLine("Buffer", "%d / %d events", ring.Len(), ring.Cap()),
		"",
		EventHeader.Render("Recent Events"),
	)
	for _, e := range ring.Last(recentEvents) {
		lines = append(lines, eventLine(e, now))
	}

	if limit := max(height-eventPaneChrome, 1); len(lines) > limit {
		lines = lines[:limit]
	}
	return EventPanel.Width(clamp(width-4, 20, 76)).Render(strings.Join(lines, "\n"))
}

func statLine(label, format string, args ...any) string {
	return fmt.Sprintf("  %-11s %s", label+":", fmt.Sprintf(format, args...))
}

// eventLine renders "  age  kind  status  n=count  msg  ERR:err".
func eventLine(e otel.Event, now time.Time) string {
	parts := []string{fmt.Sprintf("  %6s  %-18s", formatAge(now.Sub(e.Time)), e.Kind)}
	if e.Status != "" {
		parts = append(parts, e.Status)
	}
	if e.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", e.Count))
	}
	if e.Msg != "" {
		parts = append(parts, truncateRunes(e.Msg, 40))
	}
	if e.Err != "" {
		parts = append(parts, "ERR:"+truncateRunes(e.Err, 30))
	}
	return strings.Join(parts, "  ")
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// formatAge renders a duration compactly. Negative ages (clock skew) show as 0ms.
func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar is the status bar shown while the event pane is open.
func debugStatusBar(width int) string {
	hint := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [EVENTS]  " + hint)
}
