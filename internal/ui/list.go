package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hotspot/internal/coord"
	"github.com/abelbrown/hotspot/internal/model"
)

// RenderList renders the ranked candidates, scrolled so the cursor stays visible.
func RenderList(cands []model.ScoredCandidate, cursor int, width, height int) string {
	if len(cands) == 0 {
		return HelpStyle.Render("No hotspots nearby. Press 'r' to refresh or 's' to sync.")
	}

	availableHeight := height
	if availableHeight < 1 {
		availableHeight = 1
	}
	scrollOffset := calcScrollOffset(len(cands), cursor, availableHeight)

	var b strings.Builder
	rendered := 0
	for i := scrollOffset; i < len(cands) && rendered < availableHeight; i++ {
		b.WriteString(renderCandidateLine(i+1, cands[i], i == cursor, width))
		b.WriteString("\n")
		rendered++
	}
	return b.String()
}

// calcScrollOffset returns the first visible index so the cursor fits in height lines.
func calcScrollOffset(total, cursor, height int) int {
	if total == 0 || cursor < 0 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

// renderCandidateLine renders "rank  name ....... category  score  distance".
func renderCandidateLine(rank int, c model.ScoredCandidate, selected bool, width int) string {
	marker := " "
	if c.IsPeakNow {
		marker = PeakMarker.Render("●")
	}
	prefix := fmt.Sprintf("%2d %s ", rank, marker)

	badge := CategoryBadge.Render(string(c.Category))
	meta := fmt.Sprintf("%5.0f  %s", c.Score, formatDistance(c.DistanceKm))

	nameWidth := width - lipgloss.Width(prefix) - lipgloss.Width(badge) - lipgloss.Width(meta) - 4
	if nameWidth < 12 {
		nameWidth = 12
	}
	name := truncateRunes(c.Name, nameWidth)
	pad := nameWidth - utf8.RuneCountInString(name)
	if pad < 0 {
		pad = 0
	}

	var nameStyle lipgloss.Style
	switch {
	case selected:
		nameStyle = SelectedItem
	case !c.IsSafeZone:
		nameStyle = CautionItem
	default:
		nameStyle = NormalItem
	}

	return prefix + nameStyle.Render(name+strings.Repeat(" ", pad)) + " " + badge + ScoreStyle.Render(meta)
}

// RenderDetail renders the explanation for one candidate.
func RenderDetail(c model.ScoredCandidate, width int) string {
	var lines []string
	lines = append(lines, HeaderStyle.Render(c.Name))
	if c.Description != "" {
		lines = append(lines, "  "+c.Description)
	}
	lines = append(lines, fmt.Sprintf("  %s · %s · score %.0f", c.Category, formatDistance(c.DistanceKm), c.Score))
	lines = append(lines, MetaItem.Render(fmt.Sprintf("  time +%.0f  weather +%.0f  day +%.0f", c.TimeBonus, c.WeatherBonus, c.DayTypeBonus)))
	if len(c.Reasons) > 0 {
		lines = append(lines, "  "+strings.Join(c.Reasons, ", "))
	}
	if len(c.PeakHours) > 0 {
		lines = append(lines, MetaItem.Render("  peak "+strings.Join(c.PeakHours, " ")))
	}
	if c.Tips != "" {
		lines = append(lines, "  tip: "+c.Tips)
	}
	panelWidth := width - 2
	if panelWidth < 20 {
		panelWidth = 20
	}
	return DetailPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%4.0fm", km*1000)
	}
	return fmt.Sprintf("%4.1fkm", km)
}

// formatLastSync renders "synced 5m ago" style text. A zero time means never.
func formatLastSync(last, now time.Time) string {
	if last.IsZero() {
		return "never synced"
	}
	age := now.Sub(last)
	switch {
	case age < time.Minute:
		return "synced just now"
	case age < time.Hour:
		return fmt.Sprintf("synced %dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("synced %dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("synced %dd ago", int(age.Hours()/24))
	}
}

// truncateRunes shortens s to at most n runes, ending with "…" when cut.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// RenderStatusBar renders the bottom status bar with the sync badge and key hints.
func RenderStatusBar(cursor, total int, width int, loading bool, spin string, snap coord.Snapshot, now time.Time) string {
	var position string
	if loading {
		position = " " + spin + " Ranking... "
	} else {
		position = fmt.Sprintf(" %d/%d ", min(cursor+1, total), total)
	}

	syncInfo := SyncBadge(snap.Status) + StatusBarText.Render(" "+formatLastSync(snap.LastSyncedAt, now)+" ")

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("Enter") + StatusBarText.Render(":details"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("s") + StatusBarText.Render(":sync"),
		StatusBarKey.Render("o") + StatusBarText.Render(":online"),
		StatusBarKey.Render("D") + StatusBarText.Render(":events"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(position) - lipgloss.Width(syncInfo) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}

	bar := position + syncInfo + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}
