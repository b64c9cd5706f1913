package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hotspot/internal/coord"
)

// Palette (256-color codes).
var (
	colorAccent  = lipgloss.Color("62")  // purple: selection, badges
	colorText    = lipgloss.Color("255") // near white
	colorSubtle  = lipgloss.Color("241") // gray
	colorFaint   = lipgloss.Color("240")
	colorBarBg   = lipgloss.Color("236")
	colorPeak    = lipgloss.Color("212") // pink: busy now, key hints
	colorGood    = lipgloss.Color("78")
	colorCaution = lipgloss.Color("214")
	colorBad     = lipgloss.Color("196")

	// colorHighlight tints the spinner.
	colorHighlight = colorPeak
)

// List rows.
var (
	SelectedItem = lipgloss.NewStyle().Bold(true).Foreground(colorText).Background(colorAccent).Padding(0, 1)
	NormalItem   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	// CautionItem marks hotspots outside a safe zone.
	CautionItem   = lipgloss.NewStyle().Foreground(colorCaution).Padding(0, 1)
	CategoryBadge = lipgloss.NewStyle().Foreground(colorAccent).Background(colorBarBg).Padding(0, 1).MarginRight(1)
	ScoreStyle    = lipgloss.NewStyle().Foreground(colorGood).Bold(true)
	PeakMarker    = lipgloss.NewStyle().Foreground(colorPeak).Bold(true)
	MetaItem      = lipgloss.NewStyle().Foreground(colorFaint)
)

// Header, panels and messages.
var (
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPeak).Padding(0, 1)
	SummaryStyle = lipgloss.NewStyle().Foreground(colorSubtle).Padding(0, 1)
	DetailPanel  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1)
	EventPanel   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFaint).Padding(1, 2)
	EventHeader  = lipgloss.NewStyle().Foreground(colorPeak).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorBad).Bold(true).Padding(0, 1)
	HelpStyle    = lipgloss.NewStyle().Foreground(colorFaint).Padding(1, 2)
)

// Status bar.
var (
	StatusBar     = lipgloss.NewStyle().Foreground(colorText).Background(colorBarBg).Padding(0, 1)
	StatusBarKey  = lipgloss.NewStyle().Foreground(colorPeak).Bold(true)
	StatusBarText = lipgloss.NewStyle().Foreground(colorSubtle)
)

var badgeBase = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Padding(0, 1)

// syncColors maps each status to its badge background. Unknown is gray.
var syncColors = map[coord.Status]lipgloss.Color{
	coord.StatusSynced:  colorGood,
	coord.StatusSyncing: colorCaution,
	coord.StatusError:   colorBad,
	coord.StatusOffline: colorSubtle,
}

// SyncBadge renders the sync status as a colored badge.
func SyncBadge(s coord.Status) string {
	bg, ok := syncColors[s]
	if !ok {
		bg = colorSubtle
	}
	label := string(s)
	if label == "" {
		label = "unknown"
	}
	return badgeBase.Background(bg).Render(label)
}
