package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hotspot/internal/coord"
	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/otel"
	"github.com/abelbrown/hotspot/internal/recommend"
	"github.com/abelbrown/hotspot/internal/session"
	"github.com/abelbrown/hotspot/internal/timectx"
)

// AppConfig wires the App to the rest of the program. Every func may be nil.
type AppConfig struct {
	// LoadRecommendations returns a Cmd producing RecommendationsLoaded.
	LoadRecommendations func() tea.Cmd
	// ForceSync returns a Cmd producing SyncDone.
	ForceSync func() tea.Cmd
	// SetOnline returns a Cmd producing ConnectivityChanged.
	SetOnline func(online bool) tea.Cmd
	// WaitForSync returns a Cmd that blocks until the next SyncUpdated.
	WaitForSync func() tea.Cmd
	// MarkGreetingShown returns a Cmd producing GreetingDismissed.
	MarkGreetingShown func() tea.Cmd

	Greeting     session.Greeting
	ShowGreeting bool
	Online       bool
	Snapshot     coord.Snapshot

	Ring   *otel.RingBuffer // event pane source; nil disables the pane
	Events *otel.Logger     // trace sink for received messages
	Clock  timectx.Clock
}

type keyMap struct {
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Details key.Binding
	Refresh key.Binding
	Sync    key.Binding
	Online  key.Binding
	Events  key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
	Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
	Top:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Details: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Sync:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
	Online:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "toggle online")),
	Events:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "events")),
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the store or the coordinator. It receives state via messages.
type App struct {
	cfg AppConfig

	result       recommend.Result
	snap         coord.Snapshot
	cursor       int
	err          error
	notice       string
	width        int
	height       int
	ready        bool
	loading      bool
	online       bool
	showDetail   bool
	showEvents   bool
	showGreeting bool
	spinner      spinner.Model
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg AppConfig) App {
	if cfg.Clock == nil {
		cfg.Clock = timectx.SystemClock{}
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)
	return App{
		cfg:          cfg,
		snap:         cfg.Snapshot,
		online:       cfg.Online,
		showGreeting: cfg.ShowGreeting,
		loading:      cfg.LoadRecommendations != nil,
		spinner:      s,
	}
}

// Init loads the first recommendations and starts listening for sync updates.
func (a App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.cfg.LoadRecommendations != nil {
		cmds = append(cmds, a.cfg.LoadRecommendations(), a.spinner.Tick)
	}
	if a.cfg.WaitForSync != nil {
		cmds = append(cmds, a.cfg.WaitForSync())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		if !a.loading && a.snap.Status != coord.StatusSyncing {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case RecommendationsLoaded:
		a.loading = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.result = msg.Result
		a.err = nil
		if a.cursor >= len(a.result.Candidates) {
			a.cursor = max(0, len(a.result.Candidates)-1)
		}
		return a, nil

	case SyncUpdated:
		prev := a.snap.Status
		a.snap = msg.Snapshot
		a.online = msg.Snapshot.Online
		var cmds []tea.Cmd
		if a.cfg.WaitForSync != nil {
			cmds = append(cmds, a.cfg.WaitForSync())
		}
		switch {
		case a.snap.Status == coord.StatusSyncing:
			if prev != coord.StatusSyncing {
				cmds = append(cmds, a.spinner.Tick)
			}
		case a.cfg.LoadRecommendations != nil:
			// The merged set may have changed; rank it again.
			a.loading = true
			cmds = append(cmds, a.cfg.LoadRecommendations(), a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case SyncDone:
		switch {
		case errors.Is(msg.Err, coord.ErrOffline):
			a.notice = "offline: sync skipped"
		case msg.Err != nil:
			a.notice = "sync failed, showing last known hotspots"
		default:
			a.notice = ""
		}
		return a, nil

	case ConnectivityChanged:
		a.online = msg.Online
		return a, nil

	case GreetingDismissed:
		a.showGreeting = false
		return a, nil
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	if key.Matches(msg, keys.Quit) {
		return a, tea.Quit
	}

	// Any other key dismisses the daily greeting first.
	if a.showGreeting {
		a.showGreeting = false
		if a.cfg.MarkGreetingShown != nil {
			return a, a.cfg.MarkGreetingShown()
		}
		return a, nil
	}

	n := len(a.result.Candidates)
	switch {
	case key.Matches(msg, keys.Events):
		if a.cfg.Ring != nil {
			a.showEvents = !a.showEvents
		}
		return a, nil

	case key.Matches(msg, keys.Down):
		if a.cursor < n-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, keys.Top):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, keys.Bottom):
		if n > 0 {
			a.cursor = n - 1
		}
		return a, nil

	case key.Matches(msg, keys.Details):
		if n > 0 {
			a.showDetail = !a.showDetail
		}
		return a, nil

	case key.Matches(msg, keys.Refresh):
		if a.cfg.LoadRecommendations != nil {
			a.loading = true
			return a, tea.Batch(a.cfg.LoadRecommendations(), a.spinner.Tick)
		}
		return a, nil

	case key.Matches(msg, keys.Sync):
		if !a.online {
			a.notice = "offline: sync skipped"
			return a, nil
		}
		if a.cfg.ForceSync != nil {
			a.notice = ""
			return a, a.cfg.ForceSync()
		}
		return a, nil

	case key.Matches(msg, keys.Online):
		if a.cfg.SetOnline != nil {
			return a, a.cfg.SetOnline(!a.online)
		}
		return a, nil
	}

	return a, nil
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	now := a.cfg.Clock.Now()
	if a.showEvents {
		return debugOverlay(a.cfg.Ring, a.width, a.height-1, now) + "\n" + debugStatusBar(a.width)
	}

	var top []string
	if a.showGreeting {
		g := a.cfg.Greeting
		top = append(top, HeaderStyle.Render(g.Headline), SummaryStyle.Render(g.Motivation+"  (any key to continue)"))
	}
	top = append(top, SummaryStyle.Render(summaryLine(a.result, a.snap)))
	header := strings.Join(top, "\n") + "\n"

	var detail string
	if a.showDetail && a.cursor < len(a.result.Candidates) {
		detail = RenderDetail(a.result.Candidates[a.cursor], a.width)
	}

	// Reserve one line for the status bar and one for the notice or error bar.
	contentHeight := a.height - lipgloss.Height(header) - 2
	if detail != "" {
		contentHeight -= lipgloss.Height(detail)
	}

	list := RenderList(a.result.Candidates, a.cursor, a.width, contentHeight)

	var bar string
	switch {
	case a.err != nil:
		bar = ErrorStyle.Width(a.width).Render("Error: " + a.err.Error() + " (press any key to dismiss)")
	case a.notice != "":
		bar = MetaItem.Render(" " + a.notice)
	}

	status := RenderStatusBar(a.cursor, len(a.result.Candidates), a.width, a.loading, a.spinner.View(), a.snap, now)

	out := header + list
	if detail != "" {
		out += detail + "\n"
	}
	return out + bar + "\n" + status
}

// summaryLine renders "12 hotspots · mostly campus · rush hour morning · Weekday · Clear - safe to drive".
func summaryLine(r recommend.Result, snap coord.Snapshot) string {
	s := r.Summary
	parts := []string{fmt.Sprintf("%d hotspots", s.Total)}
	if s.TopCategory != "" {
		parts = append(parts, "mostly "+string(s.TopCategory))
	}
	if s.TimeContext != "" {
		parts = append(parts, s.TimeContext)
	}
	if s.DayType != "" {
		parts = append(parts, s.DayType)
	}
	if s.WeatherContext != "" {
		parts = append(parts, s.WeatherContext)
	}
	if !r.GeneratedAt.IsZero() && !r.Precise {
		parts = append(parts, "approximate location")
	}
	parts = append(parts, fmt.Sprintf("%d curated / %d community", snap.PresetCount, snap.CommunityCount))
	return strings.Join(parts, " · ")
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Candidates returns the displayed candidates (for testing).
func (a App) Candidates() []model.ScoredCandidate {
	return a.result.Candidates
}
