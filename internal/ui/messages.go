// Package ui provides the Bubble Tea TUI for hotspot recommendations.
package ui

import (
	"github.com/abelbrown/hotspot/internal/coord"
	"github.com/abelbrown/hotspot/internal/recommend"
)

// RecommendationsLoaded is sent when a recommendation pass finishes.
type RecommendationsLoaded struct {
	Result recommend.Result
	Err    error
}

// SyncUpdated carries a coordinator snapshot after any state change.
type SyncUpdated struct {
	Snapshot coord.Snapshot
}

// SyncDone is sent when a manual sync returns.
type SyncDone struct {
	Err error
}

// ConnectivityChanged is sent after the online flag was toggled.
type ConnectivityChanged struct {
	Online bool
}

// GreetingDismissed is sent once the daily greeting has been recorded as shown.
type GreetingDismissed struct {
	Err error
}
