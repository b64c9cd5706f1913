// Package session holds process-wide state for one app run: whether today's
// recommendation has been shown, and the greeting for the current moment.
//
// A State is created once in main and passed to whoever needs it.
package session

import (
	"sync"
	"time"

	"github.com/abelbrown/hotspot/internal/logging"
	"github.com/abelbrown/hotspot/internal/timectx"
)

// KeyRecommendationShownOn is the metadata key holding the local date
// (YYYY-MM-DD) the daily recommendation was last shown.
const KeyRecommendationShownOn = "recommendation_shown_on"

const dateLayout = "2006-01-02"

// metadata is the subset of the store used for persistence.
type metadata interface {
	GetMetadata(key string) (string, bool, error)
	SetMetadata(key, value string) error
}

// State is safe for concurrent use.
type State struct {
	mu      sync.Mutex
	meta    metadata
	shownOn string
}

// Load reads persisted flags. A storage failure is logged and the flags start
// empty, so the daily recommendation is shown again.
func Load(meta metadata) *State {
	s := &State{meta: meta}
	if meta == nil {
		return s
	}
	v, ok, err := meta.GetMetadata(KeyRecommendationShownOn)
	if err != nil {
		logging.Warn("session flags unavailable", "component", "session", "error", err)
		return s
	}
	if ok {
		s.shownOn = v
	}
	return s
}

// ShouldShowDailyRecommendation is true until MarkShown is called for the
// local calendar day of now.
func (s *State) ShouldShowDailyRecommendation(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shownOn != now.Format(dateLayout)
}

// MarkShown records that the recommendation was shown on now's date. The
// in-memory flag is set even if persisting it fails.
func (s *State) MarkShown(now time.Time) error {
	day := now.Format(dateLayout)

	s.mu.Lock()
	s.shownOn = day
	meta := s.meta
	s.mu.Unlock()

	if meta == nil {
		return nil
	}
	if err := meta.SetMetadata(KeyRecommendationShownOn, day); err != nil {
		logging.Warn("session flag not persisted", "component", "session", "error", err)
		return err
	}
	return nil
}

// Greeting is a headline and a short nudge for the driver.
type Greeting struct {
	Headline   string
	Motivation string
}

var greetings = map[timectx.DayType]map[timectx.TimeOfDay]Greeting{
	timectx.Weekday: {
		timectx.Morning: {"Good morning!", "Morning rush. Work the campuses, schools, and offices."},
		timectx.Midday:  {"Keep it up!", "Lunch hour brings food orders around the offices."},
		timectx.Evening: {"Good afternoon!", "Evening rush. Students and workers are heading home from campus and the office."},
		timectx.Night:   {"Good evening!", "Evenings favor food courts and cafes. Drive safely."},
	},
	timectx.Weekend: {
		timectx.Morning: {"Good morning!", "Weekend outings start early. Try the tourist spots and malls."},
		timectx.Midday:  {"Hello, driver!", "Weekend middays are busy at food courts and malls."},
		timectx.Evening: {"Good afternoon!", "Families head home from their day out around now."},
		timectx.Night:   {"Good evening!", "Weekend nights are for hangouts. Focus on cafes and entertainment."},
	},
}

// GreetingFor returns the greeting for a time snapshot.
func GreetingFor(snap timectx.Snapshot) Greeting {
	byBucket, ok := greetings[snap.DayType]
	if !ok {
		byBucket = greetings[timectx.Weekday]
	}
	if g, ok := byBucket[snap.TimeOfDay]; ok {
		return g
	}
	return byBucket[timectx.Night]
}
