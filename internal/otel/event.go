// Package otel records what the sync orchestrator and the recommender did as
// a JSONL event stream, with an optional in-memory tail for the UI.
//
// Events are facts about one run: a sync started, the cache was loaded,
// geolocation fell back to the default center. They complement the text log
// in package logging, which is for humans; events are for tooling.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the severity of an event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names what happened, as "<subsystem>.<action>".
type EventKind string

const (
	KindSyncStart    EventKind = "sync.start"
	KindSyncComplete EventKind = "sync.complete"
	KindSyncError    EventKind = "sync.error"
	KindSyncOffline  EventKind = "sync.offline"

	KindCacheLoad  EventKind = "cache.load"
	KindCacheWrite EventKind = "cache.write"
	KindCacheError EventKind = "cache.error"

	KindRankComplete  EventKind = "rank.complete"
	KindGeoFallback   EventKind = "geo.fallback"
	KindWeatherError  EventKind = "weather.error"
	KindWeatherLookup EventKind = "weather.lookup"

	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// KindMsgReceived is only emitted when tracing is on.
	KindMsgReceived EventKind = "trace.msg_received"
)

// Subsystem returns the part of the kind before the dot.
func (k EventKind) Subsystem() string {
	for i := 0; i < len(k); i++ {
		if k[i] == '.' {
			return string(k[:i])
		}
	}
	return string(k)
}

// Event is one record. Only Kind is required; Emit fills Time and SessionID.
type Event struct {
	Time      time.Time
	Level     Level
	Kind      EventKind
	Comp      string // "coord", "recommend", "ui", "main"
	SessionID string
	Dur       time.Duration
	Count     int
	Status    string // sync status after the event
	Lat       float64
	Lon       float64
	Err       string
	Msg       string
	Extra     map[string]any
}

// wireEvent is the JSONL shape. Durations are written as fractional milliseconds.
type wireEvent struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Status    string         `json:"status,omitempty"`
	Lat       float64        `json:"lat,omitempty"`
	Lon       float64        `json:"lon,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes the event in its JSONL shape.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{
		Time: e.Time, Level: e.Level, Kind: e.Kind, Comp: e.Comp, SessionID: e.SessionID,
		Count: e.Count, Status: e.Status, Lat: e.Lat, Lon: e.Lon,
		Err: e.Err, Msg: e.Msg, Extra: e.Extra,
	}
	if e.Dur > 0 {
		w.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads an event written by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event{
		Time: w.Time, Level: w.Level, Kind: w.Kind, Comp: w.Comp, SessionID: w.SessionID,
		Dur:   time.Duration(w.DurMs * float64(time.Millisecond)),
		Count: w.Count, Status: w.Status, Lat: w.Lat, Lon: w.Lon,
		Err: w.Err, Msg: w.Msg, Extra: w.Extra,
	}
	return nil
}

// clone copies Extra so a stored event cannot be changed through the caller's map.
func (e Event) clone() Event {
	if e.Extra == nil {
		return e
	}
	extra := make(map[string]any, len(e.Extra))
	for k, v := range e.Extra {
		extra[k] = v
	}
	e.Extra = extra
	return e
}
