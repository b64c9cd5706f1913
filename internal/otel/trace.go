package otel

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TraceEnv turns on per-message trace events in the UI when set to a true value.
const TraceEnv = "HOTSPOT_TRACE"

var tracing atomic.Bool

func init() {
	tracing.Store(parseTrace(os.Getenv(TraceEnv)))
}

// parseTrace accepts strconv booleans; any other non-empty value also enables tracing.
func parseTrace(v string) bool {
	if v == "" {
		return false
	}
	on, err := strconv.ParseBool(v)
	return on || err != nil
}

// TraceEnabled reports whether trace events should be emitted.
func TraceEnabled() bool { return tracing.Load() }

// SetTrace overrides the environment setting.
func SetTrace(on bool) { tracing.Store(on) }
