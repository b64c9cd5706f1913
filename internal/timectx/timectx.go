// Package timectx derives time-of-day, rush hour, and day type from a clock.
//
// Holiday calendars are not modeled: a public holiday on a weekday is
// classified as a weekday.
package timectx

import "time"

// TimeOfDay is a coarse bucket of the local hour.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning" // [05:00, 11:00)
	Midday  TimeOfDay = "midday"  // [11:00, 15:00)
	Evening TimeOfDay = "evening" // [15:00, 18:00)
	Night   TimeOfDay = "night"   // [18:00, 05:00)
)

// DayType classifies a calendar day.
type DayType string

const (
	Weekday DayType = "weekday"
	Weekend DayType = "weekend"
)

// Clock is the source of the current time. Inject a FixedClock in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location // nil means time.Local
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Snapshot is the temporal context at one instant.
type Snapshot struct {
	Hour       int
	Minute     int
	TimeOfDay  TimeOfDay
	IsRushHour bool
	DayType    DayType
}

// At derives the snapshot for t in t's own location.
func At(t time.Time) Snapshot {
	hour := t.Hour()
	return Snapshot{
		Hour:       hour,
		Minute:     t.Minute(),
		TimeOfDay:  BucketFor(hour),
		IsRushHour: IsRushHour(hour),
		DayType:    DayTypeOf(t),
	}
}

// Now derives the snapshot from the clock.
func Now(c Clock) Snapshot {
	return At(c.Now())
}

// BucketFor maps an hour (0-23) to its TimeOfDay.
func BucketFor(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 11:
		return Morning
	case hour >= 11 && hour < 15:
		return Midday
	case hour >= 15 && hour < 18:
		return Evening
	default:
		return Night
	}
}

// IsRushHour is true for [06:00,09:00) and [16:00,20:00).
func IsRushHour(hour int) bool {
	return (hour >= 6 && hour < 9) || (hour >= 16 && hour < 20)
}

// DayTypeOf returns Weekend on Saturday and Sunday.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// MinutesSinceMidnight is hour*60+minute.
func (s Snapshot) MinutesSinceMidnight() int {
	return s.Hour*60 + s.Minute
}
