// Package peak matches clock times against "HH:MM-HH:MM" windows and holds
// the per-category peak model.
package peak

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedWindow is returned by ParseWindow for text that is not "HH:MM-HH:MM".
var ErrMalformedWindow = errors.New("malformed peak window")

// Window is a closed interval in minutes since midnight.
// A window with End < Start wraps past midnight and never matches.
type Window struct {
	Start int
	End   int
}

// Contains reports whether minute falls in [Start, End].
func (w Window) Contains(minute int) bool {
	return minute >= w.Start && minute <= w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// ParseWindow parses "HH:MM-HH:MM". A missing minute part is read as zero.
func ParseWindow(s string) (Window, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("%w: %q has no separator", ErrMalformedWindow, s)
	}
	startMin, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q: %v", ErrMalformedWindow, s, err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q: %v", ErrMalformedWindow, s, err)
	}
	return Window{Start: startMin, End: endMin}, nil
}

func parseClock(s string) (int, error) {
	hh, mm, _ := strings.Cut(strings.TrimSpace(s), ":")
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("hour %q", hh)
	}
	minute := 0
	if mm != "" {
		minute, err = strconv.Atoi(mm)
		if err != nil {
			return 0, fmt.Errorf("minute %q", mm)
		}
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return hour*60 + minute, nil
}

// IsWithin reports whether hour:minute falls inside any of ranges, inclusive
// on both ends. Ranges without a separator, malformed ranges, and ranges that
// wrap past midnight never match.
func IsWithin(hour, minute int, ranges []string) bool {
	now := hour*60 + minute
	for _, r := range ranges {
		w, err := ParseWindow(r)
		if err != nil {
			continue
		}
		if w.Contains(now) {
			return true
		}
	}
	return false
}

// Validate returns the first malformed range, if any.
func Validate(ranges []string) error {
	for _, r := range ranges {
		if _, err := ParseWindow(r); err != nil {
			return err
		}
	}
	return nil
}
