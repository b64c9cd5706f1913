// Package geoloc acquires the driver's position and falls back to a fixed
// center when no fix can be had.
package geoloc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abelbrown/hotspot/internal/geo"
	"github.com/abelbrown/hotspot/internal/logging"
	"github.com/abelbrown/hotspot/internal/timectx"
)

// Code classifies a failed position fix.
type Code string

const (
	PermissionDenied    Code = "permission_denied"
	PositionUnavailable Code = "position_unavailable"
	Timeout             Code = "timeout"
	Unknown             Code = "unknown"
)

// Error is a typed location failure.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "geolocation: " + string(e.Code)
	}
	return fmt.Sprintf("geolocation: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the failure code of err, Unknown for untyped errors.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return Unknown
}

// DefaultCenter is the Bandung city center.
var DefaultCenter = geo.Point{Lat: -6.9175, Lon: 107.6191}

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxAge  = 60 * time.Second
)

// Locator produces one position fix per call.
type Locator interface {
	Locate(ctx context.Context) (geo.Point, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (geo.Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (geo.Point, error) { return f(ctx) }

// Static always reports the same point. Used when the position is given on
// the command line.
type Static geo.Point

func (s Static) Locate(context.Context) (geo.Point, error) {
	p := geo.Point(s)
	if !p.Valid() {
		return geo.Point{}, &Error{Code: PositionUnavailable, Err: fmt.Errorf("invalid point (%f, %f)", p.Lat, p.Lon)}
	}
	return p, nil
}

// Unavailable is a Locator for hosts with no position source.
type Unavailable struct{}

func (Unavailable) Locate(context.Context) (geo.Point, error) {
	return geo.Point{}, &Error{Code: PositionUnavailable}
}

// Options configures an Acquirer. Zero values pick defaults.
type Options struct {
	Timeout  time.Duration
	MaxAge   time.Duration
	Fallback geo.Point
	Clock    timectx.Clock
}

// Acquirer bounds each fix by a timeout and reuses a recent fix.
type Acquirer struct {
	locator  Locator
	timeout  time.Duration
	maxAge   time.Duration
	fallback geo.Point
	clock    timectx.Clock

	mu      sync.Mutex
	last    geo.Point
	lastAt  time.Time
	hasLast bool
}

// NewAcquirer creates an Acquirer around loc.
func NewAcquirer(loc Locator, opts Options) *Acquirer {
	if loc == nil {
		loc = Unavailable{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if !opts.Fallback.Valid() || opts.Fallback == (geo.Point{}) {
		opts.Fallback = DefaultCenter
	}
	if opts.Clock == nil {
		opts.Clock = timectx.SystemClock{}
	}
	return &Acquirer{
		locator:  loc,
		timeout:  opts.Timeout,
		maxAge:   opts.MaxAge,
		fallback: opts.Fallback,
		clock:    opts.Clock,
	}
}

type fixResult struct {
	p   geo.Point
	err error
}

// Acquire returns a live fix. A fix younger than the max age is reused;
// otherwise the locator races a timer and loses with a Timeout error.
func (a *Acquirer) Acquire(ctx context.Context) (geo.Point, error) {
	now := a.clock.Now()

	a.mu.Lock()
	if a.hasLast && now.Sub(a.lastAt) <= a.maxAge {
		p := a.last
		a.mu.Unlock()
		return p, nil
	}
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ch := make(chan fixResult, 1)
	go func() {
		p, err := a.locator.Locate(ctx)
		ch <- fixResult{p: p, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return geo.Point{}, &Error{Code: Timeout, Err: ctx.Err()}
		}
		return geo.Point{}, &Error{Code: Unknown, Err: ctx.Err()}
	case res := <-ch:
		if res.err != nil {
			var ge *Error
			if errors.As(res.err, &ge) {
				return geo.Point{}, res.err
			}
			if errors.Is(res.err, context.DeadlineExceeded) {
				return geo.Point{}, &Error{Code: Timeout, Err: res.err}
			}
			return geo.Point{}, &Error{Code: Unknown, Err: res.err}
		}
		if !res.p.Valid() {
			return geo.Point{}, &Error{Code: PositionUnavailable, Err: fmt.Errorf("invalid fix (%f, %f)", res.p.Lat, res.p.Lon)}
		}
		a.mu.Lock()
		a.last, a.lastAt, a.hasLast = res.p, now, true
		a.mu.Unlock()
		return res.p, nil
	}
}

// Resolve returns the reference point for ranking. precise is false when the
// fallback center was used; the failure is logged, never returned.
func (a *Acquirer) Resolve(ctx context.Context) (p geo.Point, precise bool) {
	p, err := a.Acquire(ctx)
	if err != nil {
		logging.Info("using fallback location", "code", CodeOf(err), "error", err)
		return a.fallback, false
	}
	return p, true
}

// Fallback returns the configured fallback center.
func (a *Acquirer) Fallback() geo.Point {
	return a.fallback
}
