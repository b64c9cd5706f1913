// Package recommend produces the ranked hotspot list for the driver's current
// position, time and weather.
package recommend

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/hotspot/internal/coord"
	"github.com/abelbrown/hotspot/internal/geo"
	"github.com/abelbrown/hotspot/internal/logging"
	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/otel"
	"github.com/abelbrown/hotspot/internal/ranking"
	"github.com/abelbrown/hotspot/internal/timectx"
	"github.com/abelbrown/hotspot/internal/weather"
)

// DefaultLimit caps the result list when Options.Limit is unset.
const DefaultLimit = 20

// Points supplies the merged point-of-interest set.
type Points interface {
	Snapshot() coord.Snapshot
}

// Locator resolves the reference point. precise is false for the fallback center.
type Locator interface {
	Resolve(ctx context.Context) (p geo.Point, precise bool)
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	Engine        *ranking.Engine
	Weather       weather.Lookup // nil disables weather
	Clock         timectx.Clock
	MaxDistanceKm float64
	Limit         int
	Events        *otel.Logger
}

// Result is one recommendation pass.
type Result struct {
	Candidates  []model.ScoredCandidate
	Summary     ranking.Summary
	Reference   geo.Point
	Precise     bool
	Weather     *weather.Observation // nil when the lookup failed
	Time        timectx.Snapshot
	SyncStatus  coord.Status
	GeneratedAt time.Time
}

// Service ties the sync snapshot, location and weather to the ranking engine.
type Service struct {
	points  Points
	locator Locator
	weather weather.Lookup
	engine  *ranking.Engine
	clock   timectx.Clock
	maxKm   float64
	limit   int
	events  *otel.Logger
}

// New creates a Service.
func New(points Points, loc Locator, opts Options) *Service {
	if opts.Engine == nil {
		opts.Engine = ranking.NewEngine()
	}
	if opts.Clock == nil {
		opts.Clock = timectx.SystemClock{}
	}
	if opts.MaxDistanceKm <= 0 {
		opts.MaxDistanceKm = ranking.DefaultMaxDistanceKm
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return &Service{
		points:  points,
		locator: loc,
		weather: opts.Weather,
		engine:  opts.Engine,
		clock:   opts.Clock,
		maxKm:   opts.MaxDistanceKm,
		limit:   opts.Limit,
		events:  opts.Events,
	}
}

// Recommend resolves the location, then looks up weather and ranks the current
// snapshot. Location and weather failures degrade the result instead of
// failing it; only a canceled context returns an error.
func (s *Service) Recommend(ctx context.Context) (Result, error) {
	start := s.clock.Now()

	var (
		ref     geo.Point
		precise bool
		obs     *weather.Observation
		snap    coord.Snapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ref, precise = s.locator.Resolve(gctx)
		if !precise {
			s.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindGeoFallback, Comp: "recommend", Lat: ref.Lat, Lon: ref.Lon})
		}
		obs = s.lookupWeather(gctx, ref)
		return gctx.Err()
	})
	g.Go(func() error {
		snap = s.points.Snapshot()
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	now := s.clock.Now()
	tc := timectx.At(now)
	rctx := ranking.NewContext(ref, precise, tc, obs)
	rctx.MaxDistanceKm = s.maxKm

	ranked := s.engine.Rank(snap.Points, rctx)
	summary := ranking.Summarize(ranked, rctx)
	if len(ranked) > s.limit {
		ranked = ranked[:s.limit]
	}

	logging.Debug("recommendations ranked", "component", "recommend",
		"candidates", len(snap.Points), "ranked", summary.Total, "precise", precise)
	s.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindRankComplete,
		Comp:   "recommend",
		Count:  summary.Total,
		Status: string(snap.Status),
		Lat:    ref.Lat,
		Lon:    ref.Lon,
		Dur:    s.clock.Now().Sub(start),
		Extra:  map[string]any{"top_category": string(summary.TopCategory), "shown": len(ranked)},
	})

	return Result{
		Candidates:  ranked,
		Summary:     summary,
		Reference:   ref,
		Precise:     precise,
		Weather:     obs,
		Time:        tc,
		SyncStatus:  snap.Status,
		GeneratedAt: now,
	}, nil
}

// lookupWeather returns nil on any failure; ranking proceeds without weather.
func (s *Service) lookupWeather(ctx context.Context, p geo.Point) *weather.Observation {
	if s.weather == nil {
		return nil
	}
	obs, err := s.weather.Current(ctx, p)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn("weather unavailable", "component", "recommend", "error", err)
			s.events.Error(otel.KindWeatherError, "recommend", err)
		}
		return nil
	}
	s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindWeatherLookup, Comp: "recommend", Lat: p.Lat, Lon: p.Lon, Status: string(obs.Condition)})
	return obs
}
