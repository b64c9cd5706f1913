// Package ranking scores points of interest against the driver's current
// context and returns an explainable, sorted recommendation list.
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/abelbrown/hotspot/internal/geo"
	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/timectx"
	"github.com/abelbrown/hotspot/internal/weather"
)

// DefaultMaxDistanceKm bounds candidates when the context leaves it unset.
const DefaultMaxDistanceKm = 5.0

// Context holds everything a ranker may look at besides the candidate.
type Context struct {
	Reference     geo.Point
	Precise       bool // Reference is a live device fix, not the fallback center
	Weather       *weather.Observation
	MaxDistanceKm float64

	DayType    timectx.DayType
	TimeOfDay  timectx.TimeOfDay
	IsRushHour bool
	Hour       int
	Minute     int
}

// NewContext builds a context from a reference point and a time snapshot.
func NewContext(ref geo.Point, precise bool, snap timectx.Snapshot, obs *weather.Observation) *Context {
	return &Context{
		Reference:     ref,
		Precise:       precise,
		Weather:       obs,
		MaxDistanceKm: DefaultMaxDistanceKm,
		DayType:       snap.DayType,
		TimeOfDay:     snap.TimeOfDay,
		IsRushHour:    snap.IsRushHour,
		Hour:          snap.Hour,
		Minute:        snap.Minute,
	}
}

// Engine sums ranker contributions into a score per candidate.
type Engine struct {
	rankers []Ranker
}

// NewEngine returns an engine with the given rankers, or DefaultRankers when none are passed.
func NewEngine(rankers ...Ranker) *Engine {
	if len(rankers) == 0 {
		rankers = DefaultRankers()
	}
	return &Engine{rankers: rankers}
}

// Rankers returns the engine's rankers in evaluation order.
func (e *Engine) Rankers() []Ranker {
	return append([]Ranker(nil), e.rankers...)
}

// Rank scores every candidate within the context's max distance and sorts by
// score descending, then distance ascending. Candidates with invalid
// coordinates are skipped; an invalid reference point yields an empty list.
// Input records are not modified.
func (e *Engine) Rank(points []model.PointOfInterest, ctx *Context) []model.ScoredCandidate {
	if ctx == nil || !ctx.Reference.Valid() || len(points) == 0 {
		return []model.ScoredCandidate{}
	}
	maxKm := ctx.MaxDistanceKm
	if maxKm <= 0 || math.IsNaN(maxKm) {
		maxKm = DefaultMaxDistanceKm
	}

	out := make([]model.ScoredCandidate, 0, len(points))
	for i := range points {
		poi := points[i]
		if !poi.Point().Valid() {
			continue
		}
		dist := geo.DistanceKm(ctx.Reference, poi.Point())
		if dist > maxKm {
			continue
		}
		out = append(out, e.score(poi, dist, ctx))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

func (e *Engine) score(poi model.PointOfInterest, dist float64, ctx *Context) model.ScoredCandidate {
	poi.PeakHours = append([]string(nil), poi.PeakHours...)
	sc := model.ScoredCandidate{
		PointOfInterest: poi,
		DistanceKm:      dist,
		Reasons:         []string{},
	}
	cand := &Candidate{POI: &sc.PointOfInterest, DistanceKm: dist}

	var total float64
	for _, r := range e.rankers {
		c := r.Score(cand, ctx)
		total += c.Points
		if c.Reason != "" {
			sc.Reasons = append(sc.Reasons, c.Reason)
		}
		bonus := math.Max(0, c.Points)
		switch c.Bonus {
		case BonusTime:
			sc.TimeBonus += bonus
		case BonusWeather:
			sc.WeatherBonus += bonus
		case BonusDayType:
			sc.DayTypeBonus += bonus
		}
		if _, ok := r.(*PeakNowRanker); ok && c.Points > 0 {
			sc.IsPeakNow = true
		}
	}
	sc.Score = math.Max(0, total)
	return sc
}

// Summary describes a ranked list for display.
type Summary struct {
	Total          int
	TopCategory    model.Category // empty when the list is empty
	TimeContext    string
	DayType        string
	WeatherContext string
}

// summaryWindow is how many leading candidates decide the top category.
const summaryWindow = 10

// Summarize reports the dominant category among the leading candidates along
// with human-readable time, day and weather context.
func Summarize(scored []model.ScoredCandidate, ctx *Context) Summary {
	s := Summary{Total: len(scored)}

	counts := make(map[model.Category]int)
	var order []model.Category
	for i, c := range scored {
		if i == summaryWindow {
			break
		}
		if counts[c.Category] == 0 {
			order = append(order, c.Category)
		}
		counts[c.Category]++
	}
	best := 0
	for _, cat := range order {
		if counts[cat] > best {
			best = counts[cat]
			s.TopCategory = cat
		}
	}

	if ctx == nil {
		s.WeatherContext = "weather unavailable"
		return s
	}

	bucket := string(ctx.TimeOfDay)
	if ctx.IsRushHour {
		s.TimeContext = "rush hour " + bucket
	} else if bucket != "" {
		s.TimeContext = strings.ToUpper(bucket[:1]) + bucket[1:]
	}

	if ctx.DayType == timectx.Weekend {
		s.DayType = "Weekend"
	} else {
		s.DayType = "Weekday"
	}

	switch {
	case ctx.Weather == nil:
		s.WeatherContext = "weather unavailable"
	case ctx.Weather.IsGoodForDriving:
		s.WeatherContext = ctx.Weather.Description + " - safe to drive"
	default:
		s.WeatherContext = ctx.Weather.Description + " - drive carefully"
	}
	return s
}
