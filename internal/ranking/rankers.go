package ranking

import (
	"fmt"

	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/peak"
	"github.com/abelbrown/hotspot/internal/timectx"
	"github.com/abelbrown/hotspot/internal/weather"
)

// Bonus names the retained sub-score a contribution counts toward.
type Bonus int

const (
	BonusNone Bonus = iota
	BonusTime
	BonusWeather
	BonusDayType
)

// Contribution is one ranker's share of a candidate's score.
// Points may be negative; Reason is empty when nothing should be shown.
type Contribution struct {
	Points float64
	Reason string
	Bonus  Bonus
}

// Candidate is a point of interest with its distance from the reference point.
type Candidate struct {
	POI        *model.PointOfInterest
	DistanceKm float64
}

// Ranker scores one concern of a candidate.
type Ranker interface {
	Name() string
	Score(c *Candidate, ctx *Context) Contribution
}

// DistanceRanker awards points by distance tier.
type DistanceRanker struct {
	// Tiers are checked in order; the first with DistanceKm >= distance wins.
	Tiers []DistanceTier
	// VeryCloseKm is the distance under which "very close" is shown.
	VeryCloseKm float64
}

// DistanceTier maps an upper distance bound to points.
type DistanceTier struct {
	MaxKm  float64
	Points float64
}

func NewDistanceRanker() *DistanceRanker {
	return &DistanceRanker{
		Tiers: []DistanceTier{
			{MaxKm: 0.5, Points: 50},
			{MaxKm: 1, Points: 40},
			{MaxKm: 2, Points: 30},
			{MaxKm: 3, Points: 20},
			{MaxKm: 5, Points: 10},
		},
		VeryCloseKm: 1,
	}
}

func (r *DistanceRanker) Name() string { return "distance" }

func (r *DistanceRanker) Score(c *Candidate, ctx *Context) Contribution {
	var out Contribution
	for _, tier := range r.Tiers {
		if c.DistanceKm <= tier.MaxKm {
			out.Points = tier.Points
			break
		}
	}
	if c.DistanceKm <= r.VeryCloseKm {
		out.Reason = "very close"
	}
	return out
}

// PeakNowRanker rewards places whose own peak hours cover the current time.
type PeakNowRanker struct {
	Points float64
}

func NewPeakNowRanker() *PeakNowRanker { return &PeakNowRanker{Points: 30} }

func (r *PeakNowRanker) Name() string { return "peak_now" }

func (r *PeakNowRanker) Score(c *Candidate, ctx *Context) Contribution {
	if len(c.POI.PeakHours) == 0 || !peak.IsWithin(ctx.Hour, ctx.Minute, c.POI.PeakHours) {
		return Contribution{Bonus: BonusTime}
	}
	return Contribution{Points: r.Points, Reason: "currently busy", Bonus: BonusTime}
}

// CategoryTimeRanker applies the category demand profile for the day type.
// A category with no windows today is penalized; one inside its windows
// earns priority*3; commuter places earn a flat bonus during rush hour.
type CategoryTimeRanker struct {
	PriorityMultiplier float64
	RushHourBonus      float64
}

func NewCategoryTimeRanker() *CategoryTimeRanker {
	return &CategoryTimeRanker{PriorityMultiplier: 3, RushHourBonus: 15}
}

func (r *CategoryTimeRanker) Name() string { return "category_time" }

func (r *CategoryTimeRanker) Score(c *Candidate, ctx *Context) Contribution {
	pattern, ok := peak.PatternFor(c.POI.Category)
	if !ok {
		return Contribution{Bonus: BonusTime}
	}
	windows := pattern.Windows(ctx.DayType)
	switch {
	case len(windows) == 0:
		return Contribution{Points: peak.EmptyDayPenalty, Bonus: BonusTime}
	case peak.IsWithin(ctx.Hour, ctx.Minute, windows):
		return Contribution{
			Points: float64(pattern.Priority) * r.PriorityMultiplier,
			Reason: fmt.Sprintf("peak hours for %s", c.POI.Category),
			Bonus:  BonusTime,
		}
	case ctx.IsRushHour && c.POI.Category.Commuter():
		return Contribution{Points: r.RushHourBonus, Reason: "rush hour commute", Bonus: BonusTime}
	default:
		return Contribution{Bonus: BonusTime}
	}
}

// WeatherRanker applies the weather modifier.
type WeatherRanker struct{}

func NewWeatherRanker() *WeatherRanker { return &WeatherRanker{} }

func (r *WeatherRanker) Name() string { return "weather" }

func (r *WeatherRanker) Score(c *Candidate, ctx *Context) Contribution {
	points, reason := weather.Modifier(ctx.Weather, c.POI.Category)
	return Contribution{Points: float64(points), Reason: reason, Bonus: BonusWeather}
}

// DayTypeRanker favors leisure on weekends and work or study on weekdays.
type DayTypeRanker struct {
	WeekendLeisure float64
	WeekendWork    float64
	WeekdayWork    float64
}

func NewDayTypeRanker() *DayTypeRanker {
	return &DayTypeRanker{WeekendLeisure: 25, WeekendWork: -30, WeekdayWork: 20}
}

func (r *DayTypeRanker) Name() string { return "day_type" }

func (r *DayTypeRanker) Score(c *Candidate, ctx *Context) Contribution {
	cat := c.POI.Category
	if ctx.DayType == timectx.Weekend {
		switch {
		case cat.Leisure():
			return Contribution{Points: r.WeekendLeisure, Reason: "busy on weekends", Bonus: BonusDayType}
		case cat.WorkOrSchool():
			return Contribution{Points: r.WeekendWork, Bonus: BonusDayType}
		}
		return Contribution{Bonus: BonusDayType}
	}
	if cat.WorkOrEducation() {
		return Contribution{Points: r.WeekdayWork, Reason: "active weekday", Bonus: BonusDayType}
	}
	return Contribution{Bonus: BonusDayType}
}

// SafetyRanker rewards safe zones and flags the rest.
type SafetyRanker struct {
	Points float64
}

func NewSafetyRanker() *SafetyRanker { return &SafetyRanker{Points: 10} }

func (r *SafetyRanker) Name() string { return "safety" }

func (r *SafetyRanker) Score(c *Candidate, ctx *Context) Contribution {
	if c.POI.IsSafeZone {
		return Contribution{Points: r.Points}
	}
	return Contribution{Reason: "caution zone"}
}

// PrecisionRanker rewards every candidate when distances come from a live fix.
type PrecisionRanker struct {
	Points float64
}

func NewPrecisionRanker() *PrecisionRanker { return &PrecisionRanker{Points: 10} }

func (r *PrecisionRanker) Name() string { return "precision" }

func (r *PrecisionRanker) Score(c *Candidate, ctx *Context) Contribution {
	if ctx.Precise {
		return Contribution{Points: r.Points}
	}
	return Contribution{}
}

// ConstantRanker always returns the same contribution (useful for testing).
type ConstantRanker struct {
	Value Contribution
	Label string
}

func NewConstantRanker(points float64) *ConstantRanker {
	return &ConstantRanker{Value: Contribution{Points: points}, Label: "constant"}
}

func (r *ConstantRanker) Name() string { return r.Label }

func (r *ConstantRanker) Score(c *Candidate, ctx *Context) Contribution {
	return r.Value
}

// DefaultRankers returns the production ranker set in reason order.
func DefaultRankers() []Ranker {
	return []Ranker{
		NewDistanceRanker(),
		NewPeakNowRanker(),
		NewCategoryTimeRanker(),
		NewWeatherRanker(),
		NewDayTypeRanker(),
		NewSafetyRanker(),
		NewPrecisionRanker(),
	}
}
