// Package weather maps weather observations to score adjustments and looks
// observations up from Open-Meteo.
package weather

import (
	"github.com/abelbrown/hotspot/internal/model"
)

// Condition is the coded weather vocabulary.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionRain         Condition = "rain"
	ConditionShowers      Condition = "showers"
	ConditionDrizzle      Condition = "drizzle"
	ConditionFog          Condition = "fog"
	ConditionSnow         Condition = "snow"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionUnknown      Condition = "unknown"
)

// Observation is the current weather at a coordinate.
type Observation struct {
	Temperature      float64 // °C
	Condition        Condition
	Description      string
	IsGoodForDriving bool
	WindSpeed        float64
	Precipitation    float64 // mm, zero when unreported
	Code             int     // WMO weather code
}

// Precipitating reports rain, showers, drizzle, or any measured precipitation.
func (o Observation) Precipitating() bool {
	switch o.Condition {
	case ConditionRain, ConditionShowers, ConditionDrizzle:
		return true
	}
	return o.Precipitation > 0
}

// hotDayC is the temperature above which air-conditioned places get a bonus.
const hotDayC = 32.0

// Modifier scores category c under obs. A nil observation is a no-op.
// The reason is empty when nothing should be surfaced.
func Modifier(obs *Observation, c model.Category) (score int, reason string) {
	if obs == nil {
		return 0, ""
	}

	switch {
	case obs.Precipitating() && c.IndoorFriendly():
		return 25, "indoor, suited to rain"
	case obs.Precipitating() && c.OutdoorPreferred():
		return -15, ""
	case obs.Precipitating():
		return 0, ""
	case obs.IsGoodForDriving && c.OutdoorPreferred():
		return 20, "good weather for outdoor"
	case obs.IsGoodForDriving:
		return 10, ""
	case obs.Temperature > hotDayC && c.IndoorFriendly():
		return 15, "hot day, prefer air-conditioned"
	default:
		return 0, ""
	}
}

// FromWMOCode interprets a WMO weather code the way the lookup service does.
func FromWMOCode(code int) (cond Condition, description string, goodForDriving bool) {
	switch {
	case code == 0:
		return ConditionClear, "Clear", true
	case code >= 1 && code <= 3:
		return ConditionClear, "Partly cloudy", true
	case code >= 45 && code <= 48:
		return ConditionFog, "Fog", false
	case code >= 51 && code <= 57:
		return ConditionDrizzle, "Drizzle", true
	case code >= 61 && code <= 67:
		return ConditionRain, "Rain", false
	case code >= 71 && code <= 77:
		return ConditionSnow, "Snow", false
	case code >= 80 && code <= 82:
		return ConditionShowers, "Heavy showers", false
	case code >= 95:
		return ConditionThunderstorm, "Thunderstorm", false
	default:
		return ConditionClear, "Clear", true
	}
}
