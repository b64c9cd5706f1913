package peak

import (
	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/timectx"
)

// EmptyDayPenalty is applied when a category has no windows for the day type.
const EmptyDayPenalty = -20

// Pattern is the expected demand profile of a category.
type Pattern struct {
	Weekday  []string
	Weekend  []string
	Priority int
}

// Windows returns the windows for the given day type.
func (p Pattern) Windows(d timectx.DayType) []string {
	if d == timectx.Weekend {
		return p.Weekend
	}
	return p.Weekday
}

// PatternFor returns the demand profile of c. ok is false for categories with
// no time pattern; those contribute nothing to the score.
func PatternFor(c model.Category) (p Pattern, ok bool) {
	switch c {
	case model.CategoryCampus:
		return Pattern{
			Weekday:  []string{"07:00-09:00", "11:00-13:00", "16:00-18:00"},
			Weekend:  []string{"09:00-12:00"},
			Priority: 10,
		}, true
	case model.CategorySchool:
		return Pattern{
			Weekday:  []string{"06:00-07:30", "11:00-12:00", "14:00-16:00"},
			Weekend:  nil,
			Priority: 8,
		}, true
	case model.CategoryMall:
		return Pattern{
			Weekday:  []string{"11:00-14:00", "17:00-21:00"},
			Weekend:  []string{"10:00-22:00"},
			Priority: 9,
		}, true
	case model.CategoryFoodcourt:
		return Pattern{
			Weekday:  []string{"11:00-14:00", "18:00-21:00"},
			Weekend:  []string{"11:00-22:00"},
			Priority: 8,
		}, true
	case model.CategoryStation:
		return Pattern{
			Weekday:  []string{"05:00-08:00", "16:00-20:00"},
			Weekend:  []string{"07:00-20:00"},
			Priority: 10,
		}, true
	case model.CategoryHospital:
		return Pattern{
			Weekday:  []string{"07:00-12:00", "14:00-17:00"},
			Weekend:  []string{"08:00-12:00"},
			Priority: 7,
		}, true
	case model.CategoryOffice:
		return Pattern{
			Weekday:  []string{"07:00-09:00", "16:00-19:00"},
			Weekend:  nil,
			Priority: 8,
		}, true
	case model.CategoryTourism:
		return Pattern{
			Weekday:  []string{"09:00-17:00"},
			Weekend:  []string{"08:00-18:00"},
			Priority: 6,
		}, true
	case model.CategoryCaution, model.CategoryGeneral:
		return Pattern{}, false
	default:
		return Pattern{}, false
	}
}
