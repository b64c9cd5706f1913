package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category string is not in the closed set.
var ErrUnknownCategory = errors.New("unknown category")

// Category is the closed set of point-of-interest kinds.
type Category string

const (
	CategoryCampus    Category = "campus"
	CategorySchool    Category = "school"
	CategoryMall      Category = "mall"
	CategoryFoodcourt Category = "foodcourt"
	CategoryStation   Category = "station"
	CategoryHospital  Category = "hospital"
	CategoryOffice    Category = "office"
	CategoryTourism   Category = "tourism"
	CategoryCaution   Category = "caution"
	CategoryGeneral   Category = "general"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryCampus,
		CategorySchool,
		CategoryMall,
		CategoryFoodcourt,
		CategoryStation,
		CategoryHospital,
		CategoryOffice,
		CategoryTourism,
		CategoryCaution,
		CategoryGeneral,
	}
}

// ParseCategory validates s against the closed set. Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// MustCategory is ParseCategory for compiled-in data. It panics on unknown input.
func MustCategory(s string) Category {
	c, err := ParseCategory(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IndoorFriendly reports whether the place is covered or air-conditioned.
func (c Category) IndoorFriendly() bool {
	switch c {
	case CategoryMall, CategoryHospital, CategoryStation, CategoryOffice:
		return true
	default:
		return false
	}
}

// OutdoorPreferred reports whether the place does best in good weather.
func (c Category) OutdoorPreferred() bool {
	switch c {
	case CategoryTourism, CategoryFoodcourt, CategoryCampus, CategorySchool:
		return true
	default:
		return false
	}
}

// Leisure covers retail, food and tourism: busier on weekends.
func (c Category) Leisure() bool {
	switch c {
	case CategoryMall, CategoryTourism, CategoryFoodcourt:
		return true
	default:
		return false
	}
}

// WorkOrSchool covers places that empty out on weekends.
func (c Category) WorkOrSchool() bool {
	switch c {
	case CategorySchool, CategoryOffice:
		return true
	default:
		return false
	}
}

// WorkOrEducation covers places that are busier on weekdays.
func (c Category) WorkOrEducation() bool {
	switch c {
	case CategoryCampus, CategorySchool, CategoryOffice:
		return true
	default:
		return false
	}
}

// Commuter covers places that fill up during rush hour.
func (c Category) Commuter() bool {
	switch c {
	case CategoryStation, CategoryOffice, CategoryCampus:
		return true
	default:
		return false
	}
}
