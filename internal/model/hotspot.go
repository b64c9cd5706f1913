// Package model defines points of interest, their provenance, and scored results.
package model

import (
	"fmt"

	"github.com/abelbrown/hotspot/internal/geo"
)

// Provenance is the origin tier of a record.
type Provenance string

const (
	ProvenancePreset Provenance = "preset" // bundled, verified, immutable
	ProvenanceRemote Provenance = "remote" // fetched from the backing store
	ProvenanceCached Provenance = "cached" // read back from the local cache
)

// Rank orders provenance by precedence on id collision. Lower wins.
func (p Provenance) Rank() int {
	switch p {
	case ProvenancePreset:
		return 0
	case ProvenanceRemote:
		return 1
	case ProvenanceCached:
		return 2
	default:
		return 3
	}
}

// PointOfInterest is a hotspot. Treat values as immutable once fetched.
type PointOfInterest struct {
	ID          string
	Name        string
	Description string
	Lat         float64
	Lon         float64
	Category    Category
	PeakHours   []string // "HH:MM-HH:MM"
	IsSafeZone  bool
	Verified    bool
	Upvotes     int
	Tips        string
	Area        string
	Provenance  Provenance

	// Origin is the tier the record came from before it was cached.
	// Preserved through the cache so offline counts stay meaningful.
	Origin Provenance
}

// Point returns the record's coordinate.
func (p PointOfInterest) Point() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

// IsPreset reports whether the record is (or was cached from) a bundled preset.
func (p PointOfInterest) IsPreset() bool {
	return p.Provenance == ProvenancePreset || p.Origin == ProvenancePreset
}

// Validate checks the record's identity and coordinates.
func (p PointOfInterest) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("point of interest %q: empty id", p.Name)
	}
	if !p.Point().Valid() {
		return fmt.Errorf("point of interest %s: coordinate out of range (%f, %f)", p.ID, p.Lat, p.Lon)
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return fmt.Errorf("point of interest %s: %w", p.ID, err)
	}
	return nil
}

// WithProvenance returns a copy tagged with p. The previous tier is kept in Origin.
func (p PointOfInterest) WithProvenance(prov Provenance) PointOfInterest {
	if p.Origin == "" {
		p.Origin = p.Provenance
	}
	p.Provenance = prov
	if p.Origin == "" {
		p.Origin = prov
	}
	p.PeakHours = append([]string(nil), p.PeakHours...)
	return p
}

// CacheRecord is a point of interest plus the time it was written to durable storage.
type CacheRecord struct {
	PointOfInterest
	SyncedAt int64 // epoch milliseconds
}

// ScoredCandidate is a ranked point of interest with its explanation.
type ScoredCandidate struct {
	PointOfInterest
	Score        float64
	DistanceKm   float64
	Reasons      []string
	IsPeakNow    bool
	WeatherBonus float64
	TimeBonus    float64
	DayTypeBonus float64
}
