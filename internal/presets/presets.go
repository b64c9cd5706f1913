// Package presets holds the curated hotspots bundled with the binary.
package presets

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/peak"
)

//go:embed catalog.yaml
var catalog []byte

type catalogFile struct {
	Version  int            `yaml:"version"`
	Hotspots []catalogEntry `yaml:"hotspots"`
}

type catalogEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Lat         float64  `yaml:"lat"`
	Lon         float64  `yaml:"lon"`
	Category    string   `yaml:"category"`
	PeakHours   []string `yaml:"peak_hours"`
	Safe        bool     `yaml:"safe"`
	Upvotes     int      `yaml:"upvotes"`
	Tips        string   `yaml:"tips"`
	Area        string   `yaml:"area"`
}

var (
	loadOnce sync.Once
	bundled  []model.PointOfInterest
)

// All returns the bundled presets, tagged preset and verified.
// It panics if the embedded catalog is malformed: that is a build defect.
func All() []model.PointOfInterest {
	loadOnce.Do(func() {
		points, err := Parse(catalog)
		if err != nil {
			panic(fmt.Sprintf("presets: embedded catalog: %v", err))
		}
		bundled = points
	})
	out := make([]model.PointOfInterest, len(bundled))
	for i, p := range bundled {
		out[i] = p.WithProvenance(model.ProvenancePreset)
	}
	return out
}

// Parse decodes a catalog. Unknown fields, unknown categories, bad
// coordinates, malformed peak windows, and duplicate ids are errors.
func Parse(data []byte) ([]model.PointOfInterest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Hotspots))
	points := make([]model.PointOfInterest, 0, len(f.Hotspots))
	for _, e := range f.Hotspots {
		cat, err := model.ParseCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", e.ID, err)
		}
		if err := peak.Validate(e.PeakHours); err != nil {
			return nil, fmt.Errorf("preset %s: %w", e.ID, err)
		}
		p := model.PointOfInterest{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Lat:         e.Lat,
			Lon:         e.Lon,
			Category:    cat,
			PeakHours:   e.PeakHours,
			IsSafeZone:  e.Safe,
			Verified:    true,
			Upvotes:     e.Upvotes,
			Tips:        e.Tips,
			Area:        e.Area,
			Provenance:  model.ProvenancePreset,
			Origin:      model.ProvenancePreset,
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("preset %s: duplicate id", p.ID)
		}
		seen[p.ID] = true
		points = append(points, p)
	}
	return points, nil
}
