package presets

import (
	"errors"
	"strings"
	"testing"

	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/peak"
)

func TestEmbeddedCatalogLoads(t *testing.T) {
	points := All()
	if len(points) == 0 {
		t.Fatal("expected bundled presets")
	}

	seen := make(map[string]bool)
	for _, p := range points {
		if p.Provenance != model.ProvenancePreset || !p.IsPreset() {
			t.Errorf("%s: provenance %q", p.ID, p.Provenance)
		}
		if !p.Verified {
			t.Errorf("%s: presets must be verified", p.ID)
		}
		if seen[p.ID] {
			t.Errorf("duplicate preset id %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestEmbeddedCatalogCoversEveryPatternedCategory(t *testing.T) {
	have := make(map[model.Category]bool)
	for _, p := range All() {
		have[p.Category] = true
	}
	for _, c := range model.Categories() {
		if _, ok := peak.PatternFor(c); ok && !have[c] {
			t.Errorf("no preset for category %s", c)
		}
	}
}

func TestAllReturnsIndependentCopies(t *testing.T) {
	a := All()
	a[0].Name = "mutated"
	if len(a[0].PeakHours) > 0 {
		a[0].PeakHours[0] = "00:00-00:01"
	}

	b := All()
	if b[0].Name == "mutated" {
		t.Error("All shares records between calls")
	}
	if len(b[0].PeakHours) > 0 && b[0].PeakHours[0] == "00:00-00:01" {
		t.Error("All shares peak hour slices between calls")
	}
}

func TestParseRejectsBadData(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown category",
			yaml: "hotspots:\n  - {id: a, name: A, lat: 1, lon: 1, category: bar}\n",
			want: "unknown category",
		},
		{
			name: "malformed window",
			yaml: "hotspots:\n  - {id: a, name: A, lat: 1, lon: 1, category: mall, peak_hours: [\"noon\"]}\n",
			want: "malformed peak window",
		},
		{
			name: "bad latitude",
			yaml: "hotspots:\n  - {id: a, name: A, lat: 91, lon: 1, category: mall}\n",
			want: "out of range",
		},
		{
			name: "duplicate id",
			yaml: "hotspots:\n  - {id: a, name: A, lat: 1, lon: 1, category: mall}\n  - {id: a, name: B, lat: 1, lon: 1, category: mall}\n",
			want: "duplicate id",
		},
		{
			name: "unknown field",
			yaml: "hotspots:\n  - {id: a, name: A, lat: 1, lon: 1, category: mall, rating: 5}\n",
			want: "rating",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseUnknownCategoryIsTyped(t *testing.T) {
	_, err := Parse([]byte("hotspots:\n  - {id: a, name: A, lat: 1, lon: 1, category: bar}\n"))
	if !errors.Is(err, model.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}
