// Package merge reconciles bundled presets, remote records, and cached records
// into one canonical set of points of interest.
package merge

import "github.com/abelbrown/hotspot/internal/model"

// Merge returns the canonical set for the current connectivity state.
//
// Offline with a non-empty cache: the cache alone, deduplicated by id with the
// first occurrence winning. It already holds presets and remote records from
// the last successful sync.
//
// Otherwise presets are inserted first, then remote records. A remote record
// never replaces an entry whose provenance is preset. Output order is presets
// in their given order followed by new remote ids in fetch order; callers that
// need a ranking must sort explicitly.
func Merge(presets, remote, cached []model.PointOfInterest, online bool) []model.PointOfInterest {
	if !online && len(cached) > 0 {
		return Dedup(cached)
	}

	byID := make(map[string]int, len(presets)+len(remote))
	out := make([]model.PointOfInterest, 0, len(presets)+len(remote))

	put := func(p model.PointOfInterest) {
		if i, ok := byID[p.ID]; ok {
			// Lower rank wins. Equal ranks let the later record replace the
			// earlier one, except that a preset is never replaced.
			if cur := out[i].Provenance; cur == model.ProvenancePreset || cur.Rank() < p.Provenance.Rank() {
				return
			}
			out[i] = p
			return
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}

	for _, p := range presets {
		put(p.WithProvenance(model.ProvenancePreset))
	}
	for _, r := range remote {
		put(r.WithProvenance(model.ProvenanceRemote))
	}
	return out
}

// Dedup drops later records whose id was already seen, preserving order.
func Dedup(points []model.PointOfInterest) []model.PointOfInterest {
	seen := make(map[string]struct{}, len(points))
	out := make([]model.PointOfInterest, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Counts splits a merged set into curated presets and community records.
// A cached record counts by the tier it had before it was cached.
func Counts(points []model.PointOfInterest) (presets, community int) {
	for _, p := range points {
		if p.IsPreset() {
			presets++
		} else {
			community++
		}
	}
	return presets, community
}

// ForCache tags the merged online set for persistence. Each record keeps its
// tier in Origin so the offline branch can still tell presets apart.
func ForCache(points []model.PointOfInterest) []model.PointOfInterest {
	out := make([]model.PointOfInterest, len(points))
	for i, p := range points {
		out[i] = p.WithProvenance(p.Provenance)
	}
	return out
}

// FromCache converts stored rows back to points tagged cached.
func FromCache(records []model.CacheRecord) []model.PointOfInterest {
	out := make([]model.PointOfInterest, len(records))
	for i, r := range records {
		out[i] = r.PointOfInterest.WithProvenance(model.ProvenanceCached)
	}
	return out
}
