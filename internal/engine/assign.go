package engine

import (
	"math"
)

// CategoryValue carries the raw categorical attribute as read from the
// source, before domain validation. Present is false when the source row
// had no value (NULL).
type CategoryValue struct {
	Raw     interface{}
	Present bool
}

// decodeCategory coerces a raw attribute into a category code. Category
// codes are opaque discrete labels; the domain is data-defined, but the
// codes themselves must be integral.
func decodeCategory(v CategoryValue) (int64, error) {
	if !v.Present || v.Raw == nil {
		return 0, &ErrCategoryDomain{Value: v.Raw, Reason: "missing category value"}
	}
	switch raw := v.Raw.(type) {
	case int64:
		return raw, nil
	case int:
		return int64(raw), nil
	case int32:
		return int64(raw), nil
	case int16:
		return int64(raw), nil
	case float64:
		if raw != math.Trunc(raw) || math.IsNaN(raw) || math.IsInf(raw, 0) {
			return 0, &ErrCategoryDomain{Value: raw, Reason: "category value is not integral"}
		}
		return int64(raw), nil
	case float32:
		f := float64(raw)
		if f != math.Trunc(f) {
			return 0, &ErrCategoryDomain{Value: raw, Reason: "category value is not integral"}
		}
		return int64(f), nil
	}
	return 0, &ErrCategoryDomain{Value: v.Raw, Reason: "category value is not a discrete code"}
}

// SkipCounts tallies features and samples excluded from aggregation,
// by reason. Reported once in the run summary rather than interrupting
// the stream.
type SkipCounts struct {
	CategoryDomain int64 // missing or non-discrete category value
	OutOfExtent    int64 // no zone claims the feature
	Degenerate     int64 // empty or zero-measure geometry
	NoData         int64 // raster NoData cells
}

// Total returns the sum of all skip reasons.
func (s SkipCounts) Total() int64 {
	return s.CategoryDomain + s.OutOfExtent + s.Degenerate + s.NoData
}

// Assigner routes features and raster samples into the accumulator
// entries of the zones that own them.
//
// Assignment rules: point features and raster cell centers belong to
// exactly one zone; count and categorical metrics assign whole line and
// polygon features by representative point (centroid for polygons,
// half-length midpoint for lines); extensive metrics (area, length)
// assign proportionally by clipped overlap. A feature whose owning zone
// cannot be determined is dropped and counted, never invented a zone.
type Assigner struct {
	catalog *ZoneCatalog
	acc     *Accumulator
	metric  Metric
	skipped SkipCounts
	routed  int64
}

// NewAssigner creates an assigner feeding the given accumulator.
func NewAssigner(catalog *ZoneCatalog, acc *Accumulator) *Assigner {
	return &Assigner{
		catalog: catalog,
		acc:     acc,
		metric:  acc.cfg.Metric,
	}
}

// Skipped returns the accumulated skip tallies.
func (as *Assigner) Skipped() SkipCounts {
	return as.skipped
}

// Routed returns the number of features and samples that contributed to
// at least one zone.
func (as *Assigner) Routed() int64 {
	return as.routed
}

// zoneAt returns the zone owning the point, or nil. When a boundary
// point is claimed by more than one zone, the lowest zone identifier
// wins; the choice is deterministic and pinned by tests.
func (as *Assigner) zoneAt(x, y float64) *Zone {
	var best *Zone
	for _, z := range as.catalog.CandidatesAt(x, y) {
		if !z.Geometry.Contains(x, y) {
			continue
		}
		if best == nil || z.ID < best.ID {
			best = z
		}
	}
	return best
}

// Point routes one point feature.
func (as *Assigner) Point(p Point, cat CategoryValue) {
	if ValidateCoordinate(p.X, p.Y) != nil {
		as.skipped.Degenerate++
		return
	}
	zone := as.zoneAt(p.X, p.Y)
	if zone == nil {
		as.skipped.OutOfExtent++
		return
	}
	switch as.metric {
	case MetricPNe:
		as.acc.AddCount(zone.ID)
	case MetricPNc:
		code, ok := as.category(cat)
		if !ok {
			return
		}
		as.acc.AddCategory(zone.ID, code)
	case MetricPHu:
		code, ok := as.category(cat)
		if !ok {
			return
		}
		as.acc.AddCategoryCount(zone.ID, code)
	default:
		as.skipped.Degenerate++
		return
	}
	as.routed++
}

// Line routes one polyline feature. L_Tl distributes length
// proportionally across every zone the line crosses.
func (as *Assigner) Line(l Polyline, cat CategoryValue) {
	_ = cat
	if len(l) < 2 || ValidateFeatureGeometry(l) != nil || l.Length() == 0 {
		as.skipped.Degenerate++
		return
	}
	if as.metric != MetricLTl {
		as.skipped.Degenerate++
		return
	}

	contributed := false
	for _, z := range as.catalog.Candidates(l.Extent()) {
		if length := overlapLength(l, z.clipRing); length > 0 {
			as.acc.AddLength(z.ID, length)
			contributed = true
		}
	}
	if !contributed {
		as.skipped.OutOfExtent++
		return
	}
	as.routed++
}

// Polygon routes one polygon feature. A_Ne and A_Nc assign the whole
// feature to the zone containing its centroid; A_SHDI distributes
// category area proportionally by clipped overlap.
func (as *Assigner) Polygon(pg Polygon, cat CategoryValue) {
	if len(pg.Outer) < 3 || ValidateFeatureGeometry(pg.Outer) != nil || pg.Area() == 0 {
		as.skipped.Degenerate++
		return
	}

	switch as.metric {
	case MetricANe, MetricANc:
		c := pg.Centroid()
		zone := as.zoneAt(c.X, c.Y)
		if zone == nil {
			as.skipped.OutOfExtent++
			return
		}
		if as.metric == MetricANe {
			as.acc.AddCount(zone.ID)
		} else {
			code, ok := as.category(cat)
			if !ok {
				return
			}
			as.acc.AddCategory(zone.ID, code)
		}
		as.routed++

	case MetricASHDI:
		code, ok := as.category(cat)
		if !ok {
			return
		}
		contributed := false
		for _, z := range as.catalog.Candidates(pg.Extent()) {
			if area := overlapArea(pg, z.clipRing); area > 0 {
				as.acc.AddCategoryArea(z.ID, code, area)
				contributed = true
			}
		}
		if !contributed {
			as.skipped.OutOfExtent++
			return
		}
		as.routed++

	default:
		as.skipped.Degenerate++
	}
}

// Sample routes one raster sample by its cell center. NoData cells are
// skipped before assignment and excluded from all statistics.
func (as *Assigner) Sample(x, y, value float64, noData bool) {
	if noData {
		as.skipped.NoData++
		return
	}
	if ValidateCoordinate(x, y) != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		as.skipped.Degenerate++
		return
	}
	zone := as.zoneAt(x, y)
	if zone == nil {
		as.skipped.OutOfExtent++
		return
	}
	switch as.metric {
	case MetricRSD:
		as.acc.AddValue(zone.ID, value)
	case MetricRSDc:
		as.acc.AddAngle(zone.ID, value)
	case MetricRM:
		as.acc.AddElevation(zone.ID, x, y, value)
	default:
		as.skipped.Degenerate++
		return
	}
	as.routed++
}

// SlopeSample routes one slope sample for the R_SDc slope mask. Run the
// aspect stream first; slope samples only annotate zones that already
// carry directional data.
func (as *Assigner) SlopeSample(x, y, value float64, noData bool) {
	if noData {
		as.skipped.NoData++
		return
	}
	if ValidateCoordinate(x, y) != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		as.skipped.Degenerate++
		return
	}
	zone := as.zoneAt(x, y)
	if zone == nil {
		as.skipped.OutOfExtent++
		return
	}
	as.acc.AddSlope(zone.ID, value)
}

// category decodes a categorical attribute, counting domain failures.
func (as *Assigner) category(cat CategoryValue) (int64, bool) {
	code, err := decodeCategory(cat)
	if err != nil {
		as.skipped.CategoryDomain++
		return 0, false
	}
	return code, true
}
