package engine

import (
	"math"
)

// ValidateCoordinate validates a single planar coordinate pair.
// Coordinates must be finite; the engine imposes no range limits since
// map units are projection-dependent.
func ValidateCoordinate(x, y float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return &ErrInvalidCoordinate{X: x, Y: y}
	}
	return nil
}

// ValidateExtent checks that an extent is finite and well-formed.
func ValidateExtent(e Extent, what string) error {
	if err := ValidateCoordinate(e.MinX, e.MinY); err != nil {
		return &ErrConfiguration{Reason: what + " extent has non-finite coordinates"}
	}
	if err := ValidateCoordinate(e.MaxX, e.MaxY); err != nil {
		return &ErrConfiguration{Reason: what + " extent has non-finite coordinates"}
	}
	if e.IsEmpty() {
		return &ErrConfiguration{Reason: what + " extent is empty"}
	}
	return nil
}

// ExtentCheck is the outcome of extent validation between the grid and a
// feature layer.
type ExtentCheck struct {
	// PartialOverlap is set when the layer extent intersects but does not
	// cover the grid extent. Legitimate (grid larger than available
	// data) but worth a warning.
	PartialOverlap bool
}

// ValidateExtents confirms the feature layer's extent intersects the grid
// extent before any aggregation starts.
//
// Disjoint extents fail with ErrSpatialMismatch. A partial overlap
// passes with the PartialOverlap diagnostic set.
func ValidateExtents(grid, layer Extent) (ExtentCheck, error) {
	if err := ValidateExtent(grid, "grid"); err != nil {
		return ExtentCheck{}, err
	}
	if err := ValidateExtent(layer, "layer"); err != nil {
		return ExtentCheck{}, err
	}
	if !grid.Intersects(layer) {
		return ExtentCheck{}, &ErrSpatialMismatch{GridExtent: grid, LayerExtent: layer}
	}
	return ExtentCheck{PartialOverlap: !layer.ContainsExtent(grid)}, nil
}

// ValidateZonePolygon checks a zone polygon against the catalog's
// geometry requirements: at least three finite vertices, convex, no
// holes, nonzero area. Analytical grid cells (square or hexagonal) meet
// these; anything else cannot serve as a zone.
func ValidateZonePolygon(id int64, p Polygon) error {
	if len(p.Outer) < 3 {
		return &ErrZoneGeometry{ZoneID: id, Reason: "outer ring has fewer than 3 vertices"}
	}
	for _, v := range p.Outer {
		if err := ValidateCoordinate(v.X, v.Y); err != nil {
			return &ErrZoneGeometry{ZoneID: id, Reason: "outer ring has non-finite coordinates"}
		}
	}
	if len(p.Holes) > 0 {
		return &ErrZoneGeometry{ZoneID: id, Reason: "zone polygons must not carry holes"}
	}
	if p.Outer.Area() == 0 {
		return &ErrZoneGeometry{ZoneID: id, Reason: "zero area"}
	}
	if !p.Outer.IsConvex() {
		return &ErrZoneGeometry{ZoneID: id, Reason: "outer ring is not convex"}
	}
	return nil
}

// ValidateFeatureGeometry rejects non-finite feature coordinates. Empty
// geometries pass; the assigner drops them as degenerate.
func ValidateFeatureGeometry(pts []Point) error {
	for _, p := range pts {
		if err := ValidateCoordinate(p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}
