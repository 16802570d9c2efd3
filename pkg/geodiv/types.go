package geodiv

import (
	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
)

// Metric identifies one of the nine diversity-index families.
//
// The code names follow the published metric notation: an A_ prefix for
// polygon (area) inputs, L_ for lines, P_ for points, and R_ for rasters.
type Metric = engine.Metric

const (
	// MetricANe counts polygon landscape elements per zone.
	MetricANe = engine.MetricANe
	// MetricANc counts distinct polygon categories per zone.
	MetricANc = engine.MetricANc
	// MetricASHDI is the Shannon-Weaver diversity of polygon category
	// areas per zone.
	MetricASHDI = engine.MetricASHDI
	// MetricLTl sums line lengths per zone.
	MetricLTl = engine.MetricLTl
	// MetricPNe counts point elements per zone.
	MetricPNe = engine.MetricPNe
	// MetricPNc counts distinct point categories per zone.
	MetricPNc = engine.MetricPNc
	// MetricPHu is the Shannon entropy of point counts per category.
	MetricPHu = engine.MetricPHu
	// MetricRSD is the population standard deviation of raster values.
	MetricRSD = engine.MetricRSD
	// MetricRSDc is the circular standard deviation of directional
	// raster values such as aspect.
	MetricRSDc = engine.MetricRSDc
	// MetricRM is the multi-scale relief index over elevation rasters.
	MetricRM = engine.MetricRM
)

// InputKind describes the input geometry a metric consumes. Use
// Metric.Kind to pick the source to wire into a RunRequest.
type InputKind = engine.GeometryKind

const (
	KindPolygon = engine.KindPolygon
	KindLine    = engine.KindLine
	KindPoint   = engine.KindPoint
	KindRaster  = engine.KindRaster
)

// ParseMetric converts a metric code like "A_SHDI" into a Metric.
func ParseMetric(code string) (Metric, error) {
	return engine.ParseMetric(code)
}

// Metrics returns all metric families in declaration order.
func Metrics() []Metric {
	return engine.Metrics()
}

// Extent is an axis-aligned bounding rectangle in the planar coordinate
// reference shared by the grid and the feature layers.
type Extent = engine.Extent

// Result is the computed scalar for one zone. Valid == false marks the
// no-data sentinel, distinct from a computed zero; writers persist it as
// NULL.
type Result = engine.Result

// SparseZoneWarning records a zone that carried data but fewer samples
// than its metric's minimum.
type SparseZoneWarning = engine.SparseZoneWarning

// SkipCounts tallies features and samples excluded from aggregation, by
// reason.
type SkipCounts = engine.SkipCounts

// GeometryType represents the type of a feature geometry.
type GeometryType int

const (
	// GeometryTypePoint represents a single point location.
	GeometryTypePoint GeometryType = iota

	// GeometryTypeLine represents a line composed of connected points.
	GeometryTypeLine

	// GeometryTypePolygon represents a closed polygon area.
	GeometryTypePolygon
)

// String returns the string representation of the geometry type.
func (g GeometryType) String() string {
	switch g {
	case GeometryTypePoint:
		return "Point"
	case GeometryTypeLine:
		return "Line"
	case GeometryTypePolygon:
		return "Polygon"
	default:
		return "Unknown"
	}
}

// Geometry is the spatial representation of a feature.
//
// Coordinates are [x, y] pairs in the layer's coordinate reference. Any
// trailing ordinates (Z, M) a source carries are ignored on ingest, so
// everything downstream of a provider is strictly two-dimensional.
type Geometry struct {
	// Type indicates the geometry type.
	Type GeometryType

	// Coordinates contains the [x, y] vertex list: a single pair for a
	// point, the vertex chain for a line, the outer ring for a polygon.
	Coordinates [][]float64

	// Holes contains interior rings for polygons, if any.
	Holes [][][]float64
}

// Zone is one cell of the analytical grid.
//
// Zone geometry must be a convex ring without holes (square and hexagonal
// grid cells both qualify). Extent may be left zero; it is derived from
// the boundary when the catalog is built.
type Zone struct {
	ID       int64
	Boundary [][]float64
	Extent   Extent
}

// Feature is one input landscape element: a point, line, or polygon with
// an optional categorical attribute.
//
// Category carries the raw attribute value as read from the source; nil
// means the source row had no value. Categorical metrics require an
// integral code and count anything else as a category-domain skip.
type Feature struct {
	ID       int64
	Geometry Geometry
	Category interface{}
}

// RasterSample is one raster cell observation located at the cell center.
type RasterSample struct {
	X, Y  float64
	Value float64

	// NoData marks a cell without a value. NoData samples are skipped
	// before assignment and excluded from all statistics.
	NoData bool
}
