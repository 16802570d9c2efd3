package geodiv

import "context"

// ZoneSource enumerates the zones of the analytical grid.
//
// Implementations load from a GIS container (see internal/gpkg, internal/pgdb);
// tests inject in-memory fakes.
type ZoneSource interface {
	// Zones returns every zone record. Called once per run; the catalog
	// built from the result is read-only afterwards.
	Zones(ctx context.Context) ([]Zone, error)
}

// FeatureSource streams vector features for the polygon, line, and point
// metric families.
type FeatureSource interface {
	// Name returns the layer name, used to derive the output field prefix.
	Name() string

	// Extent returns the layer's bounding extent, computed from the data
	// rather than stored metadata.
	Extent(ctx context.Context) (Extent, error)

	// Each calls fn for every feature in the layer, in source order.
	// Iteration stops at the first error fn returns.
	Each(ctx context.Context, fn func(Feature) error) error
}

// RasterSource streams raster cell samples for the raster metric families.
type RasterSource interface {
	// Name returns the raster layer name.
	Name() string

	// Extent returns the raster's bounding extent.
	Extent(ctx context.Context) (Extent, error)

	// Samples calls fn for every cell sample, including NoData cells, in
	// source order. Iteration stops at the first error fn returns.
	Samples(ctx context.Context, fn func(RasterSample) error) error
}

// FieldInfo describes one existing column of the zone attribute table.
type FieldInfo struct {
	Name string

	// Numeric is true when the column can hold a float value. The field
	// writer overwrites numeric columns in place and sidesteps others
	// with a suffixed name.
	Numeric bool
}

// AttributeWriter mutates the zone attribute table. Implementations must
// tolerate WriteValues being called more than once for the same field
// (overwrite, not duplicate).
type AttributeWriter interface {
	// Fields lists the existing columns of the zone table.
	Fields(ctx context.Context) ([]FieldInfo, error)

	// EnsureField adds a numeric column of the given name if it does not
	// exist yet.
	EnsureField(ctx context.Context, name string) error

	// WriteValues persists one value per zone into the named column.
	// Results with Valid == false are written as NULL.
	WriteValues(ctx context.Context, field string, values map[int64]Result) error
}

// TempStore is the container-maintenance surface: compaction after
// temp-table churn. Implemented by the GeoPackage container.
type TempStore interface {
	// Compact reclaims space released by dropped temp tables.
	Compact(ctx context.Context) error
}
