package engine

import (
	"fmt"
)

// ErrConfiguration indicates an invalid run configuration: empty zone
// set, missing required input, or an invalid metric/option combination.
// Fatal; surfaced before any work begins.
type ErrConfiguration struct {
	Reason string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// ErrInvalidCoordinate indicates a coordinate that is NaN or infinite.
type ErrInvalidCoordinate struct {
	X, Y float64
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: x=%f y=%f (coordinates must be finite)", e.X, e.Y)
}

// ErrSpatialMismatch indicates zero overlap between the grid extent and
// the feature layer extent. Fatal before any accumulation work.
type ErrSpatialMismatch struct {
	GridExtent  Extent
	LayerExtent Extent
}

func (e *ErrSpatialMismatch) Error() string {
	return fmt.Sprintf("layer extent [%g %g %g %g] shares no area with grid extent [%g %g %g %g]",
		e.LayerExtent.MinX, e.LayerExtent.MaxX, e.LayerExtent.MinY, e.LayerExtent.MaxY,
		e.GridExtent.MinX, e.GridExtent.MaxX, e.GridExtent.MinY, e.GridExtent.MaxY)
}

// ErrFormatRejected indicates input supplied in an unsupported container
// format. Fatal at validation time.
type ErrFormatRejected struct {
	Path   string
	Reason string
}

func (e *ErrFormatRejected) Error() string {
	return fmt.Sprintf("unsupported container format %s: %s", e.Path, e.Reason)
}

// ErrCategoryDomain indicates a feature carried a non-discrete or missing
// category value where a categorical metric requires one. Recoverable
// per-feature: the assigner skips and counts the feature.
type ErrCategoryDomain struct {
	Value  interface{}
	Reason string
}

func (e *ErrCategoryDomain) Error() string {
	return fmt.Sprintf("category value %v rejected: %s", e.Value, e.Reason)
}

// ErrZoneGeometry indicates a zone polygon the catalog cannot accept:
// degenerate, non-convex, or carrying holes.
type ErrZoneGeometry struct {
	ZoneID int64
	Reason string
}

func (e *ErrZoneGeometry) Error() string {
	return fmt.Sprintf("zone %d geometry rejected: %s", e.ZoneID, e.Reason)
}

// ErrDuplicateZoneID indicates the zone source delivered the same
// identifier twice.
type ErrDuplicateZoneID struct {
	ID int64
}

func (e *ErrDuplicateZoneID) Error() string {
	return fmt.Sprintf("duplicate zone identifier %d", e.ID)
}

// ErrResourceCleanup indicates an intermediate workspace artifact could
// not be removed. Logged and surfaced in the run summary; does not fail
// the run's primary result.
type ErrResourceCleanup struct {
	Artifact string
	Err      error
}

func (e *ErrResourceCleanup) Error() string {
	return fmt.Sprintf("cleanup of %s failed: %v", e.Artifact, e.Err)
}

func (e *ErrResourceCleanup) Unwrap() error {
	return e.Err
}
