package geodiv

import (
	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
)

// Error types returned by runs, re-exported so callers can match them
// with errors.As.
//
// Fatal errors (configuration, spatial mismatch, format rejection) abort
// a run before any attribute-table mutation. Recoverable conditions
// (category-domain skips, sparse zones, cleanup failures) are aggregated
// into the RunSummary instead of interrupting the stream.
type (
	// ErrConfiguration marks an unusable run setup: empty zone set,
	// missing required input, invalid metric/option combination.
	ErrConfiguration = engine.ErrConfiguration

	// ErrSpatialMismatch marks zero extent overlap between the grid and
	// the feature layer.
	ErrSpatialMismatch = engine.ErrSpatialMismatch

	// ErrFormatRejected marks an input container in an unsupported
	// format, such as a shapefile.
	ErrFormatRejected = engine.ErrFormatRejected

	// ErrCategoryDomain marks a non-discrete or missing category value
	// where a categorical metric requires one.
	ErrCategoryDomain = engine.ErrCategoryDomain

	// ErrZoneGeometry marks a zone polygon the catalog cannot index.
	ErrZoneGeometry = engine.ErrZoneGeometry

	// ErrDuplicateZoneID marks a zone identifier occurring twice.
	ErrDuplicateZoneID = engine.ErrDuplicateZoneID

	// ErrInvalidCoordinate marks a non-finite coordinate pair.
	ErrInvalidCoordinate = engine.ErrInvalidCoordinate

	// ErrResourceCleanup marks a workspace artifact that could not be
	// removed on release. Reported, never fatal to the run's result.
	ErrResourceCleanup = engine.ErrResourceCleanup
)
