package geodiv

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

// RunSummary reports the outcome of one run: the written field, per-zone
// values, and the recoverable conditions aggregated over the stream.
type RunSummary struct {
	// Metric is the family that was computed.
	Metric Metric

	// FieldName is the attribute field the values were written to, after
	// prefix derivation and collision handling.
	FieldName string

	// StandardizedField is the companion field name when the run was
	// configured with Standardize, empty otherwise.
	StandardizedField string

	// Results holds the computed value for every zone in the grid.
	Results map[int64]Result

	// ZonesTotal is the size of the analytical grid.
	ZonesTotal int

	// ZonesWithData is the number of zones that received at least one
	// contributing feature or sample.
	ZonesWithData int

	// FeaturesRouted is the number of features and samples that
	// contributed to at least one zone.
	FeaturesRouted int64

	// Skipped tallies the features excluded from aggregation, by reason.
	Skipped SkipCounts

	// SparseZones lists zones that carried data but fewer samples than
	// the metric's minimum; each received the no-data sentinel.
	SparseZones []SparseZoneWarning

	// PartialOverlap is set when the feature layer covered the grid only
	// partially.
	PartialOverlap bool

	// CleanupErrors lists workspace artifacts that could not be removed
	// on release. Never fatal to the run's result.
	CleanupErrors []error

	// Duration is the end-to-end run time.
	Duration time.Duration
}

// standardize rescales the valid values to [0, 1] by min-max over the
// zone set. Invalid results stay invalid; a constant field maps to 0.
func standardize(values map[int64]Result) map[int64]Result {
	valid := make([]float64, 0, len(values))
	for _, r := range values {
		if r.Valid {
			valid = append(valid, r.Value)
		}
	}

	out := make(map[int64]Result, len(values))
	if len(valid) == 0 {
		for id := range values {
			out[id] = Result{}
		}
		return out
	}

	min := floats.Min(valid)
	span := floats.Max(valid) - min
	for id, r := range values {
		if !r.Valid {
			out[id] = Result{}
			continue
		}
		if span == 0 {
			out[id] = Result{Value: 0, Valid: true}
			continue
		}
		out[id] = Result{Value: (r.Value - min) / span, Valid: true}
	}
	return out
}
