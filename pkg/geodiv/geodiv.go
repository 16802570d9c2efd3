package geodiv

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
	"github.com/tomaszbartus/GeodiversityTools/pkg/logging"
	"github.com/tomaszbartus/GeodiversityTools/pkg/telemetry"
)

// Config carries the ambient dependencies of an Engine. The zero value
// is usable: a default logger and no telemetry.
type Config struct {
	// Logger receives structured run diagnostics. Nil selects the
	// package default (JSON to stderr at info level).
	Logger *logging.Logger

	// Telemetry receives Prometheus metrics about runs. Nil disables
	// metric collection.
	Telemetry *telemetry.Collector
}

// Engine executes metric runs. Create one with NewEngine and share it
// freely; an Engine holds no per-run state.
type Engine struct {
	log *logging.Logger
	tel *telemetry.Collector
}

// NewEngine creates an engine with the given ambient configuration.
func NewEngine(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Engine{log: log, tel: cfg.Telemetry}
}

var defaultEngine = NewEngine(Config{})

// RunRequest describes one metric run: the grid, the input layer, the
// output target, and metric options.
//
// Vector metrics (polygon, line, point families) read from Features;
// raster metrics read from Raster. Slope optionally feeds the R_SDc
// flat-terrain mask. FieldName overrides the derived output field name.
type RunRequest struct {
	Metric    Metric
	Zones     ZoneSource
	Features  FeatureSource
	Raster    RasterSource
	Slope     RasterSource
	Output    AttributeWriter
	FieldName string

	// Workspace, when set, is released when the run finishes on any
	// path. The run does not create one itself.
	Workspace *Workspace

	Options RunOptions
}

// Run executes a single metric run with the default engine.
//
// Example:
//
//	summary, err := geodiv.Run(ctx, geodiv.RunRequest{
//	    Metric: geodiv.MetricASHDI,
//	    Zones:  grid,
//	    Features: geology,
//	    Output:   writer,
//	})
func Run(ctx context.Context, req RunRequest) (*RunSummary, error) {
	return defaultEngine.Run(ctx, req)
}

// Run executes one (grid, layer, metric) triple to completion: validate,
// build the zone catalog, stream features into the accumulator, reduce,
// and commit the per-zone values to the attribute table.
//
// A run is single-threaded and owns its catalog and accumulator
// exclusively. Fatal errors return before any attribute-table mutation.
// Recoverable conditions (skipped features, sparse zones) are aggregated
// into the returned summary. The request's workspace, if any, is
// released on every exit path.
func (e *Engine) Run(ctx context.Context, req RunRequest) (summary *RunSummary, err error) {
	start := time.Now()
	code := req.Metric.String()
	log := e.log.WithFields(logging.Fields{"metric": code})

	if e.tel != nil {
		e.tel.ActiveRuns.Inc()
	}
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		if e.tel != nil {
			e.tel.ActiveRuns.Dec()
			e.tel.RecordRun(code, status)
			e.tel.RunDuration.WithLabelValues(code).Observe(time.Since(start).Seconds())
		}
	}()
	defer func() {
		if req.Workspace == nil {
			return
		}
		for _, cerr := range req.Workspace.Release() {
			log.Error("workspace release failed", nil, cerr)
			if e.tel != nil {
				e.tel.CleanupFailuresTotal.Inc()
			}
			if summary != nil {
				summary.CleanupErrors = append(summary.CleanupErrors, cerr)
			}
		}
	}()

	if err = validateRequest(req); err != nil {
		return nil, err
	}

	zones, err := req.Zones.Zones(ctx)
	if err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}

	buildStart := time.Now()
	catalog, err := engine.BuildZoneCatalog(convertZones(zones))
	if err != nil {
		return nil, err
	}
	if e.tel != nil {
		e.tel.CatalogBuildDuration.Observe(time.Since(buildStart).Seconds())
		e.tel.ZonesPerRun.Observe(float64(catalog.Len()))
	}
	log.Debug("zone catalog built", logging.Fields{"zones": catalog.Len()})

	layerExtent, layerName, err := sourceInfo(ctx, req)
	if err != nil {
		return nil, err
	}
	check, err := engine.ValidateExtents(catalog.Extent(), layerExtent)
	if err != nil {
		return nil, err
	}
	if check.PartialOverlap {
		log.Warn("layer covers the grid only partially; uncovered zones will carry no data",
			logging.Fields{"layer": layerName})
	}

	acc := engine.NewAccumulator(catalog, engine.AccumulatorConfig{
		Metric:         req.Metric,
		ReliefScales:   req.Options.ReliefScales,
		SlopeThreshold: req.Options.SlopeThreshold,
	})
	assigner := engine.NewAssigner(catalog, acc)

	if req.Metric.Kind() == KindRaster {
		if err = streamSamples(ctx, req.Raster, assigner); err != nil {
			return nil, fmt.Errorf("stream %s: %w", req.Raster.Name(), err)
		}
		// The slope stream annotates zones already holding aspect data,
		// so it must run after the main stream.
		if req.Metric == MetricRSDc && req.Slope != nil {
			if err = streamSlope(ctx, req.Slope, assigner); err != nil {
				return nil, fmt.Errorf("stream %s: %w", req.Slope.Name(), err)
			}
		}
	} else {
		if err = streamFeatures(ctx, req.Features, assigner); err != nil {
			return nil, fmt.Errorf("stream %s: %w", req.Features.Name(), err)
		}
	}

	skipped := assigner.Skipped()
	if e.tel != nil {
		e.tel.FeaturesProcessed.WithLabelValues(code).Add(float64(assigner.Routed()))
		e.tel.RecordSkip("category_domain", int(skipped.CategoryDomain))
		e.tel.RecordSkip("out_of_extent", int(skipped.OutOfExtent))
		e.tel.RecordSkip("degenerate", int(skipped.Degenerate))
		e.tel.RecordSkip("nodata", int(skipped.NoData))
	}
	if n := skipped.Total(); n > 0 {
		log.Warn("features skipped during aggregation", logging.Fields{
			"skipped":         n,
			"category_domain": skipped.CategoryDomain,
			"out_of_extent":   skipped.OutOfExtent,
			"degenerate":      skipped.Degenerate,
			"nodata":          skipped.NoData,
		})
	}

	results, sparse := acc.Reduce()
	if len(sparse) > 0 {
		if e.tel != nil {
			e.tel.SparseZonesTotal.WithLabelValues(code).Add(float64(len(sparse)))
		}
		for _, w := range sparse {
			log.Warn("zone below sample minimum, writing no-data",
				logging.Fields{"zone": w.ZoneID, "samples": w.Samples})
		}
	}

	desired := req.FieldName
	if desired == "" {
		desired = DeriveFieldName(layerName, req.Metric)
	}
	fieldName, err := e.writeField(ctx, req.Output, desired, results)
	if err != nil {
		return nil, err
	}

	stdField := ""
	if req.Options.Standardize {
		stdField, err = e.writeField(ctx, req.Output,
			standardizedName(layerName, req.FieldName, req.Metric), standardize(results))
		if err != nil {
			return nil, err
		}
	}

	summary = &RunSummary{
		Metric:            req.Metric,
		FieldName:         fieldName,
		StandardizedField: stdField,
		Results:           results,
		ZonesTotal:        catalog.Len(),
		ZonesWithData:     acc.ZonesSeen(),
		FeaturesRouted:    assigner.Routed(),
		Skipped:           skipped,
		SparseZones:       sparse,
		PartialOverlap:    check.PartialOverlap,
		Duration:          time.Since(start),
	}
	log.Info("run complete", logging.Fields{
		"field":       fieldName,
		"zones":       summary.ZonesTotal,
		"routed":      summary.FeaturesRouted,
		"skipped":     skipped.Total(),
		"duration_ms": summary.Duration.Milliseconds(),
	})
	return summary, nil
}

// validateRequest rejects unusable run setups before any work begins.
func validateRequest(req RunRequest) error {
	if req.Metric < MetricANe || req.Metric > MetricRM {
		return &engine.ErrConfiguration{Reason: fmt.Sprintf("unknown metric %v", req.Metric)}
	}
	if req.Zones == nil {
		return &engine.ErrConfiguration{Reason: "zone source is required"}
	}
	if req.Output == nil {
		return &engine.ErrConfiguration{Reason: "attribute writer is required"}
	}
	if req.Metric.Kind() == KindRaster {
		if req.Raster == nil {
			return &engine.ErrConfiguration{Reason: "raster source is required for " + req.Metric.String()}
		}
	} else if req.Features == nil {
		return &engine.ErrConfiguration{Reason: "feature source is required for " + req.Metric.String()}
	}
	if req.Slope != nil && req.Metric != MetricRSDc {
		return &engine.ErrConfiguration{Reason: "slope raster only applies to R_SDc"}
	}
	if req.Options.SlopeThreshold != nil && req.Slope == nil {
		return &engine.ErrConfiguration{Reason: "slope threshold requires a slope raster"}
	}
	if req.Options.ReliefScales < 0 || req.Options.ReliefScales > 8 {
		return &engine.ErrConfiguration{Reason: "relief scales must be between 1 and 8"}
	}
	return nil
}

// sourceInfo returns the input layer's extent and name for the metric's
// geometry kind.
func sourceInfo(ctx context.Context, req RunRequest) (Extent, string, error) {
	if req.Metric.Kind() == KindRaster {
		ext, err := req.Raster.Extent(ctx)
		if err != nil {
			return Extent{}, "", fmt.Errorf("read extent of %s: %w", req.Raster.Name(), err)
		}
		return ext, req.Raster.Name(), nil
	}
	ext, err := req.Features.Extent(ctx)
	if err != nil {
		return Extent{}, "", fmt.Errorf("read extent of %s: %w", req.Features.Name(), err)
	}
	return ext, req.Features.Name(), nil
}

// writeField resolves the output field name against the existing table
// columns and commits the values.
func (e *Engine) writeField(ctx context.Context, w AttributeWriter, desired string, values map[int64]Result) (string, error) {
	existing, err := w.Fields(ctx)
	if err != nil {
		return "", fmt.Errorf("list fields: %w", err)
	}
	name, overwrite, err := resolveFieldName(existing, desired)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if err := w.EnsureField(ctx, name); err != nil {
			if e.tel != nil {
				e.tel.RecordFieldWrite("failed")
			}
			return "", fmt.Errorf("ensure field %s: %w", name, err)
		}
	}
	if err := w.WriteValues(ctx, name, values); err != nil {
		if e.tel != nil {
			e.tel.RecordFieldWrite("failed")
		}
		return "", fmt.Errorf("write field %s: %w", name, err)
	}
	if e.tel != nil {
		status := "written"
		if overwrite {
			status = "overwritten"
		}
		e.tel.RecordFieldWrite(status)
	}
	return name, nil
}

// streamFeatures routes one pass of vector features into the assigner.
func streamFeatures(ctx context.Context, src FeatureSource, as *engine.Assigner) error {
	return src.Each(ctx, func(f Feature) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cat := engine.CategoryValue{Raw: f.Category, Present: f.Category != nil}
		switch f.Geometry.Type {
		case GeometryTypePoint:
			as.Point(pointOf(f.Geometry), cat)
		case GeometryTypeLine:
			as.Line(polylineOf(f.Geometry), cat)
		case GeometryTypePolygon:
			as.Polygon(polygonOf(f.Geometry), cat)
		default:
			// Unknown geometry types count as degenerate.
			as.Polygon(engine.Polygon{}, cat)
		}
		return nil
	})
}

// streamSamples routes one pass of raster samples into the assigner.
func streamSamples(ctx context.Context, src RasterSource, as *engine.Assigner) error {
	return src.Samples(ctx, func(s RasterSample) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		as.Sample(s.X, s.Y, s.Value, s.NoData)
		return nil
	})
}

// streamSlope routes slope samples for the R_SDc flat-terrain mask.
func streamSlope(ctx context.Context, src RasterSource, as *engine.Assigner) error {
	return src.Samples(ctx, func(s RasterSample) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		as.SlopeSample(s.X, s.Y, s.Value, s.NoData)
		return nil
	})
}

// convertZones maps public zone records into catalog zones.
func convertZones(zones []Zone) []engine.Zone {
	out := make([]engine.Zone, len(zones))
	for i, z := range zones {
		out[i] = engine.Zone{
			ID:       z.ID,
			Geometry: engine.Polygon{Outer: engine.NewRing(pointsOf(z.Boundary))},
			Extent:   z.Extent,
		}
	}
	return out
}

// pointsOf converts a coordinate list, keeping only X and Y. A malformed
// vertex poisons the geometry so the assigner drops it as degenerate.
func pointsOf(coords [][]float64) []engine.Point {
	pts := make([]engine.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return []engine.Point{{X: math.NaN(), Y: math.NaN()}}
		}
		pts = append(pts, engine.Point{X: c[0], Y: c[1]})
	}
	return pts
}

func pointOf(g Geometry) engine.Point {
	if len(g.Coordinates) == 0 || len(g.Coordinates[0]) < 2 {
		return engine.Point{X: math.NaN(), Y: math.NaN()}
	}
	return engine.Point{X: g.Coordinates[0][0], Y: g.Coordinates[0][1]}
}

func polylineOf(g Geometry) engine.Polyline {
	return engine.Polyline(pointsOf(g.Coordinates))
}

func polygonOf(g Geometry) engine.Polygon {
	p := engine.Polygon{Outer: engine.NewRing(pointsOf(g.Coordinates))}
	for _, h := range g.Holes {
		p.Holes = append(p.Holes, engine.NewRing(pointsOf(h)))
	}
	return p
}
