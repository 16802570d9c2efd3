// Package geodiv computes geodiversity indices over an analytical grid.
//
// A run aggregates one thematic layer into the zones of a grid and writes
// one index value per zone back to an attribute table. Nine indices are
// supported across four input families: polygon layers (element count,
// category count, Shannon-Weaver diversity), line layers (total length),
// point layers (element count, category count, Shannon entropy of counts),
// and rasters (standard deviation, circular standard deviation of
// directional data, multi-scale relief).
//
// # Basic Usage
//
//	zones := gpkg.ZoneLayer(container, "grid_1km")
//	geology := gpkg.FeatureLayer(container, "geology", "lith_code")
//	writer := gpkg.Writer(container, "grid_1km")
//
//	summary, err := geodiv.Run(ctx, geodiv.RunRequest{
//	    Metric:   geodiv.MetricASHDI,
//	    Zones:    zones,
//	    Features: geology,
//	    Output:   writer,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("wrote %s for %d zones\n", summary.FieldName, summary.ZonesTotal)
//
// # Providers
//
// Inputs and outputs are interfaces. ZoneSource supplies grid polygons,
// FeatureSource streams vector features, RasterSource streams cell-center
// samples, and AttributeWriter commits per-zone values. The internal/gpkg
// and internal/pgdb packages implement them for SQLite containers and
// PostGIS-style databases; any in-memory implementation works the same
// way, which is how the package tests run without a container.
//
// # Zone Assignment
//
// Zones are loaded once into an in-memory catalog with an R-tree extent
// index; assignment never touches the source again. Points land in the
// zone containing them, boundary ties going to the lowest zone ID. Count
// and categorical metrics place a polygon or line wholly by its
// representative point; the extensive metrics (area-share diversity,
// total length) split each feature among zones by clipped area or length.
// Raster samples belong to the zone containing the cell center.
//
// # Results and Skips
//
// Every zone of the grid receives a value. Zones the layer never touched
// get the valid zero or the no-data sentinel, depending on the metric
// family. Features with missing or non-discrete categories, geometries
// outside the grid, degenerate geometries, and NoData cells are skipped
// and counted per reason in the run summary, never failing the run.
//
// # Field Naming
//
// Output fields derive from the layer name and the index: layer "geology"
// with Shannon-Weaver diversity yields GEO_SHDI. A rerun overwrites the
// same field in place rather than stacking duplicates. RunOptions can add
// a min-max standardized companion field on a 0 to 1 scale.
//
// # Batches
//
// RunBatch executes independent runs concurrently, and LoadBatchSpec
// reads a YAML description of a whole campaign:
//
//	spec, err := geodiv.LoadBatchSpec("sudetes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results, err := geodiv.RunBatch(ctx, requests, geodiv.BatchOptions{
//	    Workers: spec.Workers,
//	    Progress: func(done, total int) {
//	        fmt.Printf("\r%d/%d", done, total)
//	    },
//	})
//
// # Resource Handling
//
// A Workspace scopes temporary artifacts (temp tables, scratch files) to
// a run. Pass one in the request and the engine releases it on every exit
// path, success or failure; cleanup problems are reported in the summary
// without failing the run.
package geodiv
