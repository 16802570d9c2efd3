package geodiv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunBatchExecutesAllRuns(t *testing.T) {
	grid := gridSource(1, 2, 10)
	writer := newFakeWriter(FieldInfo{Name: "fid", Numeric: true})

	reqs := []RunRequest{
		{
			Metric: MetricPNe,
			Zones:  grid,
			Features: &fakeFeatures{
				name:   "springs",
				extent: Extent{MinX: 0, MaxX: 20, MinY: 0, MaxY: 10},
				feats:  []Feature{{ID: 1, Geometry: point(5, 5)}},
			},
			Output: writer,
		},
		{
			Metric: MetricLTl,
			Zones:  grid,
			Features: &fakeFeatures{
				name:   "rivers",
				extent: Extent{MinX: 0, MaxX: 20, MinY: 0, MaxY: 10},
				feats:  []Feature{{ID: 1, Geometry: line([]float64{1, 5}, []float64{4, 5})}},
			},
			Output: writer,
		},
		{
			Metric: MetricASHDI,
			Zones:  grid,
			Features: &fakeFeatures{
				name:   "geology",
				extent: Extent{MinX: 0, MaxX: 20, MinY: 0, MaxY: 10},
				feats:  []Feature{{ID: 1, Geometry: square(1, 1, 2), Category: int64(4)}},
			},
			Output: writer,
		},
	}

	results, err := quiet().RunBatch(context.Background(), reqs, BatchOptions{Workers: 2})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d carries index %d", i, r.Index)
		}
		if r.Err != nil {
			t.Errorf("run %d failed: %v", i, r.Err)
		}
		if r.Summary == nil {
			t.Fatalf("run %d has no summary", i)
		}
		if r.Summary.Metric != reqs[i].Metric {
			t.Errorf("run %d summary metric %v, want %v", i, r.Summary.Metric, reqs[i].Metric)
		}
	}

	for _, field := range []string{"SPR_Ne", "RIV_Tl", "GEO_SHDI"} {
		if _, ok := writer.written[field]; !ok {
			t.Errorf("field %s never committed; wrote %v", field, writer.written)
		}
	}
}

func TestRunBatchContinueOnError(t *testing.T) {
	grid := gridSource(1, 1, 10)
	writer := newFakeWriter()
	good := func(name string) RunRequest {
		return RunRequest{
			Metric: MetricPNe,
			Zones:  grid,
			Features: &fakeFeatures{
				name:   name,
				extent: Extent{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
				feats:  []Feature{{ID: 1, Geometry: point(5, 5)}},
			},
			Output: writer,
		}
	}

	reqs := []RunRequest{
		good("springs"),
		{Metric: MetricPNe, Zones: grid, Output: writer}, // no feature source
		good("caves"),
	}

	results, err := quiet().RunBatch(context.Background(), reqs, BatchOptions{
		Workers:         1,
		ContinueOnError: true,
	})
	if err != nil {
		t.Fatalf("RunBatch with ContinueOnError: %v", err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy runs failed: %v, %v", results[0].Err, results[2].Err)
	}
	var cfgErr *ErrConfiguration
	if !errors.As(results[1].Err, &cfgErr) {
		t.Errorf("broken run returned %v, want ErrConfiguration", results[1].Err)
	}
}

func TestRunBatchStopsOnFirstError(t *testing.T) {
	grid := gridSource(1, 1, 10)
	writer := newFakeWriter()

	reqs := []RunRequest{
		{Metric: MetricPNe, Zones: grid, Output: writer}, // fails validation
		{
			Metric: MetricPNe,
			Zones:  grid,
			Features: &fakeFeatures{
				name:   "springs",
				extent: Extent{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
			},
			Output: writer,
		},
	}

	results, err := quiet().RunBatch(context.Background(), reqs, BatchOptions{
		Workers:         1,
		ContinueOnError: false,
	})
	if err == nil {
		t.Fatal("RunBatch swallowed the failure")
	}
	if !strings.Contains(err.Error(), "run 0") {
		t.Errorf("batch error %v does not name the failing run", err)
	}
	if results[0].Err == nil {
		t.Error("failing run carries no error in the results")
	}
}

func TestRunBatchEmpty(t *testing.T) {
	results, err := quiet().RunBatch(context.Background(), nil, DefaultBatchOptions())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for an empty batch", len(results))
	}
}

func TestRunBatchProgress(t *testing.T) {
	grid := gridSource(1, 1, 10)
	writer := newFakeWriter()
	var reqs []RunRequest
	for i := 0; i < 4; i++ {
		reqs = append(reqs, RunRequest{
			Metric: MetricPNe,
			Zones:  grid,
			Features: &fakeFeatures{
				name:   "springs",
				extent: Extent{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
			},
			Output: writer,
		})
	}

	var calls []int
	_, err := quiet().RunBatch(context.Background(), reqs, BatchOptions{
		Workers: 2,
		Progress: func(done, total int) {
			if total != 4 {
				t.Errorf("progress total = %d, want 4", total)
			}
			calls = append(calls, done)
		},
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(calls) != 4 {
		t.Fatalf("progress called %d times, want 4: %v", len(calls), calls)
	}
	for i, done := range calls {
		if done != i+1 {
			t.Errorf("progress call %d reported %d done", i, done)
		}
	}
}

func TestLoadBatchSpec(t *testing.T) {
	raw := `
container: fieldwork/sudetes.gpkg
grid: grid_1km
workers: 2
continue_on_error: true
runs:
  - metric: A_SHDI
    layer: geology
    category_field: lith_code
    standardize: true
  - metric: L_Tl
    layer: rivers
  - metric: R_SDc
    layer: aspect
    slope: slope
    slope_threshold: 5.0
  - metric: R_M
    layer: dem
    relief_scales: 4
`
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	spec, err := LoadBatchSpec(path)
	if err != nil {
		t.Fatalf("LoadBatchSpec: %v", err)
	}
	if spec.Container != "fieldwork/sudetes.gpkg" || spec.Grid != "grid_1km" {
		t.Errorf("container/grid = %q/%q", spec.Container, spec.Grid)
	}
	if spec.Workers != 2 || !spec.ContinueOnError {
		t.Errorf("workers/continue = %d/%v", spec.Workers, spec.ContinueOnError)
	}
	if len(spec.Runs) != 4 {
		t.Fatalf("got %d runs, want 4", len(spec.Runs))
	}
	if spec.Runs[0].CategoryField != "lith_code" || !spec.Runs[0].Standardize {
		t.Errorf("run 0 = %+v", spec.Runs[0])
	}
	if spec.Runs[2].Slope != "slope" || spec.Runs[2].SlopeThreshold == nil || *spec.Runs[2].SlopeThreshold != 5.0 {
		t.Errorf("run 2 = %+v", spec.Runs[2])
	}
	if opts := spec.Runs[3].Options(); opts.ReliefScales != 4 {
		t.Errorf("run 3 options = %+v", opts)
	}
}

func TestLoadBatchSpecMissingFile(t *testing.T) {
	_, err := LoadBatchSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadBatchSpec succeeded on a missing file")
	}
}

func TestBatchSpecValidate(t *testing.T) {
	goodRun := BatchRun{Metric: "P_Ne", Layer: "springs"}
	base := func() *BatchSpec {
		return &BatchSpec{Container: "c.gpkg", Grid: "grid", Runs: []BatchRun{goodRun}}
	}

	t.Run("valid spec", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*BatchSpec)
	}{
		{"missing container", func(s *BatchSpec) { s.Container = "" }},
		{"missing grid", func(s *BatchSpec) { s.Grid = "" }},
		{"no runs", func(s *BatchSpec) { s.Runs = nil }},
		{"negative workers", func(s *BatchSpec) { s.Workers = -1 }},
		{"unknown metric", func(s *BatchSpec) { s.Runs[0].Metric = "X_Q" }},
		{"missing layer", func(s *BatchSpec) { s.Runs[0].Layer = "" }},
		{"categorical without category field", func(s *BatchSpec) {
			s.Runs[0] = BatchRun{Metric: "A_SHDI", Layer: "geology"}
		}},
		{"slope on a non-directional metric", func(s *BatchSpec) {
			s.Runs[0] = BatchRun{Metric: "R_SD", Layer: "dem", Slope: "slope"}
		}},
		{"threshold without slope", func(s *BatchSpec) {
			v := 5.0
			s.Runs[0] = BatchRun{Metric: "R_SDc", Layer: "aspect", SlopeThreshold: &v}
		}},
		{"relief scales out of range", func(s *BatchSpec) {
			s.Runs[0] = BatchRun{Metric: "R_M", Layer: "dem", ReliefScales: 9}
		}},
		{"two runs writing one field", func(s *BatchSpec) {
			s.Runs = []BatchRun{goodRun, goodRun}
		}},
		{"explicit field shadowing a derived one", func(s *BatchSpec) {
			s.Runs = []BatchRun{goodRun, {Metric: "L_Tl", Layer: "rivers", Field: "spr_ne"}}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec := base()
			tc.mutate(spec)
			err := spec.Validate()
			var cfgErr *ErrConfiguration
			if !errors.As(err, &cfgErr) {
				t.Errorf("Validate returned %v, want ErrConfiguration", err)
			}
		})
	}
}
