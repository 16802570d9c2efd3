package geodiv

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
	"github.com/tomaszbartus/GeodiversityTools/pkg/logging"
)

// BatchOptions controls parallel batch execution and error handling.
type BatchOptions struct {
	// Workers specifies the number of concurrent runs.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// ContinueOnError causes the batch to keep going when individual
	// runs fail. Failed runs carry their error in the batch results.
	// When false, the first error cancels the remaining runs.
	ContinueOnError bool

	// Progress is an optional callback for tracking batch progress.
	// Called after each run finishes (successfully or with error).
	Progress func(done, total int)
}

// DefaultBatchOptions returns batch options with sensible defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Workers:         runtime.NumCPU(),
		ContinueOnError: true,
	}
}

// BatchResult pairs one request with its outcome. Exactly one of
// Summary and Err is set once the run has been attempted.
type BatchResult struct {
	Index   int
	Summary *RunSummary
	Err     error
}

// RunBatch executes the requests with the default engine.
func RunBatch(ctx context.Context, reqs []RunRequest, opts BatchOptions) ([]BatchResult, error) {
	return defaultEngine.RunBatch(ctx, reqs, opts)
}

// RunBatch executes independent metric runs concurrently with a worker
// pool. Each run owns its catalog and accumulator; attribute-table
// commits are serialized across the batch so the container only ever
// sees one writer.
//
// Results are ordered by request index. With ContinueOnError the
// returned error is nil and per-run failures are reported in the
// results; otherwise the first failure cancels the outstanding runs
// and is returned after the pool drains.
func (e *Engine) RunBatch(ctx context.Context, reqs []RunRequest, opts BatchOptions) ([]BatchResult, error) {
	out := make([]BatchResult, len(reqs))
	for i := range out {
		out[i].Index = i
	}
	if len(reqs) == 0 {
		return out, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	e.log.Debug("batch started", logging.Fields{"runs": len(reqs), "workers": workers})

	var commitMu sync.Mutex
	jobs := make(chan int, len(reqs))
	results := make(chan BatchResult, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				if err := ctx.Err(); err != nil {
					results <- BatchResult{Index: index, Err: err}
					continue
				}
				req := reqs[index]
				if req.Output != nil {
					req.Output = &lockedWriter{mu: &commitMu, w: req.Output}
				}
				summary, err := e.Run(ctx, req)
				results <- BatchResult{Index: index, Summary: summary, Err: err}
			}
		}()
	}

	for i := range reqs {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	done := 0
	failed := 0
	for result := range results {
		done++
		out[result.Index] = result
		if result.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("run %d (%s): %w",
					result.Index, reqs[result.Index].Metric, result.Err)
				if !opts.ContinueOnError {
					cancel()
				}
			}
		}
		if opts.Progress != nil {
			opts.Progress(done, len(reqs))
		}
	}

	e.log.Info("batch complete", logging.Fields{
		"runs":        len(reqs),
		"failed":      failed,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if !opts.ContinueOnError && firstErr != nil {
		return out, firstErr
	}
	return out, nil
}

// lockedWriter serializes attribute-table access across concurrent
// runs. SQLite-backed containers tolerate only one writer at a time.
type lockedWriter struct {
	mu *sync.Mutex
	w  AttributeWriter
}

func (l *lockedWriter) Fields(ctx context.Context) ([]FieldInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Fields(ctx)
}

func (l *lockedWriter) EnsureField(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.EnsureField(ctx, name)
}

func (l *lockedWriter) WriteValues(ctx context.Context, field string, values map[int64]Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.WriteValues(ctx, field, values)
}

// BatchSpec is the YAML description of a batch: one container, one
// grid layer, and a list of runs.
//
// Example:
//
//	container: fieldwork/sudetes.gpkg
//	grid: grid_1km
//	workers: 4
//	continue_on_error: true
//	runs:
//	  - metric: A_SHDI
//	    layer: geology
//	    category_field: lith_code
//	    standardize: true
//	  - metric: R_M
//	    layer: dem
//	    relief_scales: 4
//	  - metric: R_SDc
//	    layer: aspect
//	    slope: slope
//	    slope_threshold: 5.0
type BatchSpec struct {
	Container       string     `yaml:"container"`
	Grid            string     `yaml:"grid"`
	Workers         int        `yaml:"workers"`
	ContinueOnError bool       `yaml:"continue_on_error"`
	Runs            []BatchRun `yaml:"runs"`
}

// BatchRun is one entry of a batch spec.
type BatchRun struct {
	Metric         string   `yaml:"metric"`
	Layer          string   `yaml:"layer"`
	CategoryField  string   `yaml:"category_field"`
	Slope          string   `yaml:"slope"`
	Field          string   `yaml:"field"`
	Standardize    bool     `yaml:"standardize"`
	ReliefScales   int      `yaml:"relief_scales"`
	SlopeThreshold *float64 `yaml:"slope_threshold"`
}

// Options maps the per-run knobs onto RunOptions.
func (r BatchRun) Options() RunOptions {
	return RunOptions{
		Standardize:    r.Standardize,
		ReliefScales:   r.ReliefScales,
		SlopeThreshold: r.SlopeThreshold,
	}
}

// LoadBatchSpec reads and validates a YAML batch spec.
func LoadBatchSpec(path string) (*BatchSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch spec: %w", err)
	}
	var spec BatchSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, &engine.ErrConfiguration{Reason: fmt.Sprintf("parse batch spec %s: %v", path, err)}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks the spec for problems that would fail every run
// anyway: unknown metrics, missing layers, mismatched options.
func (s *BatchSpec) Validate() error {
	if s.Container == "" {
		return &engine.ErrConfiguration{Reason: "batch spec: container is required"}
	}
	if s.Grid == "" {
		return &engine.ErrConfiguration{Reason: "batch spec: grid layer is required"}
	}
	if len(s.Runs) == 0 {
		return &engine.ErrConfiguration{Reason: "batch spec: at least one run is required"}
	}
	if s.Workers < 0 {
		return &engine.ErrConfiguration{Reason: "batch spec: workers must not be negative"}
	}
	seen := make(map[string]int, len(s.Runs))
	for i, r := range s.Runs {
		m, err := ParseMetric(r.Metric)
		if err != nil {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf("batch spec run %d: %v", i, err)}
		}
		if r.Layer == "" {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf("batch spec run %d: layer is required", i)}
		}
		if m.Categorical() && r.CategoryField == "" {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf(
				"batch spec run %d: %s needs a category_field", i, r.Metric)}
		}
		if r.Slope != "" && m != MetricRSDc {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf(
				"batch spec run %d: slope only applies to %s", i, MetricRSDc)}
		}
		if r.SlopeThreshold != nil && r.Slope == "" {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf(
				"batch spec run %d: slope_threshold needs a slope layer", i)}
		}
		if r.ReliefScales < 0 || r.ReliefScales > 8 {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf(
				"batch spec run %d: relief_scales must be between 1 and 8", i)}
		}
		// Two runs committing to the same field would race; derived
		// names are unique per (layer, metric) pair by construction.
		name := r.Field
		if name == "" {
			name = DeriveFieldName(r.Layer, m)
		}
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf(
				"batch spec runs %d and %d both write field %q", prev, i, name)}
		}
		seen[key] = i
	}
	return nil
}
