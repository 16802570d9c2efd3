package geodiv

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
)

// Workspace owns the intermediate artifacts of one run: a scoped temp
// directory plus any provider-side resources (temp tables, cursors)
// registered for teardown.
//
// A workspace belongs to exactly one run. Release must run on every exit
// path, including external interruption; the runner defers it, and the
// CLI cancels the run context on signals so the deferred release still
// executes. Failure to remove an artifact is reported, never fatal, and
// must not leave the container locked for subsequent runs.
type Workspace struct {
	id  string
	dir string

	mu       sync.Mutex
	cleanups []cleanup
	released bool
}

type cleanup struct {
	name string
	fn   func() error
}

// NewScopedWorkspace creates a workspace under baseDir (the system temp
// directory when empty) with a unique run identifier.
func NewScopedWorkspace(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	id := uuid.New().String()[:8]
	dir := filepath.Join(baseDir, "geodiv-"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return &Workspace{id: id, dir: dir}, nil
}

// ID returns the unique run identifier, an 8-character hex string.
func (w *Workspace) ID() string {
	return w.id
}

// Dir returns the workspace's scratch directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// TempName returns a run-scoped name for a provider temp table, e.g.
// "run_3f2a9c1b_zonal".
func (w *Workspace) TempName(base string) string {
	return fmt.Sprintf("run_%s_%s", w.id, base)
}

// TempPath returns an absolute path inside the scratch directory.
func (w *Workspace) TempPath(name string) string {
	return filepath.Join(w.dir, name)
}

// OnRelease registers a teardown step, run in reverse registration order
// when the workspace is released. Steps registered after a Release are
// picked up by the next Release call.
func (w *Workspace) OnRelease(name string, fn func() error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cleanups = append(w.cleanups, cleanup{name: name, fn: fn})
}

// Release tears down all registered artifacts and removes the scratch
// directory. Safe to call more than once; later calls only process
// cleanups registered since the previous call.
//
// Returned errors are *ErrResourceCleanup values, one per artifact that
// could not be removed.
func (w *Workspace) Release() []error {
	w.mu.Lock()
	pending := w.cleanups
	w.cleanups = nil
	first := !w.released
	w.released = true
	w.mu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i].fn(); err != nil {
			errs = append(errs, &engine.ErrResourceCleanup{
				Artifact: pending[i].name,
				Err:      err,
			})
		}
	}
	if first {
		if err := os.RemoveAll(w.dir); err != nil {
			errs = append(errs, &engine.ErrResourceCleanup{
				Artifact: w.dir,
				Err:      err,
			})
		}
	}
	return errs
}
