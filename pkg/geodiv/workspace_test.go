package geodiv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewScopedWorkspace(t *testing.T) {
	ws, err := NewScopedWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewScopedWorkspace: %v", err)
	}
	defer ws.Release()

	if len(ws.ID()) != 8 {
		t.Errorf("workspace id %q, want 8 characters", ws.ID())
	}
	info, err := os.Stat(ws.Dir())
	if err != nil {
		t.Fatalf("workspace dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("workspace path %s is not a directory", ws.Dir())
	}
	if base := filepath.Base(ws.Dir()); base != "geodiv-"+ws.ID() {
		t.Errorf("workspace dir basename = %q, want geodiv-%s", base, ws.ID())
	}
}

func TestWorkspaceIDsAreUnique(t *testing.T) {
	base := t.TempDir()
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		ws, err := NewScopedWorkspace(base)
		if err != nil {
			t.Fatalf("NewScopedWorkspace: %v", err)
		}
		if seen[ws.ID()] {
			t.Fatalf("duplicate workspace id %q", ws.ID())
		}
		seen[ws.ID()] = true
		ws.Release()
	}
}

func TestWorkspaceTempNaming(t *testing.T) {
	ws, err := NewScopedWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewScopedWorkspace: %v", err)
	}
	defer ws.Release()

	name := ws.TempName("zonal_join")
	want := fmt.Sprintf("run_%s_zonal_join", ws.ID())
	if name != want {
		t.Errorf("TempName = %q, want %q", name, want)
	}
	if got := ws.TempPath("scratch.bin"); got != filepath.Join(ws.Dir(), "scratch.bin") {
		t.Errorf("TempPath = %q, want inside %s", got, ws.Dir())
	}
}

func TestWorkspaceReleaseRemovesDir(t *testing.T) {
	ws, err := NewScopedWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewScopedWorkspace: %v", err)
	}
	if err := os.WriteFile(ws.TempPath("scratch.bin"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write scratch file: %v", err)
	}

	if errs := ws.Release(); len(errs) != 0 {
		t.Fatalf("Release returned errors: %v", errs)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace dir still present after release: %v", err)
	}
}

func TestWorkspaceReleaseRunsCleanupsInReverse(t *testing.T) {
	ws, err := NewScopedWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewScopedWorkspace: %v", err)
	}

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		ws.OnRelease(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	if errs := ws.Release(); len(errs) != 0 {
		t.Fatalf("Release returned errors: %v", errs)
	}
	if got := strings.Join(order, ","); got != "third,second,first" {
		t.Errorf("cleanup order = %s, want third,second,first", got)
	}
}

func TestWorkspaceReleaseCollectsFailures(t *testing.T) {
	ws, err := NewScopedWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewScopedWorkspace: %v", err)
	}

	boom := errors.New("table is locked")
	ran := false
	ws.OnRelease("temp table run_x_join", func() error { return boom })
	ws.OnRelease("close cursor", func() error { ran = true; return nil })

	errs := ws.Release()
	if !ran {
		t.Fatal("a failing cleanup stopped the remaining cleanups")
	}
	if len(errs) != 1 {
		t.Fatalf("Release returned %d errors, want 1: %v", len(errs), errs)
	}
	var cleanupErr *ErrResourceCleanup
	if !errors.As(errs[0], &cleanupErr) {
		t.Fatalf("release error %v, want ErrResourceCleanup", errs[0])
	}
	if cleanupErr.Artifact != "temp table run_x_join" {
		t.Errorf("cleanup artifact = %q", cleanupErr.Artifact)
	}
	if !errors.Is(errs[0], boom) {
		t.Errorf("cleanup error does not wrap the cause: %v", errs[0])
	}
}

func TestWorkspaceReleaseIdempotent(t *testing.T) {
	ws, err := NewScopedWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewScopedWorkspace: %v", err)
	}

	calls := 0
	ws.OnRelease("count", func() error { calls++; return nil })

	if errs := ws.Release(); len(errs) != 0 {
		t.Fatalf("first Release: %v", errs)
	}
	if errs := ws.Release(); len(errs) != 0 {
		t.Fatalf("second Release: %v", errs)
	}
	if calls != 1 {
		t.Errorf("cleanup ran %d times, want 1", calls)
	}
}
