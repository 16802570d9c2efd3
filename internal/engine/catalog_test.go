package engine

import (
	"errors"
	"testing"
)

// gridZones builds a rows x cols grid of unit-square zones with
// identifiers assigned in row-major order starting at 1.
func gridZones(rows, cols int) []Zone {
	zones := make([]Zone, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			id := int64(r*cols + c + 1)
			zones = append(zones, Zone{
				ID:       id,
				Geometry: Polygon{Outer: square(float64(c), float64(r), 1)},
			})
		}
	}
	return zones
}

func TestBuildZoneCatalogRejectsEmptySet(t *testing.T) {
	_, err := BuildZoneCatalog(nil)
	var cfgErr *ErrConfiguration
	if !errors.As(err, &cfgErr) {
		t.Errorf("BuildZoneCatalog(nil) got %v, want ErrConfiguration", err)
	}
}

func TestBuildZoneCatalogRejectsDuplicateID(t *testing.T) {
	zones := []Zone{
		{ID: 7, Geometry: Polygon{Outer: square(0, 0, 1)}},
		{ID: 7, Geometry: Polygon{Outer: square(1, 0, 1)}},
	}
	_, err := BuildZoneCatalog(zones)
	var dupErr *ErrDuplicateZoneID
	if !errors.As(err, &dupErr) {
		t.Fatalf("BuildZoneCatalog() got %v, want ErrDuplicateZoneID", err)
	}
	if dupErr.ID != 7 {
		t.Errorf("duplicate ID got %d, want 7", dupErr.ID)
	}
}

func TestBuildZoneCatalogRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		geom Polygon
	}{
		{
			name: "concave outer ring",
			geom: Polygon{Outer: Ring{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}},
		},
		{
			name: "hole in zone",
			geom: Polygon{
				Outer: square(0, 0, 4),
				Holes: []Ring{square(1, 1, 1)},
			},
		},
		{
			name: "zero area",
			geom: Polygon{Outer: Ring{{0, 0}, {1, 1}, {2, 2}}},
		},
		{
			name: "too few vertices",
			geom: Polygon{Outer: Ring{{0, 0}, {1, 0}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildZoneCatalog([]Zone{{ID: 1, Geometry: tt.geom}})
			var geomErr *ErrZoneGeometry
			if !errors.As(err, &geomErr) {
				t.Errorf("BuildZoneCatalog() got %v, want ErrZoneGeometry", err)
			}
		})
	}
}

func TestZoneCatalogExtentFallback(t *testing.T) {
	c, err := BuildZoneCatalog([]Zone{
		{ID: 1, Geometry: Polygon{Outer: square(2, 3, 4)}},
	})
	if err != nil {
		t.Fatalf("BuildZoneCatalog() error: %v", err)
	}

	got := c.Zone(1).Extent
	want := Extent{MinX: 2, MaxX: 6, MinY: 3, MaxY: 7}
	if got != want {
		t.Errorf("zone extent got %+v, want %+v", got, want)
	}
	if c.Extent() != want {
		t.Errorf("catalog extent got %+v, want %+v", c.Extent(), want)
	}
}

func TestZoneCatalogIDsAreSorted(t *testing.T) {
	zones := []Zone{
		{ID: 30, Geometry: Polygon{Outer: square(0, 0, 1)}},
		{ID: 10, Geometry: Polygon{Outer: square(1, 0, 1)}},
		{ID: 20, Geometry: Polygon{Outer: square(2, 0, 1)}},
	}
	c, err := BuildZoneCatalog(zones)
	if err != nil {
		t.Fatalf("BuildZoneCatalog() error: %v", err)
	}

	got := c.IDs()
	want := []int64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("IDs() returned %d identifiers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs()[%d] got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestZoneCatalogCandidates(t *testing.T) {
	c, err := BuildZoneCatalog(gridZones(3, 3))
	if err != nil {
		t.Fatalf("BuildZoneCatalog() error: %v", err)
	}
	if c.Len() != 9 {
		t.Fatalf("Len() got %d, want 9", c.Len())
	}

	// Query overlapping the two westmost zones of the bottom row.
	query := Extent{MinX: 0.25, MaxX: 1.75, MinY: 0.25, MaxY: 0.75}
	ids := candidateIDs(c.Candidates(query))
	if len(ids) != 2 || !ids[1] || !ids[2] {
		t.Errorf("Candidates() got zones %v, want {1, 2}", keys(ids))
	}

	// Query far outside the grid.
	outside := Extent{MinX: 50, MaxX: 51, MinY: 50, MaxY: 51}
	if got := c.Candidates(outside); len(got) != 0 {
		t.Errorf("Candidates() outside grid got %d zones, want 0", len(got))
	}
}

func TestZoneCatalogCandidatesAtSharedCorner(t *testing.T) {
	c, err := BuildZoneCatalog(gridZones(3, 3))
	if err != nil {
		t.Fatalf("BuildZoneCatalog() error: %v", err)
	}

	// The interior corner (1, 1) touches zones 1, 2, 4 and 5.
	ids := candidateIDs(c.CandidatesAt(1, 1))
	for _, want := range []int64{1, 2, 4, 5} {
		if !ids[want] {
			t.Errorf("CandidatesAt(1, 1) missing zone %d, got %v", want, keys(ids))
		}
	}
	if len(ids) != 4 {
		t.Errorf("CandidatesAt(1, 1) got %d zones, want 4", len(ids))
	}

	// A zone-interior point yields exactly one candidate.
	ids = candidateIDs(c.CandidatesAt(2.5, 2.5))
	if len(ids) != 1 || !ids[9] {
		t.Errorf("CandidatesAt(2.5, 2.5) got %v, want {9}", keys(ids))
	}
}

func candidateIDs(zones []*Zone) map[int64]bool {
	ids := make(map[int64]bool, len(zones))
	for _, z := range zones {
		ids[z.ID] = true
	}
	return ids
}

func keys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
