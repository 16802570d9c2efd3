package engine

import (
	"errors"
	"math"
	"testing"
)

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0},
		{name: "negative", x: -180, y: -90},
		{name: "large projected", x: 5.4e6, y: 6.1e6},
		{name: "NaN x", x: math.NaN(), y: 0, wantErr: true},
		{name: "NaN y", x: 0, y: math.NaN(), wantErr: true},
		{name: "positive infinity", x: math.Inf(1), y: 0, wantErr: true},
		{name: "negative infinity", x: 0, y: math.Inf(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate(tt.x, tt.y)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinate(%v, %v) got %v, wantErr %v", tt.x, tt.y, err, tt.wantErr)
			}
		})
	}
}

func TestValidateExtents(t *testing.T) {
	grid := Extent{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}

	t.Run("layer covers grid", func(t *testing.T) {
		check, err := ValidateExtents(grid, Extent{MinX: -5, MaxX: 15, MinY: -5, MaxY: 15})
		if err != nil {
			t.Fatalf("ValidateExtents() error: %v", err)
		}
		if check.PartialOverlap {
			t.Error("PartialOverlap got true for covering layer, want false")
		}
	})

	t.Run("partial overlap flagged", func(t *testing.T) {
		check, err := ValidateExtents(grid, Extent{MinX: 5, MaxX: 15, MinY: 5, MaxY: 15})
		if err != nil {
			t.Fatalf("ValidateExtents() error: %v", err)
		}
		if !check.PartialOverlap {
			t.Error("PartialOverlap got false for partial layer, want true")
		}
	})

	t.Run("disjoint extents fail", func(t *testing.T) {
		_, err := ValidateExtents(grid, Extent{MinX: 50, MaxX: 60, MinY: 50, MaxY: 60})
		var mismatch *ErrSpatialMismatch
		if !errors.As(err, &mismatch) {
			t.Errorf("ValidateExtents() got %v, want ErrSpatialMismatch", err)
		}
	})

	t.Run("empty grid extent fails", func(t *testing.T) {
		_, err := ValidateExtents(Extent{}, grid)
		var cfgErr *ErrConfiguration
		if !errors.As(err, &cfgErr) {
			t.Errorf("ValidateExtents() got %v, want ErrConfiguration", err)
		}
	})

	t.Run("non-finite layer extent fails", func(t *testing.T) {
		_, err := ValidateExtents(grid, Extent{MinX: 0, MaxX: math.Inf(1), MinY: 0, MaxY: 1})
		var cfgErr *ErrConfiguration
		if !errors.As(err, &cfgErr) {
			t.Errorf("ValidateExtents() got %v, want ErrConfiguration", err)
		}
	})
}

func TestValidateZonePolygon(t *testing.T) {
	tests := []struct {
		name    string
		geom    Polygon
		wantErr bool
	}{
		{name: "square", geom: Polygon{Outer: square(0, 0, 1)}},
		{
			name: "hexagon",
			geom: Polygon{Outer: Ring{{2, 0}, {4, 1}, {4, 3}, {2, 4}, {0, 3}, {0, 1}}},
		},
		{name: "two vertices", geom: Polygon{Outer: Ring{{0, 0}, {1, 0}}}, wantErr: true},
		{
			name:    "concave",
			geom:    Polygon{Outer: Ring{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}},
			wantErr: true,
		},
		{
			name:    "holes",
			geom:    Polygon{Outer: square(0, 0, 4), Holes: []Ring{square(1, 1, 1)}},
			wantErr: true,
		},
		{name: "collinear zero area", geom: Polygon{Outer: Ring{{0, 0}, {1, 1}, {2, 2}}}, wantErr: true},
		{
			name:    "non-finite vertex",
			geom:    Polygon{Outer: Ring{{0, 0}, {1, 0}, {math.NaN(), 1}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateZonePolygon(1, tt.geom)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateZonePolygon() got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
