package engine

import (
	"math"
	"testing"
)

const delta = 1e-9

func almost(a, b float64) bool {
	return math.Abs(a-b) <= delta
}

func unitSquare() Ring {
	return Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
}

func square(minX, minY, size float64) Ring {
	return Ring{
		{minX, minY},
		{minX + size, minY},
		{minX + size, minY + size},
		{minX, minY + size},
	}
}

func TestNewRingStripsClosingVertex(t *testing.T) {
	closed := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	r := NewRing(closed)
	if len(r) != 4 {
		t.Errorf("NewRing() kept %d vertices, want 4", len(r))
	}

	open := []Point{{0, 0}, {1, 0}, {1, 1}}
	r = NewRing(open)
	if len(r) != 3 {
		t.Errorf("NewRing() kept %d vertices, want 3", len(r))
	}
}

func TestRingArea(t *testing.T) {
	tests := []struct {
		name string
		ring Ring
		want float64
	}{
		{name: "unit square", ring: unitSquare(), want: 1},
		{name: "unit square clockwise", ring: unitSquare().Reversed(), want: 1},
		{name: "triangle", ring: Ring{{0, 0}, {4, 0}, {0, 3}}, want: 6},
		{name: "degenerate two vertices", ring: Ring{{0, 0}, {1, 1}}, want: 0},
		{name: "collinear", ring: Ring{{0, 0}, {1, 1}, {2, 2}}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ring.Area(); !almost(got, tt.want) {
				t.Errorf("Area() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRingCentroid(t *testing.T) {
	tests := []struct {
		name string
		ring Ring
		want Point
	}{
		{name: "unit square", ring: unitSquare(), want: Point{0.5, 0.5}},
		{name: "offset square", ring: square(10, 20, 2), want: Point{11, 21}},
		{name: "triangle", ring: Ring{{0, 0}, {3, 0}, {0, 3}}, want: Point{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ring.Centroid()
			if !almost(got.X, tt.want.X) || !almost(got.Y, tt.want.Y) {
				t.Errorf("Centroid() got (%v, %v), want (%v, %v)", got.X, got.Y, tt.want.X, tt.want.Y)
			}
		})
	}
}

func TestRingIsConvex(t *testing.T) {
	tests := []struct {
		name string
		ring Ring
		want bool
	}{
		{name: "square", ring: unitSquare(), want: true},
		{name: "clockwise square", ring: unitSquare().Reversed(), want: true},
		{name: "hexagon", ring: Ring{{2, 0}, {4, 1}, {4, 3}, {2, 4}, {0, 3}, {0, 1}}, want: true},
		{name: "square with collinear midpoint", ring: Ring{{0, 0}, {0.5, 0}, {1, 0}, {1, 1}, {0, 1}}, want: true},
		{name: "L shape", ring: Ring{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}, want: false},
		{name: "degenerate", ring: Ring{{0, 0}, {1, 0}}, want: false},
		{name: "zero area", ring: Ring{{0, 0}, {1, 1}, {2, 2}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ring.IsConvex(); got != tt.want {
				t.Errorf("IsConvex() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonContains(t *testing.T) {
	donut := Polygon{
		Outer: square(0, 0, 10),
		Holes: []Ring{square(4, 4, 2)},
	}

	tests := []struct {
		name string
		poly Polygon
		x, y float64
		want bool
	}{
		{name: "interior", poly: Polygon{Outer: unitSquare()}, x: 0.5, y: 0.5, want: true},
		{name: "outside", poly: Polygon{Outer: unitSquare()}, x: 1.5, y: 0.5, want: false},
		{name: "on edge", poly: Polygon{Outer: unitSquare()}, x: 0.5, y: 0, want: true},
		{name: "on vertex", poly: Polygon{Outer: unitSquare()}, x: 1, y: 1, want: true},
		{name: "inside ring of donut", poly: donut, x: 2, y: 2, want: true},
		{name: "inside hole", poly: donut, x: 5, y: 5, want: false},
		{name: "on hole boundary", poly: donut, x: 4, y: 5, want: true},
		{name: "degenerate polygon", poly: Polygon{Outer: Ring{{0, 0}, {1, 1}}}, x: 0.5, y: 0.5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.poly.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) got %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestPolygonAreaWithHoles(t *testing.T) {
	p := Polygon{
		Outer: square(0, 0, 10),
		Holes: []Ring{square(1, 1, 2), square(6, 6, 3)},
	}
	want := 100.0 - 4 - 9
	if got := p.Area(); !almost(got, want) {
		t.Errorf("Area() got %v, want %v", got, want)
	}
}

func TestPolygonCentroidWithHole(t *testing.T) {
	// Symmetric hole keeps the centroid at the center.
	p := Polygon{
		Outer: square(0, 0, 10),
		Holes: []Ring{square(4, 4, 2)},
	}
	got := p.Centroid()
	if !almost(got.X, 5) || !almost(got.Y, 5) {
		t.Errorf("Centroid() got (%v, %v), want (5, 5)", got.X, got.Y)
	}
}

func TestPolylineLength(t *testing.T) {
	tests := []struct {
		name string
		line Polyline
		want float64
	}{
		{name: "single segment", line: Polyline{{0, 0}, {3, 4}}, want: 5},
		{name: "two segments", line: Polyline{{0, 0}, {1, 0}, {1, 2}}, want: 3},
		{name: "single vertex", line: Polyline{{1, 1}}, want: 0},
		{name: "empty", line: Polyline{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.Length(); !almost(got, tt.want) {
				t.Errorf("Length() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolylineMidpoint(t *testing.T) {
	tests := []struct {
		name string
		line Polyline
		want Point
	}{
		{name: "single segment", line: Polyline{{0, 0}, {10, 0}}, want: Point{5, 0}},
		{name: "bent line", line: Polyline{{0, 0}, {2, 0}, {2, 2}}, want: Point{2, 0}},
		{name: "single vertex", line: Polyline{{3, 4}}, want: Point{3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.line.Midpoint()
			if !almost(got.X, tt.want.X) || !almost(got.Y, tt.want.Y) {
				t.Errorf("Midpoint() got (%v, %v), want (%v, %v)", got.X, got.Y, tt.want.X, tt.want.Y)
			}
		})
	}
}

func TestOverlapArea(t *testing.T) {
	clip := unitSquare() // counter-clockwise

	tests := []struct {
		name    string
		subject Polygon
		want    float64
	}{
		{name: "covering square", subject: Polygon{Outer: square(-1, -1, 3)}, want: 1},
		{name: "quarter overlap", subject: Polygon{Outer: square(0.5, 0.5, 1)}, want: 0.25},
		{name: "identical", subject: Polygon{Outer: unitSquare()}, want: 1},
		{name: "disjoint", subject: Polygon{Outer: square(5, 5, 1)}, want: 0},
		{name: "touching edge only", subject: Polygon{Outer: square(1, 0, 1)}, want: 0},
		{name: "triangle half", subject: Polygon{Outer: Ring{{0, 0}, {1, 0}, {0, 1}}}, want: 0.5},
		{
			name: "hole subtracted",
			subject: Polygon{
				Outer: square(-1, -1, 3),
				Holes: []Ring{square(0.25, 0.25, 0.5)},
			},
			want: 0.75,
		},
		{name: "clockwise subject", subject: Polygon{Outer: square(0.5, 0.5, 1).Reversed()}, want: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapArea(tt.subject, clip); !almost(got, tt.want) {
				t.Errorf("overlapArea() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlapLength(t *testing.T) {
	clip := unitSquare()

	tests := []struct {
		name string
		line Polyline
		want float64
	}{
		{name: "crossing horizontally", line: Polyline{{-1, 0.5}, {2, 0.5}}, want: 1},
		{name: "fully inside", line: Polyline{{0.25, 0.5}, {0.75, 0.5}}, want: 0.5},
		{name: "fully outside", line: Polyline{{2, 2}, {3, 3}}, want: 0},
		{name: "entering only", line: Polyline{{-0.5, 0.5}, {0.5, 0.5}}, want: 0.5},
		{name: "bent through corner region", line: Polyline{{0.5, -0.5}, {0.5, 0.5}, {1.5, 0.5}}, want: 1},
		{name: "along edge", line: Polyline{{0, 0}, {1, 0}}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapLength(tt.line, clip); !almost(got, tt.want) {
				t.Errorf("overlapLength() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtentOperations(t *testing.T) {
	a := Extent{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}
	b := Extent{MinX: 5, MaxX: 15, MinY: 5, MaxY: 15}
	c := Extent{MinX: 20, MaxX: 30, MinY: 20, MaxY: 30}

	if !a.Intersects(b) {
		t.Error("Intersects() got false for overlapping extents, want true")
	}
	if a.Intersects(c) {
		t.Error("Intersects() got true for disjoint extents, want false")
	}

	touching := Extent{MinX: 10, MaxX: 20, MinY: 0, MaxY: 10}
	if !a.Intersects(touching) {
		t.Error("Intersects() got false for edge-touching extents, want true")
	}

	u := a.Union(b)
	want := Extent{MinX: 0, MaxX: 15, MinY: 0, MaxY: 15}
	if u != want {
		t.Errorf("Union() got %+v, want %+v", u, want)
	}

	if !a.Contains(0, 10) {
		t.Error("Contains() got false for boundary point, want true")
	}
	if a.Contains(10.001, 5) {
		t.Error("Contains() got true for outside point, want false")
	}

	if !a.ContainsExtent(Extent{MinX: 1, MaxX: 9, MinY: 1, MaxY: 9}) {
		t.Error("ContainsExtent() got false for nested extent, want true")
	}
	if a.ContainsExtent(b) {
		t.Error("ContainsExtent() got true for partially overlapping extent, want false")
	}

	if (Extent{}).IsEmpty() != true {
		t.Error("IsEmpty() got false for zero extent, want true")
	}
	if a.IsEmpty() {
		t.Error("IsEmpty() got true for valid extent, want false")
	}
}
