package engine

import (
	"math"
)

// boundaryTolerance is the perpendicular distance, in map units, within
// which a point is considered to lie on a ring edge.
const boundaryTolerance = 1e-9

// Point is a single 2D position in map units.
type Point struct {
	X, Y float64
}

// Ring is an ordered chain of vertices forming a closed loop. The closing
// vertex is implicit: the last vertex connects back to the first. Rings
// read from providers may carry an explicit closing vertex; NewRing strips
// it.
type Ring []Point

// Polygon is one outer ring plus zero or more hole rings.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// Polyline is an ordered open chain of vertices.
type Polyline []Point

// NewRing builds a Ring from vertices, stripping a duplicated closing
// vertex if present.
func NewRing(pts []Point) Ring {
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return Ring(pts)
}

// signedArea returns the ring's signed area by the shoelace formula.
// Positive for counter-clockwise winding.
func (r Ring) signedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	var sum float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		sum += r[j].X*r[i].Y - r[i].X*r[j].Y
	}
	return sum / 2
}

// Area returns the ring's absolute area.
func (r Ring) Area() float64 {
	return math.Abs(r.signedArea())
}

// IsCCW reports whether the ring winds counter-clockwise.
func (r Ring) IsCCW() bool {
	return r.signedArea() > 0
}

// Reversed returns a copy of the ring with opposite winding.
func (r Ring) Reversed() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// ccw returns the ring itself if counter-clockwise, otherwise a reversed
// copy.
func (r Ring) ccw() Ring {
	if r.signedArea() < 0 {
		return r.Reversed()
	}
	return r
}

// Extent returns the ring's bounding rectangle.
func (r Ring) Extent() Extent {
	return extentOf(r)
}

// extentOf computes the bounding rectangle for a vertex chain.
func extentOf(pts []Point) Extent {
	if len(pts) == 0 {
		return Extent{}
	}
	e := Extent{MinX: pts[0].X, MaxX: pts[0].X, MinY: pts[0].Y, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < e.MinX {
			e.MinX = p.X
		}
		if p.X > e.MaxX {
			e.MaxX = p.X
		}
		if p.Y < e.MinY {
			e.MinY = p.Y
		}
		if p.Y > e.MaxY {
			e.MaxY = p.Y
		}
	}
	return e
}

// Centroid returns the ring's area-weighted centroid. Degenerate rings
// (near-zero area) fall back to the vertex average.
func (r Ring) Centroid() Point {
	n := len(r)
	if n == 0 {
		return Point{}
	}
	a := r.signedArea()
	if math.Abs(a) < 1e-12 {
		return vertexAverage(r)
	}
	var cx, cy float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		cross := r[j].X*r[i].Y - r[i].X*r[j].Y
		cx += (r[j].X + r[i].X) * cross
		cy += (r[j].Y + r[i].Y) * cross
	}
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

func vertexAverage(pts []Point) Point {
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{X: sx / n, Y: sy / n}
}

// IsConvex reports whether the ring bounds a convex region. Collinear
// vertices are permitted. Rings with fewer than three vertices or with
// zero area are not convex.
func (r Ring) IsConvex() bool {
	n := len(r)
	if n < 3 || r.Area() == 0 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a := r[i]
		b := r[(i+1)%n]
		c := r[(i+2)%n]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

// onBoundary returns true if (x, y) lies on one of the ring's edges,
// within boundaryTolerance map units.
func (r Ring) onBoundary(x, y float64) bool {
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		ax, ay := r[j].X, r[j].Y
		bx, by := r[i].X, r[i].Y
		dx, dy := bx-ax, by-ay
		segLen := math.Hypot(dx, dy)
		if segLen == 0 {
			if math.Hypot(x-ax, y-ay) <= boundaryTolerance {
				return true
			}
			continue
		}
		// Perpendicular distance from the point to the edge line.
		cross := dx*(y-ay) - dy*(x-ax)
		if math.Abs(cross)/segLen > boundaryTolerance {
			continue
		}
		// Within the segment span.
		dot := (x-ax)*dx + (y-ay)*dy
		if dot >= -boundaryTolerance*segLen && dot <= segLen*segLen+boundaryTolerance*segLen {
			return true
		}
	}
	return false
}

// contains is the even-odd ray-cast interior test. Boundary behavior is
// unspecified; callers wanting boundary-inclusive semantics check
// onBoundary first.
func (r Ring) contains(x, y float64) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, yj := r[i].Y, r[j].Y
		if (yi > y) != (yj > y) {
			t := (y - yi) / (yj - yi)
			xCross := r[i].X + t*(r[j].X-r[i].X)
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// Area returns the polygon's area: outer ring minus holes.
func (p Polygon) Area() float64 {
	a := p.Outer.Area()
	for _, h := range p.Holes {
		a -= h.Area()
	}
	if a < 0 {
		return 0
	}
	return a
}

// Extent returns the polygon's bounding rectangle (the outer ring's).
func (p Polygon) Extent() Extent {
	return p.Outer.Extent()
}

// Contains returns true if (x, y) lies inside the polygon or on any of
// its boundaries. Points strictly inside a hole are outside.
func (p Polygon) Contains(x, y float64) bool {
	if len(p.Outer) < 3 {
		return false
	}
	if p.Outer.onBoundary(x, y) {
		return true
	}
	if !p.Outer.contains(x, y) {
		return false
	}
	for _, h := range p.Holes {
		if h.onBoundary(x, y) {
			return true
		}
		if h.contains(x, y) {
			return false
		}
	}
	return true
}

// Centroid returns the polygon's area-weighted centroid, holes subtracted.
func (p Polygon) Centroid() Point {
	outerArea := p.Outer.Area()
	total := outerArea
	c := p.Outer.Centroid()
	cx := c.X * outerArea
	cy := c.Y * outerArea
	for _, h := range p.Holes {
		ha := h.Area()
		hc := h.Centroid()
		cx -= hc.X * ha
		cy -= hc.Y * ha
		total -= ha
	}
	if math.Abs(total) < 1e-12 {
		return vertexAverage(p.Outer)
	}
	return Point{X: cx / total, Y: cy / total}
}

// Length returns the polyline's total length.
func (l Polyline) Length() float64 {
	var sum float64
	for i := 1; i < len(l); i++ {
		sum += math.Hypot(l[i].X-l[i-1].X, l[i].Y-l[i-1].Y)
	}
	return sum
}

// Extent returns the polyline's bounding rectangle.
func (l Polyline) Extent() Extent {
	return extentOf(l)
}

// Midpoint returns the point at half the polyline's length, measured
// along the line. A single-vertex line returns that vertex.
func (l Polyline) Midpoint() Point {
	if len(l) == 0 {
		return Point{}
	}
	if len(l) == 1 {
		return l[0]
	}
	half := l.Length() / 2
	if half == 0 {
		return l[0]
	}
	var walked float64
	for i := 1; i < len(l); i++ {
		seg := math.Hypot(l[i].X-l[i-1].X, l[i].Y-l[i-1].Y)
		if walked+seg >= half {
			t := (half - walked) / seg
			return Point{
				X: l[i-1].X + t*(l[i].X-l[i-1].X),
				Y: l[i-1].Y + t*(l[i].Y-l[i-1].Y),
			}
		}
		walked += seg
	}
	return l[len(l)-1]
}

// insideEdge reports whether p lies on or left of the directed edge a->b.
// For a counter-clockwise clip ring, left means inside.
func insideEdge(p, a, b Point) bool {
	return (b.X-a.X)*(p.Y-a.Y)-(b.Y-a.Y)*(p.X-a.X) >= 0
}

// edgeIntersect returns the intersection of segment p->q with the
// infinite line through a->b. Callers guarantee p and q straddle the
// line.
func edgeIntersect(p, q, a, b Point) Point {
	d1 := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	d2 := (b.X-a.X)*(q.Y-a.Y) - (b.Y-a.Y)*(q.X-a.X)
	t := d1 / (d1 - d2)
	return Point{
		X: p.X + t*(q.X-p.X),
		Y: p.Y + t*(q.Y-p.Y),
	}
}

// clipRingToConvex clips a subject ring against a convex clip ring using
// the Sutherland-Hodgman algorithm. The clip ring must wind
// counter-clockwise. The result may be empty when the subject lies
// entirely outside.
func clipRingToConvex(subject, clip Ring) Ring {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}
	output := subject
	n := len(clip)
	for i := 0; i < n && len(output) > 0; i++ {
		a := clip[i]
		b := clip[(i+1)%n]
		input := output
		output = make(Ring, 0, len(input)+4)
		m := len(input)
		for j := 0; j < m; j++ {
			cur := input[j]
			next := input[(j+1)%m]
			curIn := insideEdge(cur, a, b)
			nextIn := insideEdge(next, a, b)
			switch {
			case curIn && nextIn:
				output = append(output, next)
			case curIn && !nextIn:
				output = append(output, edgeIntersect(cur, next, a, b))
			case !curIn && nextIn:
				output = append(output, edgeIntersect(cur, next, a, b), next)
			}
		}
	}
	return output
}

// overlapArea returns the area of the intersection between a polygon and
// a convex counter-clockwise ring. Holes clipped to the ring are
// subtracted.
func overlapArea(p Polygon, clip Ring) float64 {
	a := clipRingToConvex(p.Outer, clip).Area()
	if a == 0 {
		return 0
	}
	for _, h := range p.Holes {
		a -= clipRingToConvex(h, clip).Area()
	}
	if a < 0 {
		return 0
	}
	return a
}

// clipSegment computes the parametric sub-range [t0, t1] of segment p->q
// inside a convex counter-clockwise ring (Cyrus-Beck). Returns false when
// the segment misses the ring entirely.
func clipSegment(p, q Point, clip Ring) (t0, t1 float64, ok bool) {
	t0, t1 = 0, 1
	dx, dy := q.X-p.X, q.Y-p.Y
	n := len(clip)
	for i := 0; i < n; i++ {
		a := clip[i]
		b := clip[(i+1)%n]
		ex, ey := b.X-a.X, b.Y-a.Y
		// Signed distance along the inward direction as a linear
		// function of t: f(t) = f0 + t*fd, inside when f >= 0.
		f0 := ex*(p.Y-a.Y) - ey*(p.X-a.X)
		fd := ex*dy - ey*dx
		if fd == 0 {
			if f0 < 0 {
				return 0, 0, false
			}
			continue
		}
		t := -f0 / fd
		if fd > 0 {
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t1 {
				t1 = t
			}
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// overlapLength returns the length of the polyline portion inside a
// convex counter-clockwise ring.
func overlapLength(l Polyline, clip Ring) float64 {
	if len(clip) < 3 {
		return 0
	}
	var sum float64
	for i := 1; i < len(l); i++ {
		p, q := l[i-1], l[i]
		segLen := math.Hypot(q.X-p.X, q.Y-p.Y)
		if segLen == 0 {
			continue
		}
		if t0, t1, ok := clipSegment(p, q, clip); ok {
			sum += (t1 - t0) * segLen
		}
	}
	return sum
}
