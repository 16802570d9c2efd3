package engine

// Extent represents an axis-aligned bounding rectangle in the planar
// coordinate reference shared by the grid and the feature layers.
//
// Coordinates are in the layer's map units.
type Extent struct {
	MinX float64 // Western edge
	MaxX float64 // Eastern edge
	MinY float64 // Southern edge
	MaxY float64 // Northern edge
}

// Contains returns true if the point (x, y) is within the extent.
// Points on the boundary are inside.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.MinX && x <= e.MaxX &&
		y >= e.MinY && y <= e.MaxY
}

// Intersects returns true if the given extent intersects with this extent.
// Touching edges count as intersecting.
func (e Extent) Intersects(other Extent) bool {
	return !(other.MaxX < e.MinX ||
		other.MinX > e.MaxX ||
		other.MaxY < e.MinY ||
		other.MinY > e.MaxY)
}

// ContainsExtent returns true if other lies entirely within this extent.
func (e Extent) ContainsExtent(other Extent) bool {
	return other.MinX >= e.MinX && other.MaxX <= e.MaxX &&
		other.MinY >= e.MinY && other.MaxY <= e.MaxY
}

// Union returns the smallest extent covering both extents.
func (e Extent) Union(other Extent) Extent {
	if e.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return e
	}
	u := e
	if other.MinX < u.MinX {
		u.MinX = other.MinX
	}
	if other.MaxX > u.MaxX {
		u.MaxX = other.MaxX
	}
	if other.MinY < u.MinY {
		u.MinY = other.MinY
	}
	if other.MaxY > u.MaxY {
		u.MaxY = other.MaxY
	}
	return u
}

// Expand returns a new Extent grown by the given margin in all directions.
//
// Margin is in map units.
func (e Extent) Expand(margin float64) Extent {
	return Extent{
		MinX: e.MinX - margin,
		MaxX: e.MaxX + margin,
		MinY: e.MinY - margin,
		MaxY: e.MaxY + margin,
	}
}

// Width returns the east-west span of the extent.
func (e Extent) Width() float64 {
	return e.MaxX - e.MinX
}

// Height returns the north-south span of the extent.
func (e Extent) Height() float64 {
	return e.MaxY - e.MinY
}

// IsEmpty returns true for the zero extent or an inverted one.
func (e Extent) IsEmpty() bool {
	if e == (Extent{}) {
		return true
	}
	return e.MinX > e.MaxX || e.MinY > e.MaxY
}

// pointExtent returns the degenerate extent covering a single point.
func pointExtent(x, y float64) Extent {
	return Extent{MinX: x, MaxX: x, MinY: y, MaxY: y}
}
