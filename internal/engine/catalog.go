// Package engine implements the zonal aggregation core: the in-memory
// zone catalog, feature-to-zone assignment, per-zone accumulators, and
// the diversity-index reductions.
//
// The catalog is built once per run and serves every downstream lookup
// from memory; nothing in the aggregation loop touches an external
// source.
package engine

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// Zone is one cell of the analytical grid.
type Zone struct {
	ID       int64
	Geometry Polygon
	Extent   Extent

	// clipRing is the outer ring normalized to counter-clockwise
	// winding, precomputed for the proportional-overlap clippers.
	clipRing Ring
}

// indexedZone adapts a zone to the rtreego spatial interface.
type indexedZone struct {
	zone *Zone
}

// Bounds implements the rtreego.Spatial interface.
func (z *indexedZone) Bounds() rtreego.Rect {
	point := rtreego.Point{z.zone.Extent.MinX, z.zone.Extent.MinY}
	xLength := z.zone.Extent.Width()
	yLength := z.zone.Extent.Height()

	// Guard against degenerate rectangles which rtreego rejects.
	const epsilon = 0.0001
	if xLength < epsilon {
		xLength = epsilon
	}
	if yLength < epsilon {
		yLength = epsilon
	}

	rect, _ := rtreego.NewRect(point, []float64{xLength, yLength})
	return rect
}

// ZoneCatalog is the in-memory mapping from zone identifier to zone
// geometry plus an R-tree over zone extents for candidate lookup.
//
// Built once per run, read-only afterwards. A catalog is owned by a
// single run and never shared.
type ZoneCatalog struct {
	zones  map[int64]*Zone
	rtree  *rtreego.Rtree
	extent Extent
}

// BuildZoneCatalog validates and indexes the zone set.
//
// Zero zones, duplicate identifiers, and unusable zone geometry are all
// fatal configuration errors; the catalog is all-or-nothing.
func BuildZoneCatalog(zones []Zone) (*ZoneCatalog, error) {
	if len(zones) == 0 {
		return nil, &ErrConfiguration{Reason: "zone set is empty"}
	}

	c := &ZoneCatalog{
		zones: make(map[int64]*Zone, len(zones)),
		rtree: rtreego.NewTree(2, 25, 50),
	}

	for i := range zones {
		z := zones[i]
		if err := ValidateZonePolygon(z.ID, z.Geometry); err != nil {
			return nil, err
		}
		if _, exists := c.zones[z.ID]; exists {
			return nil, &ErrDuplicateZoneID{ID: z.ID}
		}
		if z.Extent.IsEmpty() {
			z.Extent = z.Geometry.Extent()
		}

		stored := &Zone{
			ID:       z.ID,
			Geometry: z.Geometry,
			Extent:   z.Extent,
			clipRing: z.Geometry.Outer.ccw(),
		}
		c.zones[z.ID] = stored
		c.rtree.Insert(&indexedZone{zone: stored})
		c.extent = c.extent.Union(z.Extent)
	}

	return c, nil
}

// Zone returns the zone with the given identifier, or nil.
func (c *ZoneCatalog) Zone(id int64) *Zone {
	return c.zones[id]
}

// Len returns the number of zones in the catalog.
func (c *ZoneCatalog) Len() int {
	return len(c.zones)
}

// Extent returns the union of all zone extents: the grid extent.
func (c *ZoneCatalog) Extent() Extent {
	return c.extent
}

// IDs returns all zone identifiers in ascending order.
func (c *ZoneCatalog) IDs() []int64 {
	ids := make([]int64, 0, len(c.zones))
	for id := range c.zones {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Candidates returns the zones whose extent intersects the query extent.
// This is the coarse pre-filter; callers follow up with exact geometry
// tests. Order is not specified.
func (c *ZoneCatalog) Candidates(query Extent) []*Zone {
	rect := queryRect(query)
	spatials := c.rtree.SearchIntersect(rect)

	result := make([]*Zone, 0, len(spatials))
	for _, s := range spatials {
		iz := s.(*indexedZone)
		if iz.zone.Extent.Intersects(query) {
			result = append(result, iz.zone)
		}
	}
	return result
}

// CandidatesAt returns the zones whose extent contains the point.
func (c *ZoneCatalog) CandidatesAt(x, y float64) []*Zone {
	rect := queryRect(pointExtent(x, y))
	spatials := c.rtree.SearchIntersect(rect)

	result := make([]*Zone, 0, len(spatials))
	for _, s := range spatials {
		iz := s.(*indexedZone)
		if iz.zone.Extent.Contains(x, y) {
			result = append(result, iz.zone)
		}
	}
	return result
}

// queryRect converts an extent into an rtreego rectangle, widening
// degenerate spans so rtreego accepts them.
func queryRect(e Extent) rtreego.Rect {
	xLength := e.Width()
	yLength := e.Height()

	const epsilon = 0.0001
	if xLength < epsilon {
		xLength = epsilon
	}
	if yLength < epsilon {
		yLength = epsilon
	}

	rect, _ := rtreego.NewRect(rtreego.Point{e.MinX, e.MinY}, []float64{xLength, yLength})
	return rect
}
