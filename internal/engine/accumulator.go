package engine

import (
	"math"
)

// DefaultReliefScales is the number of nested sub-window scales the
// relief index samples when the caller does not override it.
const DefaultReliefScales = 3

// AccumulatorConfig carries the per-run knobs the accumulator needs.
type AccumulatorConfig struct {
	Metric Metric

	// ReliefScales is the number of nested scales for R_M. Zero means
	// DefaultReliefScales.
	ReliefScales int

	// SlopeThreshold, when set, zeroes R_SDc for zones whose mean slope
	// falls below it. Requires a slope sample stream.
	SlopeThreshold *float64
}

// Accumulator is the per-zone running state for one metric family,
// keyed by zone identifier.
//
// An entry exists for a zone only after its first contributing feature;
// absence at reduction time means "no data", not zero, except for the
// count-based families. The accumulator is the associative structure
// that keeps the aggregation loop free of external lookups; it is owned
// by a single run and is not safe for concurrent writers.
type Accumulator struct {
	cfg     AccumulatorConfig
	catalog *ZoneCatalog
	zones   map[int64]*zoneState
}

// zoneState holds the running aggregates for one zone. Only the fields
// relevant to the accumulator's metric family are populated.
type zoneState struct {
	count      int64
	categories map[int64]struct{}
	catAreas   map[int64]float64
	catCounts  map[int64]int64
	length     float64

	n      int64
	sum    float64
	sumSq  float64
	sumCos float64
	sumSin float64

	slopeSum float64
	slopeN   int64

	relief *reliefState
}

// NewAccumulator creates an empty accumulator over the given catalog.
func NewAccumulator(catalog *ZoneCatalog, cfg AccumulatorConfig) *Accumulator {
	if cfg.ReliefScales <= 0 {
		cfg.ReliefScales = DefaultReliefScales
	}
	return &Accumulator{
		cfg:     cfg,
		catalog: catalog,
		zones:   make(map[int64]*zoneState),
	}
}

// state returns the zone's record, creating it on first contribution.
func (a *Accumulator) state(zoneID int64) *zoneState {
	s, ok := a.zones[zoneID]
	if !ok {
		s = &zoneState{}
		switch a.cfg.Metric {
		case MetricANc, MetricPNc:
			s.categories = make(map[int64]struct{})
		case MetricASHDI:
			s.catAreas = make(map[int64]float64)
		case MetricPHu:
			s.catCounts = make(map[int64]int64)
		case MetricRM:
			zone := a.catalog.Zone(zoneID)
			s.relief = newReliefState(zone.Extent, a.cfg.ReliefScales)
		}
		a.zones[zoneID] = s
	}
	return s
}

// AddCount records one element for the zone (A_Ne, P_Ne).
func (a *Accumulator) AddCount(zoneID int64) {
	a.state(zoneID).count++
}

// AddCategory records a category observation for the zone (A_Nc, P_Nc).
func (a *Accumulator) AddCategory(zoneID int64, category int64) {
	a.state(zoneID).categories[category] = struct{}{}
}

// AddCategoryArea adds clipped polygon area under a category (A_SHDI).
func (a *Accumulator) AddCategoryArea(zoneID int64, category int64, area float64) {
	if area <= 0 {
		return
	}
	a.state(zoneID).catAreas[category] += area
}

// AddLength adds clipped line length for the zone (L_Tl).
func (a *Accumulator) AddLength(zoneID int64, length float64) {
	if length <= 0 {
		return
	}
	a.state(zoneID).length += length
}

// AddCategoryCount records one point under a category (P_Hu).
func (a *Accumulator) AddCategoryCount(zoneID int64, category int64) {
	a.state(zoneID).catCounts[category]++
}

// AddValue records a continuous raster sample (R_SD).
func (a *Accumulator) AddValue(zoneID int64, value float64) {
	s := a.state(zoneID)
	s.n++
	s.sum += value
	s.sumSq += value * value
}

// AddAngle records a directional raster sample in degrees (R_SDc), as a
// unit vector.
func (a *Accumulator) AddAngle(zoneID int64, degrees float64) {
	s := a.state(zoneID)
	rad := degrees * math.Pi / 180
	s.n++
	s.sumCos += math.Cos(rad)
	s.sumSin += math.Sin(rad)
}

// AddSlope records a slope sample for the R_SDc slope mask. Slope
// samples never create a zone entry on their own; a zone with slope data
// but no aspect data stays empty.
func (a *Accumulator) AddSlope(zoneID int64, value float64) {
	s, ok := a.zones[zoneID]
	if !ok {
		return
	}
	s.slopeSum += value
	s.slopeN++
}

// AddElevation records an elevation sample at its cell-center position
// (R_M).
func (a *Accumulator) AddElevation(zoneID int64, x, y, value float64) {
	s := a.state(zoneID)
	s.relief.add(x, y, value)
}

// ZonesSeen returns the number of zones with at least one contribution.
func (a *Accumulator) ZonesSeen() int {
	return len(a.zones)
}

// reliefState holds min/max per sub-window per scale for one zone.
//
// Scale s divides the zone's extent into 2^s by 2^s windows; scale 0 is
// the whole zone.
type reliefState struct {
	extent Extent
	scales []reliefScale
	n      int64
}

type reliefScale struct {
	div   int
	cells []reliefCell
}

type reliefCell struct {
	min, max float64
	seen     bool
}

func newReliefState(extent Extent, scales int) *reliefState {
	rs := &reliefState{
		extent: extent,
		scales: make([]reliefScale, scales),
	}
	div := 1
	for s := 0; s < scales; s++ {
		rs.scales[s] = reliefScale{
			div:   div,
			cells: make([]reliefCell, div*div),
		}
		div *= 2
	}
	return rs
}

// add routes a sample into its window at every scale.
func (rs *reliefState) add(x, y, value float64) {
	rs.n++
	w := rs.extent.Width()
	h := rs.extent.Height()
	for s := range rs.scales {
		sc := &rs.scales[s]
		ix := windowIndex(x-rs.extent.MinX, w, sc.div)
		iy := windowIndex(y-rs.extent.MinY, h, sc.div)
		cell := &sc.cells[iy*sc.div+ix]
		if !cell.seen {
			cell.min = value
			cell.max = value
			cell.seen = true
			continue
		}
		if value < cell.min {
			cell.min = value
		}
		if value > cell.max {
			cell.max = value
		}
	}
}

// windowIndex maps an offset within [0, span] to a window index in
// [0, div). Samples on the far edge land in the last window.
func windowIndex(offset, span float64, div int) int {
	if span <= 0 {
		return 0
	}
	idx := int(offset / span * float64(div))
	if idx < 0 {
		return 0
	}
	if idx >= div {
		return div - 1
	}
	return idx
}

// rangeAt returns the summed (max - min) over the windows of one scale.
func (rs *reliefState) rangeAt(s int) float64 {
	var sum float64
	for _, cell := range rs.scales[s].cells {
		if cell.seen {
			sum += cell.max - cell.min
		}
	}
	return sum
}
