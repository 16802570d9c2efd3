package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Result is the reduced scalar for one zone. Valid == false marks the
// no-data sentinel, distinct from a computed zero.
type Result struct {
	Value float64
	Valid bool
}

// SparseZoneWarning records a zone that carried data but fewer samples
// than its metric's minimum. Non-fatal; the zone receives the no-data
// sentinel.
type SparseZoneWarning struct {
	ZoneID  int64
	Metric  Metric
	Samples int64
}

// Reduce computes the final value for every zone in the catalog, in
// ascending zone-identifier order.
//
// Zones without an accumulator entry reduce to zero for the count-based
// families and to the no-data sentinel for all others. Zones with data
// but below the metric's sample minimum additionally produce a
// SparseZoneWarning.
func (a *Accumulator) Reduce() (map[int64]Result, []SparseZoneWarning) {
	results := make(map[int64]Result, a.catalog.Len())
	var sparse []SparseZoneWarning

	for _, id := range a.catalog.IDs() {
		r, warn := a.reduceZone(id, a.zones[id])
		results[id] = r
		if warn != nil {
			sparse = append(sparse, *warn)
		}
	}
	return results, sparse
}

func (a *Accumulator) reduceZone(id int64, s *zoneState) (Result, *SparseZoneWarning) {
	switch a.cfg.Metric {
	case MetricANe, MetricPNe:
		if s == nil {
			return Result{Value: 0, Valid: true}, nil
		}
		return Result{Value: float64(s.count), Valid: true}, nil

	case MetricANc, MetricPNc:
		if s == nil {
			return Result{}, nil
		}
		return Result{Value: float64(len(s.categories)), Valid: true}, nil

	case MetricASHDI:
		if s == nil {
			return Result{}, nil
		}
		return shannonOverAreas(s.catAreas), nil

	case MetricLTl:
		if s == nil {
			return Result{}, nil
		}
		return Result{Value: s.length, Valid: true}, nil

	case MetricPHu:
		if s == nil {
			return Result{}, nil
		}
		return shannonOverCounts(s.catCounts), nil

	case MetricRSD:
		if s == nil || s.n == 0 {
			return Result{}, nil
		}
		n := float64(s.n)
		mean := s.sum / n
		variance := s.sumSq/n - mean*mean
		if variance < 0 {
			// Rounding residue from the sum-of-squares form.
			variance = 0
		}
		return Result{Value: math.Sqrt(variance), Valid: true}, nil

	case MetricRSDc:
		if s == nil {
			return Result{}, nil
		}
		if s.n < 2 {
			return Result{}, &SparseZoneWarning{ZoneID: id, Metric: a.cfg.Metric, Samples: s.n}
		}
		if a.cfg.SlopeThreshold != nil && s.slopeN > 0 {
			if s.slopeSum/float64(s.slopeN) < *a.cfg.SlopeThreshold {
				// Aspect carries no signal on near-flat terrain.
				return Result{Value: 0, Valid: true}, nil
			}
		}
		rbar := math.Hypot(s.sumCos, s.sumSin) / float64(s.n)
		if rbar >= 1 {
			// Identical directions; clamp floating-point overshoot.
			return Result{Value: 0, Valid: true}, nil
		}
		if rbar <= 0 {
			// Dispersion ran to the uniform limit; the index diverges.
			return Result{}, nil
		}
		return Result{Value: math.Sqrt(-2 * math.Log(rbar)), Valid: true}, nil

	case MetricRM:
		if s == nil || s.relief == nil {
			return Result{}, nil
		}
		if s.relief.n < 2 {
			return Result{}, &SparseZoneWarning{ZoneID: id, Metric: a.cfg.Metric, Samples: s.relief.n}
		}
		return Result{Value: reliefIndex(s.relief), Valid: true}, nil
	}

	return Result{}, nil
}

// reliefIndex sums, across scales, the range contribution not already
// counted at the coarser scale.
func reliefIndex(rs *reliefState) float64 {
	var total, prev float64
	for s := range rs.scales {
		r := rs.rangeAt(s)
		if d := r - prev; d > 0 {
			total += d
		}
		prev = r
	}
	return total
}

// shannonOverAreas reduces category areas to the Shannon-Weaver index.
func shannonOverAreas(areas map[int64]float64) Result {
	keys := make([]int64, 0, len(areas))
	var total float64
	for k, v := range areas {
		if v > 0 {
			keys = append(keys, k)
			total += v
		}
	}
	if total <= 0 {
		return Result{}
	}
	// Deterministic summation order across runs.
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	p := make([]float64, len(keys))
	for i, k := range keys {
		p[i] = areas[k] / total
	}
	h := stat.Entropy(p)
	if h < 0 {
		h = 0
	}
	return Result{Value: h, Valid: true}
}

// shannonOverCounts reduces per-category point counts to Shannon entropy.
func shannonOverCounts(counts map[int64]int64) Result {
	keys := make([]int64, 0, len(counts))
	var total int64
	for k, v := range counts {
		if v > 0 {
			keys = append(keys, k)
			total += v
		}
	}
	if total <= 0 {
		return Result{}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	p := make([]float64, len(keys))
	for i, k := range keys {
		p[i] = float64(counts[k]) / float64(total)
	}
	h := stat.Entropy(p)
	if h < 0 {
		h = 0
	}
	return Result{Value: h, Valid: true}
}
