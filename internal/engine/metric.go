package engine

import (
	"fmt"
)

// Metric identifies one of the nine diversity-index families.
type Metric int

const (
	// MetricANe counts polygon landscape elements per zone.
	MetricANe Metric = iota
	// MetricANc counts distinct polygon categories per zone.
	MetricANc
	// MetricASHDI is the Shannon-Weaver diversity of polygon category
	// areas per zone.
	MetricASHDI
	// MetricLTl sums line lengths per zone.
	MetricLTl
	// MetricPNe counts point elements per zone.
	MetricPNe
	// MetricPNc counts distinct point categories per zone.
	MetricPNc
	// MetricPHu is the Shannon entropy of point counts per category.
	MetricPHu
	// MetricRSD is the population standard deviation of raster values.
	MetricRSD
	// MetricRSDc is the circular standard deviation of directional
	// raster values (e.g. aspect).
	MetricRSDc
	// MetricRM is the multi-scale relief index over elevation rasters.
	MetricRM
)

// GeometryKind describes the input geometry a metric consumes.
type GeometryKind int

const (
	KindPolygon GeometryKind = iota
	KindLine
	KindPoint
	KindRaster
)

var metricNames = map[Metric]string{
	MetricANe:   "A_Ne",
	MetricANc:   "A_Nc",
	MetricASHDI: "A_SHDI",
	MetricLTl:   "L_Tl",
	MetricPNe:   "P_Ne",
	MetricPNc:   "P_Nc",
	MetricPHu:   "P_Hu",
	MetricRSD:   "R_SD",
	MetricRSDc:  "R_SDc",
	MetricRM:    "R_M",
}

// String returns the metric's standard code, e.g. "A_SHDI".
func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// FieldSuffix returns the attribute-field suffix for the metric. The
// source-layer prefix disambiguates families sharing a suffix (A_Ne and
// P_Ne both write "Ne").
func (m Metric) FieldSuffix() string {
	switch m {
	case MetricANe, MetricPNe:
		return "Ne"
	case MetricANc, MetricPNc:
		return "Nc"
	case MetricASHDI:
		return "SHDI"
	case MetricLTl:
		return "Tl"
	case MetricPHu:
		return "Hu"
	case MetricRSD:
		return "SD"
	case MetricRSDc:
		return "SDc"
	case MetricRM:
		return "M"
	}
	return "X"
}

// Kind returns the input geometry kind the metric consumes.
func (m Metric) Kind() GeometryKind {
	switch m {
	case MetricANe, MetricANc, MetricASHDI:
		return KindPolygon
	case MetricLTl:
		return KindLine
	case MetricPNe, MetricPNc, MetricPHu:
		return KindPoint
	default:
		return KindRaster
	}
}

// Categorical reports whether the metric consumes a category attribute.
func (m Metric) Categorical() bool {
	switch m {
	case MetricANc, MetricASHDI, MetricPNc, MetricPHu:
		return true
	}
	return false
}

// CountBased reports whether an empty zone reduces to zero rather than
// the no-data sentinel.
func (m Metric) CountBased() bool {
	return m == MetricANe || m == MetricPNe
}

// ParseMetric converts a metric code like "A_SHDI" into a Metric.
func ParseMetric(code string) (Metric, error) {
	for m, name := range metricNames {
		if name == code {
			return m, nil
		}
	}
	return 0, &ErrConfiguration{Reason: fmt.Sprintf("unknown metric code %q", code)}
}

// Metrics returns all metric families in declaration order.
func Metrics() []Metric {
	return []Metric{
		MetricANe, MetricANc, MetricASHDI, MetricLTl,
		MetricPNe, MetricPNc, MetricPHu,
		MetricRSD, MetricRSDc, MetricRM,
	}
}
