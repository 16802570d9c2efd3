package gpkg

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tomaszbartus/GeodiversityTools/pkg/geodiv"
)

// Well-known-binary geometry type codes.
const (
	wkbPoint              = 1
	wkbLineString         = 2
	wkbPolygon            = 3
	wkbMultiPoint         = 4
	wkbMultiLineString    = 5
	wkbMultiPolygon       = 6
	wkbGeometryCollection = 7
)

// decodeGeometry parses a GeoPackage geometry blob: the "GP" header with
// its optional envelope, followed by ISO or extended WKB. Multi-part
// geometries are exploded into their parts, so one stored row may yield
// several features. Z and M ordinates are read past and dropped; only X
// and Y survive.
//
// A blob without the header is accepted as bare WKB.
func decodeGeometry(blob []byte) (parts []geodiv.Geometry, envelope geodiv.Extent, hasEnvelope bool, err error) {
	wkb := blob
	if len(blob) >= 2 && blob[0] == 'G' && blob[1] == 'P' {
		if len(blob) < 8 {
			return nil, geodiv.Extent{}, false, fmt.Errorf("geometry header truncated at %d bytes", len(blob))
		}
		flags := blob[3]
		var order binary.ByteOrder = binary.BigEndian
		if flags&0x01 != 0 {
			order = binary.LittleEndian
		}
		if flags&0x10 != 0 {
			// Empty-geometry flag.
			return nil, geodiv.Extent{}, false, nil
		}
		envInd := (flags >> 1) & 0x07
		envDoubles := 0
		switch envInd {
		case 0:
		case 1:
			envDoubles = 4
		case 2, 3:
			envDoubles = 6
		case 4:
			envDoubles = 8
		default:
			return nil, geodiv.Extent{}, false, fmt.Errorf("invalid envelope indicator %d", envInd)
		}
		end := 8 + envDoubles*8
		if len(blob) < end {
			return nil, geodiv.Extent{}, false, fmt.Errorf("geometry envelope truncated at %d bytes", len(blob))
		}
		if envDoubles >= 4 {
			// Envelope stores min/max X then min/max Y; any trailing
			// Z or M range is skipped.
			envelope = geodiv.Extent{
				MinX: float64FromBytes(order, blob[8:16]),
				MaxX: float64FromBytes(order, blob[16:24]),
				MinY: float64FromBytes(order, blob[24:32]),
				MaxY: float64FromBytes(order, blob[32:40]),
			}
			hasEnvelope = true
		}
		wkb = blob[end:]
	}

	r := &wkbReader{buf: wkb}
	parts, err = r.geometry(0)
	if err != nil {
		return nil, geodiv.Extent{}, false, err
	}
	return parts, envelope, hasEnvelope, nil
}

func float64FromBytes(order binary.ByteOrder, b []byte) float64 {
	return math.Float64frombits(order.Uint64(b))
}

// wkbReader is a cursor over a WKB byte stream.
type wkbReader struct {
	buf []byte
	pos int
}

func (r *wkbReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("geometry truncated at byte %d", r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *wkbReader) order() (binary.ByteOrder, error) {
	b, err := r.bytes(1)
	if err != nil {
		return nil, err
	}
	switch b[0] {
	case 0:
		return binary.BigEndian, nil
	case 1:
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("invalid byte-order marker %#x", b[0])
}

func (r *wkbReader) u32(order binary.ByteOrder) (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (r *wkbReader) f64(order binary.ByteOrder) (float64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(b)), nil
}

// coord reads one vertex of dims ordinates and keeps X and Y.
func (r *wkbReader) coord(order binary.ByteOrder, dims int) ([]float64, error) {
	x, err := r.f64(order)
	if err != nil {
		return nil, err
	}
	y, err := r.f64(order)
	if err != nil {
		return nil, err
	}
	for i := 2; i < dims; i++ {
		if _, err := r.f64(order); err != nil {
			return nil, err
		}
	}
	return []float64{x, y}, nil
}

func (r *wkbReader) ring(order binary.ByteOrder, dims int) ([][]float64, error) {
	n, err := r.u32(order)
	if err != nil {
		return nil, err
	}
	coords := make([][]float64, 0, n)
	for i := uint32(0); i < n; i++ {
		c, err := r.coord(order, dims)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return coords, nil
}

const maxWKBNesting = 8

// geometry parses one WKB geometry, recursing into multi-part and
// collection types and flattening their members.
func (r *wkbReader) geometry(depth int) ([]geodiv.Geometry, error) {
	if depth > maxWKBNesting {
		return nil, fmt.Errorf("geometry nesting deeper than %d", maxWKBNesting)
	}
	order, err := r.order()
	if err != nil {
		return nil, err
	}
	raw, err := r.u32(order)
	if err != nil {
		return nil, err
	}

	// Dimensionality comes either as extended-WKB flag bits or as the
	// ISO thousand-offset.
	hasZ := raw&0x80000000 != 0
	hasM := raw&0x40000000 != 0
	if raw&0x20000000 != 0 {
		if _, err := r.u32(order); err != nil { // embedded SRID
			return nil, err
		}
	}
	t := raw & 0x0FFFFFFF
	switch {
	case t >= 3000:
		hasZ, hasM = true, true
		t -= 3000
	case t >= 2000:
		hasM = true
		t -= 2000
	case t >= 1000:
		hasZ = true
		t -= 1000
	}
	dims := 2
	if hasZ {
		dims++
	}
	if hasM {
		dims++
	}

	switch t {
	case wkbPoint:
		c, err := r.coord(order, dims)
		if err != nil {
			return nil, err
		}
		return []geodiv.Geometry{{Type: geodiv.GeometryTypePoint, Coordinates: [][]float64{c}}}, nil

	case wkbLineString:
		coords, err := r.ring(order, dims)
		if err != nil {
			return nil, err
		}
		return []geodiv.Geometry{{Type: geodiv.GeometryTypeLine, Coordinates: coords}}, nil

	case wkbPolygon:
		n, err := r.u32(order)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		g := geodiv.Geometry{Type: geodiv.GeometryTypePolygon}
		for i := uint32(0); i < n; i++ {
			ring, err := r.ring(order, dims)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				g.Coordinates = ring
			} else {
				g.Holes = append(g.Holes, ring)
			}
		}
		return []geodiv.Geometry{g}, nil

	case wkbMultiPoint, wkbMultiLineString, wkbMultiPolygon, wkbGeometryCollection:
		n, err := r.u32(order)
		if err != nil {
			return nil, err
		}
		var parts []geodiv.Geometry
		for i := uint32(0); i < n; i++ {
			sub, err := r.geometry(depth + 1)
			if err != nil {
				return nil, err
			}
			parts = append(parts, sub...)
		}
		return parts, nil
	}
	return nil, fmt.Errorf("unsupported geometry type %d", t)
}
