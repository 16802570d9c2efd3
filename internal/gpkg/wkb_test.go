package gpkg

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomaszbartus/GeodiversityTools/pkg/geodiv"
)

// wkbBuilder assembles little-endian WKB streams for fixtures.
type wkbBuilder struct {
	buf []byte
}

func (b *wkbBuilder) byteOrder(littleEndian bool) *wkbBuilder {
	if littleEndian {
		b.buf = append(b.buf, 1)
	} else {
		b.buf = append(b.buf, 0)
	}
	return b
}

func (b *wkbBuilder) u32(v uint32) *wkbBuilder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}

func (b *wkbBuilder) f64(v float64) *wkbBuilder {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, math.Float64bits(v))
	return b
}

func (b *wkbBuilder) coords(pts ...[]float64) *wkbBuilder {
	b.u32(uint32(len(pts)))
	for _, p := range pts {
		for _, ordinate := range p {
			b.f64(ordinate)
		}
	}
	return b
}

func wkbPointBlob(x, y float64) []byte {
	b := &wkbBuilder{}
	return b.byteOrder(true).u32(wkbPoint).f64(x).f64(y).buf
}

func wkbLineBlob(coords ...[]float64) []byte {
	b := &wkbBuilder{}
	return b.byteOrder(true).u32(wkbLineString).coords(coords...).buf
}

func wkbPolygonBlob(rings ...[][]float64) []byte {
	b := &wkbBuilder{}
	b.byteOrder(true).u32(wkbPolygon).u32(uint32(len(rings)))
	for _, ring := range rings {
		b.coords(ring...)
	}
	return b.buf
}

// squareRing returns a closed square ring.
func squareRing(x0, y0, size float64) [][]float64 {
	return [][]float64{
		{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0},
	}
}

// gpkgBlob wraps bare WKB in a GeoPackage header. A non-nil envelope is
// written as [minX maxX minY maxY].
func gpkgBlob(wkb []byte, envelope *[4]float64) []byte {
	flags := byte(0x01) // little-endian header
	if envelope != nil {
		flags |= 0x02 // envelope indicator 1
	}
	blob := []byte{'G', 'P', 0, flags}
	blob = binary.LittleEndian.AppendUint32(blob, 0) // srs_id
	if envelope != nil {
		for _, v := range envelope {
			blob = binary.LittleEndian.AppendUint64(blob, math.Float64bits(v))
		}
	}
	return append(blob, wkb...)
}

// TestDecodeBarePoint verifies a header-less WKB point decodes.
func TestDecodeBarePoint(t *testing.T) {
	parts, _, hasEnvelope, err := decodeGeometry(wkbPointBlob(3.5, -2.25))
	require.NoError(t, err)
	assert.False(t, hasEnvelope)
	require.Len(t, parts, 1)
	assert.Equal(t, geodiv.GeometryTypePoint, parts[0].Type)
	assert.Equal(t, [][]float64{{3.5, -2.25}}, parts[0].Coordinates)
}

// TestDecodeBigEndianPoint verifies the byte-order marker is honored.
func TestDecodeBigEndianPoint(t *testing.T) {
	blob := []byte{0}
	blob = binary.BigEndian.AppendUint32(blob, wkbPoint)
	blob = binary.BigEndian.AppendUint64(blob, math.Float64bits(7))
	blob = binary.BigEndian.AppendUint64(blob, math.Float64bits(11))

	parts, _, _, err := decodeGeometry(blob)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, [][]float64{{7, 11}}, parts[0].Coordinates)
}

// TestDecodeHeaderEnvelope verifies the GeoPackage envelope is surfaced.
func TestDecodeHeaderEnvelope(t *testing.T) {
	blob := gpkgBlob(wkbPolygonBlob(squareRing(0, 0, 10)), &[4]float64{0, 10, 0, 10})

	parts, envelope, hasEnvelope, err := decodeGeometry(blob)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.True(t, hasEnvelope)
	assert.Equal(t, geodiv.Extent{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}, envelope)
}

// TestDecodeEmptyGeometryFlag verifies the empty flag yields no parts.
func TestDecodeEmptyGeometryFlag(t *testing.T) {
	blob := []byte{'G', 'P', 0, 0x11}
	blob = binary.LittleEndian.AppendUint32(blob, 0)

	parts, _, _, err := decodeGeometry(blob)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

// TestDecodeDropsExtraOrdinates verifies Z and M values are read past.
func TestDecodeDropsExtraOrdinates(t *testing.T) {
	t.Run("ISO point Z", func(t *testing.T) {
		b := &wkbBuilder{}
		blob := b.byteOrder(true).u32(wkbPoint + 1000).f64(1).f64(2).f64(99).buf
		parts, _, _, err := decodeGeometry(blob)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, [][]float64{{1, 2}}, parts[0].Coordinates)
	})

	t.Run("ISO line M", func(t *testing.T) {
		b := &wkbBuilder{}
		b.byteOrder(true).u32(wkbLineString + 2000)
		b.u32(2).f64(0).f64(0).f64(7).f64(3).f64(4).f64(8)
		parts, _, _, err := decodeGeometry(b.buf)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, [][]float64{{0, 0}, {3, 4}}, parts[0].Coordinates)
	})

	t.Run("extended-WKB point ZM", func(t *testing.T) {
		b := &wkbBuilder{}
		blob := b.byteOrder(true).u32(wkbPoint | 0x80000000 | 0x40000000).
			f64(5).f64(6).f64(1).f64(2).buf
		parts, _, _, err := decodeGeometry(blob)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, [][]float64{{5, 6}}, parts[0].Coordinates)
	})

	t.Run("extended-WKB embedded SRID", func(t *testing.T) {
		b := &wkbBuilder{}
		blob := b.byteOrder(true).u32(wkbPoint | 0x20000000).u32(3857).f64(5).f64(6).buf
		parts, _, _, err := decodeGeometry(blob)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, [][]float64{{5, 6}}, parts[0].Coordinates)
	})
}

// TestDecodePolygonWithHole verifies ring separation.
func TestDecodePolygonWithHole(t *testing.T) {
	blob := wkbPolygonBlob(squareRing(0, 0, 10), squareRing(2, 2, 2))

	parts, _, _, err := decodeGeometry(blob)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, geodiv.GeometryTypePolygon, parts[0].Type)
	assert.Len(t, parts[0].Coordinates, 5)
	require.Len(t, parts[0].Holes, 1)
	assert.Len(t, parts[0].Holes[0], 5)
}

// TestDecodeMultiGeometries verifies multi-part explosion.
func TestDecodeMultiGeometries(t *testing.T) {
	t.Run("multipolygon", func(t *testing.T) {
		b := &wkbBuilder{}
		b.byteOrder(true).u32(wkbMultiPolygon).u32(2)
		b.buf = append(b.buf, wkbPolygonBlob(squareRing(0, 0, 1))...)
		b.buf = append(b.buf, wkbPolygonBlob(squareRing(5, 5, 1))...)

		parts, _, _, err := decodeGeometry(b.buf)
		require.NoError(t, err)
		require.Len(t, parts, 2)
		assert.Equal(t, geodiv.GeometryTypePolygon, parts[0].Type)
		assert.Equal(t, geodiv.GeometryTypePolygon, parts[1].Type)
		assert.Equal(t, 5.0, parts[1].Coordinates[0][0])
	})

	t.Run("collection flattens", func(t *testing.T) {
		b := &wkbBuilder{}
		b.byteOrder(true).u32(wkbGeometryCollection).u32(2)
		b.buf = append(b.buf, wkbPointBlob(1, 1)...)
		b.buf = append(b.buf, wkbLineBlob([]float64{0, 0}, []float64{1, 0})...)

		parts, _, _, err := decodeGeometry(b.buf)
		require.NoError(t, err)
		require.Len(t, parts, 2)
		assert.Equal(t, geodiv.GeometryTypePoint, parts[0].Type)
		assert.Equal(t, geodiv.GeometryTypeLine, parts[1].Type)
	})

	t.Run("nesting bound", func(t *testing.T) {
		b := &wkbBuilder{}
		for i := 0; i < maxWKBNesting+2; i++ {
			b.byteOrder(true).u32(wkbGeometryCollection).u32(1)
		}
		b.buf = append(b.buf, wkbPointBlob(0, 0)...)

		_, _, _, err := decodeGeometry(b.buf)
		assert.Error(t, err)
	})
}

// TestDecodeMalformed verifies corrupt blobs fail cleanly.
func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"empty", nil},
		{"truncated header", []byte{'G', 'P', 0}},
		{"truncated point", wkbPointBlob(1, 2)[:10]},
		{"bad byte order", []byte{9, 1, 0, 0, 0}},
		{"unsupported type", (&wkbBuilder{}).byteOrder(true).u32(17).buf},
		{"bad envelope indicator", []byte{'G', 'P', 0, 0x0B, 0, 0, 0, 0}},
		{"envelope truncated", append([]byte{'G', 'P', 0, 0x03, 0, 0, 0, 0}, 1, 2, 3)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := decodeGeometry(tc.blob)
			assert.Error(t, err, "blob %v decoded", tc.blob)
		})
	}
}
