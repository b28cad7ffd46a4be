package zoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStatePlane(t *testing.T) {
	north, east := ToStatePlane(phi0Deg, lon0Deg)
	assert.InDelta(t, spFalseNorthing, north, 0.01)
	assert.InDelta(t, spFalseEasting, east, 0.01)

	// Downtown Fort Worth.
	north, east = ToStatePlane(32.760089, -97.319828)
	assert.InDelta(t, 6961503.66, north, 1)
	assert.InDelta(t, 2331272.90, east, 1)
}

func square(cy, cx, half float64) [][2]float64 {
	return [][2]float64{
		{cy - half, cx - half},
		{cy - half, cx + half},
		{cy + half, cx + half},
		{cy + half, cx - half},
		{cy - half, cx - half},
	}
}

func TestPointInPolygon(t *testing.T) {
	ring := square(0, 0, 10)
	assert.True(t, pointInPolygon(0, 0, ring))
	assert.True(t, pointInPolygon(9.9, -9.9, ring))
	assert.False(t, pointInPolygon(10.1, 0, ring))
	assert.False(t, pointInPolygon(0, -20, ring))
	assert.False(t, pointInPolygon(0, 0, nil))
}

func TestIndexCode(t *testing.T) {
	north, east := ToStatePlane(32.760089, -97.319828)

	idx := NewIndex(
		Feature{
			Parts: [][][2]float64{square(north, east, 500)},
			Attrs: map[string]string{"ZONING": "A-5"},
		},
		Feature{
			Parts: [][][2]float64{square(north, east, 5000)},
			Attrs: map[string]string{"BASE_ZONIN": "B"},
		},
	)
	require.Equal(t, 2, idx.Len())

	assert.Equal(t, "A-5", idx.Code(32.760089, -97.319828), "first layer wins")

	// ~1000 ft east: outside the small square, inside the large one.
	assert.Equal(t, "B", idx.Code(32.760089, -97.3165))

	assert.Equal(t, "", idx.Code(33.5, -96.0))

	attrs, ok := idx.Lookup(32.760089, -97.319828)
	require.True(t, ok)
	assert.Equal(t, "A-5", attrs["ZONING"])
}

func TestIndexMultiPart(t *testing.T) {
	idx := NewIndex(Feature{
		Parts: [][][2]float64{square(0, 0, 1), square(100, 100, 1)},
		Attrs: map[string]string{"ZONE_CODE": "PD"},
	})
	attrs, ok := idx.lookupProjected(100, 100)
	require.True(t, ok)
	assert.Equal(t, "PD", attrs["ZONE_CODE"])

	_, ok = idx.lookupProjected(50, 50)
	assert.False(t, ok)
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	assert.Equal(t, "", idx.Code(32.7, -97.3))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.shp")
	assert.Error(t, err)
}
