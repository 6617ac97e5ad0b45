package terrain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch/env-data-aggregation/internal/raster"
)

func gridFrom(values [][]float64, nodata float64) *raster.Grid {
	return &raster.Grid{
		Width:     len(values[0]),
		Height:    len(values),
		NoData:    nodata,
		HasNoData: true,
		Values:    values,
	}
}

func TestComputeFlatGrid(t *testing.T) {
	g := gridFrom([][]float64{
		{100, 100, 100},
		{100, 100, 100},
		{100, 100, 100},
	}, -9999)

	a, err := Compute(g, 30)
	require.NoError(t, err)

	assert.Equal(t, 0.0, a.Slope.Mean)
	assert.Equal(t, 0.0, a.Slope.Max)
	assert.Equal(t, 0.0, a.Roughness)
}

func TestComputeUniformEastRisingPlane(t *testing.T) {
	// Elevation rises 30m per 30m pixel toward the east: 45 degree slope,
	// downslope direction (aspect) faces west.
	g := gridFrom([][]float64{
		{0, 30, 60},
		{0, 30, 60},
		{0, 30, 60},
	}, -9999)

	a, err := Compute(g, 30)
	require.NoError(t, err)

	assert.InDelta(t, 45.0, a.Slope.Mean, 1e-9)
	assert.InDelta(t, 45.0, a.Slope.Min, 1e-9)
	assert.InDelta(t, 270.0, a.Aspect.Mean, 1e-9)
	assert.Equal(t, 100.0, a.Aspect.Distribution["West"])
	assert.Equal(t, 0.0, a.Roughness)
}

func TestComputeNorthRisingPlane(t *testing.T) {
	// Row 0 is the north edge; elevation rising northward drains south.
	g := gridFrom([][]float64{
		{60, 60, 60},
		{30, 30, 30},
		{0, 0, 0},
	}, -9999)

	a, err := Compute(g, 30)
	require.NoError(t, err)
	assert.InDelta(t, 180.0, a.Aspect.Mean, 1e-9)
	assert.Equal(t, 100.0, a.Aspect.Distribution["South"])
}

func TestAspectDistributionSumsTo100(t *testing.T) {
	g := gridFrom([][]float64{
		{0, 10, 15, 30},
		{5, 22, 38, 41},
		{12, 30, 44, 60},
		{20, 41, 58, 70},
	}, -9999)

	a, err := Compute(g, 30)
	require.NoError(t, err)

	var sum float64
	for _, pct := range a.Aspect.Distribution {
		sum += pct
	}
	assert.InDelta(t, 100.0, sum, 0.01)
}

func TestNorthBucketWraps(t *testing.T) {
	assert.Equal(t, "North", bucketFor(0))
	assert.Equal(t, "North", bucketFor(22.4))
	assert.Equal(t, "North", bucketFor(337.5))
	assert.Equal(t, "North", bucketFor(359.9))
	assert.Equal(t, "Northeast", bucketFor(22.5))
	assert.Equal(t, "East", bucketFor(90))
	assert.Equal(t, "South", bucketFor(180))
	assert.Equal(t, "West", bucketFor(270))
	assert.Equal(t, "Northwest", bucketFor(337.4))
}

func TestComputeExcludesNoData(t *testing.T) {
	nd := -9999.0
	g := gridFrom([][]float64{
		{nd, nd, nd},
		{nd, 100, nd},
		{nd, nd, nd},
	}, nd)

	// The only valid cell has nodata neighbors in every direction, so no
	// gradient can be formed.
	_, err := Compute(g, 30)
	assert.ErrorIs(t, err, ErrNoValidCells)
}

func TestComputeAllNoData(t *testing.T) {
	nd := -9999.0
	g := gridFrom([][]float64{{nd, nd}, {nd, nd}}, nd)
	_, err := Compute(g, 30)
	assert.ErrorIs(t, err, ErrNoValidCells)
}

func TestComputeDefaultsPixelSizeFromGrid(t *testing.T) {
	g := gridFrom([][]float64{{0, 30}, {0, 30}}, -9999)
	g.Transform = [6]float64{0, 30, 0, 60, 0, -30}

	a, err := Compute(g, 0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, a.PixelSizeMeters)
	assert.False(t, math.IsNaN(a.Slope.Mean))
}
