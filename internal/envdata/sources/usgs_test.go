package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/raster"
	"github.com/firewatch/env-data-aggregation/internal/terrain"
)

func TestUSGSFetch(t *testing.T) {
	// Elevation 50..170 m over the window: range 120 m.
	dem := testGrid([][]float64{
		{50, 60, 70},
		{80, 100, 120},
		{140, 160, 170},
	})
	client := &fakeCoverageClient{grids: map[string]*raster.Grid{usgsElevationLayer: dem}}

	src := NewUSGS(client, 10*time.Second, zap.NewNop())
	result := src.Fetch(context.Background(), losAngeles)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 1.0, result.QualityScore)

	point, ok := result.CoordinateSpecific["elevation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 100.0, point["value"])

	stats, ok := result.AreaSummary["elevation_stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 50.0, stats["min"])
	assert.Equal(t, 170.0, stats["max"])
	assert.Equal(t, 120.0, stats["elevation_range"])

	// 120 m of relief grades as high spread potential.
	assert.Equal(t, envdata.RiskHigh, result.RiskLabel)

	analysis, ok := result.AreaSummary["terrain"].(*terrain.Analysis)
	require.True(t, ok)
	assert.Greater(t, analysis.Slope.Mean, 0.0)

	sum := 0.0
	for _, pct := range analysis.Aspect.Distribution {
		sum += pct
	}
	assert.InDelta(t, 100, sum, 0.05)
}

func TestUSGSModerateRelief(t *testing.T) {
	dem := testGrid([][]float64{
		{100, 110, 120},
		{110, 130, 140},
		{120, 140, 160},
	})
	client := &fakeCoverageClient{grids: map[string]*raster.Grid{usgsElevationLayer: dem}}

	src := NewUSGS(client, 10*time.Second, zap.NewNop())
	result := src.Fetch(context.Background(), losAngeles)

	// 60 m of relief sits in the moderate band.
	assert.Equal(t, envdata.RiskModerate, result.RiskLabel)
}

func TestUSGSFetchFailure(t *testing.T) {
	src := NewUSGS(&fakeCoverageClient{failAll: true}, 10*time.Second, zap.NewNop())
	result := src.Fetch(context.Background(), losAngeles)

	assert.True(t, result.Failed())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "elevation")
	assert.Equal(t, envdata.RiskUnknown, result.RiskLabel)
}

func TestUSGSNoDataPixel(t *testing.T) {
	dem := testGrid([][]float64{
		{50, 60, 70},
		{80, -9999, 120},
		{140, 160, 170},
	})
	client := &fakeCoverageClient{grids: map[string]*raster.Grid{usgsElevationLayer: dem}}

	src := NewUSGS(client, 10*time.Second, zap.NewNop())
	result := src.Fetch(context.Background(), losAngeles)

	// The point sample fails but the area statistics survive.
	assert.Equal(t, 0.8, result.QualityScore)
	assert.NotContains(t, result.CoordinateSpecific, "elevation")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.AreaSummary, "elevation_stats")
}
