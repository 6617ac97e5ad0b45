package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/interpret"
	"github.com/firewatch/env-data-aggregation/internal/raster"
)

// losAngeles is the downtown coordinate used across adapter tests.
var losAngeles = envdata.CollectRequest{Latitude: 34.0522, Longitude: -118.2437}

// testGrid builds a 3x3 north-up grid whose center pixel covers losAngeles.
func testGrid(values [][]float64) *raster.Grid {
	return &raster.Grid{
		Width:     3,
		Height:    3,
		Transform: [6]float64{-118.25, 0.005, 0, 34.06, 0, -0.005},
		CRS:       "EPSG:4326",
		NoData:    -9999,
		HasNoData: true,
		Values:    values,
	}
}

func uniformGrid(v float64) *raster.Grid {
	return testGrid([][]float64{{v, v, v}, {v, v, v}, {v, v, v}})
}

// fakeCoverageClient serves scripted grids by layer name.
type fakeCoverageClient struct {
	grids   map[string]*raster.Grid
	failAll bool
}

func (f *fakeCoverageClient) FetchCoverage(_ context.Context, layer string, _ BBox, _, _ int) (*raster.Grid, error) {
	if f.failAll {
		return nil, errors.New("service unavailable")
	}
	g, ok := f.grids[layer]
	if !ok {
		return nil, errors.New("coverage not found")
	}
	return g, nil
}

type fixedLoader struct {
	tables map[interpret.Product]map[int]string
}

func (f *fixedLoader) Load(_ context.Context, p interpret.Product) (map[int]string, error) {
	t, ok := f.tables[p]
	if !ok {
		return nil, errors.New("no table")
	}
	return t, nil
}

func landfireDecoder() *interpret.Decoder {
	return interpret.NewDecoder(&fixedLoader{tables: map[interpret.Product]map[int]string{
		interpret.ProductVegetationType: {
			7296: "California Coastal Scrub",
			7298: "Developed-Low Intensity",
		},
		interpret.ProductFuelModel: {
			91:  "Urban/Developed (Non-burnable)",
			104: "Chaparral (6 ft)",
		},
	}}, zap.NewNop(), nil)
}

func allLandfireGrids() map[string]*raster.Grid {
	return map[string]*raster.Grid{
		"LC24_EVT_250": testGrid([][]float64{
			{7296, 7296, 7296},
			{7296, 7298, 7296},
			{7296, 7296, 7296},
		}),
		"LC24_F40_250": uniformGrid(91),
		"LC24_CC_250":  uniformGrid(45),
		"LC24_CH_250":  uniformGrid(12),
		"LC24_CBD_250": uniformGrid(0.15),
		"LC24_CBH_250": uniformGrid(2.5),
	}
}

func TestLandfireFetch(t *testing.T) {
	client := &fakeCoverageClient{grids: allLandfireGrids()}
	src, err := NewLandfire(client, landfireDecoder(), 2024, 10*time.Second, zap.NewNop())
	require.NoError(t, err)

	result := src.Fetch(context.Background(), losAngeles)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 1.0, result.QualityScore)

	veg, ok := result.CoordinateSpecific["vegetation_type"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 7298, veg["code"])
	assert.Equal(t, "Developed-Low Intensity", veg["label"])
	assert.Equal(t, map[string]int{"row": 1, "col": 1}, veg["pixel"])

	fuel, ok := result.CoordinateSpecific["fuel_model"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Urban/Developed (Non-burnable)", fuel["label"])

	// Flat class labels sit next to the structured pixel reports.
	assert.Equal(t, "Developed-Low Intensity", result.CoordinateSpecific["vegetation_class"])
	assert.Equal(t, "Urban/Developed (Non-burnable)", result.CoordinateSpecific["fuel_model_class"])

	canopy, ok := result.CoordinateSpecific["canopy_cover"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 45.0, canopy["value"])
	assert.Equal(t, "percent", canopy["units"])

	// Developed land cover is low ignition risk.
	assert.Equal(t, envdata.RiskLow, result.RiskLabel)

	coverage, ok := result.AreaSummary["vegetation_coverage"].(map[string]float64)
	require.True(t, ok)
	assert.InDelta(t, 11.11, coverage["Developed-Low Intensity"], 0.01)
	assert.InDelta(t, 88.89, coverage["California Coastal Scrub"], 0.01)

	assert.Contains(t, result.AreaSummary, "canopy_cover_stats")
}

func TestLandfirePartialFailure(t *testing.T) {
	grids := allLandfireGrids()
	delete(grids, "LC24_CC_250")

	src, err := NewLandfire(&fakeCoverageClient{grids: grids}, landfireDecoder(), 2024, 10*time.Second, zap.NewNop())
	require.NoError(t, err)

	result := src.Fetch(context.Background(), losAngeles)

	assert.Equal(t, 0.8, result.QualityScore)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "canopy_cover")
	// The surviving layers still produced data.
	assert.Contains(t, result.CoordinateSpecific, "vegetation_type")
}

func TestLandfireTotalFailure(t *testing.T) {
	src, err := NewLandfire(&fakeCoverageClient{failAll: true}, landfireDecoder(), 2024, 10*time.Second, zap.NewNop())
	require.NoError(t, err)

	result := src.Fetch(context.Background(), losAngeles)

	assert.Equal(t, 0.0, result.QualityScore)
	assert.True(t, result.Failed())
	assert.Len(t, result.Errors, len(landfireProducts))
	assert.Equal(t, envdata.RiskUnknown, result.RiskLabel)
}

func TestLandfireChaparralFuelIsHighRisk(t *testing.T) {
	// Coastal scrub vegetation matches no rule; the chaparral fuel bed
	// must still drive the rating up.
	grids := allLandfireGrids()
	grids["LC24_EVT_250"] = uniformGrid(7296)
	grids["LC24_F40_250"] = uniformGrid(104)

	src, err := NewLandfire(&fakeCoverageClient{grids: grids}, landfireDecoder(), 2024, 10*time.Second, zap.NewNop())
	require.NoError(t, err)

	result := src.Fetch(context.Background(), losAngeles)
	assert.Equal(t, "California Coastal Scrub", result.CoordinateSpecific["vegetation_class"])
	assert.Equal(t, "Chaparral (6 ft)", result.CoordinateSpecific["fuel_model_class"])
	assert.Equal(t, envdata.RiskHigh, result.RiskLabel)
}

func TestLandfireFuelOnlyStillRates(t *testing.T) {
	// A missing vegetation layer leaves the fuel rule to decide alone.
	grids := allLandfireGrids()
	delete(grids, "LC24_EVT_250")
	grids["LC24_F40_250"] = uniformGrid(104)

	src, err := NewLandfire(&fakeCoverageClient{grids: grids}, landfireDecoder(), 2024, 10*time.Second, zap.NewNop())
	require.NoError(t, err)

	result := src.Fetch(context.Background(), losAngeles)
	assert.Equal(t, envdata.RiskHigh, result.RiskLabel)
}

func TestNewLandfireRejectsUnknownYear(t *testing.T) {
	_, err := NewLandfire(&fakeCoverageClient{}, landfireDecoder(), 2019, time.Second, zap.NewNop())
	assert.Error(t, err)
}
