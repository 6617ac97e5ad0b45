package sources

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/terrain"
)

// usgsElevationLayer is the 3DEP one-third arc-second DEM coverage.
const usgsElevationLayer = "DEP3Elevation"

// USGS samples the national elevation model and derives terrain structure
// (slope, aspect, roughness) over the buffer window.
type USGS struct {
	client  CoverageClient
	policy  envdata.TerrainRiskPolicy
	timeout time.Duration
	logger  *zap.Logger
}

// NewUSGS creates the elevation adapter.
func NewUSGS(client CoverageClient, timeout time.Duration, logger *zap.Logger) *USGS {
	return &USGS{
		client:  client,
		policy:  envdata.DefaultTerrainRiskPolicy,
		timeout: timeout,
		logger:  logger,
	}
}

func (u *USGS) Name() string               { return NameUSGS }
func (u *USGS) Currency() envdata.Currency { return envdata.CurrencyStatic }
func (u *USGS) Timeout() time.Duration     { return u.timeout }

// Fetch pulls the elevation window, samples the point elevation, and runs
// the terrain derivatives. A DEM fetch failure is total: there is nothing
// to degrade to.
func (u *USGS) Fetch(ctx context.Context, req envdata.CollectRequest) envdata.SourceResult {
	result := envdata.SourceResult{
		SourceID:           NameUSGS,
		CoordinateSpecific: make(map[string]any),
		AreaSummary:        make(map[string]any),
		RiskLabel:          envdata.RiskUnknown,
	}

	box := bboxAround(req.Latitude, req.Longitude, req.BufferMeters)
	g, err := u.client.FetchCoverage(ctx, usgsElevationLayer, box, sampleGridSize, sampleGridSize)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("elevation: %v", err))
		result.QualityScore = 0
		return result
	}

	parts := 0
	total := 3

	if v, row, col, err := g.Sample(req.Latitude, req.Longitude); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("elevation: %v", err))
	} else {
		result.CoordinateSpecific["elevation"] = map[string]any{
			"value": v,
			"units": "meters",
			"pixel": pixelRef(row, col),
		}
		parts++
	}

	stats := g.Summarize()
	if stats.Count > 0 {
		elevationStats := statsMap(stats)
		elevationStats["elevation_range"] = stats.Max - stats.Min
		result.AreaSummary["elevation_stats"] = elevationStats
		result.RiskLabel = u.policy.Classify(stats.Max - stats.Min)
		parts++
	} else {
		result.Errors = append(result.Errors, "elevation: window holds no valid cells")
	}

	// Degrees of longitude shrink with latitude; the grid carries degrees,
	// the derivatives need meters.
	pixelMeters := g.PixelSize() * metersPerDegree
	analysis, err := terrain.Compute(g, pixelMeters)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("terrain: %v", err))
	} else {
		result.AreaSummary["terrain"] = analysis
		parts++
	}

	result.QualityScore = qualityScore(parts, total)
	return result
}
