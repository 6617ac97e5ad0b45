package sources

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/interpret"
	"github.com/firewatch/env-data-aggregation/internal/raster"
)

// CoverageClient fetches one raster layer clipped to a bounding box.
type CoverageClient interface {
	FetchCoverage(ctx context.Context, layer string, box BBox, width, height int) (*raster.Grid, error)
}

// LandfireYear pins the layer naming for one LANDFIRE release.
type LandfireYear struct {
	LayerPrefix string // two-digit survey year, e.g. "24"
	Version     string // release version suffix, e.g. "250"
}

var landfireYears = map[int]LandfireYear{
	2024: {LayerPrefix: "24", Version: "250"},
	2023: {LayerPrefix: "23", Version: "240"},
	2022: {LayerPrefix: "22", Version: "230"},
}

// landfireProduct binds a product to its LANDFIRE layer code.
type landfireProduct struct {
	product interpret.Product
	code    string
}

var landfireProducts = []landfireProduct{
	{interpret.ProductVegetationType, "EVT"},
	{interpret.ProductFuelModel, "F40"},
	{interpret.ProductCanopyCover, "CC"},
	{interpret.ProductCanopyHeight, "CH"},
	{interpret.ProductCanopyBulkDensity, "CBD"},
	{interpret.ProductCanopyBaseHeight, "CBH"},
}

// Landfire samples vegetation, fuel, and canopy layers from the LANDFIRE
// coverage service and interprets them through attribute tables.
type Landfire struct {
	client  CoverageClient
	decoder *interpret.Decoder
	policy  envdata.LandCoverRiskPolicy
	year    LandfireYear
	timeout time.Duration
	logger  *zap.Logger
}

// NewLandfire creates the adapter for a configured survey year.
func NewLandfire(client CoverageClient, decoder *interpret.Decoder, year int, timeout time.Duration, logger *zap.Logger) (*Landfire, error) {
	yc, ok := landfireYears[year]
	if !ok {
		return nil, fmt.Errorf("unsupported landfire year %d", year)
	}
	return &Landfire{
		client:  client,
		decoder: decoder,
		policy:  envdata.DefaultLandCoverRiskPolicy,
		year:    yc,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (l *Landfire) Name() string               { return NameLandfire }
func (l *Landfire) Currency() envdata.Currency { return envdata.CurrencyStatic }
func (l *Landfire) Timeout() time.Duration     { return l.timeout }

// Fetch pulls every configured layer for the buffer window, samples the
// request coordinate in each, and summarizes the surrounding area. Layer
// failures degrade the result instead of failing it.
func (l *Landfire) Fetch(ctx context.Context, req envdata.CollectRequest) envdata.SourceResult {
	box := bboxAround(req.Latitude, req.Longitude, req.BufferMeters)

	result := envdata.SourceResult{
		SourceID:           NameLandfire,
		CoordinateSpecific: make(map[string]any),
		AreaSummary:        make(map[string]any),
		RiskLabel:          envdata.RiskUnknown,
	}

	succeeded := 0
	labels := make(map[interpret.Product]string)
	for _, p := range landfireProducts {
		layer := l.layerName(p.code)

		g, err := l.client.FetchCoverage(ctx, layer, box, sampleGridSize, sampleGridSize)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.product, err))
			continue
		}
		succeeded++

		l.samplePixel(ctx, g, p.product, req, &result, labels)

		if p.product == interpret.ProductVegetationType {
			result.AreaSummary["vegetation_coverage"] = l.decoder.Coverage(ctx, g, p.product)
		} else if !p.product.Categorical() {
			result.AreaSummary[string(p.product)+"_stats"] = statsMap(g.Summarize())
		}
	}

	// Land cover risk weighs the vegetation class first, then the fuel bed.
	vegetation := labels[interpret.ProductVegetationType]
	fuel := labels[interpret.ProductFuelModel]
	if vegetation != "" || fuel != "" {
		result.RiskLabel = l.policy.Classify(vegetation, fuel)
	}

	result.QualityScore = qualityScore(succeeded, len(landfireProducts))
	return result
}

func (l *Landfire) layerName(code string) string {
	return fmt.Sprintf("LC%s_%s_%s", l.year.LayerPrefix, code, l.year.Version)
}

func (l *Landfire) samplePixel(ctx context.Context, g *raster.Grid, product interpret.Product, req envdata.CollectRequest, result *envdata.SourceResult, labels map[interpret.Product]string) {
	v, row, col, err := g.Sample(req.Latitude, req.Longitude)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", product, err))
		return
	}

	if product.Categorical() {
		code := int(v)
		label := l.decoder.Decode(ctx, code, product)
		labels[product] = label
		result.CoordinateSpecific[string(product)] = map[string]any{
			"code":  code,
			"label": label,
			"pixel": pixelRef(row, col),
		}
		switch product {
		case interpret.ProductVegetationType:
			result.CoordinateSpecific["vegetation_class"] = label
		case interpret.ProductFuelModel:
			result.CoordinateSpecific["fuel_model_class"] = label
		}
		return
	}

	result.CoordinateSpecific[string(product)] = map[string]any{
		"value": v,
		"units": product.Unit(),
		"pixel": pixelRef(row, col),
	}
}

func pixelRef(row, col int) map[string]int {
	return map[string]int{"row": row, "col": col}
}

func statsMap(s raster.Stats) map[string]any {
	return map[string]any{
		"min":   s.Min,
		"max":   s.Max,
		"mean":  s.Mean,
		"std":   s.Std,
		"count": s.Count,
	}
}
