package sources

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/interpret"
)

// SubsetBand is one composite date of a MODIS subset: the raw integer values
// of the pixel window around the request coordinate.
type SubsetBand struct {
	Date time.Time
	Data []int
}

// Subset is the response of a subset request for one (product, layer) pair.
// Bands are ordered by date ascending.
type Subset struct {
	Product string
	Layer   string
	Bands   []SubsetBand
}

// SubsetClient fetches MODIS subsets from the ORNL DAAC web service.
type SubsetClient interface {
	FetchSubset(ctx context.Context, product, layer string, lat, lon float64, start, end time.Time) (*Subset, error)
}

// modisLayer binds an output key to the upstream product/layer pair.
type modisLayer struct {
	key     string
	product string
	layer   string
}

var modisLayers = []modisLayer{
	{key: "ndvi", product: "MOD13Q1", layer: "250m_16_days_NDVI"},
	{key: "evi", product: "MOD13Q1", layer: "250m_16_days_EVI"},
}

// modisStaleAfter is the compositing period of the vegetation index
// products. Anything older than one full period is flagged stale.
const modisStaleAfter = 16 * 24 * time.Hour

// MODIS samples satellite vegetation indices and interprets canopy health.
type MODIS struct {
	client     SubsetClient
	policy     envdata.VegetationIndexPolicy
	searchDays int
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewMODIS creates the adapter. searchDays bounds how far back to look for
// the latest composite; values under 90 are raised to 90 so a request always
// spans several compositing periods.
func NewMODIS(client SubsetClient, searchDays int, timeout time.Duration, logger *zap.Logger) *MODIS {
	if searchDays < 90 {
		searchDays = 90
	}
	return &MODIS{
		client:     client,
		policy:     envdata.DefaultVegetationIndexPolicy,
		searchDays: searchDays,
		timeout:    timeout,
		logger:     logger,
		now:        time.Now,
	}
}

func (m *MODIS) Name() string               { return NameMODIS }
func (m *MODIS) Currency() envdata.Currency { return envdata.CurrencyStatic }
func (m *MODIS) Timeout() time.Duration     { return m.timeout }

// Fetch pulls the latest composite for each configured layer, scales the
// center pixel to physical units, and classifies canopy health from NDVI.
func (m *MODIS) Fetch(ctx context.Context, req envdata.CollectRequest) envdata.SourceResult {
	result := envdata.SourceResult{
		SourceID:           NameMODIS,
		CoordinateSpecific: make(map[string]any),
		AreaSummary:        make(map[string]any),
		RiskLabel:          envdata.RiskUnknown,
	}

	end := m.now().UTC()
	start := end.AddDate(0, 0, -m.searchDays)

	succeeded := 0
	for _, l := range modisLayers {
		subset, err := m.client.FetchSubset(ctx, l.product, l.layer, req.Latitude, req.Longitude, start, end)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", l.key, err))
			continue
		}

		band, ok := latestBand(subset)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: no composites in window", l.key))
			continue
		}
		succeeded++

		m.interpretBand(l, band, &result)

		if age := end.Sub(band.Date); age > modisStaleAfter {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: stale data, latest composite is %d days old", l.key, int(age.Hours()/24)))
		}
	}

	result.QualityScore = qualityScore(succeeded, len(modisLayers))
	return result
}

func (m *MODIS) interpretBand(l modisLayer, band SubsetBand, result *envdata.SourceResult) {
	entry, _ := interpret.ScalingFor(l.product, l.layer)

	// Center pixel of the subset window is the request coordinate.
	raw := band.Data[len(band.Data)/2]
	value := interpret.Scale(raw, l.product, l.layer)

	pixel := map[string]any{
		"composite_date": band.Date.Format("2006-01-02"),
		"units":          entry.Units,
	}
	if math.IsNaN(value) {
		pixel["value"] = nil
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: fill value at coordinate", l.key))
	} else {
		pixel["value"] = value
		if l.key == "ndvi" {
			health, risk := m.policy.Classify(value)
			pixel["health_status"] = health
			result.RiskLabel = risk
		}
	}
	result.CoordinateSpecific[l.key] = pixel

	result.AreaSummary[l.key+"_stats"] = bandStats(band, l.product, l.layer)
}

// bandStats scales every pixel of the window and summarizes the valid ones.
func bandStats(band SubsetBand, product, layer string) map[string]any {
	var (
		count     int
		min       = math.Inf(1)
		max       = math.Inf(-1)
		sum       float64
		sumSquare float64
	)

	for _, raw := range band.Data {
		v := interpret.Scale(raw, product, layer)
		if math.IsNaN(v) {
			continue
		}
		count++
		sum += v
		sumSquare += v * v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if count == 0 {
		return map[string]any{"count": 0}
	}

	mean := sum / float64(count)
	variance := sumSquare/float64(count) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return map[string]any{
		"min":   min,
		"max":   max,
		"mean":  mean,
		"std":   math.Sqrt(variance),
		"count": count,
	}
}

func latestBand(s *Subset) (SubsetBand, bool) {
	for i := len(s.Bands) - 1; i >= 0; i-- {
		if len(s.Bands[i].Data) > 0 {
			return s.Bands[i], true
		}
	}
	return SubsetBand{}, false
}
