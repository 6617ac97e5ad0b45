// Package envdata holds the core domain model of the aggregation service:
// collection requests, per-source results, and the merged response envelope.
package envdata

import (
	"time"
)

// Coordinate is a WGS84 point of interest.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CollectRequest asks for environmental data around a coordinate. Sources is
// optional; empty means every enabled source.
type CollectRequest struct {
	Latitude      float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64  `json:"longitude" validate:"min=-180,max=180"`
	BufferMeters  float64  `json:"buffer_meters" validate:"omitempty,min=100,max=50000"`
	Sources       []string `json:"sources" validate:"omitempty,dive,oneof=landfire modis usgs_elevation openweather"`
	CorrelationID string   `json:"correlation_id" validate:"omitempty,max=128"`
}

// Coordinate returns the request's point of interest.
func (r CollectRequest) Coordinate() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// RiskLevel is the closed set of risk interpretations a source may attach.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskExtreme  RiskLevel = "EXTREME"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// Currency classifies how fresh a source's data inherently is.
type Currency string

const (
	// CurrencyRealtime marks sources reporting current conditions.
	CurrencyRealtime Currency = "realtime"
	// CurrencyStatic marks sources backed by periodic surveys or composites.
	CurrencyStatic Currency = "static"
)

// SourceResult is one source's contribution to a merged response. A result
// with Errors may still carry partial data; QualityScore says how much to
// trust it.
type SourceResult struct {
	SourceID string `json:"source_id"`

	// CoordinateSpecific holds values sampled at the exact point.
	CoordinateSpecific map[string]any `json:"coordinate_specific,omitempty"`
	// AreaSummary holds statistics over the buffer around the point.
	AreaSummary map[string]any `json:"area_summary,omitempty"`

	RiskLabel RiskLevel `json:"risk_label,omitempty"`

	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	// QualityScore is 1.0 with no errors, 0.8 with partial errors,
	// 0.0 on total failure.
	QualityScore float64 `json:"quality_score"`

	FetchedAt  time.Time     `json:"fetched_at"`
	FetchTime  time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Failed reports whether the source produced no usable data at all.
func (r SourceResult) Failed() bool {
	return r.QualityScore == 0
}

// Summary rolls up the fan-out outcome for the whole request.
type Summary struct {
	TotalSources      int `json:"total_sources"`
	SuccessfulSources int `json:"successful_sources"`
	ErrorCount        int `json:"error_count"`
	// TimelinessScore grades data freshness on a 0-100 scale.
	TimelinessScore int `json:"timeliness_score"`
}

// AggregatedResponse is the versioned merged envelope returned to callers.
type AggregatedResponse struct {
	SchemaVersion string                  `json:"schema_version"`
	RequestID     string                  `json:"request_id"`
	CorrelationID string                  `json:"correlation_id,omitempty"`
	Coordinate    Coordinate              `json:"coordinate"`
	PlaceName     string                  `json:"place_name,omitempty"`
	CollectedAt   time.Time               `json:"collected_at"`
	Sources       map[string]SourceResult `json:"sources"`
	Summary       Summary                 `json:"summary"`
	// DataCurrency maps each source to realtime or static.
	DataCurrency map[string]Currency `json:"data_currency"`
}

// SchemaVersion identifies the envelope layout. Bump on breaking changes.
const SchemaVersion = "1.0"
