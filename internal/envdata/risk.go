package envdata

import (
	"strings"
	"time"

	"github.com/firewatch/env-data-aggregation/internal/common"
)

// Risk policies are declarative threshold tables rather than hard-coded
// conditionals so tuning for a region means editing data, not logic.

// ScoreBand awards points when a reading crosses a threshold. Bands are
// ordered most severe first; the first match wins.
type ScoreBand struct {
	Threshold float64
	Points    int
}

// LevelBand maps an accumulated score to a risk level. Ordered highest
// minimum first.
type LevelBand struct {
	MinScore int
	Level    RiskLevel
}

// WeatherRiskPolicy scores fire weather from temperature, humidity, and wind.
// Temperature and wind award points above their thresholds, humidity below.
type WeatherRiskPolicy struct {
	TemperatureAbove []ScoreBand
	HumidityBelow    []ScoreBand
	WindAbove        []ScoreBand
	Levels           []LevelBand
}

// DefaultWeatherRiskPolicy is tuned for chaparral fire weather.
var DefaultWeatherRiskPolicy = WeatherRiskPolicy{
	TemperatureAbove: []ScoreBand{{30, 3}, {25, 2}, {20, 1}},
	HumidityBelow:    []ScoreBand{{20, 3}, {40, 2}, {60, 1}},
	WindAbove:        []ScoreBand{{15, 3}, {10, 2}, {5, 1}},
	Levels: []LevelBand{
		{7, RiskExtreme},
		{5, RiskHigh},
		{3, RiskModerate},
		{0, RiskLow},
	},
}

// Score returns the additive fire-weather score and its risk level.
func (p WeatherRiskPolicy) Score(tempC, humidityPct, windMS float64) (int, RiskLevel) {
	score := 0
	score += pointsAbove(p.TemperatureAbove, tempC)
	score += pointsBelow(p.HumidityBelow, humidityPct)
	score += pointsAbove(p.WindAbove, windMS)
	return score, levelFor(p.Levels, score)
}

// Contributions labels how much each factor adds to the score, keyed by
// factor name. 3 points is HIGH, 2 MODERATE, 1 LOW, 0 MINIMAL.
func (p WeatherRiskPolicy) Contributions(tempC, humidityPct, windMS float64) map[string]string {
	return map[string]string{
		"temperature": contributionLabel(pointsAbove(p.TemperatureAbove, tempC)),
		"humidity":    contributionLabel(pointsBelow(p.HumidityBelow, humidityPct)),
		"wind":        contributionLabel(pointsAbove(p.WindAbove, windMS)),
	}
}

func contributionLabel(points int) string {
	switch {
	case points >= 3:
		return "HIGH"
	case points == 2:
		return "MODERATE"
	case points == 1:
		return "LOW"
	default:
		return "MINIMAL"
	}
}

func pointsAbove(bands []ScoreBand, v float64) int {
	for _, b := range bands {
		if v > b.Threshold {
			return b.Points
		}
	}
	return 0
}

func pointsBelow(bands []ScoreBand, v float64) int {
	for _, b := range bands {
		if v < b.Threshold {
			return b.Points
		}
	}
	return 0
}

func levelFor(bands []LevelBand, score int) RiskLevel {
	for _, b := range bands {
		if score >= b.MinScore {
			return b.Level
		}
	}
	return RiskUnknown
}

// WeatherTrend describes how fire weather evolves over a forecast series.
type WeatherTrend string

const (
	TrendIncreasing WeatherTrend = "INCREASING"
	TrendDecreasing WeatherTrend = "DECREASING"
	TrendStable     WeatherTrend = "STABLE"
)

// ForecastPoint is one timestep of a weather forecast.
type ForecastPoint struct {
	Time        time.Time
	TempC       float64
	HumidityPct float64
	WindMS      float64
}

// ForecastAnalysis summarizes fire-weather risk over a forecast series.
type ForecastAnalysis struct {
	Trend        WeatherTrend      `json:"trend"`
	Distribution map[RiskLevel]int `json:"risk_distribution"`
	PeakScore    int               `json:"peak_score"`
	PeakLevel    RiskLevel         `json:"peak_level"`
	PeakTime     time.Time         `json:"peak_time"`
}

// AnalyzeForecast scores each timestep, counts the risk level distribution,
// finds the peak-risk timestep, and compares half-series mean scores to call
// the trend. A shift of more than 5% of the first-half mean is a trend; ties
// break toward the earlier peak. Returns nil for an empty series.
func (p WeatherRiskPolicy) AnalyzeForecast(points []ForecastPoint) *ForecastAnalysis {
	if len(points) == 0 {
		return nil
	}

	a := &ForecastAnalysis{
		Distribution: make(map[RiskLevel]int),
		PeakScore:    -1,
	}

	scores := make([]float64, len(points))
	for i, pt := range points {
		score, level := p.Score(pt.TempC, pt.HumidityPct, pt.WindMS)
		scores[i] = float64(score)
		a.Distribution[level]++
		if score > a.PeakScore {
			a.PeakScore = score
			a.PeakLevel = level
			a.PeakTime = pt.Time
		}
	}

	a.Trend = trendOf(scores)
	return a
}

func trendOf(scores []float64) WeatherTrend {
	if len(scores) < 2 {
		return TrendStable
	}

	half := len(scores) / 2
	first := mean(scores[:half])
	second := mean(scores[len(scores)-half:])

	margin := 0.05 * first
	switch {
	case second > first+margin:
		return TrendIncreasing
	case second < first-margin:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// VegetationTier classifies canopy health from a vegetation index value.
type VegetationTier struct {
	MinIndex float64
	Health   string
	FireRisk RiskLevel
}

// VegetationIndexPolicy interprets NDVI-like indices. Tiers are ordered
// healthiest first; the first tier whose minimum the value meets wins.
type VegetationIndexPolicy struct {
	Tiers   []VegetationTier
	Default VegetationTier
}

// DefaultVegetationIndexPolicy: green vegetation holds moisture, stressed
// vegetation burns.
var DefaultVegetationIndexPolicy = VegetationIndexPolicy{
	Tiers: []VegetationTier{
		{0.6, "HEALTHY", RiskLow},
		{0.3, "MODERATE", RiskModerate},
		{0.1, "STRESSED", RiskHigh},
	},
	Default: VegetationTier{MinIndex: -1, Health: "SEVERELY_STRESSED", FireRisk: RiskExtreme},
}

// Classify returns the health status and fire risk for an index value.
func (p VegetationIndexPolicy) Classify(index float64) (string, RiskLevel) {
	for _, t := range p.Tiers {
		if index >= t.MinIndex {
			return t.Health, t.FireRisk
		}
	}
	return p.Default.Health, p.Default.FireRisk
}

// TerrainRiskPolicy grades fire spread potential from local relief. Steeper
// terrain preheats upslope fuels; elevation range over the sample window is
// the proxy.
type TerrainRiskPolicy struct {
	RangeBands []struct {
		MinRange float64
		Level    RiskLevel
	}
}

// DefaultTerrainRiskPolicy uses elevation range over the sampled window.
var DefaultTerrainRiskPolicy = TerrainRiskPolicy{
	RangeBands: []struct {
		MinRange float64
		Level    RiskLevel
	}{
		{100, RiskHigh},
		{50, RiskModerate},
		{0, RiskLow},
	},
}

// Classify maps an elevation range in meters to a risk level.
func (p TerrainRiskPolicy) Classify(elevationRange float64) RiskLevel {
	for _, b := range p.RangeBands {
		if elevationRange > b.MinRange {
			return b.Level
		}
	}
	return RiskLow
}

// LandCoverRule assigns a risk level when a decoded label contains any of
// its keywords (case-insensitive).
type LandCoverRule struct {
	Keywords []string
	Level    RiskLevel
}

// LandCoverRiskPolicy interprets decoded vegetation and fuel model labels.
// Vegetation rules run first, then fuel rules; the first match wins,
// otherwise Default applies.
type LandCoverRiskPolicy struct {
	VegetationRules []LandCoverRule
	FuelRules       []LandCoverRule
	Default         RiskLevel
}

// DefaultLandCoverRiskPolicy: developed and wet cover resists ignition, a
// brush or grass fuel bed carries fire.
var DefaultLandCoverRiskPolicy = LandCoverRiskPolicy{
	VegetationRules: []LandCoverRule{
		{Keywords: []string{"developed", "urban", "water"}, Level: RiskLow},
	},
	FuelRules: []LandCoverRule{
		{Keywords: []string{"chaparral", "timber", "grass"}, Level: RiskHigh},
	},
	Default: RiskModerate,
}

// Classify maps a vegetation label and a fuel model label to a risk level.
// Either label may be empty when its layer did not resolve.
func (p LandCoverRiskPolicy) Classify(vegetation, fuel string) RiskLevel {
	if level, ok := matchLandCover(p.VegetationRules, vegetation); ok {
		return level
	}
	if level, ok := matchLandCover(p.FuelRules, fuel); ok {
		return level
	}
	return p.Default
}

func matchLandCover(rules []LandCoverRule, label string) (RiskLevel, bool) {
	if label == "" {
		return RiskUnknown, false
	}
	lower := strings.ToLower(label)
	for _, rule := range rules {
		if common.HasAny(lower, rule.Keywords...) {
			return rule.Level, true
		}
	}
	return RiskUnknown, false
}
