package envdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeatherRiskPolicyScore(t *testing.T) {
	tests := []struct {
		name      string
		temp      float64
		humidity  float64
		wind      float64
		wantScore int
		wantLevel RiskLevel
	}{
		{"extreme fire weather", 32, 15, 18, 9, RiskExtreme},
		{"high", 27, 35, 8, 5, RiskHigh},
		{"moderate", 22, 55, 6, 3, RiskModerate},
		{"benign", 15, 70, 2, 0, RiskLow},
		{"boundary extreme", 31, 65, 16, 6, RiskHigh},
		{"humidity only", 10, 10, 0, 3, RiskModerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := DefaultWeatherRiskPolicy.Score(tt.temp, tt.humidity, tt.wind)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestWeatherRiskPolicyContributions(t *testing.T) {
	c := DefaultWeatherRiskPolicy.Contributions(32, 45, 6)
	assert.Equal(t, "HIGH", c["temperature"])
	assert.Equal(t, "MODERATE", c["humidity"])
	assert.Equal(t, "LOW", c["wind"])

	c = DefaultWeatherRiskPolicy.Contributions(10, 80, 1)
	assert.Equal(t, "MINIMAL", c["temperature"])
	assert.Equal(t, "MINIMAL", c["humidity"])
	assert.Equal(t, "MINIMAL", c["wind"])
}

func TestAnalyzeForecast(t *testing.T) {
	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	point := func(hours int, temp, humidity, wind float64) ForecastPoint {
		return ForecastPoint{
			Time:        base.Add(time.Duration(hours) * time.Hour),
			TempC:       temp,
			HumidityPct: humidity,
			WindMS:      wind,
		}
	}

	t.Run("cooling trend", func(t *testing.T) {
		a := DefaultWeatherRiskPolicy.AnalyzeForecast([]ForecastPoint{
			point(0, 33, 14, 16),
			point(3, 31, 18, 12),
			point(6, 22, 55, 4),
			point(9, 14, 75, 2),
		})
		assert.Equal(t, TrendDecreasing, a.Trend)
		assert.Equal(t, 9, a.PeakScore)
		assert.Equal(t, RiskExtreme, a.PeakLevel)
		assert.Equal(t, base, a.PeakTime)
	})

	t.Run("flat series is stable", func(t *testing.T) {
		a := DefaultWeatherRiskPolicy.AnalyzeForecast([]ForecastPoint{
			point(0, 22, 55, 6),
			point(3, 22, 55, 6),
			point(6, 22, 55, 6),
		})
		assert.Equal(t, TrendStable, a.Trend)
		assert.Equal(t, 3, a.Distribution[RiskModerate])
	})

	t.Run("peak ties break earlier", func(t *testing.T) {
		a := DefaultWeatherRiskPolicy.AnalyzeForecast([]ForecastPoint{
			point(0, 33, 14, 16),
			point(3, 33, 14, 16),
		})
		assert.Equal(t, base, a.PeakTime)
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Nil(t, DefaultWeatherRiskPolicy.AnalyzeForecast(nil))
	})
}

func TestVegetationIndexPolicyClassify(t *testing.T) {
	tests := []struct {
		index      float64
		wantHealth string
		wantRisk   RiskLevel
	}{
		{0.65, "HEALTHY", RiskLow},
		{0.6, "HEALTHY", RiskLow},
		{0.45, "MODERATE", RiskModerate},
		{0.2, "STRESSED", RiskHigh},
		{0.05, "SEVERELY_STRESSED", RiskExtreme},
		{-0.1, "SEVERELY_STRESSED", RiskExtreme},
	}

	for _, tt := range tests {
		health, risk := DefaultVegetationIndexPolicy.Classify(tt.index)
		assert.Equal(t, tt.wantHealth, health, "index %v", tt.index)
		assert.Equal(t, tt.wantRisk, risk, "index %v", tt.index)
	}
}

func TestTerrainRiskPolicyClassify(t *testing.T) {
	assert.Equal(t, RiskHigh, DefaultTerrainRiskPolicy.Classify(120))
	assert.Equal(t, RiskModerate, DefaultTerrainRiskPolicy.Classify(75))
	assert.Equal(t, RiskLow, DefaultTerrainRiskPolicy.Classify(30))
	assert.Equal(t, RiskLow, DefaultTerrainRiskPolicy.Classify(0))
}

func TestLandCoverRiskPolicyClassify(t *testing.T) {
	tests := []struct {
		name       string
		vegetation string
		fuel       string
		want       RiskLevel
	}{
		{"developed vegetation wins over burnable fuel", "Developed-Low Intensity", "Chaparral (6 ft)", RiskLow},
		{"urban vegetation", "Urban-Medium Intensity", "Short Grass (1 hr)", RiskLow},
		{"open water", "Open Water", "", RiskLow},
		{"chaparral fuel under scrub", "California Coastal Scrub", "Chaparral (6 ft)", RiskHigh},
		{"grass fuel", "California Coastal Scrub", "Short Grass (1 hr)", RiskHigh},
		{"timber fuel", "California Coastal Scrub", "Timber (Grass and Understory)", RiskHigh},
		{"fuel only", "", "Chaparral (6 ft)", RiskHigh},
		{"non-burnable fuel", "California Coastal Scrub", "Urban/Developed (Non-burnable)", RiskModerate},
		{"vegetation only", "California Coastal Scrub", "", RiskModerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultLandCoverRiskPolicy.Classify(tt.vegetation, tt.fuel))
		})
	}
}
