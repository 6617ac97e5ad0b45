package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/httpx"
)

// OpenWeather reads current conditions and the 5-day forecast from
// OpenWeatherMap and scores fire weather from them. It is the only realtime
// source in the default set.
type OpenWeather struct {
	apiKey  string
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
	policy  envdata.WeatherRiskPolicy
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenWeather creates the adapter. baseURL is the API root without a
// trailing slash; it overrides the production endpoint in tests, pass empty
// for the default.
func NewOpenWeather(client *http.Client, apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *OpenWeather {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	return &OpenWeather{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("openweather"),
		policy:  envdata.DefaultWeatherRiskPolicy,
		timeout: timeout,
		logger:  logger,
	}
}

func (p *OpenWeather) Name() string               { return NameOpenWeather }
func (p *OpenWeather) Currency() envdata.Currency { return envdata.CurrencyRealtime }
func (p *OpenWeather) Timeout() time.Duration     { return p.timeout }

// observation is the shared shape of one OpenWeatherMap reading.
type observation struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Fetch reads current conditions and the forecast at the coordinate. Weather
// has no area component; everything lands in CoordinateSpecific. A failed
// forecast degrades quality but current conditions alone still count.
func (p *OpenWeather) Fetch(ctx context.Context, req envdata.CollectRequest) envdata.SourceResult {
	result := envdata.SourceResult{
		SourceID:           NameOpenWeather,
		CoordinateSpecific: make(map[string]any),
		RiskLabel:          envdata.RiskUnknown,
	}

	if p.apiKey == "" {
		result.Errors = append(result.Errors, "openweather api key is not configured")
		result.QualityScore = 0
		return result
	}

	succeeded := 0

	var current observation
	if err := p.getJSON(ctx, "/weather", req, &current); err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.QualityScore = 0
		return result
	}
	succeeded++

	score, level := p.policy.Score(current.Main.Temp, current.Main.Humidity, current.Wind.Speed)

	result.CoordinateSpecific["temperature_c"] = current.Main.Temp
	result.CoordinateSpecific["humidity_percent"] = current.Main.Humidity
	result.CoordinateSpecific["wind_speed_ms"] = current.Wind.Speed
	result.CoordinateSpecific["wind_direction_deg"] = current.Wind.Deg
	result.CoordinateSpecific["pressure_hpa"] = current.Main.Pressure
	result.CoordinateSpecific["fire_weather_score"] = score
	result.CoordinateSpecific["factor_contributions"] = p.policy.Contributions(
		current.Main.Temp, current.Main.Humidity, current.Wind.Speed)
	if len(current.Weather) > 0 {
		result.CoordinateSpecific["conditions"] = current.Weather[0].Description
	}
	if current.Dt > 0 {
		result.CoordinateSpecific["observed_at"] = time.Unix(current.Dt, 0).UTC().Format(time.RFC3339)
	}
	result.RiskLabel = level

	var forecast struct {
		List []observation `json:"list"`
	}
	if err := p.getJSON(ctx, "/forecast", req, &forecast); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("forecast unavailable: %v", err))
	} else if analysis := p.policy.AnalyzeForecast(forecastPoints(forecast.List)); analysis != nil {
		result.CoordinateSpecific["forecast"] = analysis
		succeeded++
	} else {
		result.Warnings = append(result.Warnings, "forecast returned no timesteps")
	}

	result.QualityScore = qualityScore(succeeded, 2)
	return result
}

func (p *OpenWeather) getJSON(ctx context.Context, path string, req envdata.CollectRequest, out any) error {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", req.Latitude))
		values.Set("lon", fmt.Sprintf("%f", req.Longitude))

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := httpx.DoRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", envdata.ErrProviderUnavailable, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s: %w", path, err)
	}
	return nil
}

func forecastPoints(list []observation) []envdata.ForecastPoint {
	points := make([]envdata.ForecastPoint, 0, len(list))
	for _, obs := range list {
		points = append(points, envdata.ForecastPoint{
			Time:        time.Unix(obs.Dt, 0).UTC(),
			TempC:       obs.Main.Temp,
			HumidityPct: obs.Main.Humidity,
			WindMS:      obs.Wind.Speed,
		})
	}
	return points
}
