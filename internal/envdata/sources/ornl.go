package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/firewatch/env-data-aggregation/internal/httpx"
)

// ORNLBaseURL is the production MODIS subset web service.
const ORNLBaseURL = "https://modis.ornl.gov/rst/api/v1"

// subsetKilometers is the half-width of the requested pixel window.
const subsetKilometers = 1

// ORNLClient fetches MODIS subsets from the ORNL DAAC REST API.
type ORNLClient struct {
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewORNLClient creates a subset client. baseURL overrides the production
// endpoint in tests; pass empty for the default.
func NewORNLClient(baseURL string, client *http.Client) *ORNLClient {
	if baseURL == "" {
		baseURL = ORNLBaseURL
	}
	return &ORNLClient{
		baseURL: baseURL,
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("ornl-modis"),
	}
}

// FetchSubset requests the pixel window around a coordinate for every
// composite date in [start, end].
func (c *ORNLClient) FetchSubset(ctx context.Context, product, layer string, lat, lon float64, start, end time.Time) (*Subset, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("startDate", modisDate(start))
		values.Set("endDate", modisDate(end))
		values.Set("kmAboveBelow", fmt.Sprintf("%d", subsetKilometers))
		values.Set("kmLeftRight", fmt.Sprintf("%d", subsetKilometers))
		values.Set("band", layer)

		u := fmt.Sprintf("%s/%s/subset?%s", c.baseURL, product, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := httpx.DoRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("subset %s/%s: %w", product, layer, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Subset []struct {
			CalendarDate string    `json:"calendar_date"`
			Band         string    `json:"band"`
			Data         []float64 `json:"data"`
		} `json:"subset"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("subset %s/%s: decode: %w", product, layer, err)
	}

	out := &Subset{Product: product, Layer: layer}
	for _, entry := range payload.Subset {
		if entry.Band != "" && entry.Band != layer {
			continue
		}
		date, err := time.Parse("2006-01-02", entry.CalendarDate)
		if err != nil {
			continue
		}
		data := make([]int, len(entry.Data))
		for i, v := range entry.Data {
			data[i] = int(v)
		}
		out.Bands = append(out.Bands, SubsetBand{Date: date, Data: data})
	}
	return out, nil
}

// modisDate formats a time as the AYYYYDDD composite date the API expects.
func modisDate(t time.Time) string {
	return fmt.Sprintf("A%04d%03d", t.Year(), t.YearDay())
}
