package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/firewatch/env-data-aggregation/internal/httpx"
	"github.com/firewatch/env-data-aggregation/internal/raster"
)

// Production coverage endpoints.
const (
	LandfireWCSBaseURL = "https://edcintl.cr.usgs.gov/geoserver/landfire/us/wcs"
	USGSWCSBaseURL     = "https://elevation.nationalmap.gov/arcgis/services/3DEPElevation/ImageServer/WCSServer"
)

// WCSClient fetches raster coverages over WCS 1.0.0 in the ArcGrid text
// format, which keeps decoding dependency-free.
type WCSClient struct {
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewWCSClient creates a coverage client for one WCS endpoint.
func NewWCSClient(baseURL string, client *http.Client) *WCSClient {
	return &WCSClient{
		baseURL: baseURL,
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("wcs:" + baseURL),
	}
}

// FetchCoverage requests a clipped, resampled coverage and decodes it.
func (c *WCSClient) FetchCoverage(ctx context.Context, layer string, box BBox, width, height int) (*raster.Grid, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("service", "WCS")
		values.Set("version", "1.0.0")
		values.Set("request", "GetCoverage")
		values.Set("coverage", layer)
		values.Set("bbox", box.String())
		values.Set("crs", "EPSG:4326")
		values.Set("format", "ArcGrid")
		values.Set("width", strconv.Itoa(width))
		values.Set("height", strconv.Itoa(height))

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := httpx.DoRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("coverage %s: %w", layer, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coverage %s: read body: %w", layer, err)
	}

	g, err := raster.ParseASCIIGrid(body)
	if err != nil {
		return nil, fmt.Errorf("coverage %s: %w", layer, err)
	}
	return g, nil
}
