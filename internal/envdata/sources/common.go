// Package sources holds the adapters that turn upstream geospatial and
// weather services into envdata.Source implementations. Each adapter owns
// its request building, decoding, and interpretation; transport resilience
// lives in the shared httpx helper.
package sources

import (
	"fmt"
)

// Source names as they appear in requests and response envelopes.
const (
	NameLandfire    = "landfire"
	NameMODIS       = "modis"
	NameUSGS        = "usgs_elevation"
	NameOpenWeather = "openweather"
)

// metersPerDegree approximates one degree of latitude. Good enough for
// buffer windows well under a degree.
const metersPerDegree = 111000.0

// defaultBufferMeters applies when a request leaves the buffer unset.
const defaultBufferMeters = 1000.0

// sampleGridSize is the pixel width and height requested for area coverages.
const sampleGridSize = 256

// BBox is a geographic bounding box in degrees.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// bboxAround builds a square window centered on the coordinate.
func bboxAround(lat, lon, bufferMeters float64) BBox {
	if bufferMeters <= 0 {
		bufferMeters = defaultBufferMeters
	}
	d := bufferMeters / metersPerDegree
	return BBox{
		MinX: lon - d,
		MinY: lat - d,
		MaxX: lon + d,
		MaxY: lat + d,
	}
}

// qualityScore grades a source result from its per-product outcomes:
// 1.0 when everything succeeded, 0.8 on partial failure, 0 on total failure.
func qualityScore(succeeded, attempted int) float64 {
	switch {
	case attempted == 0 || succeeded == 0:
		return 0
	case succeeded == attempted:
		return 1.0
	default:
		return 0.8
	}
}
