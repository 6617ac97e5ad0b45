package raster

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOutOfBounds is returned when a coordinate projects outside the grid.
	ErrOutOfBounds = errors.New("coordinate outside raster bounds")
	// ErrNoData is returned when the sampled pixel equals the nodata sentinel.
	ErrNoData = errors.New("no data at sampled pixel")

	errDegenerateTransform = errors.New("degenerate geotransform")
)

// Grid is a decoded raster coverage. Values are stored row-major with row 0
// at the top (north) edge, matching the GDAL geotransform convention.
type Grid struct {
	Width  int
	Height int

	// Transform maps pixel space to geographic space, GDAL-style:
	//   X = T[0] + col*T[1] + row*T[2]
	//   Y = T[3] + col*T[4] + row*T[5]
	Transform [6]float64

	CRS       string
	NoData    float64
	HasNoData bool

	Values [][]float64
}

// At returns the value at (row, col) without bounds checking.
func (g *Grid) At(row, col int) float64 {
	return g.Values[row][col]
}

// IsNoData reports whether v equals the grid's nodata sentinel.
func (g *Grid) IsNoData(v float64) bool {
	return g.HasNoData && v == g.NoData
}

// Sample maps a geographic coordinate to a pixel and returns its value along
// with the resolved row/col. The fractional pixel position is truncated
// toward zero. ErrOutOfBounds is returned when the position falls outside
// [0,width)x[0,height); ErrNoData when the pixel holds the nodata sentinel.
func (g *Grid) Sample(lat, lon float64) (float64, int, int, error) {
	fcol, frow, err := g.invert(lon, lat)
	if err != nil {
		return 0, 0, 0, err
	}

	if fcol < 0 || fcol >= float64(g.Width) || frow < 0 || frow >= float64(g.Height) {
		return 0, 0, 0, fmt.Errorf("%w: (%.4f, %.4f) -> pixel (%.2f, %.2f)",
			ErrOutOfBounds, lat, lon, frow, fcol)
	}

	row := int(math.Trunc(frow))
	col := int(math.Trunc(fcol))

	v := g.Values[row][col]
	if g.IsNoData(v) {
		return 0, row, col, fmt.Errorf("%w: pixel (%d, %d)", ErrNoData, row, col)
	}

	return v, row, col, nil
}

// invert solves the affine geotransform for the fractional (col, row) of a
// geographic (x, y) point.
func (g *Grid) invert(x, y float64) (float64, float64, error) {
	t := g.Transform
	det := t[1]*t[5] - t[2]*t[4]
	if det == 0 {
		return 0, 0, errDegenerateTransform
	}

	dx := x - t[0]
	dy := y - t[3]

	col := (t[5]*dx - t[2]*dy) / det
	row := (t[1]*dy - t[4]*dx) / det
	return col, row, nil
}

// Stats summarizes the valid (non-nodata) pixels of a grid.
type Stats struct {
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
	Count int
}

// Summarize computes min/max/mean/std over all valid pixels. The Count field
// is zero when the grid holds no valid pixels.
func (g *Grid) Summarize() Stats {
	var (
		s     Stats
		sum   float64
		sumSq float64
	)
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)

	for _, row := range g.Values {
		for _, v := range row {
			if g.IsNoData(v) || math.IsNaN(v) {
				continue
			}
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
			sum += v
			sumSq += v * v
			s.Count++
		}
	}

	if s.Count == 0 {
		return Stats{}
	}

	n := float64(s.Count)
	s.Mean = sum / n
	variance := sumSq/n - s.Mean*s.Mean
	if variance < 0 {
		variance = 0
	}
	s.Std = math.Sqrt(variance)
	return s
}

// ValidValues returns all non-nodata pixels as a flat slice, row-major.
func (g *Grid) ValidValues() []float64 {
	out := make([]float64, 0, g.Width*g.Height)
	for _, row := range g.Values {
		for _, v := range row {
			if g.IsNoData(v) || math.IsNaN(v) {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

// PixelSize returns the ground size of one pixel along the x axis. Assumes
// square pixels, which holds for all coverages we request.
func (g *Grid) PixelSize() float64 {
	return math.Abs(g.Transform[1])
}
