// Package terrain derives slope, aspect, and roughness statistics from an
// elevation grid.
package terrain

import (
	"errors"
	"math"

	"github.com/firewatch/env-data-aggregation/internal/raster"
)

// ErrNoValidCells is returned when every cell of the elevation grid is nodata.
var ErrNoValidCells = errors.New("elevation grid has no valid cells")

// AspectBuckets lists the 8 compass sectors in reporting order.
var AspectBuckets = []string{
	"North", "Northeast", "East", "Southeast",
	"South", "Southwest", "West", "Northwest",
}

// SlopeStats summarizes the slope field in degrees.
type SlopeStats struct {
	Min  float64 `json:"min_slope_deg"`
	Max  float64 `json:"max_slope_deg"`
	Mean float64 `json:"mean_slope_deg"`
	Std  float64 `json:"std_slope_deg"`
}

// AspectStats summarizes the aspect field.
type AspectStats struct {
	Mean float64 `json:"mean_aspect_deg"`

	// Distribution holds the percentage of valid cells falling in each
	// 45-degree compass sector. Percentages sum to 100 up to rounding.
	Distribution map[string]float64 `json:"aspect_distribution"`
}

// Analysis is the full terrain derivative output for one elevation grid.
type Analysis struct {
	Slope  SlopeStats  `json:"slope_stats"`
	Aspect AspectStats `json:"aspect_stats"`

	// Roughness is the standard deviation of the slope field.
	Roughness float64 `json:"terrain_roughness"`

	PixelSizeMeters float64 `json:"pixel_size_meters"`
}

// Compute derives slope and aspect via centered finite differences over
// pixelSizeMeters and reduces them to area statistics. Cells whose value or
// any gradient neighbor is nodata are excluded from all statistics.
func Compute(g *raster.Grid, pixelSizeMeters float64) (*Analysis, error) {
	if pixelSizeMeters <= 0 {
		pixelSizeMeters = g.PixelSize()
	}
	if pixelSizeMeters <= 0 {
		return nil, errors.New("pixel size must be positive")
	}

	slopes := make([]float64, 0, g.Width*g.Height)
	aspects := make([]float64, 0, g.Width*g.Height)

	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			if g.IsNoData(g.At(r, c)) {
				continue
			}

			dzdx, ok1 := gradient(g, r, c, 0, 1, pixelSizeMeters)
			dzdy, ok2 := gradient(g, r, c, 1, 0, pixelSizeMeters)
			if !ok1 || !ok2 {
				continue
			}

			slope := math.Atan(math.Hypot(dzdx, dzdy)) * 180 / math.Pi
			aspect := math.Atan2(-dzdx, dzdy) * 180 / math.Pi
			aspect = math.Mod(aspect+360, 360)

			slopes = append(slopes, slope)
			aspects = append(aspects, aspect)
		}
	}

	if len(slopes) == 0 {
		return nil, ErrNoValidCells
	}

	slopeStats := summarize(slopes)
	a := &Analysis{
		Slope: SlopeStats{
			Min:  slopeStats.min,
			Max:  slopeStats.max,
			Mean: slopeStats.mean,
			Std:  slopeStats.std,
		},
		Aspect: AspectStats{
			Mean:         summarize(aspects).mean,
			Distribution: aspectDistribution(aspects),
		},
		Roughness:       slopeStats.std,
		PixelSizeMeters: pixelSizeMeters,
	}
	return a, nil
}

// gradient computes the finite difference along one axis at (r, c): centered
// where both neighbors are valid, one-sided at grid edges. dr/dc select the
// axis. The second return is false when a required neighbor is nodata.
func gradient(g *raster.Grid, r, c, dr, dc int, step float64) (float64, bool) {
	rPrev, cPrev := r-dr, c-dc
	rNext, cNext := r+dr, c+dc

	hasPrev := rPrev >= 0 && cPrev >= 0 && rPrev < g.Height && cPrev < g.Width
	hasNext := rNext >= 0 && cNext >= 0 && rNext < g.Height && cNext < g.Width

	var prev, next float64
	if hasPrev {
		prev = g.At(rPrev, cPrev)
		if g.IsNoData(prev) {
			return 0, false
		}
	}
	if hasNext {
		next = g.At(rNext, cNext)
		if g.IsNoData(next) {
			return 0, false
		}
	}

	center := g.At(r, c)
	switch {
	case hasPrev && hasNext:
		return (next - prev) / (2 * step), true
	case hasNext:
		return (next - center) / step, true
	case hasPrev:
		return (center - prev) / step, true
	default:
		return 0, false
	}
}

// aspectDistribution buckets aspect angles into the 8 compass sectors. The
// North sector wraps across the 0/360 boundary: [337.5,360) and [0,22.5).
func aspectDistribution(aspects []float64) map[string]float64 {
	counts := make(map[string]int, len(AspectBuckets))
	for _, a := range aspects {
		counts[bucketFor(a)]++
	}

	total := float64(len(aspects))
	dist := make(map[string]float64, len(AspectBuckets))
	for _, name := range AspectBuckets {
		pct := float64(counts[name]) / total * 100
		dist[name] = math.Round(pct*100) / 100
	}
	return dist
}

func bucketFor(aspect float64) string {
	if aspect >= 337.5 || aspect < 22.5 {
		return "North"
	}
	idx := int((aspect - 22.5) / 45)
	return AspectBuckets[idx+1]
}

type summary struct {
	min, max, mean, std float64
}

func summarize(values []float64) summary {
	s := summary{min: math.Inf(1), max: math.Inf(-1)}
	var sum, sumSq float64
	for _, v := range values {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
		sum += v
		sumSq += v * v
	}
	n := float64(len(values))
	s.mean = sum / n
	variance := sumSq/n - s.mean*s.mean
	if variance < 0 {
		variance = 0
	}
	s.std = math.Sqrt(variance)
	return s
}
