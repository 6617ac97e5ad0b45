package interpret

import "math"

// ScalingEntry holds the conversion rule for one (product, layer) pair of a
// scientific integer encoding.
type ScalingEntry struct {
	ScaleFactor float64
	Offset      float64
	ValidRange  [2]float64
	FillValue   float64
	Units       string
}

// modisScaling maps ORNL product/layer pairs to their published conversion
// rules. Raw values equal to the fill value or outside the valid range are
// invalid; everything else converts as raw*scale + offset.
var modisScaling = map[string]map[string]ScalingEntry{
	"MOD13Q1": {
		"250m_16_days_NDVI": {ScaleFactor: 0.0001, ValidRange: [2]float64{-2000, 10000}, FillValue: -3000, Units: "NDVI"},
		"250m_16_days_EVI":  {ScaleFactor: 0.0001, ValidRange: [2]float64{-2000, 10000}, FillValue: -3000, Units: "EVI"},
	},
	"MYD13Q1": {
		"250m_16_days_NDVI": {ScaleFactor: 0.0001, ValidRange: [2]float64{-2000, 10000}, FillValue: -3000, Units: "NDVI"},
		"250m_16_days_EVI":  {ScaleFactor: 0.0001, ValidRange: [2]float64{-2000, 10000}, FillValue: -3000, Units: "EVI"},
	},
	"MOD15A2H": {
		"Lai_500m":  {ScaleFactor: 0.1, ValidRange: [2]float64{0, 100}, FillValue: 255, Units: "m^2/m^2"},
		"Fpar_500m": {ScaleFactor: 0.01, ValidRange: [2]float64{0, 100}, FillValue: 255, Units: "fraction"},
	},
	"MYD15A2H": {
		"Lai_500m":  {ScaleFactor: 0.1, ValidRange: [2]float64{0, 100}, FillValue: 255, Units: "m^2/m^2"},
		"Fpar_500m": {ScaleFactor: 0.01, ValidRange: [2]float64{0, 100}, FillValue: 255, Units: "fraction"},
	},
	"MOD11A2": {
		"LST_Day_1km":   {ScaleFactor: 0.02, Offset: 273.15, ValidRange: [2]float64{7500, 65535}, FillValue: 0, Units: "Kelvin"},
		"LST_Night_1km": {ScaleFactor: 0.02, Offset: 273.15, ValidRange: [2]float64{7500, 65535}, FillValue: 0, Units: "Kelvin"},
	},
	"MYD11A2": {
		"LST_Day_1km":   {ScaleFactor: 0.02, Offset: 273.15, ValidRange: [2]float64{7500, 65535}, FillValue: 0, Units: "Kelvin"},
		"LST_Night_1km": {ScaleFactor: 0.02, Offset: 273.15, ValidRange: [2]float64{7500, 65535}, FillValue: 0, Units: "Kelvin"},
	},
	"MOD17A2H": {
		"Gpp_500m": {ScaleFactor: 0.0001, ValidRange: [2]float64{0, 30000}, FillValue: 65535, Units: "kg C/m^2/8day"},
	},
	"MYD17A2H": {
		"Gpp_500m": {ScaleFactor: 0.0001, ValidRange: [2]float64{0, 30000}, FillValue: 65535, Units: "kg C/m^2/8day"},
	},
}

// Scale converts a raw integer from a scientific encoding into physical
// units. Fill values and out-of-range values come back as NaN. Unknown
// (product, layer) pairs pass the raw value through unchanged: an unknown
// layer is not a failure, just unscaled.
func Scale(raw int, product, layer string) float64 {
	layers, ok := modisScaling[product]
	if !ok {
		return float64(raw)
	}
	entry, ok := layers[layer]
	if !ok {
		return float64(raw)
	}

	v := float64(raw)
	if v == entry.FillValue || v < entry.ValidRange[0] || v > entry.ValidRange[1] {
		return math.NaN()
	}
	return v*entry.ScaleFactor + entry.Offset
}

// ScalingFor exposes the entry for a (product, layer) pair, primarily so
// adapters can report units alongside converted values.
func ScalingFor(product, layer string) (ScalingEntry, bool) {
	layers, ok := modisScaling[product]
	if !ok {
		return ScalingEntry{}, false
	}
	entry, ok := layers[layer]
	return entry, ok
}
