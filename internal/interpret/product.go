// Package interpret converts raw pixel encodings into physical values and
// human-readable categories using attribute tables and scaling rules.
package interpret

import "fmt"

// Product identifies one raster product with its own decoding policy. The set
// is closed; dispatch is by exhaustive switch, never by ad-hoc string checks.
type Product string

const (
	ProductVegetationType    Product = "vegetation_type"
	ProductFuelModel         Product = "fuel_model"
	ProductCanopyCover       Product = "canopy_cover"
	ProductCanopyHeight      Product = "canopy_height"
	ProductCanopyBulkDensity Product = "canopy_bulk_density"
	ProductCanopyBaseHeight  Product = "canopy_base_height"
	ProductSlope             Product = "slope"
	ProductAspect            Product = "aspect"
	ProductElevation         Product = "elevation"
)

// CategoricalProducts are the products decoded through attribute tables.
var CategoricalProducts = []Product{ProductVegetationType, ProductFuelModel}

// Categorical reports whether the product carries coded categories rather
// than continuous physical values.
func (p Product) Categorical() bool {
	switch p {
	case ProductVegetationType, ProductFuelModel:
		return true
	case ProductCanopyCover, ProductCanopyHeight, ProductCanopyBulkDensity,
		ProductCanopyBaseHeight, ProductSlope, ProductAspect, ProductElevation:
		return false
	}
	return false
}

// Unit returns the physical unit of a continuous product, empty for
// categorical ones.
func (p Product) Unit() string {
	switch p {
	case ProductCanopyCover:
		return "percent"
	case ProductCanopyHeight, ProductCanopyBaseHeight, ProductElevation:
		return "meters"
	case ProductCanopyBulkDensity:
		return "kg/m^3"
	case ProductSlope, ProductAspect:
		return "degrees"
	}
	return ""
}

// LabelColumns returns the attribute-table CSV columns holding the category
// label for this product, in lookup precedence order.
func (p Product) LabelColumns() []string {
	switch p {
	case ProductVegetationType:
		return []string{"EVT_NAME", "CLASSNAME"}
	case ProductFuelModel:
		return []string{"FBFM40_DESC", "CLASSNAME"}
	default:
		return []string{"CLASSNAME"}
	}
}

// UnknownLabel is the decode result for codes absent from the active table.
func UnknownLabel(code int) string {
	return fmt.Sprintf("Unknown (%d)", code)
}
