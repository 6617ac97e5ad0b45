package interpret

// fallbackTables are the hand-curated attribute entries substituted when the
// authoritative table cannot be loaded. They cover the codes most common in
// incident-response queries; anything else decodes to Unknown (<code>).
var fallbackTables = map[Product]map[int]string{
	ProductVegetationType: {
		7113: "Urban-Low Intensity",
		7118: "Urban-Medium Intensity",
		7296: "California Coastal Scrub",
		7297: "Developed-Open Space",
		7298: "Developed-Low Intensity",
		7299: "Developed-Medium Intensity",
	},
	ProductFuelModel: {
		91:  "Urban/Developed (Non-burnable)",
		92:  "Snow/Ice (Non-burnable)",
		93:  "Agriculture (Non-burnable)",
		98:  "Water (Non-burnable)",
		99:  "Barren (Non-burnable)",
		101: "Short Grass (1 hr)",
		102: "Timber (Grass and Understory)",
		103: "Tall Grass (1 hr)",
		104: "Chaparral (6 ft)",
	},
}

// FallbackTable returns a copy of the static fallback table for a product.
// The copy keeps callers from mutating the shared map.
func FallbackTable(p Product) map[int]string {
	src := fallbackTables[p]
	out := make(map[int]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
