package interpret

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/observability"
	"github.com/firewatch/env-data-aggregation/internal/raster"
)

// TableLoader fetches the authoritative attribute table for a product from
// an external table store.
type TableLoader interface {
	Load(ctx context.Context, product Product) (map[int]string, error)
}

// TableSource tells which table is active for a product.
type TableSource string

const (
	SourceAuthoritative TableSource = "authoritative"
	SourceFallback      TableSource = "fallback"
)

// Decoder resolves categorical pixel codes to labels. Attribute tables load
// lazily on the first Decode per product and stay cached for the process
// lifetime; a failed load substitutes the static fallback table. Fallback
// products are only re-attempted through RefreshFallbacks, which the refresh
// scheduler drives at a configurable cadence.
type Decoder struct {
	loader  TableLoader
	logger  *zap.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	tables map[Product]*tableState
}

type tableState struct {
	once sync.Once

	mu      sync.RWMutex
	entries map[int]string
	source  TableSource
}

// NewDecoder creates a Decoder. metrics may be nil in tests.
func NewDecoder(loader TableLoader, logger *zap.Logger, metrics *observability.Metrics) *Decoder {
	return &Decoder{
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		tables:  make(map[Product]*tableState),
	}
}

// Decode maps a raw pixel code to its category label. Codes missing from the
// active table yield "Unknown (<code>)".
func (d *Decoder) Decode(ctx context.Context, code int, product Product) string {
	st := d.table(ctx, product)

	st.mu.RLock()
	defer st.mu.RUnlock()

	if label, ok := st.entries[code]; ok {
		return label
	}
	return UnknownLabel(code)
}

// TableSource reports which table currently serves a product, false when the
// product has never been decoded.
func (d *Decoder) TableSource(product Product) (TableSource, bool) {
	d.mu.Lock()
	st, ok := d.tables[product]
	d.mu.Unlock()
	if !ok {
		return "", false
	}

	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.source == "" {
		return "", false
	}
	return st.source, true
}

// Coverage decodes every valid pixel of a grid and returns the percentage of
// pixels per label, rounded to 2 decimals. Nodata pixels are excluded from
// the denominator.
func (d *Decoder) Coverage(ctx context.Context, g *raster.Grid, product Product) map[string]float64 {
	st := d.table(ctx, product)

	counts := make(map[int]int)
	total := 0
	for _, row := range g.Values {
		for _, v := range row {
			if g.IsNoData(v) || math.IsNaN(v) {
				continue
			}
			counts[int(v)]++
			total++
		}
	}
	if total == 0 {
		return map[string]float64{}
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	// Codes sharing a label accumulate raw counts first; rounding happens
	// once per label so the percentages keep summing to 100.
	labelCounts := make(map[string]int, len(counts))
	for code, count := range counts {
		label, ok := st.entries[code]
		if !ok {
			label = UnknownLabel(code)
		}
		labelCounts[label] += count
	}

	coverage := make(map[string]float64, len(labelCounts))
	for label, count := range labelCounts {
		pct := float64(count) / float64(total) * 100
		coverage[label] = math.Round(pct*100) / 100
	}
	return coverage
}

// RefreshFallbacks re-attempts the authoritative load for every product that
// settled on its fallback table. Returns how many products were promoted.
func (d *Decoder) RefreshFallbacks(ctx context.Context) int {
	d.mu.Lock()
	states := make(map[Product]*tableState, len(d.tables))
	for p, st := range d.tables {
		states[p] = st
	}
	d.mu.Unlock()

	promoted := 0
	for p, st := range states {
		st.mu.RLock()
		stale := st.source == SourceFallback
		st.mu.RUnlock()
		if !stale {
			continue
		}

		entries, err := d.loader.Load(ctx, p)
		if err != nil || len(entries) == 0 {
			d.observeLoad(p, "refresh_failed")
			continue
		}

		st.mu.Lock()
		st.entries = entries
		st.source = SourceAuthoritative
		st.mu.Unlock()

		promoted++
		d.observeLoad(p, "refreshed")
		d.logger.Info("attribute table promoted from fallback",
			zap.String("product", string(p)),
			zap.Int("entries", len(entries)))
	}
	return promoted
}

// table returns the state for a product, loading it exactly once.
func (d *Decoder) table(ctx context.Context, product Product) *tableState {
	d.mu.Lock()
	st, ok := d.tables[product]
	if !ok {
		st = &tableState{}
		d.tables[product] = st
	}
	d.mu.Unlock()

	st.once.Do(func() {
		d.load(ctx, product, st)
	})
	return st
}

func (d *Decoder) load(ctx context.Context, product Product, st *tableState) {
	entries, err := d.loader.Load(ctx, product)
	if err != nil || len(entries) == 0 {
		if err != nil {
			d.logger.Warn("attribute table load failed, using fallback",
				zap.String("product", string(product)),
				zap.Error(err))
		} else {
			d.logger.Warn("attribute table empty, using fallback",
				zap.String("product", string(product)))
		}
		d.observeLoad(product, "fallback")

		st.mu.Lock()
		st.entries = FallbackTable(product)
		st.source = SourceFallback
		st.mu.Unlock()
		return
	}

	d.observeLoad(product, "loaded")
	d.logger.Info("attribute table loaded",
		zap.String("product", string(product)),
		zap.Int("entries", len(entries)))

	st.mu.Lock()
	st.entries = entries
	st.source = SourceAuthoritative
	st.mu.Unlock()
}

func (d *Decoder) observeLoad(product Product, outcome string) {
	if d.metrics == nil {
		return
	}
	d.metrics.TableLoads.WithLabelValues(string(product), outcome).Inc()
}
