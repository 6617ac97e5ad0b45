package envdata

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/observability"
)

// Timeliness scoring weights. Realtime sources are worth more than static
// surveys, and stale data costs points.
const (
	timelinessRealtimePoints = 25
	timelinessStaticPoints   = 15
	timelinessStalePenalty   = 10
)

// Aggregator fans a collection request out to every requested source
// concurrently and merges whatever comes back into one envelope. Sources
// run under their own timeouts; a master deadline bounds the whole request
// so one slow source cannot stall the response.
type Aggregator struct {
	sources       []Source
	masterTimeout time.Duration
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewAggregator creates an Aggregator. metrics may be nil in tests.
func NewAggregator(sources []Source, masterTimeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		sources:       sources,
		masterTimeout: masterTimeout,
		logger:        logger,
		metrics:       metrics,
	}
}

// Collect runs the fan-out and returns the merged response. It never fails:
// sources that error or miss the deadline appear in the envelope with a zero
// quality score and an explanatory error entry.
func (a *Aggregator) Collect(ctx context.Context, req CollectRequest) AggregatedResponse {
	started := time.Now()
	selected := a.selectSources(req.Sources)

	resp := AggregatedResponse{
		SchemaVersion: SchemaVersion,
		RequestID:     uuid.NewString(),
		CorrelationID: req.CorrelationID,
		Coordinate:    req.Coordinate(),
		CollectedAt:   started.UTC(),
		Sources:       make(map[string]SourceResult, len(selected)),
		DataCurrency:  make(map[string]Currency, len(selected)),
	}

	if a.metrics != nil {
		a.metrics.RequestsTotal.Inc()
	}

	type timed struct {
		result SourceResult
	}
	results := make(chan timed, len(selected))

	for _, src := range selected {
		resp.DataCurrency[src.Name()] = src.Currency()

		go func(src Source) {
			fetchCtx, cancel := context.WithTimeout(ctx, src.Timeout())
			defer cancel()

			t0 := time.Now()
			r := src.Fetch(fetchCtx, req)
			r.SourceID = src.Name()
			r.FetchedAt = t0.UTC()
			r.FetchTime = time.Since(t0)
			r.DurationMS = r.FetchTime.Milliseconds()

			a.observeFetch(src.Name(), r)
			results <- timed{result: r}
		}(src)
	}

	// Collect until every source reports or the master deadline fires.
	deadline := time.NewTimer(a.masterTimeout)
	defer deadline.Stop()

	received := 0
recv:
	for received < len(selected) {
		select {
		case t := <-results:
			resp.Sources[t.result.SourceID] = t.result
			received++
		case <-deadline.C:
			break recv
		case <-ctx.Done():
			break recv
		}
	}

	// Sources that never reported get a synthetic timeout result.
	for _, src := range selected {
		if _, ok := resp.Sources[src.Name()]; ok {
			continue
		}
		resp.Sources[src.Name()] = SourceResult{
			SourceID:     src.Name(),
			Errors:       []string{ErrTimeout.Error()},
			QualityScore: 0,
			FetchedAt:    time.Now().UTC(),
			DurationMS:   a.masterTimeout.Milliseconds(),
		}
		if a.metrics != nil {
			a.metrics.SourceFetches.WithLabelValues(src.Name(), "timeout").Inc()
		}
	}

	resp.Summary = a.summarize(resp)

	if a.metrics != nil {
		a.metrics.RequestDuration.Observe(time.Since(started).Seconds())
		a.metrics.TimelinessScore.Observe(float64(resp.Summary.TimelinessScore))
	}

	a.logger.Info("collection complete",
		zap.String("request_id", resp.RequestID),
		zap.Float64("latitude", req.Latitude),
		zap.Float64("longitude", req.Longitude),
		zap.Int("total_sources", resp.Summary.TotalSources),
		zap.Int("successful_sources", resp.Summary.SuccessfulSources),
		zap.Int("error_count", resp.Summary.ErrorCount),
		zap.Int("timeliness_score", resp.Summary.TimelinessScore),
		zap.Duration("elapsed", time.Since(started)))

	return resp
}

// selectSources filters the configured sources down to the requested subset,
// or returns all of them when the request does not name any.
func (a *Aggregator) selectSources(names []string) []Source {
	if len(names) == 0 {
		return a.sources
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	selected := make([]Source, 0, len(names))
	for _, src := range a.sources {
		if wanted[src.Name()] {
			selected = append(selected, src)
		}
	}
	return selected
}

func (a *Aggregator) summarize(resp AggregatedResponse) Summary {
	s := Summary{TotalSources: len(resp.Sources)}

	score := 0
	for name, r := range resp.Sources {
		s.ErrorCount += len(r.Errors)
		if r.Failed() {
			continue
		}
		s.SuccessfulSources++

		switch resp.DataCurrency[name] {
		case CurrencyRealtime:
			score += timelinessRealtimePoints
		case CurrencyStatic:
			score += timelinessStaticPoints
		}
		for _, w := range r.Warnings {
			if strings.Contains(strings.ToLower(w), "stale") {
				score -= timelinessStalePenalty
			}
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	s.TimelinessScore = score

	return s
}

func (a *Aggregator) observeFetch(name string, r SourceResult) {
	if a.metrics == nil {
		return
	}

	outcome := "success"
	switch {
	case r.QualityScore == 0:
		outcome = "error"
	case len(r.Errors) > 0:
		outcome = "partial"
	}
	a.metrics.SourceFetches.WithLabelValues(name, outcome).Inc()
	a.metrics.SourceDuration.WithLabelValues(name).Observe(r.FetchTime.Seconds())
}
