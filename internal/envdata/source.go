package envdata

import (
	"context"
	"time"
)

// Source abstracts one upstream environmental data service (e.g. LANDFIRE,
// the ORNL MODIS subset API, USGS elevation, OpenWeatherMap).
//
// Fetch never returns an error: failures are folded into the SourceResult's
// Errors list with a zero QualityScore so the fan-out can always merge
// something for every requested source.
type Source interface {
	Name() string
	Currency() Currency
	// Timeout is this source's independent fetch budget.
	Timeout() time.Duration
	Fetch(ctx context.Context, req CollectRequest) SourceResult
}

// Store is the contract the in-memory response history (and any future
// persistent store) must satisfy.
type Store interface {
	Save(resp AggregatedResponse)
	Latest(coord Coordinate) (AggregatedResponse, error)
	History(coord Coordinate, from, to time.Time) ([]AggregatedResponse, error)
}
