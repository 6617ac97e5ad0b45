package envdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/geo"
)

// Service orchestrates the fan-out, annotates the merged envelope, and
// persists it into the response history.
type Service struct {
	aggregator *Aggregator
	store      Store
	resolver   *geo.Resolver
	logger     *zap.Logger
}

// NewService creates a Service. resolver may be nil when place annotation
// is disabled.
func NewService(aggregator *Aggregator, store Store, resolver *geo.Resolver, logger *zap.Logger) *Service {
	return &Service{
		aggregator: aggregator,
		store:      store,
		resolver:   resolver,
		logger:     logger,
	}
}

// Collect runs a full collection cycle for the request and stores the result.
func (s *Service) Collect(ctx context.Context, req CollectRequest) AggregatedResponse {
	resp := s.aggregator.Collect(ctx, req)
	resp.PlaceName = s.resolver.PlaceName(req.Latitude, req.Longitude)

	s.store.Save(resp)
	return resp
}

// Latest returns the most recent stored response for a coordinate.
func (s *Service) Latest(coord Coordinate) (AggregatedResponse, error) {
	return s.store.Latest(coord)
}

// History returns stored responses for a coordinate in a time window.
func (s *Service) History(coord Coordinate, from, to time.Time) ([]AggregatedResponse, error) {
	return s.store.History(coord, from, to)
}
