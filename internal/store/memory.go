package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
)

var (
	// ErrNotFound is returned when no responses exist for a coordinate.
	ErrNotFound = errors.New("no collected data for coordinate")
)

// responseHistory holds a time-ordered list of merged responses for one
// coordinate cell.
type responseHistory struct {
	Responses []envdata.AggregatedResponse
}

// MemoryStore is a concurrency-safe in-memory history of aggregated
// responses, keyed by coordinate rounded to ~100 m cells so repeat queries
// for the same point of interest share a history.
type MemoryStore struct {
	mu sync.RWMutex

	data map[string]*responseHistory

	maxHistory int           // max responses per coordinate cell
	maxAge     time.Duration // optional max age for responses
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*responseHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// key rounds the coordinate to 3 decimals to collapse GPS jitter.
func key(c envdata.Coordinate) string {
	return fmt.Sprintf("%.3f:%.3f", c.Latitude, c.Longitude)
}

// Save appends a response for its coordinate and enforces retention.
func (s *MemoryStore) Save(resp envdata.AggregatedResponse) {
	k := key(resp.Coordinate)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[k]
	if !ok {
		history = &responseHistory{}
		s.data[k] = history
	}

	history.Responses = append(history.Responses, resp)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Responses) > s.maxHistory {
		over := len(history.Responses) - s.maxHistory
		history.Responses = history.Responses[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Responses); i++ {
			if !history.Responses[i].CollectedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Responses) {
			history.Responses = history.Responses[i:]
		}
	}
}

// Latest returns the most recent response for a coordinate.
func (s *MemoryStore) Latest(coord envdata.Coordinate) (envdata.AggregatedResponse, error) {
	k := key(coord)

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[k]
	if !ok || len(history.Responses) == 0 {
		return envdata.AggregatedResponse{}, ErrNotFound
	}
	return history.Responses[len(history.Responses)-1], nil
}

// History returns all responses for a coordinate between from and to
// (inclusive).
func (s *MemoryStore) History(coord envdata.Coordinate, from, to time.Time) ([]envdata.AggregatedResponse, error) {
	k := key(coord)

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[k]
	if !ok || len(history.Responses) == 0 {
		return nil, ErrNotFound
	}

	var result []envdata.AggregatedResponse
	for _, resp := range history.Responses {
		if !resp.CollectedAt.Before(from) && !resp.CollectedAt.After(to) {
			result = append(result, resp)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
