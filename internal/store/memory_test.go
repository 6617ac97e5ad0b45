package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
)

func makeResp(id string, coord envdata.Coordinate, at time.Time) envdata.AggregatedResponse {
	return envdata.AggregatedResponse{
		SchemaVersion: envdata.SchemaVersion,
		RequestID:     id,
		Coordinate:    coord,
		CollectedAt:   at,
	}
}

func TestMemoryStoreSaveAndLatest(t *testing.T) {
	s := NewMemoryStore(0, 0)
	coord := envdata.Coordinate{Latitude: 34.0522, Longitude: -118.2437}

	now := time.Now().UTC()
	s.Save(makeResp("r1", coord, now.Add(-time.Hour)))
	s.Save(makeResp("r2", coord, now))

	latest, err := s.Latest(coord)
	require.NoError(t, err)
	assert.Equal(t, "r2", latest.RequestID)
}

func TestMemoryStoreLatestNotFound(t *testing.T) {
	s := NewMemoryStore(0, 0)
	_, err := s.Latest(envdata.Coordinate{Latitude: 1, Longitude: 2})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCoordinateCellSharing(t *testing.T) {
	// GPS jitter within ~100 m lands in the same history cell.
	s := NewMemoryStore(0, 0)
	s.Save(makeResp("r1", envdata.Coordinate{Latitude: 34.05220, Longitude: -118.24370}, time.Now()))

	latest, err := s.Latest(envdata.Coordinate{Latitude: 34.05222, Longitude: -118.24368})
	require.NoError(t, err)
	assert.Equal(t, "r1", latest.RequestID)
}

func TestMemoryStoreHistoryRange(t *testing.T) {
	s := NewMemoryStore(0, 0)
	coord := envdata.Coordinate{Latitude: 34, Longitude: -118}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.Save(makeResp("r"+string(rune('0'+i)), coord, base.Add(time.Duration(i)*time.Hour)))
	}

	got, err := s.History(coord, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "r1", got[0].RequestID)
	assert.Equal(t, "r3", got[2].RequestID)

	_, err = s.History(coord, base.Add(10*time.Hour), base.Add(11*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	coord := envdata.Coordinate{Latitude: 34, Longitude: -118}
	now := time.Now().UTC()

	s.Save(makeResp("r1", coord, now.Add(-2*time.Minute)))
	s.Save(makeResp("r2", coord, now.Add(-time.Minute)))
	s.Save(makeResp("r3", coord, now))

	got, err := s.History(coord, now.Add(-time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].RequestID)
	assert.Equal(t, "r3", got[1].RequestID)
}

func TestMemoryStoreRetentionByAge(t *testing.T) {
	s := NewMemoryStore(0, time.Hour)
	coord := envdata.Coordinate{Latitude: 34, Longitude: -118}
	now := time.Now().UTC()

	s.Save(makeResp("old", coord, now.Add(-2*time.Hour)))
	s.Save(makeResp("new", coord, now))

	got, err := s.History(coord, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].RequestID)
}
