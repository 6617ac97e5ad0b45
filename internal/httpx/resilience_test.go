package httpx

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackedBody struct {
	closed bool
}

func (b *trackedBody) Read([]byte) (int, error) { return 0, io.EOF }
func (b *trackedBody) Close() error             { b.closed = true; return nil }

// scriptedTransport serves a fixed status sequence, repeating the last entry,
// and records every response body it hands out.
type scriptedTransport struct {
	statuses []int
	bodies   []*trackedBody
}

func (s *scriptedTransport) RoundTrip(*http.Request) (*http.Response, error) {
	status := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	body := &trackedBody{}
	s.bodies = append(s.bodies, body)
	return &http.Response{StatusCode: status, Body: body}, nil
}

func scriptedConfig(rt http.RoundTripper) ClientConfig {
	return ClientConfig{
		Client: &http.Client{Transport: rt},
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
		},
	}
}

func coverageRequest() (*http.Request, error) {
	return http.NewRequest(http.MethodGet, "http://upstream.test/coverage", nil)
}

func TestDoRequestClosesErrorResponseBodies(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{500, 429, 200}}

	resp, err := DoRequestWithResilience(context.Background(), scriptedConfig(rt), NewBreaker("close-test"), coverageRequest)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The two error responses were closed on their retry paths; the
	// successful body stays open for the caller.
	require.Len(t, rt.bodies, 3)
	assert.True(t, rt.bodies[0].closed)
	assert.True(t, rt.bodies[1].closed)
	assert.False(t, rt.bodies[2].closed)
}

func TestDoRequestExhaustsRetriesOnServerErrors(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{503}}

	_, err := DoRequestWithResilience(context.Background(), scriptedConfig(rt), NewBreaker("exhaust-test"), coverageRequest)
	assert.ErrorIs(t, err, ErrServerError)

	require.Len(t, rt.bodies, 3)
	for i, b := range rt.bodies {
		assert.True(t, b.closed, "attempt %d", i)
	}
}

func TestDoRequestRateLimited(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{429}}
	cfg := scriptedConfig(rt)
	cfg.Backoff.MaxRetries = 0

	_, err := DoRequestWithResilience(context.Background(), cfg, NewBreaker("ratelimit-test"), coverageRequest)
	assert.ErrorIs(t, err, ErrRateLimited)
	require.Len(t, rt.bodies, 1)
	assert.True(t, rt.bodies[0].closed)
}
