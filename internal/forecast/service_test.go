package forecast_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/cache"
	"github.com/skycast/skycast/internal/forecast"
	"github.com/skycast/skycast/internal/geocode"
	"github.com/skycast/skycast/internal/openmeteo"
)

// mockUpstream serves a canned payload and counts fetches.
type mockUpstream struct {
	mu      sync.Mutex
	calls   int
	payload *openmeteo.ForecastResponse
	err     error
}

func (m *mockUpstream) Forecast(_ context.Context, _, _ float64, _ string, _ int) (*openmeteo.ForecastResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.payload, nil
}

func (m *mockUpstream) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockResolver struct {
	place *geocode.Place
	err   error
}

func (m *mockResolver) Resolve(_ context.Context, _ string) (*geocode.Place, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.place, nil
}

func newTestService(upstream forecast.Upstream, resolver forecast.Resolver) *forecast.Service {
	return forecast.NewService(forecast.ServiceConfig{
		Upstream: upstream,
		Resolver: resolver,
		Cache:    cache.NewMemory(cache.MemoryConfig{Logger: zerolog.Nop()}),
		Logger:   zerolog.Nop(),
	})
}

func TestService_ByCoordinates(t *testing.T) {
	upstream := &mockUpstream{payload: fourHourPayload()}
	svc := newTestService(upstream, nil)

	view, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.NoError(t, err)

	assert.Equal(t, 52.52, view.Location.Latitude)
	assert.Nil(t, view.Place)
	assert.NotNil(t, view.Current)
	assert.NotEmpty(t, view.HourlyWindow)
}

func TestService_ByName_AttachesPlace(t *testing.T) {
	upstream := &mockUpstream{payload: fourHourPayload()}
	resolver := &mockResolver{place: &geocode.Place{
		Name: "Berlin", Country: "Deutschland", Latitude: 52.52437, Longitude: 13.41053,
	}}
	svc := newTestService(upstream, resolver)

	view, err := svc.ByName(context.Background(), "berlin", "UTC", 2)
	require.NoError(t, err)

	require.NotNil(t, view.Place)
	assert.Equal(t, "Berlin", view.Place.Name)
	assert.Equal(t, 52.52437, view.Location.Latitude)
}

func TestService_ByName_NotFoundPropagates(t *testing.T) {
	upstream := &mockUpstream{payload: fourHourPayload()}
	resolver := &mockResolver{err: &geocode.NotFoundError{Name: "xyzzy"}}
	svc := newTestService(upstream, resolver)

	_, err := svc.ByName(context.Background(), "xyzzy", "UTC", 2)

	var notFound *geocode.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, upstream.callCount())
}

func TestService_FetchCachedWithinTTL(t *testing.T) {
	upstream := &mockUpstream{payload: fourHourPayload()}
	svc := newTestService(upstream, nil)

	first, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.NoError(t, err)
	second, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.NoError(t, err)

	// One upstream call; derived fields recomputed on the cache hit.
	assert.Equal(t, 1, upstream.callCount())
	require.Len(t, second.HourlyWindow, len(first.HourlyWindow))
	assert.Equal(t, *first.HourlyWindow[0].Temperature, *second.HourlyWindow[0].Temperature)
	assert.Equal(t, first.HourlyWindow[0].Icon, second.HourlyWindow[0].Icon)
}

func TestService_CacheKeyedByRoundedCoordinates(t *testing.T) {
	upstream := &mockUpstream{payload: fourHourPayload()}
	svc := newTestService(upstream, nil)

	// Differences past the third decimal share one cache entry.
	_, err := svc.ByCoordinates(context.Background(), 52.52371, 13.41009, "UTC", 2)
	require.NoError(t, err)
	_, err = svc.ByCoordinates(context.Background(), 52.52368, 13.41013, "UTC", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.callCount())

	// A different timezone is a different entry.
	_, err = svc.ByCoordinates(context.Background(), 52.52371, 13.41009, "Europe/Berlin", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.callCount())
}

func TestService_InvalidateForcesRefetch(t *testing.T) {
	upstream := &mockUpstream{payload: fourHourPayload()}
	svc := newTestService(upstream, nil)

	_, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background(), 52.52, 13.41))

	_, err = svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.callCount())
}

func TestService_MalformedPayloadNotCached(t *testing.T) {
	upstream := &mockUpstream{payload: &openmeteo.ForecastResponse{
		Hourly: openmeteo.HourlySeries{Time: []string{"2026-08-29T10:00"}},
	}}
	svc := newTestService(upstream, nil)

	_, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.ErrorIs(t, err, forecast.ErrMalformedPayload)

	// Once the upstream recovers the next read fetches fresh data.
	upstream.mu.Lock()
	upstream.payload = fourHourPayload()
	upstream.mu.Unlock()

	view, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, view.HourlyWindow)
	assert.Equal(t, 2, upstream.callCount())
}

func TestService_MisalignedHourlyArraysRejected(t *testing.T) {
	payload := fourHourPayload()
	payload.Hourly.RelativeHumidity = []*float64{fptr(70)} // 1 vs 4 slots
	upstream := &mockUpstream{payload: payload}
	svc := newTestService(upstream, nil)

	_, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.ErrorIs(t, err, forecast.ErrMalformedPayload)
}

func TestService_TransportFailurePropagates(t *testing.T) {
	upstream := &mockUpstream{err: errors.New("connection reset")}
	svc := newTestService(upstream, nil)

	_, err := svc.ByCoordinates(context.Background(), 52.52, 13.41, "UTC", 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, forecast.ErrMalformedPayload)
}
