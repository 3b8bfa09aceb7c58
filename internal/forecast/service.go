package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/skycast/skycast/internal/cache"
	"github.com/skycast/skycast/internal/geocode"
	"github.com/skycast/skycast/internal/openmeteo"
)

const meterName = "github.com/skycast/skycast/internal/forecast"

// Upstream is the forecast endpoint of the weather provider.
type Upstream interface {
	Forecast(ctx context.Context, lat, lon float64, timezone string, days int) (*openmeteo.ForecastResponse, error)
}

// Resolver maps a free-text place name to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*geocode.Place, error)
}

// ServiceConfig holds configuration for the forecast service.
type ServiceConfig struct {
	// Upstream is the forecast provider client (required).
	Upstream Upstream

	// Resolver resolves place names (required for ByName).
	Resolver Resolver

	// Cache backs raw payload fetches (required).
	Cache cache.Store

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL bounds how stale a cached payload may get (default: 10
	// minutes). Conditions change continuously; geographic lookups do not.
	CacheTTL time.Duration

	// ForecastDays is the requested horizon (default: 7). Wide enough
	// that today and rolling windows near midnight never under-run.
	ForecastDays int
}

// Service is the forecast engine entry point. It is stateless apart from
// the cache and the upstream client; concurrent requests for different
// locations never interfere.
type Service struct {
	upstream     Upstream
	resolver     Resolver
	cache        cache.Store
	logger       zerolog.Logger
	cacheTTL     time.Duration
	forecastDays int

	fetches metric.Int64Counter
}

// NewService creates a new forecast service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	forecastDays := cfg.ForecastDays
	if forecastDays == 0 {
		forecastDays = 7
	}

	fetches, err := otel.Meter(meterName).Int64Counter(
		"forecast.upstream.fetches",
		metric.WithDescription("Number of upstream forecast fetches (cache misses)"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		fetches = nil
	}

	return &Service{
		upstream:     cfg.Upstream,
		resolver:     cfg.Resolver,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		forecastDays: forecastDays,
		fetches:      fetches,
	}
}

// ByName resolves a place name and assembles its forecast view. The
// resolved place metadata is attached to the view.
func (s *Service) ByName(ctx context.Context, name, timezone string, windowHours int) (*View, error) {
	place, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	coord := Coordinate{Latitude: place.Latitude, Longitude: place.Longitude}
	return s.assemble(ctx, coord, place, timezone, windowHours)
}

// ByCoordinates assembles the forecast view for a raw coordinate pair.
func (s *Service) ByCoordinates(ctx context.Context, lat, lon float64, timezone string, windowHours int) (*View, error) {
	return s.assemble(ctx, Coordinate{Latitude: lat, Longitude: lon}, nil, timezone, windowHours)
}

// Invalidate force-evicts every cached payload near the coordinate,
// keyed by the two-decimal location tag, so the next fetch goes upstream
// even inside the TTL window.
func (s *Service) Invalidate(ctx context.Context, lat, lon float64) error {
	return s.cache.InvalidateTag(ctx, locationTag(lat, lon))
}

func (s *Service) assemble(ctx context.Context, coord Coordinate, place *geocode.Place, timezone string, windowHours int) (*View, error) {
	if timezone == "" {
		timezone = "UTC"
	}

	payload, err := s.fetch(ctx, coord, timezone)
	if err != nil {
		return nil, err
	}

	return Assemble(payload, coord, place, timezone, windowHours, time.Now())
}

// fetch returns the raw payload for the coordinate, from cache when
// fresh. Derived fields are never cached; every read re-runs derivation
// against the raw payload.
func (s *Service) fetch(ctx context.Context, coord Coordinate, timezone string) (*openmeteo.ForecastResponse, error) {
	key := cache.Key("forecast",
		fmt.Sprintf("%.3f", coord.Latitude),
		fmt.Sprintf("%.3f", coord.Longitude),
		timezone,
	)
	tags := []string{locationTag(coord.Latitude, coord.Longitude)}

	raw, err := s.cache.GetOrCompute(ctx, key, s.cacheTTL, tags, func(ctx context.Context) ([]byte, error) {
		if s.fetches != nil {
			s.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", openmeteo.ProviderName)))
		}

		payload, err := s.upstream.Forecast(ctx, coord.Latitude, coord.Longitude, timezone, s.forecastDays)
		if err != nil {
			s.logger.Error().Err(err).
				Float64("lat", coord.Latitude).
				Float64("lon", coord.Longitude).
				Msg("upstream forecast fetch failed")
			return nil, err
		}

		if err := validatePayload(payload); err != nil {
			return nil, err
		}

		return json.Marshal(payload)
	})
	if err != nil {
		return nil, err
	}

	var payload openmeteo.ForecastResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding cached payload: %w", err)
	}
	return &payload, nil
}

// validatePayload rejects payloads missing the minimal hourly arrays or
// breaking their index alignment, before anything reaches the cache.
func validatePayload(payload *openmeteo.ForecastResponse) error {
	hourly := payload.Hourly
	n := len(hourly.Time)
	if n == 0 || len(hourly.Temperature) == 0 {
		return fmt.Errorf("%w: missing hourly time or temperature", ErrMalformedPayload)
	}

	aligned := [][]*float64{
		hourly.Temperature, hourly.ApparentTemperature, hourly.WindSpeed,
		hourly.WindGusts, hourly.WindDirection, hourly.Precipitation,
		hourly.PrecipitationProbability, hourly.RelativeHumidity, hourly.UVIndex,
	}
	for _, arr := range aligned {
		if len(arr) != 0 && len(arr) != n {
			return fmt.Errorf("%w: hourly array length mismatch", ErrMalformedPayload)
		}
	}
	if len(hourly.WeatherCode) != 0 && len(hourly.WeatherCode) != n {
		return fmt.Errorf("%w: hourly array length mismatch", ErrMalformedPayload)
	}

	return nil
}

func locationTag(lat, lon float64) string {
	return cache.Key("loc", fmt.Sprintf("%.2f", lat), fmt.Sprintf("%.2f", lon))
}
