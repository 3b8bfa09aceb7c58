// Package cache provides a get-or-compute key/value store with bounded
// TTLs and tag-based bulk invalidation. Two backends are available: an
// in-process store for single-instance deployments and a Redis-backed
// store for shared deployments.
package cache

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/skycast/skycast/internal/cache"

// ComputeFunc produces the value for a key on a cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Store is the caching contract consumed by the forecast engine.
// Implementations must not cache values when compute fails, and should
// coalesce concurrent misses for the same key.
type Store interface {
	// GetOrCompute returns the cached value for key, computing and
	// storing it with the given TTL and tags on a miss.
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, tags []string, compute ComputeFunc) ([]byte, error)

	// InvalidateTag evicts every entry stored under the given tag.
	InvalidateTag(ctx context.Context, tag string) error
}

// Key joins segments into a cache key. Reserved delimiter characters and
// whitespace inside a segment are replaced with an underscore so that
// free-text input (place names) cannot collide with composed keys.
func Key(segments ...string) string {
	cleaned := make([]string, len(segments))
	for i, seg := range segments {
		cleaned[i] = strings.Map(func(r rune) rune {
			switch {
			case r == ':' || r == '{' || r == '}':
				return '_'
			case r == ' ' || r == '\t' || r == '\n' || r == '\r':
				return '_'
			default:
				return r
			}
		}, seg)
	}
	return strings.Join(cleaned, ":")
}

// storeMetrics holds the cache hit/miss counters shared by both backends.
type storeMetrics struct {
	hits    metric.Int64Counter
	misses  metric.Int64Counter
	backend string
}

func newStoreMetrics(backend string) *storeMetrics {
	meter := otel.Meter(meterName)

	hits, err := meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Number of cache reads served from the store"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil
	}

	misses, err := meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Number of cache reads that required a compute"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil
	}

	return &storeMetrics{hits: hits, misses: misses, backend: backend}
}

func (m *storeMetrics) recordHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.backend", m.backend)))
}

func (m *storeMetrics) recordMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.misses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.backend", m.backend)))
}
