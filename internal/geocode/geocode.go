// Package geocode resolves free-text place names to coordinates using a
// layered fallback search against the geocoding upstream.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/cache"
	"github.com/skycast/skycast/internal/openmeteo"
)

// fallbackLanguage is the last-resort search language when the configured
// one yields nothing.
const fallbackLanguage = "en"

// NotFoundError is returned when no attempt produced a match. Reason
// carries the upstream-provided diagnostic, when there was one.
type NotFoundError struct {
	Name   string
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("no geocoding match for %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("no geocoding match for %q", e.Name)
}

// Place is a resolved location with its metadata.
type Place struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Admin1    string  `json:"admin1,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Searcher is the upstream geocoding search.
type Searcher interface {
	Search(ctx context.Context, name string, count int, language string) (*openmeteo.GeocodingResponse, error)
}

// ServiceConfig holds configuration for the resolver.
type ServiceConfig struct {
	// Searcher is the upstream client (required).
	Searcher Searcher

	// Cache backs resolved lookups (required).
	Cache cache.Store

	// Logger for resolver operations.
	Logger zerolog.Logger

	// Language is the primary search language (default: "de").
	Language string

	// ResultCount is how many matches to request (default: 1; only the
	// first is used).
	ResultCount int

	// CacheTTL is how long resolved lookups stay cached (default: 24h).
	// Coordinates of places essentially never move.
	CacheTTL time.Duration
}

// Service resolves place names with caching and fallbacks.
type Service struct {
	searcher    Searcher
	cache       cache.Store
	logger      zerolog.Logger
	language    string
	resultCount int
	cacheTTL    time.Duration
}

// NewService creates a new resolver.
func NewService(cfg ServiceConfig) *Service {
	language := cfg.Language
	if language == "" {
		language = "de"
	}

	resultCount := cfg.ResultCount
	if resultCount == 0 {
		resultCount = 1
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Service{
		searcher:    cfg.Searcher,
		cache:       cfg.Cache,
		logger:      cfg.Logger,
		language:    language,
		resultCount: resultCount,
		cacheTTL:    cacheTTL,
	}
}

// attempt is one step of the fallback sequence. Steps run in order; each
// one only fires when every earlier step returned zero matches.
type attempt struct {
	label    string
	query    string
	language string
	cached   bool
}

// Resolve maps a place name to coordinates. The normalized lookup is
// cached; the fallback attempts (original casing, then the fallback
// language) go straight to the upstream.
func (s *Service) Resolve(ctx context.Context, name string) (*Place, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, &NotFoundError{Name: name}
	}

	attempts := []attempt{
		{label: "normalized", query: strings.ToLower(trimmed), language: s.language, cached: true},
		{label: "original-casing", query: trimmed, language: s.language},
		{label: "fallback-language", query: trimmed, language: fallbackLanguage},
	}

	var lastReason string
	for _, a := range attempts {
		resp, err := s.search(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("geocoding %q: %w", trimmed, err)
		}

		if resp.Reason != "" {
			lastReason = resp.Reason
		}
		if len(resp.Results) == 0 {
			continue
		}

		first := resp.Results[0]
		s.logger.Debug().
			Str("name", trimmed).
			Str("attempt", a.label).
			Float64("lat", first.Latitude).
			Float64("lon", first.Longitude).
			Msg("place resolved")

		return &Place{
			Name:      first.Name,
			Country:   first.Country,
			Admin1:    first.Admin1,
			Latitude:  first.Latitude,
			Longitude: first.Longitude,
		}, nil
	}

	return nil, &NotFoundError{Name: trimmed, Reason: lastReason}
}

func (s *Service) search(ctx context.Context, a attempt) (*openmeteo.GeocodingResponse, error) {
	if !a.cached {
		return s.searcher.Search(ctx, a.query, s.resultCount, a.language)
	}

	key := cache.Key("geocode", a.language, strconv.Itoa(s.resultCount), a.query)
	raw, err := s.cache.GetOrCompute(ctx, key, s.cacheTTL, nil, func(ctx context.Context) ([]byte, error) {
		resp, err := s.searcher.Search(ctx, a.query, s.resultCount, a.language)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
	if err != nil {
		return nil, err
	}

	var resp openmeteo.GeocodingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding cached lookup: %w", err)
	}
	return &resp, nil
}
