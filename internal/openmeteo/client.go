// Package openmeteo is a client for the Open-Meteo forecast and geocoding
// APIs. It returns raw payloads; all interpretation happens upstream in
// the forecast engine.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/provider/resilience"
)

const (
	// ProviderName identifies this upstream.
	ProviderName = "openmeteo"

	// DefaultForecastURL is the forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultGeocodingURL is the place-name search endpoint.
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// Requested field lists. The forecast horizon is wide enough that rolling
// windows near midnight never under-run the hourly data.
var (
	hourlyFields = []string{
		"temperature_2m", "apparent_temperature", "wind_speed_10m",
		"wind_gusts_10m", "wind_direction_10m", "precipitation",
		"precipitation_probability", "weather_code",
		"relative_humidity_2m", "uv_index",
	}
	dailyFields = []string{
		"temperature_2m_min", "temperature_2m_max", "precipitation_sum",
		"weather_code", "uv_index_max",
	}
	currentFields = []string{
		"temperature_2m", "apparent_temperature", "wind_speed_10m",
		"wind_direction_10m", "precipitation", "weather_code", "is_day",
	}
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// ForecastURL overrides the forecast endpoint (tests).
	ForecastURL string

	// GeocodingURL overrides the geocoding endpoint (tests).
	GeocodingURL string

	// HTTPClient executes requests. If nil, a resilient client with
	// defaults is used.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client talks to the Open-Meteo endpoints.
type Client struct {
	forecastURL  string
	geocodingURL string
	httpClient   *resilience.Client
	logger       zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}

	geocodingURL := cfg.GeocodingURL
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		forecastURL:  forecastURL,
		geocodingURL: geocodingURL,
		httpClient:   httpClient,
		logger:       cfg.Logger,
	}
}

// Search looks up a place name and returns up to count matches localized
// to the given language. A zero-match answer is not an error; callers
// inspect Results and Reason.
func (c *Client) Search(ctx context.Context, name string, count int, language string) (*GeocodingResponse, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("count", strconv.Itoa(count))
	query.Set("language", language)
	query.Set("format", "json")

	var payload GeocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL, query, &payload); err != nil {
		return nil, fmt.Errorf("geocoding search: %w", err)
	}

	return &payload, nil
}

// Forecast fetches the raw forecast payload for a coordinate pair. The
// coordinates are sent at full precision; rounding is a caching concern.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, timezone string, days int) (*ForecastResponse, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("timezone", timezone)
	query.Set("forecast_days", strconv.Itoa(days))
	query.Set("hourly", strings.Join(hourlyFields, ","))
	query.Set("daily", strings.Join(dailyFields, ","))
	query.Set("current", strings.Join(currentFields, ","))

	var payload ForecastResponse
	if err := c.getJSON(ctx, c.forecastURL, query, &payload); err != nil {
		return nil, fmt.Errorf("forecast fetch: %w", err)
	}
	if payload.Error {
		return nil, fmt.Errorf("forecast fetch rejected: %s", payload.Reason)
	}

	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	// Open-Meteo answers 400 with an error body; decode it for the
	// diagnostic reason rather than discarding the response.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
