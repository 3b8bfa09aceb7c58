// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the skycast API.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// Environment is the deployment environment name.
	Environment string

	// OTLPEndpoint is the OpenTelemetry collector address.
	OTLPEndpoint string

	// OTLPEnabled toggles telemetry export.
	OTLPEnabled bool

	// RedisAddr selects the Redis cache backend when set; empty means
	// the in-process memory cache.
	RedisAddr string

	// GeocodeLanguage is the primary language for place-name lookups.
	GeocodeLanguage string

	// GeocodeCacheTTL bounds cached geocoding responses.
	GeocodeCacheTTL time.Duration

	// ForecastCacheTTL bounds cached raw forecast payloads.
	ForecastCacheTTL time.Duration

	// ForecastDays is the requested forecast horizon.
	ForecastDays int

	// ForecastURL and GeocodingURL override the Open-Meteo endpoints.
	ForecastURL  string
	GeocodingURL string
}

// Load reads configuration from a .env file (when present) and the
// environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:             getEnv("APP_PORT", "8080"),
		Environment:      getEnv("APP_ENV", "development"),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPEnabled:      getEnv("OTEL_ENABLED", "false") == "true",
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		GeocodeLanguage:  getEnv("GEOCODE_LANGUAGE", "de"),
		GeocodeCacheTTL:  getDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		ForecastCacheTTL: getDuration("FORECAST_CACHE_TTL", 10*time.Minute),
		ForecastDays:     getInt("FORECAST_DAYS", 7),
		ForecastURL:      getEnv("OPENMETEO_FORECAST_URL", ""),
		GeocodingURL:     getEnv("OPENMETEO_GEOCODING_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
