// Package main provides the entrypoint for the skycast API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/cache"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/forecast"
	"github.com/skycast/skycast/internal/geocode"
	"github.com/skycast/skycast/internal/openmeteo"
	"github.com/skycast/skycast/internal/telemetry"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	const serviceName = "skycast-api"

	cfg := config.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("env", cfg.Environment).
		Msg("starting skycast API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTLPEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTLPEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Cache backend: Redis when configured, in-process memory otherwise.
	var store cache.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to redis")
		}
		store = cache.NewRedis(cache.RedisConfig{Client: client, Logger: log})
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache connected")
	} else {
		store = cache.NewMemory(cache.MemoryConfig{Logger: log})
		log.Info().Msg("using in-memory cache")
	}

	meteoClient := openmeteo.NewClient(openmeteo.ClientConfig{
		ForecastURL:  cfg.ForecastURL,
		GeocodingURL: cfg.GeocodingURL,
		Logger:       log,
	})

	geocodeService := geocode.NewService(geocode.ServiceConfig{
		Searcher: meteoClient,
		Cache:    store,
		Logger:   log,
		Language: cfg.GeocodeLanguage,
		CacheTTL: cfg.GeocodeCacheTTL,
	})

	forecastService := forecast.NewService(forecast.ServiceConfig{
		Upstream:     meteoClient,
		Resolver:     geocodeService,
		Cache:        store,
		Logger:       log,
		CacheTTL:     cfg.ForecastCacheTTL,
		ForecastDays: cfg.ForecastDays,
	})
	log.Info().Msg("forecast service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		Logger:          log,
		Metrics:         metrics,
		ForecastService: forecastService,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
