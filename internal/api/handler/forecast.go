// Package handler provides HTTP handlers for the skycast API.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/forecast"
	"github.com/skycast/skycast/internal/geocode"
)

const (
	defaultWindowHours = 5
	maxWindowHours     = 48
)

// ForecastHandler serves forecast views.
type ForecastHandler struct {
	service *forecast.Service
	logger  zerolog.Logger
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(service *forecast.Service, logger zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{service: service, logger: logger}
}

// Get handles GET /v1/forecast. The location is given either as a
// free-text place query or as a lat/lon pair; place wins when both are
// present.
func (h *ForecastHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	timezone := q.Get("tz")
	hours, err := windowHours(q.Get("hours"))
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	var view *forecast.View
	if place := q.Get("place"); place != "" {
		view, err = h.service.ByName(r.Context(), place, timezone, hours)
	} else {
		lat, lon, coordErr := coordinates(q.Get("lat"), q.Get("lon"))
		if coordErr != nil {
			response.BadRequest(w, r, coordErr.Error())
			return
		}
		view, err = h.service.ByCoordinates(r.Context(), lat, lon, timezone, hours)
	}

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, view)
}

// Invalidate handles POST /v1/forecast/invalidate, evicting cached
// payloads around a coordinate.
func (h *ForecastHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, lon, err := coordinates(q.Get("lat"), q.Get("lon"))
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	if err := h.service.Invalidate(r.Context(), lat, lon); err != nil {
		h.logger.Error().Err(err).Msg("cache invalidation failed")
		response.Internal(w, r, "cache invalidation failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ForecastHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *geocode.NotFoundError
	switch {
	case errors.As(err, &notFound):
		response.NotFound(w, r, notFound.Error())
	case errors.Is(err, forecast.ErrBadTimezone):
		response.BadRequest(w, r, "unknown timezone")
	case errors.Is(err, forecast.ErrMalformedPayload):
		response.BadGateway(w, r, "provider returned a malformed forecast")
	default:
		h.logger.Error().Err(err).Msg("forecast request failed")
		response.BadGateway(w, r, "forecast provider unavailable")
	}
}

func windowHours(raw string) (int, error) {
	if raw == "" {
		return defaultWindowHours, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 || hours > maxWindowHours {
		return 0, fmt.Errorf("hours must be an integer between 1 and %d", maxWindowHours)
	}
	return hours, nil
}

func coordinates(rawLat, rawLon string) (float64, float64, error) {
	if rawLat == "" || rawLon == "" {
		return 0, 0, errors.New("either place or both lat and lon are required")
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, errors.New("lat must be a number between -90 and 90")
	}

	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, errors.New("lon must be a number between -180 and 180")
	}

	return lat, lon, nil
}
