// Package response provides helpers for rendering HTTP responses.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
)

// JSON writes a JSON body with the given status code and echoes the
// request ID for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Problem writes an RFC7807 error response.
func Problem(w http.ResponseWriter, r *http.Request, p *models.Problem) {
	p.Instance = r.URL.Path
	p.Write(w)
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail))
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.NewNotFound(middleware.GetRequestID(r.Context()), detail))
}

// BadGateway writes a 502 response for upstream failures.
func BadGateway(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.NewBadGateway(middleware.GetRequestID(r.Context()), detail))
}

// Internal writes a 500 response.
func Internal(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.NewInternalError(middleware.GetRequestID(r.Context()), detail))
}
