// Package models holds the wire types of the skycast HTTP API.
package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC7807 error response, served with
// Content-Type: application/problem+json.
type Problem struct {
	// Type is a URI reference identifying the problem type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code.
	Status int `json:"status"`

	// Detail explains this specific occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance identifies the request path that produced the problem.
	Instance string `json:"instance,omitempty"`

	// TraceID is the request identifier for correlation.
	TraceID string `json:"traceId"`
}

// Problem type URIs.
const (
	ProblemTypeValidation      = "https://skycast.dev/problems/validation-error"
	ProblemTypeNotFound        = "https://skycast.dev/problems/not-found"
	ProblemTypeUpstreamFailure = "https://skycast.dev/problems/upstream-failure"
	ProblemTypeTooManyRequests = "https://skycast.dev/problems/too-many-requests"
	ProblemTypeInternal        = "https://skycast.dev/problems/internal-error"
)

// Write renders the problem to the response writer.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 problem for invalid request parameters.
func NewBadRequest(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeValidation,
		Title:   "Validation error",
		Status:  http.StatusBadRequest,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeNotFound,
		Title:   "Not found",
		Status:  http.StatusNotFound,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewBadGateway creates a 502 problem for upstream provider failures.
func NewBadGateway(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeUpstreamFailure,
		Title:   "Upstream provider failure",
		Status:  http.StatusBadGateway,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeTooManyRequests,
		Title:   "Too many requests",
		Status:  http.StatusTooManyRequests,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeInternal,
		Title:   "Internal error",
		Status:  http.StatusInternalServerError,
		Detail:  detail,
		TraceID: traceID,
	}
}

// Health is the ops health/readiness response body.
type Health struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
