package http

import "github.com/fyrsmithlabs/nautwatch/internal/daemon"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Health  string `json:"status"`
	Version string `json:"version,omitempty"`
	daemon.Status
}

// ErrorResponse is returned when the daemon cannot be queried.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
