// Package handler provides the ops HTTP handlers: service info, health
// probes and JSON error fallbacks.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/foodgram/gateway/internal/middleware"
)

// ServiceName identifies the gateway in info responses.
const ServiceName = "foodgram-gateway"

// Handler serves ops endpoints that need no dependencies.
type Handler struct {
	version string
}

// New creates a new Handler reporting the given build version.
func New(version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{version: version}
}

// Info reports the service name and version.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": ServiceName,
		"version": h.version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusNotFound, middleware.CodeNotFound, "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
