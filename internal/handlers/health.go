package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the API info and health endpoints
type HealthHandler struct {
	db      HealthChecker
	logger  *slog.Logger
	name    string
	version string
	env     string
	started time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db HealthChecker, logger *slog.Logger, name, version, env string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		logger:  logger,
		name:    name,
		version: version,
		env:     env,
		started: time.Now(),
	}
}

type infoResponse struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

type healthResponse struct {
	Status      string         `json:"status"`
	Timestamp   string         `json:"timestamp"`
	Uptime      float64        `json:"uptime"`
	Environment string         `json:"environment"`
	Database    databaseHealth `json:"database"`
}

type databaseHealth struct {
	Status string `json:"status"`
}

// Info describes the API
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeRawJSON(w, http.StatusOK, infoResponse{
		Message:     h.name,
		Version:     h.version,
		Environment: h.env,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Health reports process uptime and database reachability. An unreachable
// database turns the response into a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Uptime:      time.Since(h.started).Seconds(),
		Environment: h.env,
		Database:    databaseHealth{Status: "connected"},
	}
	status := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		resp.Status = "DEGRADED"
		resp.Database.Status = "disconnected"
		status = http.StatusServiceUnavailable
	}

	writeRawJSON(w, status, resp)
}

func writeRawJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
