package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"ortho-assist/internal/models"
	"ortho-assist/internal/repositories"
	"ortho-assist/internal/services"
	"ortho-assist/internal/workers"
)

// HealthCheckHandler godoc
// @Summary Liveness check
// @Description Reports that the gateway process is serving requests
// @Tags general
// @Produce json
// @Success 200 {object} models.BasicResponse
// @Router /health [get]
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := models.BasicResponse{
		Message: "Server is healthy",
		Status:  "success",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ReadinessResponse reports the state of each dependency
type ReadinessResponse struct {
	Status    string                `json:"status"`
	Backend   string                `json:"backend"`
	Store     string                `json:"store"`
	Workers   []workers.WorkerStats `json:"workers,omitempty"`
	Timestamp string                `json:"timestamp"`
}

// ReadinessHandler checks the analysis backend, the study store and the
// background workers
type ReadinessHandler struct {
	backend   services.BackendClientInterface
	studyRepo repositories.StudyRepository
	workers   []workers.Worker
	logger    *log.Logger
}

// NewReadinessHandler creates a new readiness handler
func NewReadinessHandler(backend services.BackendClientInterface, studyRepo repositories.StudyRepository, logger *log.Logger, ws ...workers.Worker) *ReadinessHandler {
	return &ReadinessHandler{
		backend:   backend,
		studyRepo: studyRepo,
		workers:   ws,
		logger:    logger,
	}
}

// Ready godoc
// @Summary Readiness check
// @Description Probes the analysis backend and the study store and reports background worker stats
// @Tags general
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /health/ready [get]
func (h *ReadinessHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := ReadinessResponse{
		Status:    "ready",
		Backend:   "ok",
		Store:     "ok",
		Timestamp: models.Now(),
	}
	status := http.StatusOK

	if err := h.backend.Info(ctx); err != nil {
		h.logger.Printf("Backend not ready: %v", err)
		response.Backend = "unavailable"
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	if err := h.studyRepo.Ping(ctx); err != nil {
		h.logger.Printf("Study store not ready: %v", err)
		response.Store = "unavailable"
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	for _, worker := range h.workers {
		stats := worker.Stats()
		response.Workers = append(response.Workers, stats)
		if !stats.IsRunning {
			h.logger.Printf("Worker %s is not running", stats.WorkerName)
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	sendJSON(w, h.logger, status, response)
}
