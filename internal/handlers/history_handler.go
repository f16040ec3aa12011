package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"ortho-assist/internal/models"
	"ortho-assist/internal/services"

	"github.com/gorilla/mux"
)

// HistoryResponse is the body of the study history endpoint
type HistoryResponse struct {
	Studies   []*models.Study `json:"studies"`
	Count     int             `json:"count"`
	Timestamp string          `json:"timestamp"`
}

// PatientResponse is the body of the patient details endpoint
type PatientResponse struct {
	Success   bool            `json:"success"`
	Patient   *models.Patient `json:"patient,omitempty"`
	Studies   []*models.Study `json:"studies,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// HistoryHandler serves the dashboard data views
type HistoryHandler struct {
	history *services.HistoryService
	logger  *log.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *services.HistoryService, logger *log.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// ListHistory returns the study history
// @Summary List study history
// @Description Lists analysed studies, newest first, optionally filtered by severity and date range
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param severity query string false "Triage severity" Enums(red, amber, green)
// @Param from query string false "First date, inclusive (YYYY-MM-DD)"
// @Param to query string false "Last date, inclusive (YYYY-MM-DD)"
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Router /api/history [get]
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.StudyFilter{}

	if raw := query.Get("severity"); raw != "" && raw != "all" {
		severity, ok := models.ParseSeverity(raw)
		if !ok {
			sendError(w, h.logger, http.StatusBadRequest, "Invalid severity. Use red, amber or green.")
			return
		}
		filter.Severity = severity
	}

	for _, param := range []struct {
		name string
		dst  *string
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := strings.TrimSpace(query.Get(param.name))
		if raw == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			sendError(w, h.logger, http.StatusBadRequest, "Invalid "+param.name+" date. Use YYYY-MM-DD.")
			return
		}
		*param.dst = raw
	}

	studies, err := h.history.ListStudies(r.Context(), filter)
	if err != nil {
		h.logger.Printf("Failed to list studies: %v", err)
		sendError(w, h.logger, http.StatusInternalServerError, "Failed to load study history")
		return
	}
	if studies == nil {
		studies = []*models.Study{}
	}

	sendJSON(w, h.logger, http.StatusOK, HistoryResponse{
		Studies:   studies,
		Count:     len(studies),
		Timestamp: models.Now(),
	})
}

// Overview returns the dashboard overview
// @Summary Dashboard overview
// @Description Triage counts for today and the last seven days plus the most recent studies
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Overview
// @Failure 500 {object} models.APIError
// @Router /api/dashboard/overview [get]
func (h *HistoryHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.history.Overview(r.Context())
	if err != nil {
		h.logger.Printf("Failed to build overview: %v", err)
		sendError(w, h.logger, http.StatusInternalServerError, "Failed to load overview")
		return
	}

	sendJSON(w, h.logger, http.StatusOK, overview)
}

// GetPatient returns a patient with their studies
// @Summary Get patient details
// @Description Returns a patient's identity and study history
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param patientId path string true "Patient ID"
// @Success 200 {object} PatientResponse
// @Failure 404 {object} PatientResponse
// @Failure 500 {object} models.APIError
// @Router /api/patients/{patientId} [get]
func (h *HistoryHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]

	patient, studies, err := h.history.Patient(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			sendJSON(w, h.logger, http.StatusNotFound, PatientResponse{
				Success:   false,
				Error:     "Patient not found",
				Timestamp: models.Now(),
			})
			return
		}
		h.logger.Printf("Failed to load patient %s: %v", patientID, err)
		sendError(w, h.logger, http.StatusInternalServerError, "Failed to load patient")
		return
	}

	sendJSON(w, h.logger, http.StatusOK, PatientResponse{
		Success:   true,
		Patient:   patient,
		Studies:   studies,
		Timestamp: models.Now(),
	})
}
