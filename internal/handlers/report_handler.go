package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"ortho-assist/internal/services"

	"github.com/gorilla/mux"
)

// ReportHandler streams generated PDF reports from the backend
type ReportHandler struct {
	backend services.BackendClientInterface
	logger  *log.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(backend services.BackendClientInterface, logger *log.Logger) *ReportHandler {
	return &ReportHandler{
		backend: backend,
		logger:  logger,
	}
}

// Download streams a report PDF
// @Summary Download a report
// @Description Streams a generated PDF report from the analysis backend
// @Tags reports
// @Produce application/pdf
// @Security BearerAuth
// @Param reportId path string true "Report ID"
// @Success 200 {file} file
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 503 {object} models.APIError
// @Router /api/reports/{reportId}/download [get]
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	reportID := strings.TrimSpace(mux.Vars(r)["reportId"])
	if reportID == "" {
		sendError(w, h.logger, http.StatusBadRequest, "Report ID is required")
		return
	}

	h.logger.Printf("Report download: %s", reportID)

	report, err := h.backend.DownloadReport(r.Context(), reportID)
	if err != nil {
		h.logger.Printf("Report download failed: %v", err)

		var backendErr *services.BackendError
		switch {
		case errors.As(err, &backendErr):
			sendError(w, h.logger, backendErr.StatusCode, backendErr.Error())
		case errors.Is(err, services.ErrBackendUnavailable):
			sendError(w, h.logger, http.StatusServiceUnavailable, "Cannot connect to analysis service")
		default:
			sendError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	defer report.Body.Close()

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename))
	if report.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(report.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, report.Body); err != nil {
		h.logger.Printf("Report stream interrupted (%s): %v", reportID, err)
	}
}
