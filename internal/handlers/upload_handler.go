package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"ortho-assist/internal/middleware"
	"ortho-assist/internal/models"
	"ortho-assist/internal/services"
)

const (
	// UnauthorizedUploadMessage is the 401 body text for the upload route
	UnauthorizedUploadMessage = "Unauthorized - Please sign in to upload images"
	// UnauthorizedMessage is the 401 body text for the other protected routes
	UnauthorizedMessage = "Unauthorized - Please sign in"

	invalidFileTypeMessage = "Invalid file type. Please upload JPEG, PNG, or DICOM files."
)

// StudyRecorder queues a finished analysis for the study history. Record
// must not block; false means the study was dropped.
type StudyRecorder interface {
	Record(req *models.AnalyzeRequest, result *models.AnalyzeResult) bool
}

// UploadHandler validates image uploads and forwards them for analysis
type UploadHandler struct {
	backend        services.BackendClientInterface
	recorder       StudyRecorder
	maxUploadBytes int64
	logger         *log.Logger
}

// NewUploadHandler creates a new upload handler. recorder may be nil, in
// which case analyses are not recorded.
func NewUploadHandler(backend services.BackendClientInterface, recorder StudyRecorder, maxUploadBytes int64, logger *log.Logger) *UploadHandler {
	return &UploadHandler{
		backend:        backend,
		recorder:       recorder,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload handles image analysis uploads
// @Summary Upload an image for analysis
// @Description Validates an X-ray or DICOM upload, probes the backend and submits the image for triage analysis
// @Tags analysis
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "JPEG, PNG or DICOM image"
// @Param notes formData string false "Clinical notes"
// @Param processingMode formData string false "Processing mode" default(Automatic - Full AI Pipeline)
// @Param patientSymptoms formData string false "Patient symptoms"
// @Param bodyPartPreference formData string false "Body part preference" default(Auto-detect)
// @Param patientId formData string false "Patient ID"
// @Param patientName formData string false "Patient name"
// @Param patientDob formData string false "Patient date of birth"
// @Param patientAge formData int false "Patient age"
// @Param patientGender formData string false "Patient gender"
// @Param patientMrn formData string false "Medical record number"
// @Param patientPhone formData string false "Patient phone"
// @Param patientEmail formData string false "Patient email"
// @Param patientAdditional formData string false "Additional patient notes"
// @Success 200 {object} models.UploadResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 503 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Router /api/user/upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		sendError(w, h.logger, http.StatusUnauthorized, UnauthorizedUploadMessage)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, h.logger, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			sendError(w, h.logger, http.StatusBadRequest, "No file provided")
			return
		}
		h.logger.Printf("Failed to parse form: %v", err)
		sendError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !models.IsAllowedImage(contentType, header.Filename) {
		sendError(w, h.logger, http.StatusBadRequest, invalidFileTypeMessage)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Printf("Failed to read upload: %v", err)
		sendError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	req := buildAnalyzeRequest(r, userID, header, contentType, data)
	h.logger.Printf("Sending analysis: file=%s type=%s size=%d mode=%q body_part=%q user=%s has_patient_info=%v",
		req.FileName, req.FileType, req.FileSize, req.ProcessingMode, req.BodyPartPreference, req.UserID, !req.PatientInfo.IsEmpty())

	if err := h.backend.Info(r.Context()); err != nil {
		h.logger.Printf("Backend probe failed: %v", err)
		if errors.Is(err, services.ErrBackendUnavailable) {
			sendError(w, h.logger, http.StatusServiceUnavailable, "Cannot connect to analysis service")
		} else {
			sendError(w, h.logger, http.StatusServiceUnavailable, "Backend service unavailable")
		}
		return
	}

	result, err := h.backend.Analyze(r.Context(), req)
	if err != nil {
		h.sendAnalyzeError(w, err)
		return
	}

	if h.recorder != nil && !h.recorder.Record(req, result) {
		h.logger.Printf("Study for user %s was not recorded", userID)
	}

	sendJSON(w, h.logger, http.StatusOK, models.UploadResponse{
		Success:   true,
		Data:      result.Raw,
		UserID:    userID,
		Timestamp: models.Now(),
	})
}

func (h *UploadHandler) sendAnalyzeError(w http.ResponseWriter, err error) {
	var backendErr *services.BackendError
	if errors.As(err, &backendErr) {
		h.logger.Printf("Analysis failed: status=%d code=%s request_id=%s error_id=%s",
			backendErr.StatusCode, backendErr.RawCode, backendErr.RequestID, backendErr.ErrorID)

		support := backendErr.SupportMessage
		if support == "" {
			support = services.DefaultSupportMessage
		}
		sendJSON(w, h.logger, backendErr.StatusCode, models.APIError{
			Error:          backendErr.UserMessage(),
			Details:        backendErr.Details,
			SupportMessage: support,
			ErrorID:        backendErr.ErrorID,
			RequestID:      backendErr.RequestID,
			Timestamp:      models.Now(),
		})
		return
	}

	h.logger.Printf("Analysis request failed: %v", err)
	if errors.Is(err, services.ErrBackendUnavailable) {
		sendError(w, h.logger, http.StatusServiceUnavailable, "Cannot connect to analysis service")
		return
	}
	sendError(w, h.logger, http.StatusInternalServerError, "Internal server error")
}

// buildAnalyzeRequest assembles the backend envelope. Patient fields are
// included only when supplied.
func buildAnalyzeRequest(r *http.Request, userID string, header *multipart.FileHeader, contentType string, data []byte) *models.AnalyzeRequest {
	form := func(key string) string {
		return strings.TrimSpace(r.FormValue(key))
	}

	req := &models.AnalyzeRequest{
		FileData:           base64.StdEncoding.EncodeToString(data),
		FileName:           header.Filename,
		FileType:           contentType,
		FileSize:           int64(len(data)),
		ProcessingMode:     form("processingMode"),
		BodyPartPreference: form("bodyPartPreference"),
		UserID:             userID,
		PatientInfo: models.PatientInfo{
			PatientID:       form("patientId"),
			Name:            form("patientName"),
			DateOfBirth:     form("patientDob"),
			Gender:          form("patientGender"),
			MRN:             form("patientMrn"),
			Phone:           form("patientPhone"),
			Email:           form("patientEmail"),
			AdditionalNotes: form("patientAdditional"),
		},
		ClinicalNotes:   form("notes"),
		PatientSymptoms: form("patientSymptoms"),
		Timestamp:       models.Now(),
		Source:          models.AnalyzeSource,
	}

	if req.ProcessingMode == "" {
		req.ProcessingMode = models.DefaultProcessingMode
	}
	if req.BodyPartPreference == "" {
		req.BodyPartPreference = models.DefaultBodyPart
	}
	if age, err := strconv.Atoi(form("patientAge")); err == nil {
		req.PatientInfo.Age = &age
	}

	return req
}
