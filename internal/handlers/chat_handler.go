package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"ortho-assist/internal/models"
	"ortho-assist/internal/services"
)

// ChatHandler proxies chat turns and suggestion lookups to the backend
type ChatHandler struct {
	backend        services.BackendClientInterface
	maxUploadBytes int64
	logger         *log.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(backend services.BackendClientInterface, maxUploadBytes int64, logger *log.Logger) *ChatHandler {
	return &ChatHandler{
		backend:        backend,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// requestError is a client mistake reported with 400 and never forwarded
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

// SendMessage handles one chat turn
// @Summary Send a chat message
// @Description Forwards a chat turn to the analysis backend. Accepts JSON or multipart with an optional image.
// @Tags chat
// @Accept json,mpfd
// @Produce json
// @Param request body models.ChatRequest false "Chat turn (JSON form)"
// @Param message formData string false "Message text (multipart form)"
// @Param chat_id formData string false "Backend session token"
// @Param user_info formData string false "JSON-encoded user context"
// @Param mcp_context formData string false "JSON-encoded tool context"
// @Param image formData file false "X-ray image"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Router /api/chat [post]
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseChatRequest(w, r)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			sendError(w, h.logger, http.StatusBadRequest, reqErr.message)
			return
		}
		h.logger.Printf("Failed to read chat request: %v", err)
		sendError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		sendError(w, h.logger, http.StatusBadRequest, "Message is required")
		return
	}

	h.logger.Printf("Chat turn (chat_id: %q, image: %v)", req.ChatID, req.ImageData != "")

	body, err := h.backend.Chat(r.Context(), req)
	if err != nil {
		h.logger.Printf("Chat backend error: %v", err)
		h.sendUpstreamError(w, err)
		return
	}

	relayJSON(w, h.logger, body)
}

// GetSuggestions handles suggestion lookups
// @Summary Get chat suggestions
// @Description Fetches suggested next actions from the analysis backend
// @Tags chat
// @Produce json
// @Param context query string false "Conversation context"
// @Success 200 {object} models.SuggestionsResponse
// @Failure 500 {object} models.APIError
// @Router /api/chat [get]
func (h *ChatHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	chatContext := r.URL.Query().Get("context")

	body, err := h.backend.Suggestions(r.Context(), chatContext)
	if err != nil {
		h.logger.Printf("Suggestions backend error: %v", err)
		message := err.Error()
		if message == "" {
			message = "Failed to get suggestions"
		}
		sendError(w, h.logger, http.StatusInternalServerError, message)
		return
	}

	relayJSON(w, h.logger, body)
}

// parseChatRequest normalizes JSON and multipart bodies into one request
func (h *ChatHandler) parseChatRequest(w http.ResponseWriter, r *http.Request) (*models.ChatRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.parseMultipart(r)
	}

	req := &models.ChatRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{message: "Request body too large"}
		}
		return nil, &requestError{message: "Invalid request body"}
	}
	return req, nil
}

func (h *ChatHandler) parseMultipart(r *http.Request) (*models.ChatRequest, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, &requestError{message: "Failed to parse form data"}
	}
	defer r.MultipartForm.RemoveAll()

	req := &models.ChatRequest{
		Message: r.FormValue("message"),
		ChatID:  r.FormValue("chat_id"),
	}

	for _, field := range []struct {
		name string
		dst  *json.RawMessage
	}{
		{"user_info", &req.UserInfo},
		{"mcp_context", &req.MCPContext},
	} {
		raw := r.FormValue(field.name)
		if raw == "" {
			continue
		}
		if !json.Valid([]byte(raw)) {
			return nil, &requestError{message: "Invalid " + field.name}
		}
		*field.dst = json.RawMessage(raw)
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return nil, &requestError{message: "Failed to read image"}
	}
	defer file.Close()

	if header.Size > 0 {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		req.ImageData = base64.StdEncoding.EncodeToString(data)
	}
	return req, nil
}

// sendUpstreamError relays a failed chat call as a 500 with the backend's
// own detail when it gave one
func (h *ChatHandler) sendUpstreamError(w http.ResponseWriter, err error) {
	apiErr := models.APIError{
		Error:     err.Error(),
		Timestamp: models.Now(),
	}

	var backendErr *services.BackendError
	if errors.As(err, &backendErr) {
		apiErr.Error = backendErr.Error()
		apiErr.Details = backendErr.Details
		apiErr.RequestID = backendErr.RequestID
	}

	sendJSON(w, h.logger, http.StatusInternalServerError, apiErr)
}
