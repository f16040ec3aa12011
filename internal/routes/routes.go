package routes

import (
	"net/http"

	"ortho-assist/internal/handlers"

	"github.com/gorilla/mux"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Health http.HandlerFunc
	Home   http.HandlerFunc
	Ready  *handlers.ReadinessHandler

	Chat    *handlers.ChatHandler
	Upload  *handlers.UploadHandler
	Report  *handlers.ReportHandler
	History *handlers.HistoryHandler

	// RequireAuth wraps a protected route; message is the 401 body text
	RequireAuth func(message string) func(http.Handler) http.Handler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if h.Ready != nil {
		router.HandleFunc("/health/ready", h.Ready.Ready).Methods(http.MethodGet)
	}

	// Main routes
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Chat proxy. Open like the chat page itself.
	api.HandleFunc("/chat", h.Chat.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/chat", h.Chat.GetSuggestions).Methods(http.MethodGet)

	// Upload proxy. Identity is resolved before the body is read.
	api.Handle("/user/upload",
		h.RequireAuth(handlers.UnauthorizedUploadMessage)(http.HandlerFunc(h.Upload.Upload)),
	).Methods(http.MethodPost)

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.RequireAuth(handlers.UnauthorizedMessage)(fn)
	}

	// Reports
	api.Handle("/reports/{reportId}/download", protected(h.Report.Download)).Methods(http.MethodGet)

	// Dashboard data
	api.Handle("/history", protected(h.History.ListHistory)).Methods(http.MethodGet)
	api.Handle("/dashboard/overview", protected(h.History.Overview)).Methods(http.MethodGet)
	api.Handle("/patients/{patientId}", protected(h.History.GetPatient)).Methods(http.MethodGet)
}
