package handlers

import (
	"log"
	"net/http"
)

// ServiceIndex describes the gateway and the routes it serves
type ServiceIndex struct {
	Service   string   `json:"service"`
	Message   string   `json:"message"`
	Docs      string   `json:"docs"`
	Endpoints []string `json:"endpoints"`
}

// NewHomeHandler returns the service index handler. docsURL points at the
// interactive API docs.
// @Summary Service index
// @Description Names the gateway and lists its routes
// @Tags general
// @Produce json
// @Success 200 {object} ServiceIndex
// @Router / [get]
func NewHomeHandler(docsURL string, logger *log.Logger) http.HandlerFunc {
	index := ServiceIndex{
		Service: "ortho-assist-gateway",
		Message: "Welcome to the OrthoAssist gateway!",
		Docs:    docsURL,
		Endpoints: []string{
			"GET /health",
			"GET /health/ready",
			"GET /api/chat",
			"POST /api/chat",
			"POST /api/user/upload",
			"GET /api/reports/{reportId}/download",
			"GET /api/history",
			"GET /api/dashboard/overview",
			"GET /api/patients/{patientId}",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		sendJSON(w, logger, http.StatusOK, index)
	}
}
