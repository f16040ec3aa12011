package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"ortho-assist/internal/models"
)

func sendJSON(w http.ResponseWriter, logger *log.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Printf("Failed to encode JSON: %v", err)
	}
}

func sendError(w http.ResponseWriter, logger *log.Logger, status int, message string) {
	sendJSON(w, logger, status, models.APIError{
		Error:     message,
		Timestamp: models.Now(),
	})
}

// withTimestamp adds a timestamp to a JSON object body that lacks one.
// Anything else is returned unchanged.
func withTimestamp(body []byte) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return body
	}
	if _, ok := obj["timestamp"]; ok {
		return body
	}

	ts, _ := json.Marshal(models.Now())
	obj["timestamp"] = ts
	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return out
}

func relayJSON(w http.ResponseWriter, logger *log.Logger, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(withTimestamp(body)); err != nil {
		logger.Printf("Failed to write response: %v", err)
	}
}
