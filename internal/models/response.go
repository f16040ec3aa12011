package models

import "time"

// BasicResponse is the body of simple status endpoints
type BasicResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// APIError is the structured body of every failed request
type APIError struct {
	Error          string      `json:"error"`
	Details        interface{} `json:"details,omitempty"`
	SupportMessage string      `json:"support_message,omitempty"`
	ErrorID        string      `json:"error_id,omitempty"`
	RequestID      string      `json:"request_id,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

// UploadResponse is returned after a successful analysis
type UploadResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	UserID    string      `json:"userId"`
	Timestamp string      `json:"timestamp"`
}

// Now returns the timestamp format used in every response body
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
