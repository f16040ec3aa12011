package models

import (
	"encoding/json"
)

// ChatRequest is the normalized chat payload sent to the analysis backend
type ChatRequest struct {
	Message    string          `json:"message"`               // The current user message
	ChatID     string          `json:"chat_id,omitempty"`     // Backend session token, absent on the first turn
	UserInfo   json.RawMessage `json:"user_info,omitempty"`   // Opaque user context forwarded as-is
	MCPContext json.RawMessage `json:"mcp_context,omitempty"` // Opaque tool context forwarded as-is
	ImageData  string          `json:"image_data,omitempty"`  // Base64 encoded image bytes
}

// ChatAttachment is a downloadable file referenced by an assistant reply
type ChatAttachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// ChatAction is a follow-up action offered by the backend
type ChatAction struct {
	Type  string            `json:"type"`
	Label string            `json:"label"`
	Data  map[string]string `json:"data,omitempty"`
}

// ChatResponse is the backend reply to a chat turn
type ChatResponse struct {
	ChatID      string           `json:"chat_id"`
	Response    string           `json:"response"`
	Images      []string         `json:"images,omitempty"`
	Attachments []ChatAttachment `json:"attachments,omitempty"`
	Actions     []ChatAction     `json:"actions,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Analysis    *Analysis        `json:"analysis,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
}

// SuggestionsResponse is the object form of the suggestions reply
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
	Timestamp   string   `json:"timestamp,omitempty"`
}
