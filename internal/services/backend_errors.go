package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrBackendUnavailable marks transport failures: the backend could not be
// reached at all, as opposed to answering with an error status
var ErrBackendUnavailable = errors.New("analysis backend unavailable")

// BackendErrorCode is the closed set of error codes the analysis backend
// reports in its structured error body
type BackendErrorCode int

const (
	BackendErrorUnknown BackendErrorCode = iota
	BackendErrorOrchestration
	BackendErrorModel
	BackendErrorFileProcessing
)

var backendErrorCodes = map[string]BackendErrorCode{
	"ORCHESTRATION_ERROR":   BackendErrorOrchestration,
	"MODEL_ERROR":           BackendErrorModel,
	"FILE_PROCESSING_ERROR": BackendErrorFileProcessing,
}

var backendErrorMessages = map[BackendErrorCode]string{
	BackendErrorOrchestration:  "AI analysis pipeline is currently unavailable. The backend services may be starting up or experiencing issues.",
	BackendErrorModel:          "AI models are not available. Please try again in a few moments.",
	BackendErrorFileProcessing: "Unable to process the uploaded image. Please try a different file format.",
	BackendErrorUnknown:        "Analysis service error",
}

// DefaultSupportMessage is shown when the backend offers no support hint
const DefaultSupportMessage = "Please contact support if this error persists."

// ParseBackendErrorCode maps a wire code to the closed set; anything
// unrecognised is BackendErrorUnknown
func ParseBackendErrorCode(code string) BackendErrorCode {
	if c, ok := backendErrorCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c
	}
	return BackendErrorUnknown
}

// UserMessage returns the user-facing text for the code
func (c BackendErrorCode) UserMessage() string {
	if msg, ok := backendErrorMessages[c]; ok {
		return msg
	}
	return backendErrorMessages[BackendErrorUnknown]
}

func (c BackendErrorCode) String() string {
	for wire, code := range backendErrorCodes {
		if code == c {
			return wire
		}
	}
	return "UNKNOWN"
}

// BackendError is a non-2xx answer from the analysis backend
type BackendError struct {
	StatusCode int
	Status     string
	Body       []byte

	// Parsed from the body when it is JSON
	Detail         string
	Code           BackendErrorCode
	RawCode        string
	Message        string
	SupportMessage string
	ErrorID        string
	RequestID      string
	Details        interface{}
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Message != "" {
		return e.Message
	}
	return e.StatusLine()
}

// StatusLine renders the fallback message used when the body is unusable
func (e *BackendError) StatusLine() string {
	text := http.StatusText(e.StatusCode)
	// Status carries "404 Not Found"; keep only the reason
	if reason, ok := strings.CutPrefix(e.Status, strconv.Itoa(e.StatusCode)+" "); ok && reason != "" {
		text = reason
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, text)
}

// UserMessage classifies the backend error code into user-facing text
func (e *BackendError) UserMessage() string {
	return e.Code.UserMessage()
}

// backendErrorBody covers FastAPI's {"detail": ...} and the analysis
// pipeline's {"error": ..., "request_id": ...} shapes. error is either a
// structured object or a plain string.
type backendErrorBody struct {
	Detail    json.RawMessage `json:"detail"`
	Error     json.RawMessage `json:"error"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
}

type pipelineError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Support   *struct {
		Message string `json:"message"`
		ErrorID string `json:"error_id"`
	} `json:"support"`
}

// rawString returns the JSON string held by raw, or raw itself
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func newBackendError(resp *http.Response, body []byte) *BackendError {
	e := &BackendError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}

	var parsed backendErrorBody
	var generic interface{}
	if err := json.Unmarshal(body, &generic); err != nil {
		e.Details = map[string]string{"message": string(body)}
		return e
	}
	e.Details = generic

	if err := json.Unmarshal(body, &parsed); err != nil {
		// Valid JSON but not an object
		return e
	}

	e.Message = parsed.Message
	e.RequestID = parsed.RequestID
	if len(parsed.Detail) > 0 {
		e.Detail = rawString(parsed.Detail)
	}
	if len(parsed.Error) == 0 || string(parsed.Error) == "null" {
		return e
	}

	var structured pipelineError
	if err := json.Unmarshal(parsed.Error, &structured); err != nil {
		if msg := rawString(parsed.Error); msg != "" {
			e.Message = msg
		}
		return e
	}
	e.RawCode = structured.Code
	e.Code = ParseBackendErrorCode(structured.Code)
	if structured.Message != "" {
		e.Message = structured.Message
	}
	if structured.Support != nil {
		e.SupportMessage = structured.Support.Message
		e.ErrorID = structured.Support.ErrorID
	}
	return e
}
