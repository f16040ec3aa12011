package session

import (
	"regexp"
	"time"

	"ortho-assist/internal/models"

	"github.com/google/uuid"
)

// MessageType identifies who authored a message
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
)

// ActionType is the closed set of follow-up actions the backend offers
type ActionType string

const (
	ActionGenerateReport ActionType = "generate_report"
	ActionFindHospitals  ActionType = "find_hospitals"
	ActionAskSymptoms    ActionType = "ask_symptoms"
	ActionSecondOpinion  ActionType = "second_opinion"
	ActionUploadXray     ActionType = "upload_xray"
	ActionDownloadReport ActionType = "download_report"
	ActionEmailReport    ActionType = "email_report"
	ActionShareReport    ActionType = "share_report"
	ActionNewAnalysis    ActionType = "new_analysis"
	// ActionOther carries any action this client does not know; its label
	// is sent as a message
	ActionOther ActionType = "other"
)

var knownActions = map[ActionType]bool{
	ActionGenerateReport: true,
	ActionFindHospitals:  true,
	ActionAskSymptoms:    true,
	ActionSecondOpinion:  true,
	ActionUploadXray:     true,
	ActionDownloadReport: true,
	ActionEmailReport:    true,
	ActionShareReport:    true,
	ActionNewAnalysis:    true,
}

// ParseActionType maps a wire value to the closed set
func ParseActionType(s string) ActionType {
	if t := ActionType(s); knownActions[t] {
		return t
	}
	return ActionOther
}

// Action is a follow-up action attached to an assistant message
type Action struct {
	Type  ActionType
	Label string
	Data  map[string]string // e.g. report_id, filename
}

// Attachment is a downloadable file referenced by an assistant message
type Attachment struct {
	Name string
	URL  string
	Size int64
}

// Message is one entry of the chat log
type Message struct {
	ID          string
	Type        MessageType
	Content     string
	Images      []string
	Attachments []Attachment
	Actions     []Action
	IsLoading   bool
	IsError     bool
	Timestamp   time.Time
}

// State is a snapshot of the session for rendering
type State struct {
	ChatID          string
	Messages        []Message
	CurrentAnalysis *models.Analysis
	Suggestions     []string
	Error           string
	IsLoading       bool
	CanRetry        bool
}

func newUserMessage(text string, images []string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      MessageUser,
		Content:   text,
		Images:    images,
		Timestamp: now,
	}
}

func newPlaceholder(now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      MessageAssistant,
		IsLoading: true,
		Timestamp: now,
	}
}

// resolve fills a placeholder from a backend reply
func (m *Message) resolve(resp *models.ChatResponse, now time.Time) {
	m.Content = resp.Response
	m.Images = append([]string(nil), resp.Images...)
	m.Attachments = nil
	for _, a := range resp.Attachments {
		m.Attachments = append(m.Attachments, Attachment{Name: a.Name, URL: a.URL, Size: a.Size})
	}
	m.Actions = nil
	for _, a := range resp.Actions {
		m.Actions = append(m.Actions, Action{Type: ParseActionType(a.Type), Label: a.Label, Data: a.Data})
	}
	m.IsLoading = false
	m.Timestamp = now
}

// fail marks a placeholder as an error message
func (m *Message) fail(text string, now time.Time) {
	m.Content = text
	m.IsError = true
	m.IsLoading = false
	m.Timestamp = now
}

func (m Message) clone() Message {
	m.Images = append([]string(nil), m.Images...)
	m.Attachments = append([]Attachment(nil), m.Attachments...)
	actions := make([]Action, 0, len(m.Actions))
	for _, a := range m.Actions {
		if a.Data != nil {
			data := make(map[string]string, len(a.Data))
			for k, v := range a.Data {
				data[k] = v
			}
			a.Data = data
		}
		actions = append(actions, a)
	}
	if len(actions) == 0 {
		actions = nil
	}
	m.Actions = actions
	return m
}

var reportURLPattern = regexp.MustCompile(`/reports/([^/]+)/download`)

// ReportIDFromURL extracts the report id from an attachment download URL
func ReportIDFromURL(url string) (string, bool) {
	match := reportURLPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}
