package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ortho-assist/internal/models"
)

var (
	// ErrEmptyMessage is returned when the trimmed message is empty
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a reply is still pending
	ErrBusy = errors.New("a message is already being processed")
	// ErrInvalidImage wraps the validation message of a rejected image
	ErrInvalidImage = errors.New("invalid image")
)

const (
	// DefaultImagePrompt is sent when an image is attached without text
	DefaultImagePrompt = "Please analyze this X-ray"
	// DefaultRequestTimeout bounds every backend call
	DefaultRequestTimeout = 2 * time.Minute

	timeoutMessage      = "Request timed out"
	cancelledMessage    = "Request cancelled"
	noReportIDMessage   = "No report ID available for download"
	shareReportFallback = "Get shareable link for the report"
)

// Canned prompts sent for actions that map to a message
var actionPrompts = map[ActionType]string{
	ActionGenerateReport: "Generate a detailed PDF report for my analysis",
	ActionFindHospitals:  "Find orthopedic specialists near me",
	ActionAskSymptoms:    "I would like to describe my symptoms",
	ActionSecondOpinion:  "Can you provide a second analysis of my X-ray?",
	ActionEmailReport:    "Please email me the report",
}

// Option configures a Manager
type Option func(*Manager)

// WithRequestTimeout bounds every backend call
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.requestTimeout = d
		}
	}
}

// WithDownloadDir sets where downloaded reports are written
func WithDownloadDir(dir string) Option {
	return func(m *Manager) { m.downloadDir = dir }
}

// WithReportURL enables share links; reportURL builds the link for a
// report id
func WithReportURL(reportURL func(reportID string) string) Option {
	return func(m *Manager) { m.reportURL = reportURL }
}

// WithUserInfo attaches opaque user context to image turns
func WithUserInfo(info json.RawMessage) Option {
	return func(m *Manager) { m.userInfo = info }
}

// WithMCPContext attaches opaque tool context to image turns
func WithMCPContext(mcp json.RawMessage) Option {
	return func(m *Manager) { m.mcpContext = mcp }
}

// WithMaxImageBytes sets the image size ceiling; zero disables it
func WithMaxImageBytes(n int64) Option {
	return func(m *Manager) { m.maxImageBytes = n }
}

// WithLogger sets the manager's logger
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// ActionResult tells the view what to do after HandleAction
type ActionResult struct {
	NeedsImage   bool   // the view should prompt for an image
	ShareURL     string // shareable report link
	DownloadPath string // where a report was saved
}

// Manager owns one chat session and mediates every backend call. Backend
// failures never escape: they become the session error plus a retryable
// action. It is safe for concurrent use.
type Manager struct {
	backend Backend

	requestTimeout time.Duration
	downloadDir    string
	reportURL      func(string) string
	userInfo       json.RawMessage
	mcpContext     json.RawMessage
	maxImageBytes  int64
	logger         *log.Logger
	now            func() time.Time

	mu              sync.Mutex
	chatID          string
	messages        []Message
	currentAnalysis *models.Analysis
	suggestions     []string
	err             string
	busy            bool
	lastAction      func(context.Context) error
	generation      uint64 // bumped by StartNewChat; stale replies are dropped
}

// NewManager creates a manager over backend
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:        backend,
		requestTimeout: DefaultRequestTimeout,
		downloadDir:    ".",
		logger:         log.New(io.Discard, "", 0),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the session
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]Message, len(m.messages))
	for i, msg := range m.messages {
		messages[i] = msg.clone()
	}
	var analysis *models.Analysis
	if m.currentAnalysis != nil {
		copied := *m.currentAnalysis
		analysis = &copied
	}

	return State{
		ChatID:          m.chatID,
		Messages:        messages,
		CurrentAnalysis: analysis,
		Suggestions:     append([]string(nil), m.suggestions...),
		Error:           m.err,
		IsLoading:       m.busy,
		CanRetry:        m.lastAction != nil,
	}
}

// SendMessage sends a text turn
func (m *Manager) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	return m.send(ctx, text, nil)
}

// SendMessageWithImage sends a turn with an image attached. Empty text
// defaults to DefaultImagePrompt.
func (m *Manager) SendMessageWithImage(ctx context.Context, text string, file ImageFile) error {
	if result := ValidateImageFile(file, m.maxImageBytes); !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidImage, result.Error)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = DefaultImagePrompt
	}
	return m.send(ctx, text, &file)
}

// send appends the user message and placeholder, calls the backend and
// resolves the placeholder
func (m *Manager) send(ctx context.Context, text string, image *ImageFile) error {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	m.busy = true

	var images []string
	if image != nil {
		images = []string{image.Name}
	}
	now := m.now()
	placeholder := newPlaceholder(now)
	m.messages = append(m.messages, newUserMessage(text, images, now), placeholder)

	req := &ChatRequest{Message: text, ChatID: m.chatID, Image: image}
	if image != nil {
		req.UserInfo = m.userInfo
		req.MCPContext = m.mcpContext
	}
	generation := m.generation
	m.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	resp, err := m.backend.Chat(callCtx, req)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		// The session was reset while the reply was in flight
		return nil
	}
	m.busy = false
	idx := m.indexOf(placeholder.ID)

	if err != nil {
		message := errorText(err)
		m.logger.Printf("Chat turn failed: %v", err)
		if idx >= 0 {
			m.messages[idx].fail(message, m.now())
		}
		m.err = message
		m.lastAction = func(ctx context.Context) error {
			return m.send(ctx, text, image)
		}
		return nil
	}

	if idx >= 0 {
		m.messages[idx].resolve(resp, m.now())
	}
	if resp.Analysis != nil {
		analysis := *resp.Analysis
		m.currentAnalysis = &analysis
	}
	if len(resp.Suggestions) > 0 {
		m.suggestions = append([]string(nil), resp.Suggestions...)
	}
	if m.chatID == "" && resp.ChatID != "" {
		m.chatID = resp.ChatID
	}
	m.err = ""
	m.lastAction = nil
	return nil
}

func (m *Manager) indexOf(id string) int {
	for i := range m.messages {
		if m.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// StartNewChat resets the whole session, including the backend session
// token
func (m *Manager) StartNewChat() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.chatID = ""
	m.messages = nil
	m.currentAnalysis = nil
	m.suggestions = nil
	m.err = ""
	m.busy = false
	m.lastAction = nil
}

// ClearChat clears the visible conversation but keeps the backend session
func (m *Manager) ClearChat() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = nil
	m.currentAnalysis = nil
}

// RetryLastMessage replays the last failed action once. It is a no-op
// when nothing failed.
func (m *Manager) RetryLastMessage(ctx context.Context) error {
	m.mu.Lock()
	action := m.lastAction
	m.mu.Unlock()

	if action == nil {
		return nil
	}
	return action(ctx)
}

// HandleAction dispatches a follow-up action the way the chat view does
func (m *Manager) HandleAction(ctx context.Context, action Action) (ActionResult, error) {
	if prompt, ok := actionPrompts[action.Type]; ok {
		return ActionResult{}, m.send(ctx, prompt, nil)
	}

	switch action.Type {
	case ActionUploadXray:
		return ActionResult{NeedsImage: true}, nil

	case ActionDownloadReport:
		reportID := action.Data["report_id"]
		if reportID == "" {
			m.setError(noReportIDMessage)
			return ActionResult{}, nil
		}
		return ActionResult{DownloadPath: m.DownloadReport(ctx, reportID, action.Data["filename"])}, nil

	case ActionShareReport:
		if reportID := action.Data["report_id"]; reportID != "" && m.reportURL != nil {
			return ActionResult{ShareURL: m.reportURL(reportID)}, nil
		}
		return ActionResult{}, m.send(ctx, shareReportFallback, nil)

	case ActionNewAnalysis:
		m.StartNewChat()
		return ActionResult{}, nil

	default:
		label := strings.TrimSpace(action.Label)
		if label == "" {
			return ActionResult{}, ErrEmptyMessage
		}
		return ActionResult{}, m.send(ctx, label, nil)
	}
}

// DownloadReport saves a report into the download directory and returns
// its path. Failures set the session error and return "".
func (m *Manager) DownloadReport(ctx context.Context, reportID, filename string) string {
	if reportID == "" {
		m.setError(noReportIDMessage)
		return ""
	}
	if filename = filepath.Base(strings.TrimSpace(filename)); filename == "." || filename == "/" || filename == "" {
		filename = models.ReportFilename(reportID)
	}

	callCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	path, err := m.saveReport(callCtx, reportID, filepath.Join(m.downloadDir, filename))
	if err != nil {
		m.logger.Printf("Report download failed (%s): %v", reportID, err)
		m.setError("Failed to download report: " + errorText(err))
		return ""
	}

	m.logger.Printf("Saved report %s to %s", reportID, path)
	return path
}

func (m *Manager) saveReport(ctx context.Context, reportID, path string) (string, error) {
	body, err := m.backend.DownloadReport(ctx, reportID)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// RefreshSuggestions fetches suggestions for an optional context
func (m *Manager) RefreshSuggestions(ctx context.Context, chatContext string) {
	callCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	suggestions, err := m.backend.Suggestions(callCtx, chatContext)
	if err != nil {
		m.logger.Printf("Suggestions failed: %v", err)
		m.setError(errorText(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestions = append([]string(nil), suggestions...)
}

func (m *Manager) setError(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = message
}

func errorText(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutMessage
	case errors.Is(err, context.Canceled):
		return cancelledMessage
	}
	return err.Error()
}
