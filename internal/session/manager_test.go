package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ortho-assist/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Mock Backend
// ============================================================================

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Chat(ctx context.Context, req *ChatRequest) (*models.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatResponse), args.Error(1)
}

func (m *MockBackend) Suggestions(ctx context.Context, chatContext string) ([]string, error) {
	args := m.Called(ctx, chatContext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBackend) DownloadReport(ctx context.Context, reportID string) (io.ReadCloser, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func withMessage(text string) interface{} {
	return mock.MatchedBy(func(r *ChatRequest) bool { return r.Message == text })
}

var jpeg = ImageFile{Name: "wrist.jpg", ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}}

// ============================================================================
// Sending
// ============================================================================

func TestManager_SendMessage_PlaceholderBeforeReply(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("My wrist hurts")).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.ChatResponse{ChatID: "chat-1", Response: "Please upload an X-ray"}, nil)

	m := NewManager(backend)
	done := make(chan error)
	go func() { done <- m.SendMessage(context.Background(), "  My wrist hurts  ") }()

	<-started
	state := m.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, MessageUser, state.Messages[0].Type)
	assert.Equal(t, "My wrist hurts", state.Messages[0].Content)
	assert.Equal(t, MessageAssistant, state.Messages[1].Type)
	assert.True(t, state.Messages[1].IsLoading)
	assert.True(t, state.IsLoading)

	close(release)
	require.NoError(t, <-done)

	state = m.State()
	require.Len(t, state.Messages, 2)
	assert.False(t, state.Messages[1].IsLoading)
	assert.Equal(t, "Please upload an X-ray", state.Messages[1].Content)
	assert.False(t, state.IsLoading)
	assert.Equal(t, "chat-1", state.ChatID)
}

func TestManager_SendMessage_Empty(t *testing.T) {
	backend := new(MockBackend)
	m := NewManager(backend)

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, m.SendMessage(context.Background(), text), ErrEmptyMessage)
	}

	assert.Empty(t, m.State().Messages)
	backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestManager_SendMessage_SessionTokenAndAnalysis(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, mock.MatchedBy(func(r *ChatRequest) bool {
		return r.Message == "first" && r.ChatID == ""
	})).Return(&models.ChatResponse{
		ChatID:      "chat-1",
		Response:    "Fracture suspected",
		Attachments: []models.ChatAttachment{{Name: "report.pdf", URL: "/api/reports/rep-1/download", Size: 2048}},
		Actions:     []models.ChatAction{{Type: "download_report", Label: "Download", Data: map[string]string{"report_id": "rep-1"}}, {Type: "book_visit", Label: "Book a visit"}},
		Suggestions: []string{"Find a specialist"},
		Analysis: &models.Analysis{
			Diagnosis: &models.Diagnosis{PrimaryFinding: "Distal radius fracture", Confidence: 0.91},
			Triage:    &models.Triage{Level: models.TriageRed, Confidence: 0.88},
			ReportID:  "rep-1",
		},
	}, nil).Once()
	backend.On("Chat", mock.Anything, mock.MatchedBy(func(r *ChatRequest) bool {
		return r.Message == "second" && r.ChatID == "chat-1"
	})).Return(&models.ChatResponse{ChatID: "chat-other", Response: "ok"}, nil).Once()

	m := NewManager(backend)
	require.NoError(t, m.SendMessage(context.Background(), "first"))

	state := m.State()
	assert.Equal(t, "chat-1", state.ChatID)
	require.NotNil(t, state.CurrentAnalysis)
	assert.Equal(t, models.TriageRed, state.CurrentAnalysis.Triage.Level)
	assert.Equal(t, []string{"Find a specialist"}, state.Suggestions)
	reply := state.Messages[1]
	require.Len(t, reply.Attachments, 1)
	assert.Equal(t, int64(2048), reply.Attachments[0].Size)
	require.Len(t, reply.Actions, 2)
	assert.Equal(t, ActionDownloadReport, reply.Actions[0].Type)
	assert.Equal(t, ActionOther, reply.Actions[1].Type)

	require.NoError(t, m.SendMessage(context.Background(), "second"))
	state = m.State()
	assert.Equal(t, "chat-1", state.ChatID, "session token is never regenerated")
	assert.Len(t, state.Messages, 4)
	// Analysis and suggestions survive a reply that carries none
	assert.NotNil(t, state.CurrentAnalysis)
	assert.Equal(t, []string{"Find a specialist"}, state.Suggestions)
	backend.AssertExpectations(t)
}

func TestManager_SendMessage_Busy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("slow")).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.ChatResponse{Response: "done"}, nil)

	m := NewManager(backend)
	done := make(chan error)
	go func() { done <- m.SendMessage(context.Background(), "slow") }()
	<-started

	assert.ErrorIs(t, m.SendMessage(context.Background(), "fast"), ErrBusy)
	assert.Len(t, m.State().Messages, 2)

	close(release)
	require.NoError(t, <-done)
	backend.AssertNumberOfCalls(t, "Chat", 1)
}

func TestManager_SendMessage_FailureIsCaptured(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, mock.Anything).
		Return(nil, &RequestError{StatusCode: 500, Message: "Backend exploded"})

	m := NewManager(backend)
	require.NoError(t, m.SendMessage(context.Background(), "hello"))

	state := m.State()
	require.Len(t, state.Messages, 2)
	assert.True(t, state.Messages[1].IsError)
	assert.False(t, state.Messages[1].IsLoading)
	assert.Equal(t, "Backend exploded", state.Messages[1].Content)
	assert.Equal(t, "Backend exploded", state.Error)
	assert.True(t, state.CanRetry)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.ChatID)
}

func TestManager_SendMessage_Timeout(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	m := NewManager(backend, WithRequestTimeout(20*time.Millisecond))
	require.NoError(t, m.SendMessage(context.Background(), "anyone there?"))

	state := m.State()
	assert.Equal(t, "Request timed out", state.Error)
	assert.True(t, state.Messages[1].IsError)
	assert.False(t, state.Messages[1].IsLoading)
	assert.True(t, state.CanRetry)
}

func TestManager_SendMessageWithImage(t *testing.T) {
	userInfo := json.RawMessage(`{"role":"clinician"}`)

	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, mock.MatchedBy(func(r *ChatRequest) bool {
		return r.Message == DefaultImagePrompt &&
			r.Image != nil && r.Image.Name == "wrist.jpg" &&
			string(r.UserInfo) == `{"role":"clinician"}`
	})).Return(&models.ChatResponse{Response: "Analyzing"}, nil)

	m := NewManager(backend, WithUserInfo(userInfo))
	require.NoError(t, m.SendMessageWithImage(context.Background(), "  ", jpeg))

	state := m.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, DefaultImagePrompt, state.Messages[0].Content)
	assert.Equal(t, []string{"wrist.jpg"}, state.Messages[0].Images)
	backend.AssertExpectations(t)
}

func TestManager_SendMessageWithImage_Invalid(t *testing.T) {
	backend := new(MockBackend)
	m := NewManager(backend, WithMaxImageBytes(2))

	err := m.SendMessageWithImage(context.Background(), "look", ImageFile{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF")})
	assert.ErrorIs(t, err, ErrInvalidImage)

	err = m.SendMessageWithImage(context.Background(), "look", jpeg)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "File size must be less than")

	assert.Empty(t, m.State().Messages)
	backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

// ============================================================================
// Reset and retry
// ============================================================================

func TestManager_StartNewChat(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("hi")).Return(&models.ChatResponse{
		ChatID: "chat-1", Response: "hello", Suggestions: []string{"a"},
		Analysis: &models.Analysis{BodyPart: "Hand"},
	}, nil)
	backend.On("Chat", mock.Anything, withMessage("fail")).Return(nil, errors.New("boom"))

	m := NewManager(backend)
	require.NoError(t, m.SendMessage(context.Background(), "hi"))
	require.NoError(t, m.SendMessage(context.Background(), "fail"))

	m.StartNewChat()

	state := m.State()
	assert.Empty(t, state.ChatID)
	assert.Empty(t, state.Messages)
	assert.Nil(t, state.CurrentAnalysis)
	assert.Empty(t, state.Suggestions)
	assert.Empty(t, state.Error)
	assert.False(t, state.CanRetry)
}

func TestManager_StartNewChat_DropsStaleReply(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("old")).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.ChatResponse{ChatID: "stale", Response: "late"}, nil)

	m := NewManager(backend)
	done := make(chan error)
	go func() { done <- m.SendMessage(context.Background(), "old") }()
	<-started

	m.StartNewChat()
	close(release)
	require.NoError(t, <-done)

	state := m.State()
	assert.Empty(t, state.ChatID)
	assert.Empty(t, state.Messages)
	assert.False(t, state.IsLoading)
}

func TestManager_ClearChat(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, mock.Anything).Return(&models.ChatResponse{
		ChatID: "chat-1", Response: "hello", Analysis: &models.Analysis{BodyPart: "Hand"},
	}, nil)

	m := NewManager(backend)
	require.NoError(t, m.SendMessage(context.Background(), "hi"))
	m.ClearChat()

	state := m.State()
	assert.Equal(t, "chat-1", state.ChatID)
	assert.Empty(t, state.Messages)
	assert.Nil(t, state.CurrentAnalysis)
}

func TestManager_RetryLastMessage_NoOp(t *testing.T) {
	backend := new(MockBackend)
	m := NewManager(backend)

	require.NoError(t, m.RetryLastMessage(context.Background()))
	assert.Empty(t, m.State().Messages)
	backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestManager_RetryLastMessage_ReplaysOncePerCall(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("hello")).Return(nil, errors.New("backend down"))

	m := NewManager(backend)
	require.NoError(t, m.SendMessage(context.Background(), "hello"))
	backend.AssertNumberOfCalls(t, "Chat", 1)

	require.NoError(t, m.RetryLastMessage(context.Background()))
	require.NoError(t, m.RetryLastMessage(context.Background()))

	backend.AssertNumberOfCalls(t, "Chat", 3)
	state := m.State()
	assert.Len(t, state.Messages, 6)
	assert.True(t, state.CanRetry)
}

func TestManager_RetryLastMessage_SuccessClearsRetry(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("hello")).Return(nil, errors.New("flaky")).Once()
	backend.On("Chat", mock.Anything, withMessage("hello")).Return(&models.ChatResponse{ChatID: "c", Response: "hi"}, nil).Once()

	m := NewManager(backend)
	require.NoError(t, m.SendMessage(context.Background(), "hello"))
	require.NoError(t, m.RetryLastMessage(context.Background()))

	state := m.State()
	assert.Empty(t, state.Error)
	assert.False(t, state.CanRetry)
	assert.Equal(t, "c", state.ChatID)

	require.NoError(t, m.RetryLastMessage(context.Background()))
	backend.AssertNumberOfCalls(t, "Chat", 2)
}

func TestManager_RetryLastMessage_ReplaysImage(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, mock.MatchedBy(func(r *ChatRequest) bool {
		return r.Image != nil && r.Image.Name == "wrist.jpg"
	})).Return(nil, errors.New("down")).Twice()

	m := NewManager(backend)
	require.NoError(t, m.SendMessageWithImage(context.Background(), "check", jpeg))
	require.NoError(t, m.RetryLastMessage(context.Background()))

	backend.AssertExpectations(t)
}

// ============================================================================
// Actions
// ============================================================================

func TestManager_HandleAction_CannedPrompts(t *testing.T) {
	tests := []struct {
		action ActionType
		prompt string
	}{
		{ActionGenerateReport, "Generate a detailed PDF report for my analysis"},
		{ActionFindHospitals, "Find orthopedic specialists near me"},
		{ActionAskSymptoms, "I would like to describe my symptoms"},
		{ActionSecondOpinion, "Can you provide a second analysis of my X-ray?"},
		{ActionEmailReport, "Please email me the report"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			started := make(chan struct{})
			release := make(chan struct{})
			backend := new(MockBackend)
			backend.On("Chat", mock.Anything, withMessage(tt.prompt)).
				Run(func(mock.Arguments) {
					close(started)
					<-release
				}).
				Return(&models.ChatResponse{Response: "ok"}, nil)

			m := NewManager(backend)
			done := make(chan error)
			go func() {
				_, err := m.HandleAction(context.Background(), Action{Type: tt.action, Label: "ignored"})
				done <- err
			}()
			<-started

			state := m.State()
			require.Len(t, state.Messages, 2)
			assert.Equal(t, tt.prompt, state.Messages[0].Content)
			assert.Equal(t, MessageUser, state.Messages[0].Type)
			assert.True(t, state.Messages[1].IsLoading)

			close(release)
			require.NoError(t, <-done)
		})
	}
}

func TestManager_HandleAction_NonMessageActions(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("Book a visit")).Return(&models.ChatResponse{ChatID: "c1", Response: "ok"}, nil)

	m := NewManager(backend, WithReportURL(func(id string) string {
		return "http://gateway/api/reports/" + id + "/download"
	}))
	ctx := context.Background()

	result, err := m.HandleAction(ctx, Action{Type: ActionUploadXray})
	require.NoError(t, err)
	assert.True(t, result.NeedsImage)

	result, err = m.HandleAction(ctx, Action{Type: ActionShareReport, Data: map[string]string{"report_id": "rep-9"}})
	require.NoError(t, err)
	assert.Equal(t, "http://gateway/api/reports/rep-9/download", result.ShareURL)

	_, err = m.HandleAction(ctx, Action{Type: ActionDownloadReport})
	require.NoError(t, err)
	assert.Equal(t, "No report ID available for download", m.State().Error)

	_, err = m.HandleAction(ctx, Action{Type: ActionOther, Label: "Book a visit"})
	require.NoError(t, err)
	assert.Equal(t, "c1", m.State().ChatID)

	_, err = m.HandleAction(ctx, Action{Type: ActionNewAnalysis})
	require.NoError(t, err)
	assert.Empty(t, m.State().ChatID)
	assert.Empty(t, m.State().Messages)
}

func TestManager_HandleAction_ShareWithoutReportSendsPrompt(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, withMessage("Get shareable link for the report")).
		Return(&models.ChatResponse{Response: "link"}, nil)

	m := NewManager(backend)
	_, err := m.HandleAction(context.Background(), Action{Type: ActionShareReport})
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

// ============================================================================
// Reports and suggestions
// ============================================================================

func TestManager_DownloadReport(t *testing.T) {
	dir := t.TempDir()
	backend := new(MockBackend)
	backend.On("DownloadReport", mock.Anything, "rep-1").
		Return(io.NopCloser(strings.NewReader("%PDF-1.4")), nil)

	m := NewManager(backend, WithDownloadDir(dir))

	path := m.DownloadReport(context.Background(), "rep-1", "")
	assert.Equal(t, filepath.Join(dir, "orthoassist_report_rep-1.pdf"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	// Directory components in the name are ignored
	path = m.DownloadReport(context.Background(), "rep-1", "../../etc/custom.pdf")
	assert.Equal(t, filepath.Join(dir, "custom.pdf"), path)
	assert.Empty(t, m.State().Error)
}

func TestManager_DownloadReport_Failure(t *testing.T) {
	dir := t.TempDir()
	backend := new(MockBackend)
	backend.On("DownloadReport", mock.Anything, "missing").
		Return(nil, &RequestError{StatusCode: 404, Message: "Report not found"})

	m := NewManager(backend, WithDownloadDir(dir))

	assert.Empty(t, m.DownloadReport(context.Background(), "missing", "x.pdf"))
	assert.Equal(t, "Failed to download report: Report not found", m.State().Error)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManager_RefreshSuggestions(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Suggestions", mock.Anything, "wrist").Return([]string{"Upload an X-ray"}, nil)
	backend.On("Suggestions", mock.Anything, "broken").Return(nil, errors.New("suggestions unavailable"))

	m := NewManager(backend)
	m.RefreshSuggestions(context.Background(), "wrist")
	assert.Equal(t, []string{"Upload an X-ray"}, m.State().Suggestions)

	m.RefreshSuggestions(context.Background(), "broken")
	state := m.State()
	assert.Equal(t, "suggestions unavailable", state.Error)
	assert.Equal(t, []string{"Upload an X-ray"}, state.Suggestions)
}

func TestManager_StateIsSnapshot(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Chat", mock.Anything, mock.Anything).Return(&models.ChatResponse{
		Response: "ok",
		Actions:  []models.ChatAction{{Type: "share_report", Label: "Share", Data: map[string]string{"report_id": "r"}}},
	}, nil)

	m := NewManager(backend)
	require.NoError(t, m.SendMessage(context.Background(), "hi"))

	state := m.State()
	state.Messages[1].Actions[0].Data["report_id"] = "tampered"
	state.Messages[0].Content = "tampered"

	fresh := m.State()
	assert.Equal(t, "r", fresh.Messages[1].Actions[0].Data["report_id"])
	assert.Equal(t, "hi", fresh.Messages[0].Content)
}

func TestParseActionType(t *testing.T) {
	assert.Equal(t, ActionGenerateReport, ParseActionType("generate_report"))
	assert.Equal(t, ActionNewAnalysis, ParseActionType("new_analysis"))
	assert.Equal(t, ActionOther, ParseActionType("GENERATE_REPORT"))
	assert.Equal(t, ActionOther, ParseActionType(""))
	assert.Equal(t, ActionOther, ParseActionType("other"))
}

func TestReportIDFromURL(t *testing.T) {
	id, ok := ReportIDFromURL("http://localhost:8080/api/reports/rep-77/download")
	assert.True(t, ok)
	assert.Equal(t, "rep-77", id)

	_, ok = ReportIDFromURL("https://cdn.example.com/report.pdf")
	assert.False(t, ok)
}
