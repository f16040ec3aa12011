package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"ortho-assist/internal/middleware"
	"ortho-assist/internal/models"
	"ortho-assist/internal/services"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Mock Backend
// ============================================================================

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Chat(ctx context.Context, req *models.ChatRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockBackend) Suggestions(ctx context.Context, chatContext string) (json.RawMessage, error) {
	args := m.Called(ctx, chatContext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockBackend) Info(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalyzeResult), args.Error(1)
}

func (m *MockBackend) DownloadReport(ctx context.Context, reportID string) (*services.ReportDownload, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReportDownload), args.Error(1)
}

// ============================================================================
// Helpers
// ============================================================================

func testLogger() *log.Logger {
	return log.New(os.Stdout, "[HANDLER-TEST] ", log.LstdFlags)
}

type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

// multipartBody builds a multipart body; files may be nil
func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// trackingReader records whether anything was read from it
type trackingReader struct {
	r    io.Reader
	read bool
}

func (t *trackingReader) Read(p []byte) (int, error) {
	t.read = true
	return t.r.Read(p)
}
