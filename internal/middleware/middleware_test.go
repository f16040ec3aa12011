package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ortho-assist/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// bodyTrackingReader records whether the handler chain touched the body
type bodyTrackingReader struct {
	read bool
}

func (b *bodyTrackingReader) Read(p []byte) (int, error) {
	b.read = true
	return 0, io.EOF
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenService("secret", "test")
	valid, err := tokens.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	var seenUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAuth(tokens, "Unauthorized", testLogger())(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUser = ""
			body := &bodyTrackingReader{}
			req := httptest.NewRequest(http.MethodPost, "/api/user/upload", body)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.False(t, body.read, "body must not be read without identity")
				var payload map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
				assert.Equal(t, "Unauthorized", payload["error"])
				assert.NotEmpty(t, payload["timestamp"])
			} else {
				assert.Equal(t, "user-1", seenUser)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	handler := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
	assert.Contains(t, buf.String(), "boom")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tea", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "GET /tea -> 418")
}
