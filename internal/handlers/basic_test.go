package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"ortho-assist/internal/models"
	"ortho-assist/internal/repositories"
	"ortho-assist/internal/workers"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	HealthCheckHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body models.BasicResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Server is healthy", body.Message)
	assert.Equal(t, "success", body.Status)
}

func TestHomeHandler(t *testing.T) {
	handler := NewHomeHandler("/swagger/index.html", testLogger())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var index ServiceIndex
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&index))
	assert.Equal(t, "ortho-assist-gateway", index.Service)
	assert.Equal(t, "/swagger/index.html", index.Docs)
	assert.Contains(t, index.Endpoints, "POST /api/user/upload")

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func decodeReadiness(t *testing.T, rec *httptest.ResponseRecorder) ReadinessResponse {
	t.Helper()
	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestReadinessHandler_Ready(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Info", mock.Anything).Return(nil)

	recorder := workers.NewStudyRecorder(workers.DefaultWorkerConfig("study-recorder"), nil, log.New(io.Discard, "", 0))
	require.NoError(t, recorder.Start(context.Background()))
	defer recorder.Stop(context.Background())

	handler := NewReadinessHandler(backend, repositories.NewMemoryStudyRepository(), testLogger(), recorder)
	rec := httptest.NewRecorder()
	handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeReadiness(t, rec)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "ok", body.Backend)
	assert.Equal(t, "ok", body.Store)
	require.Len(t, body.Workers, 1)
	assert.Equal(t, "study-recorder", body.Workers[0].WorkerName)
	assert.True(t, body.Workers[0].IsRunning)
	assert.NotEmpty(t, body.Timestamp)
}

func TestReadinessHandler_BackendDown(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Info", mock.Anything).Return(assert.AnError)

	handler := NewReadinessHandler(backend, repositories.NewMemoryStudyRepository(), testLogger())
	rec := httptest.NewRecorder()
	handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeReadiness(t, rec)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Backend)
	assert.Equal(t, "ok", body.Store)
	assert.Empty(t, body.Workers)
}

func TestReadinessHandler_StoreDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	backend := new(MockBackend)
	backend.On("Info", mock.Anything).Return(nil)

	handler := NewReadinessHandler(backend, repositories.NewRedisStudyRepository(client), testLogger())
	rec := httptest.NewRecorder()
	handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeReadiness(t, rec)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Backend)
	assert.Equal(t, "unavailable", body.Store)
}

func TestReadinessHandler_WorkerStopped(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Info", mock.Anything).Return(nil)

	stopped := workers.NewStudyRecorder(workers.DefaultWorkerConfig("study-recorder"), nil, log.New(io.Discard, "", 0))

	handler := NewReadinessHandler(backend, repositories.NewMemoryStudyRepository(), testLogger(), stopped)
	rec := httptest.NewRecorder()
	handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeReadiness(t, rec)
	assert.Equal(t, "degraded", body.Status)
	require.Len(t, body.Workers, 1)
	assert.False(t, body.Workers[0].IsRunning)
}
