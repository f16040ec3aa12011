package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ortho-assist/internal/models"
	"ortho-assist/internal/repositories"
	"ortho-assist/internal/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryHandler(t *testing.T) *HistoryHandler {
	t.Helper()

	at := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04", s)
		require.NoError(t, err)
		return ts
	}
	repo := repositories.NewMemoryStudyRepository()
	_, err := repo.Seed(context.Background(), []*models.Study{
		{ID: "ST-001", Date: "2024-01-15", Patient: "Patient #1234", PatientID: "1234", Status: models.SeverityRed, Processed: at("2024-01-15 14:35")},
		{ID: "ST-002", Date: "2024-01-15", Patient: "Patient #1235", PatientID: "1235", Status: models.SeverityGreen, Processed: at("2024-01-15 13:22")},
		{ID: "ST-003", Date: "2024-01-14", Patient: "Patient #1236", PatientID: "1236", Status: models.SeverityAmber, Processed: at("2024-01-14 16:45")},
		{ID: "ST-004", Date: "2024-01-13", Patient: "Patient #1234", PatientID: "1234", Status: models.SeverityGreen, Processed: at("2024-01-13 09:15")},
	})
	require.NoError(t, err)

	return NewHistoryHandler(services.NewHistoryService(repo, testLogger()), testLogger())
}

func TestHistoryHandler_ListHistory(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"all studies newest first", "", []string{"ST-001", "ST-002", "ST-003", "ST-004"}},
		{"all severity keyword", "?severity=all", []string{"ST-001", "ST-002", "ST-003", "ST-004"}},
		{"by severity", "?severity=GREEN", []string{"ST-002", "ST-004"}},
		{"by date range", "?from=2024-01-14&to=2024-01-14", []string{"ST-003"}},
		{"severity and from", "?severity=red&from=2024-01-15", []string{"ST-001"}},
		{"no matches", "?severity=amber&to=2024-01-13", []string{}},
	}

	handler := newTestHistoryHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ListHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history"+tt.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			studies := body["studies"].([]interface{})
			ids := make([]string, 0, len(studies))
			for _, s := range studies {
				ids = append(ids, s.(map[string]interface{})["id"].(string))
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, float64(len(tt.wantIDs)), body["count"])
		})
	}
}

func TestHistoryHandler_ListHistory_InvalidQuery(t *testing.T) {
	handler := newTestHistoryHandler(t)

	for _, query := range []string{"?severity=purple", "?from=15/01/2024", "?to=2024-13-01"} {
		t.Run(query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ListHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history"+query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestHistoryHandler_Overview(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHistoryHandler(t).Overview(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["recentActivity"], 3)
	assert.Contains(t, body, "today")
	assert.Contains(t, body, "week")
}

func TestHistoryHandler_GetPatient(t *testing.T) {
	handler := newTestHistoryHandler(t)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/patients/1234", nil),
		map[string]string{"patientId": "1234"})
	rec := httptest.NewRecorder()
	handler.GetPatient(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["studies"], 2)
	patient := body["patient"].(map[string]interface{})
	assert.Equal(t, "1234", patient["patientId"])
	assert.Equal(t, "Patient #1234", patient["name"])
}

func TestHistoryHandler_GetPatient_NotFound(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/patients/9999", nil),
		map[string]string{"patientId": "9999"})
	rec := httptest.NewRecorder()
	newTestHistoryHandler(t).GetPatient(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Patient not found", body["error"])
}
