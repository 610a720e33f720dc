package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type fakeReportedRepo struct {
	events    []models.ReportedEvent
	lastMonth time.Time
	lastLimit int
}

func (f *fakeReportedRepo) TotalForMonth(ctx context.Context, month time.Time) (*models.ReportedTotal, error) {
	return nil, nil
}

func (f *fakeReportedRepo) TotalsForMonths(ctx context.Context, months []time.Time) ([]models.ReportedTotal, error) {
	return nil, nil
}

func (f *fakeReportedRepo) EventsForMonth(ctx context.Context, month time.Time, limit int) ([]models.ReportedEvent, error) {
	f.lastMonth = month
	f.lastLimit = limit
	return f.events, nil
}

func reportedEventsRouter(repo *fakeReportedRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/imports/reported/events", ReportedEvents(repo))
	return r
}

func TestReportedEvents(t *testing.T) {
	repo := &fakeReportedRepo{events: []models.ReportedEvent{
		{IssueKey: "SEC-101", Reporter: "alice"},
		{IssueKey: "SEC-102", Reporter: "bob"},
	}}
	router := reportedEventsRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/imports/reported/events?month=2025-03&limit=10", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), repo.lastMonth)
	assert.Equal(t, 10, repo.lastLimit)

	var body struct {
		Month  string                 `json:"month"`
		Events []models.ReportedEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2025-03", body.Month)
	require.Len(t, body.Events, 2)
	assert.Equal(t, "SEC-101", body.Events[0].IssueKey)
}

func TestReportedEvents_BadRequests(t *testing.T) {
	router := reportedEventsRouter(&fakeReportedRepo{})

	for name, target := range map[string]string{
		"missing month": "/v1/imports/reported/events",
		"bad month":     "/v1/imports/reported/events?month=March",
		"bad limit":     "/v1/imports/reported/events?month=2025-03&limit=zero",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
