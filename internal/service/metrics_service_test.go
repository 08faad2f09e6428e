package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students", 200, 30*time.Millisecond)
	m.RecordAttendanceMark(models.PopulationStudents, MarkOutcomeCreated)
	m.RecordAttendanceMark(models.PopulationStudents, MarkOutcomeDuplicate)
	m.RecordRateLimited("/api/v1/auth/login")

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snap.AttendanceMarks)
	assert.Equal(t, uint64(1), snap.DuplicateMarks)
	assert.Equal(t, uint64(1), snap.RateLimited)
}

func TestMetricsServiceExposesCollectors(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := NewMetricsService()
	require.NoError(t, m.RegisterDB(db, "tuition"))
	m.RecordReportJob(models.ReportStatusFinished)
	m.RecordAttendanceMark(models.PopulationTeachers, MarkOutcomeRejected)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `go_sql_wait_duration_seconds_total{db_name="tuition"}`)
	assert.Contains(t, body, `report_jobs_total{status="FINISHED"} 1`)
	assert.Contains(t, body, `attendance_marks_total{outcome="rejected",population="teachers"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)
	m.RecordRateLimited("/")
	assert.NoError(t, m.RegisterDB(nil, "x"))
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
