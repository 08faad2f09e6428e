package service

import (
	"database/sql"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

// Attendance mark outcomes.
const (
	MarkOutcomeCreated   = "created"
	MarkOutcomeDuplicate = "duplicate"
	MarkOutcomeRejected  = "rejected"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	attendanceMarks *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	reportJobs      *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	markCount            uint64
	duplicateCount       uint64
	rateLimitedCount     uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	attendanceMarks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Attendance mark attempts by population and outcome",
	}, []string{"population", "outcome"})

	rateLimited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"route"})

	reportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_jobs_total",
		Help: "Report jobs by terminal status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, attendanceMarks, rateLimited, reportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		attendanceMarks: attendanceMarks,
		rateLimited:     rateLimited,
		reportJobs:      reportJobs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// RegisterDB exports connection pool stats, including time spent waiting for a connection.
func (m *MetricsService) RegisterDB(db *sql.DB, name string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordAttendanceMark counts a mark attempt.
func (m *MetricsService) RecordAttendanceMark(population models.Population, outcome string) {
	if m == nil {
		return
	}
	m.attendanceMarks.WithLabelValues(string(population), outcome).Inc()
	switch outcome {
	case MarkOutcomeCreated:
		atomic.AddUint64(&m.markCount, 1)
	case MarkOutcomeDuplicate:
		atomic.AddUint64(&m.duplicateCount, 1)
	}
}

// RecordRateLimited counts a request rejected by the limiter.
func (m *MetricsService) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
	atomic.AddUint64(&m.rateLimitedCount, 1)
}

// RecordReportJob counts a report job reaching a terminal status.
func (m *MetricsService) RecordReportJob(status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(string(status)).Inc()
}

// Snapshot returns aggregated metrics suitable for the admin system endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		AttendanceMarks:          atomic.LoadUint64(&m.markCount),
		DuplicateMarks:           atomic.LoadUint64(&m.duplicateCount),
		RateLimited:              atomic.LoadUint64(&m.rateLimitedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
