package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

const maxLowAttendanceWindow = 365

// AnalyticsStore describes the aggregate queries one attendance population answers.
type AnalyticsStore interface {
	Population() models.Population
	Rollup(ctx context.Context, day models.Day, dim repository.CohortDimension) ([]models.CohortRollup, error)
	DailyTotals(ctx context.Context, start, end models.Day) ([]models.TrendPoint, error)
	SubjectTotals(ctx context.Context, start, end models.Day, filter models.CohortFilter) ([]models.SubjectTotals, error)
}

// AnalyticsConfig holds low-attendance defaults.
type AnalyticsConfig struct {
	StudentThreshold float64
	TeacherThreshold float64
	LowWindowDays    int
	Location         *time.Location
}

// LowAttendanceQuery overrides the configured window and threshold when set.
type LowAttendanceQuery struct {
	Population models.Population
	WindowDays int
	Threshold  *float64
	Filter     models.CohortFilter
}

// AnalyticsService computes attendance rollups on demand. Nothing is cached;
// every call reflects the records as they are now.
type AnalyticsService struct {
	students AnalyticsStore
	teachers AnalyticsStore
	logger   *zap.Logger
	cfg      AnalyticsConfig
	now      func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(students, teachers AnalyticsStore, logger *zap.Logger, cfg AnalyticsConfig) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StudentThreshold <= 0 {
		cfg.StudentThreshold = 75
	}
	if cfg.TeacherThreshold <= 0 {
		cfg.TeacherThreshold = 80
	}
	if cfg.LowWindowDays <= 0 {
		cfg.LowWindowDays = 30
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &AnalyticsService{students: students, teachers: teachers, logger: logger, cfg: cfg, now: time.Now}
}

// Overview returns the admin dashboard rollup for day (today when zero).
func (s *AnalyticsService) Overview(ctx context.Context, day models.Day) (*models.AttendanceOverview, error) {
	if day.IsZero() {
		day = s.today()
	}

	studentRows, err := s.rollup(ctx, s.students, day, repository.CohortAll)
	if err != nil {
		return nil, err
	}
	teacherRows, err := s.rollup(ctx, s.teachers, day, repository.CohortAll)
	if err != nil {
		return nil, err
	}
	grades, err := s.rollup(ctx, s.students, day, repository.CohortGrade)
	if err != nil {
		return nil, err
	}
	groups, err := s.rollup(ctx, s.students, day, repository.CohortGroup)
	if err != nil {
		return nil, err
	}
	departments, err := s.rollup(ctx, s.teachers, day, repository.CohortDepartment)
	if err != nil {
		return nil, err
	}

	return &models.AttendanceOverview{
		Date:        day,
		Students:    models.Combine(string(models.PopulationStudents), studentRows),
		Teachers:    models.Combine(string(models.PopulationTeachers), teacherRows),
		Grades:      grades,
		Groups:      groups,
		Departments: departments,
	}, nil
}

// Trend returns one point per day holding records in the period ending at endDay.
func (s *AnalyticsService) Trend(ctx context.Context, population models.Population, period models.TrendPeriod, endDay models.Day) (*models.AttendanceTrend, error) {
	store, err := s.store(population)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = models.TrendWeekly
	}
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be weekly or monthly")
	}
	if endDay.IsZero() {
		endDay = s.today()
	}
	start := endDay.AddDays(-(period.Days() - 1))

	points, err := store.DailyTotals(ctx, start, endDay)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance trend")
	}
	for i := range points {
		points[i].Percentage = models.Percentage(points[i].Present, points[i].Present+points[i].Absent)
	}
	return &models.AttendanceTrend{
		Population: population,
		Period:     period,
		StartDate:  start,
		EndDate:    endDay,
		Points:     points,
	}, nil
}

// LowAttendance lists subjects whose percentage over the trailing window is
// below the threshold. Subjects without any record in the window are omitted.
func (s *AnalyticsService) LowAttendance(ctx context.Context, q LowAttendanceQuery) (*models.LowAttendanceReport, error) {
	store, err := s.store(q.Population)
	if err != nil {
		return nil, err
	}
	window := q.WindowDays
	if window == 0 {
		window = s.cfg.LowWindowDays
	}
	if window < 1 || window > maxLowAttendanceWindow {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("days must be between 1 and %d", maxLowAttendanceWindow))
	}
	threshold := s.defaultThreshold(q.Population)
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "threshold must be between 0 and 100")
	}
	if q.Filter.Group != "" && !q.Filter.Group.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group must be one of A, B, C")
	}

	end := s.today()
	start := end.AddDays(-(window - 1))
	totals, err := store.SubjectTotals(ctx, start, end, q.Filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance totals")
	}
	return &models.LowAttendanceReport{
		Population: q.Population,
		WindowDays: window,
		Threshold:  threshold,
		StartDate:  start,
		EndDate:    end,
		Entries:    models.FlagLowAttendance(totals, threshold),
	}, nil
}

func (s *AnalyticsService) rollup(ctx context.Context, store AnalyticsStore, day models.Day, dim repository.CohortDimension) ([]models.CohortRollup, error) {
	rows, err := store.Rollup(ctx, day, dim)
	if err != nil {
		s.logger.Error("attendance rollup failed", zap.String("population", string(store.Population())), zap.String("dimension", string(dim)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to compute attendance overview")
	}
	for i := range rows {
		rows[i] = rows[i].Finalize()
	}
	return rows, nil
}

func (s *AnalyticsService) store(population models.Population) (AnalyticsStore, error) {
	switch population {
	case models.PopulationStudents:
		return s.students, nil
	case models.PopulationTeachers:
		return s.teachers, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "population must be students or teachers")
	}
}

func (s *AnalyticsService) defaultThreshold(population models.Population) float64 {
	if population == models.PopulationTeachers {
		return s.cfg.TeacherThreshold
	}
	return s.cfg.StudentThreshold
}

func (s *AnalyticsService) today() models.Day {
	return models.DayOf(s.now(), s.cfg.Location)
}
