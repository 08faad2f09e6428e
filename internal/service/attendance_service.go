package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

const (
	defaultStatsWindowDays = 30
	maxRangeDays           = 366
	displayTimeLayout      = "15:04"
)

type attendanceStore interface {
	Population() models.Population
	SubjectActive(ctx context.Context, subjectID string) (bool, error)
	Exists(ctx context.Context, subjectID string, day models.Day) (bool, error)
	Insert(ctx context.Context, rec *models.AttendanceRecord) error
	DeleteBySubjectDay(ctx context.Context, subjectID string, day models.Day) error
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, timeOut *string) (*models.AttendanceRecord, error)
	CountForSubject(ctx context.Context, subjectID string, start, end models.Day) (int, int, error)
	History(ctx context.Context, subjectID string, start, end models.Day) ([]models.AttendanceRecord, error)
	Snapshot(ctx context.Context, day models.Day, filter models.CohortFilter) ([]models.SnapshotEntry, error)
}

type attendanceMetrics interface {
	RecordAttendanceMark(population models.Population, outcome string)
}

// AttendanceService manages one population's attendance records. Two instances
// run side by side, one for students and one for teachers.
type AttendanceService struct {
	repo      attendanceStore
	metrics   attendanceMetrics
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service. loc decides which
// calendar day "today" is.
func NewAttendanceService(repo attendanceStore, metrics attendanceMetrics, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{
		repo:      repo,
		metrics:   metrics,
		validator: defaultValidator(validate),
		logger:    logger.With(zap.String("population", string(repo.Population()))),
		loc:       loc,
		now:       time.Now,
	}
}

// Population reports which population the service manages.
func (s *AttendanceService) Population() models.Population {
	return s.repo.Population()
}

// Today returns the current calendar day in the configured location.
func (s *AttendanceService) Today() models.Day {
	return models.DayOf(s.now(), s.loc)
}

// Mark records attendance for a subject on a day, today when the request omits
// the date. A second mark for the same subject and day fails with
// DUPLICATE_RECORD; the store's unique constraint decides concurrent races.
func (s *AttendanceService) Mark(ctx context.Context, principal *models.Teacher, req dto.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		s.recordMark(MarkOutcomeRejected)
		return nil, validationError(err, "invalid attendance payload")
	}
	if req.Date.IsZero() {
		req.Date = s.Today()
	}
	if err := s.authorizeSubject(principal, req.UserID); err != nil {
		s.recordMark(MarkOutcomeRejected)
		return nil, err
	}
	if err := s.ensureSubject(ctx, req.UserID); err != nil {
		s.recordMark(MarkOutcomeRejected)
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, req.UserID, req.Date)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check attendance")
	}
	if exists {
		s.recordMark(MarkOutcomeDuplicate)
		return nil, duplicateMarkError(nil)
	}

	displayTime := s.now().In(s.loc).Format(displayTimeLayout)
	rec := &models.AttendanceRecord{
		SubjectID: req.UserID,
		Date:      req.Date,
		Status:    req.Status,
	}
	if principal != nil {
		rec.MarkedBy = &principal.ID
	}
	if s.repo.Population() == models.PopulationStudents {
		rec.TimeMarked = firstNonEmpty(req.TimeMarked, displayTime)
	} else {
		rec.TimeIn = firstNonEmpty(req.TimeIn, req.TimeMarked, displayTime)
		rec.TimeOut = req.TimeOut
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.recordMark(MarkOutcomeDuplicate)
			return nil, duplicateMarkError(err)
		}
		return nil, appErrors.Internal(err, "failed to mark attendance")
	}
	s.recordMark(MarkOutcomeCreated)
	return rec, nil
}

// Unmark deletes the record for a subject and day, today when the request omits
// the date. Unmarking a day with no record is NOT_FOUND.
func (s *AttendanceService) Unmark(ctx context.Context, principal *models.Teacher, req dto.UnmarkAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid unmark payload")
	}
	if req.Date.IsZero() {
		req.Date = s.Today()
	}
	if err := s.authorizeSubject(principal, req.UserID); err != nil {
		return err
	}
	if err := s.repo.DeleteBySubjectDay(ctx, req.UserID, req.Date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no attendance record for that day")
		}
		return appErrors.Internal(err, "failed to unmark attendance")
	}
	return nil
}

// Update corrects a record's status in place. The day key never changes.
func (s *AttendanceService) Update(ctx context.Context, principal *models.Teacher, recordID string, req dto.UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance update")
	}
	if s.restrictsToSelf(principal) {
		existing, err := s.repo.FindByID(ctx, recordID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
			}
			return nil, appErrors.Internal(err, "failed to load attendance record")
		}
		if existing.SubjectID != principal.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers may only correct their own attendance")
		}
	}

	rec, err := s.repo.UpdateStatus(ctx, recordID, req.Status, req.TimeOut)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Internal(err, "failed to update attendance")
	}
	return rec, nil
}

// Stats summarises a subject's marked days in [start, end]. Zero bounds default
// to the trailing 30 days ending today.
func (s *AttendanceService) Stats(ctx context.Context, subjectID string, rng dto.AttendanceRange) (*models.AttendanceStats, error) {
	start, end, err := s.resolveRange(rng)
	if err != nil {
		return nil, err
	}
	present, absent, err := s.repo.CountForSubject(ctx, subjectID, start, end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to compute attendance stats")
	}
	stats := models.NewAttendanceStats(subjectID, start, end, present, absent)
	return &stats, nil
}

// History lists a subject's records in [start, end], newest first.
func (s *AttendanceService) History(ctx context.Context, subjectID string, rng dto.AttendanceRange) ([]models.AttendanceRecord, error) {
	start, end, err := s.resolveRange(rng)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.History(ctx, subjectID, start, end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load attendance history")
	}
	return records, nil
}

// Snapshot partitions the cohort's active members into present, absent and
// not marked for a day. A zero day means today.
func (s *AttendanceService) Snapshot(ctx context.Context, day models.Day, filter models.CohortFilter) (*models.CohortSnapshot, error) {
	if day.IsZero() {
		day = s.Today()
	}
	if filter.Group != "" && !filter.Group.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group must be one of A, B, C")
	}
	rows, err := s.repo.Snapshot(ctx, day, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance snapshot")
	}
	snap := models.Partition(day, rows)
	return &snap, nil
}

func (s *AttendanceService) resolveRange(rng dto.AttendanceRange) (models.Day, models.Day, error) {
	end := rng.End
	if end.IsZero() {
		end = s.Today()
	}
	start := rng.Start
	if start.IsZero() {
		start = end.AddDays(-(defaultStatsWindowDays - 1))
	}
	if start.After(end) {
		return models.Day{}, models.Day{}, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}
	if start.DaysUntil(end) >= maxRangeDays {
		return models.Day{}, models.Day{}, appErrors.Clone(appErrors.ErrValidation, "date range is too long")
	}
	return start, end, nil
}

// restrictsToSelf reports whether the principal may only touch their own
// teacher attendance.
func (s *AttendanceService) restrictsToSelf(principal *models.Teacher) bool {
	return s.repo.Population() == models.PopulationTeachers && principal != nil && !principal.IsAdmin
}

func (s *AttendanceService) authorizeSubject(principal *models.Teacher, subjectID string) error {
	if s.restrictsToSelf(principal) && subjectID != principal.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "teachers may only mark their own attendance")
	}
	return nil
}

func (s *AttendanceService) ensureSubject(ctx context.Context, subjectID string) error {
	active, err := s.repo.SubjectActive(ctx, subjectID)
	if err != nil {
		return appErrors.Internal(err, "failed to load subject")
	}
	if !active {
		if s.repo.Population() == models.PopulationStudents {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return nil
}

func (s *AttendanceService) recordMark(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAttendanceMark(s.repo.Population(), outcome)
	}
}

func duplicateMarkError(err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrDuplicateRecord.Code, appErrors.ErrDuplicateRecord.Status, "attendance already marked for this day")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
