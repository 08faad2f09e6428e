package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

var attendanceRowColumns = []string{"id", "subject_id", "date", "status", "time_marked", "time_in", "time_out", "marked_by", "created_at", "updated_at"}

func TestAttendanceInsertStudentColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	day := models.NewDay(2024, time.March, 4)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_attendance (id, student_id, date, status, time_marked, marked_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)")).
		WithArgs(sqlmock.AnyArg(), "s1", "2024-03-04", "present", "09:00", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.AttendanceRecord{SubjectID: "s1", Date: day, Status: models.AttendancePresent, TimeMarked: "09:00"}
	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertTeacherColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_attendance (id, teacher_id, date, status, time_in, time_out, marked_by, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "t1", "2024-03-04", "absent", "", "", "admin", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	markedBy := "admin"
	rec := &models.AttendanceRecord{SubjectID: "t1", Date: models.NewDay(2024, time.March, 4), Status: models.AttendanceAbsent, MarkedBy: &markedBy}
	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.Equal(t, models.PopulationTeachers, repo.Population())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertDuplicate(t *testing.T) {
	for name, driverErr := range map[string]error{
		"pq":  &pq.Error{Code: "23505", Constraint: "student_attendance_subject_day_key"},
		"pgx": &pgconn.PgError{Code: "23505", ConstraintName: "student_attendance_subject_day_key"},
	} {
		t.Run(name, func(t *testing.T) {
			db, mock, cleanup := newRepoMock(t)
			defer cleanup()
			repo := NewStudentAttendanceRepository(db)

			mock.ExpectExec("INSERT INTO student_attendance").WillReturnError(driverErr)

			err := repo.Insert(context.Background(), &models.AttendanceRecord{SubjectID: "s1", Date: models.NewDay(2024, time.March, 4), Status: models.AttendancePresent})
			require.ErrorIs(t, err, ErrDuplicate)
			var dup *DuplicateError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, "student_attendance_subject_day_key", dup.Constraint)
		})
	}
}

func TestAttendanceDeleteBySubjectDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)
	day := models.NewDay(2024, time.March, 4)

	query := regexp.QuoteMeta("DELETE FROM student_attendance WHERE student_id = $1 AND date = $2")
	mock.ExpectExec(query).WithArgs("s1", "2024-03-04").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("s1", "2024-03-04").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteBySubjectDay(context.Background(), "s1", day))
	assert.ErrorIs(t, repo.DeleteBySubjectDay(context.Background(), "s1", day), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAttendanceRepository(db)
	day := models.NewDay(2024, time.March, 4)

	query := regexp.QuoteMeta("SELECT 1 FROM teacher_attendance WHERE teacher_id = $1 AND date = $2 LIMIT 1")
	mock.ExpectQuery(query).WithArgs("t1", "2024-03-04").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(query).WithArgs("t2", "2024-03-04").WillReturnError(sql.ErrNoRows)

	exists, err := repo.Exists(context.Background(), "t1", day)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "t2", day)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpdateStatusTeacherTimeOut(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAttendanceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE teacher_attendance SET status = $2, updated_at = $3, time_out = $4 WHERE id = $1 RETURNING")).
		WithArgs("r1", "present", sqlmock.AnyArg(), "17:00").
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).AddRow("r1", "t1", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), "present", "", "08:00", "17:00", nil, now, now))

	out := "17:00"
	rec, err := repo.UpdateStatus(context.Background(), "r1", models.AttendancePresent, &out)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", rec.Date.String())
	assert.Equal(t, "17:00", rec.TimeOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE student_attendance SET status = $2, updated_at = $3 WHERE id = $1 RETURNING")).
		WithArgs("missing", "absent", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), "missing", models.AttendanceAbsent, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCountForSubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FILTER \\(WHERE status = 'present'\\) AS present, .* FROM student_attendance WHERE student_id = \\$1 AND date BETWEEN \\$2 AND \\$3").
		WithArgs("s1", "2024-03-01", "2024-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent"}).AddRow(2, 1))

	present, absent, err := repo.CountForSubject(context.Background(), "s1", models.NewDay(2024, time.March, 1), models.NewDay(2024, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, 2, present)
	assert.Equal(t, 1, absent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSnapshotCohortFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	status := "present"
	mock.ExpectQuery("FROM students p LEFT JOIN student_attendance a ON a.student_id = p.id AND a.date = \\$1 WHERE p.is_active AND p.grade = \\$2 AND p.student_group = \\$3").
		WithArgs("2024-03-04", "10", "B").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "full_name", "roll_number", "cohort", "record_id", "status", "time_marked"}).
			AddRow("s1", "Asha", "R-1", "10-B", "r1", status, "09:00").
			AddRow("s2", "Ravi", "R-2", "10-B", nil, nil, nil))

	rows, err := repo.Snapshot(context.Background(), models.NewDay(2024, time.March, 4), models.CohortFilter{Grade: "10", Group: models.GroupB})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotNil(t, rows[0].Status)
	assert.Nil(t, rows[1].Status)

	snap := models.Partition(models.NewDay(2024, time.March, 4), rows)
	assert.Len(t, snap.Present, 1)
	assert.Len(t, snap.NotMarked, 1)
	assert.Empty(t, snap.Absent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRollupDimensions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAttendanceRepository(db)

	mock.ExpectQuery("SELECT p.department AS cohort, COUNT\\(\\*\\) AS total, COUNT\\(a.id\\) AS marked").
		WithArgs("2024-03-04").
		WillReturnRows(sqlmock.NewRows([]string{"cohort", "total", "marked", "present", "absent"}).AddRow("Science", 3, 2, 1, 1))

	rows, err := repo.Rollup(context.Background(), models.NewDay(2024, time.March, 4), CohortDepartment)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	final := rows[0].Finalize()
	assert.Equal(t, 1, final.NotMarked)
	assert.Equal(t, 50.0, final.Percentage.Rounded())

	_, err = repo.Rollup(context.Background(), models.NewDay(2024, time.March, 4), CohortGrade)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSubjectTotalsAndDailyTotals(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)
	start, end := models.NewDay(2024, time.March, 1), models.NewDay(2024, time.March, 30)

	mock.ExpectQuery("FROM student_attendance a JOIN students p ON p.id = a.student_id WHERE a.date BETWEEN \\$1 AND \\$2 AND p.is_active GROUP BY p.id").
		WithArgs("2024-03-01", "2024-03-30").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "full_name", "roll_number", "cohort", "present", "absent"}).
			AddRow("s1", "Asha", "R-1", "10-A", 1, 3))
	mock.ExpectQuery("SELECT date, .* FROM student_attendance WHERE date BETWEEN \\$1 AND \\$2 GROUP BY date ORDER BY date ASC").
		WithArgs("2024-03-01", "2024-03-30").
		WillReturnRows(sqlmock.NewRows([]string{"date", "present", "absent"}).
			AddRow(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), 2, 1))

	totals, err := repo.SubjectTotals(context.Background(), start, end, models.CohortFilter{})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, 3, totals[0].Absent)

	points, err := repo.DailyTotals(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-03-04", points[0].Date.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
