package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

// CohortDimension selects how a rollup groups people.
type CohortDimension string

const (
	CohortAll        CohortDimension = "all"
	CohortGrade      CohortDimension = "grade"
	CohortGroup      CohortDimension = "group"
	CohortDepartment CohortDimension = "department"
)

// attendanceTable describes one population's attendance table and its people table.
type attendanceTable struct {
	population    models.Population
	table         string
	subjectColumn string
	people        string
	rollColumn    string
	cohortExpr    string
	timeColumns   []string
	displayTime   string
	dimensions    map[CohortDimension]string
}

var (
	studentAttendanceTable = attendanceTable{
		population:    models.PopulationStudents,
		table:         "student_attendance",
		subjectColumn: "student_id",
		people:        "students",
		rollColumn:    "roll_number",
		cohortExpr:    "p.grade || '-' || p.student_group",
		timeColumns:   []string{"time_marked"},
		displayTime:   "time_marked",
		dimensions: map[CohortDimension]string{
			CohortAll:   "'students'",
			CohortGrade: "p.grade",
			CohortGroup: "p.student_group",
		},
	}
	teacherAttendanceTable = attendanceTable{
		population:    models.PopulationTeachers,
		table:         "teacher_attendance",
		subjectColumn: "teacher_id",
		people:        "teachers",
		rollColumn:    "roll_no",
		cohortExpr:    "p.department",
		timeColumns:   []string{"time_in", "time_out"},
		displayTime:   "time_in",
		dimensions: map[CohortDimension]string{
			CohortAll:        "'teachers'",
			CohortDepartment: "p.department",
		},
	}
)

// selectList returns record columns aliased onto models.AttendanceRecord.
func (t attendanceTable) selectList() string {
	timeMarked, timeIn, timeOut := "''", "''", "''"
	if t.population == models.PopulationStudents {
		timeMarked = "time_marked"
	} else {
		timeIn, timeOut = "time_in", "time_out"
	}
	return fmt.Sprintf("id, %s AS subject_id, date, status, %s AS time_marked, %s AS time_in, %s AS time_out, marked_by, created_at, updated_at",
		t.subjectColumn, timeMarked, timeIn, timeOut)
}

func (t attendanceTable) timeValues(rec *models.AttendanceRecord) []interface{} {
	if t.population == models.PopulationStudents {
		return []interface{}{rec.TimeMarked}
	}
	return []interface{}{rec.TimeIn, rec.TimeOut}
}

func (t attendanceTable) cohortConditions(filter models.CohortFilter, args []interface{}) ([]string, []interface{}) {
	conditions := []string{"p.is_active"}
	if t.population == models.PopulationStudents {
		if filter.Grade != "" {
			conditions = append(conditions, fmt.Sprintf("p.grade = $%d", len(args)+1))
			args = append(args, filter.Grade)
		}
		if filter.Group != "" {
			conditions = append(conditions, fmt.Sprintf("p.student_group = $%d", len(args)+1))
			args = append(args, filter.Group)
		}
	} else if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("p.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	return conditions, args
}

// AttendanceRepository stores one population's per-day attendance records.
// The (subject, date) UNIQUE constraint is the only guard against duplicate
// marks; Insert reports a violation as *DuplicateError.
type AttendanceRepository struct {
	db *sqlx.DB
	t  attendanceTable
}

// NewStudentAttendanceRepository returns the repository backed by student_attendance.
func NewStudentAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db, t: studentAttendanceTable}
}

// NewTeacherAttendanceRepository returns the repository backed by teacher_attendance.
func NewTeacherAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db, t: teacherAttendanceTable}
}

// Population reports which population the repository serves.
func (r *AttendanceRepository) Population() models.Population {
	return r.t.population
}

// SubjectActive reports whether the person exists and is active.
func (r *AttendanceRepository) SubjectActive(ctx context.Context, subjectID string) (bool, error) {
	query := fmt.Sprintf("SELECT is_active FROM %s WHERE id = $1", r.t.people)
	var active bool
	if err := r.db.GetContext(ctx, &active, query, subjectID); err != nil {
		if missingIfMalformed(err) == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s subject: %w", r.t.population, err)
	}
	return active, nil
}

// Exists reports whether a record is held for the subject on day.
func (r *AttendanceRepository) Exists(ctx context.Context, subjectID string, day models.Day) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = $1 AND date = $2 LIMIT 1", r.t.table, r.t.subjectColumn)
	var one int
	if err := r.db.GetContext(ctx, &one, query, subjectID, day); err != nil {
		if missingIfMalformed(err) == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s attendance: %w", r.t.population, err)
	}
	return true, nil
}

// Insert creates the record for (SubjectID, Date). Concurrent inserts for the
// same key race on the unique constraint; all but one receive *DuplicateError.
func (r *AttendanceRepository) Insert(ctx context.Context, rec *models.AttendanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	cols := append([]string{"id", r.t.subjectColumn, "date", "status"}, r.t.timeColumns...)
	cols = append(cols, "marked_by", "created_at", "updated_at")
	args := []interface{}{rec.ID, rec.SubjectID, rec.Date, rec.Status}
	args = append(args, r.t.timeValues(rec)...)
	args = append(args, rec.MarkedBy, rec.CreatedAt, rec.UpdatedAt)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.t.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(fmt.Sprintf("mark %s attendance", r.t.population), err)
	}
	return nil
}

// DeleteBySubjectDay removes the record for (subjectID, day). Returns sql.ErrNoRows when none exists.
func (r *AttendanceRepository) DeleteBySubjectDay(ctx context.Context, subjectID string, day models.Day) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND date = $2", r.t.table, r.t.subjectColumn)
	res, err := r.db.ExecContext(ctx, query, subjectID, day)
	if err != nil {
		return classify(fmt.Sprintf("unmark %s attendance", r.t.population), err)
	}
	return requireAffected(res, fmt.Sprintf("unmark %s attendance", r.t.population))
}

// FindByID fetches a record. Missing rows return sql.ErrNoRows.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.t.selectList(), r.t.table)
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, missingIfMalformed(err)
	}
	return &rec, nil
}

// UpdateStatus corrects a record in place. timeOut only applies to teachers
// and is left unchanged when nil. The date is never touched.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, timeOut *string) (*models.AttendanceRecord, error) {
	set := "status = $2, updated_at = $3"
	args := []interface{}{id, status, time.Now().UTC()}
	if r.t.population == models.PopulationTeachers && timeOut != nil {
		set += ", time_out = $4"
		args = append(args, *timeOut)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 RETURNING %s", r.t.table, set, r.t.selectList())
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if err = missingIfMalformed(err); err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update %s attendance: %w", r.t.population, err)
	}
	return &rec, nil
}

// CountForSubject counts present and absent records for subjectID within [start, end].
// A malformed subjectID returns sql.ErrNoRows.
func (r *AttendanceRepository) CountForSubject(ctx context.Context, subjectID string, start, end models.Day) (int, int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FILTER (WHERE status = 'present') AS present, COUNT(*) FILTER (WHERE status = 'absent') AS absent FROM %s WHERE %s = $1 AND date BETWEEN $2 AND $3`,
		r.t.table, r.t.subjectColumn)
	var counts struct {
		Present int `db:"present"`
		Absent  int `db:"absent"`
	}
	if err := r.db.GetContext(ctx, &counts, query, subjectID, start, end); err != nil {
		return 0, 0, classify(fmt.Sprintf("count %s attendance", r.t.population), err)
	}
	return counts.Present, counts.Absent, nil
}

// History lists a subject's records within [start, end], newest first. A
// malformed subjectID returns sql.ErrNoRows.
func (r *AttendanceRepository) History(ctx context.Context, subjectID string, start, end models.Day) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND date BETWEEN $2 AND $3 ORDER BY date DESC",
		r.t.selectList(), r.t.table, r.t.subjectColumn)
	records := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, subjectID, start, end); err != nil {
		return nil, classify(fmt.Sprintf("%s attendance history", r.t.population), err)
	}
	return records, nil
}

// Snapshot left-joins every active person in the cohort against the day's
// records; people without a record come back with a nil status.
func (r *AttendanceRepository) Snapshot(ctx context.Context, day models.Day, filter models.CohortFilter) ([]models.SnapshotEntry, error) {
	conditions, args := r.t.cohortConditions(filter, []interface{}{day})
	query := fmt.Sprintf(`SELECT p.id AS subject_id, p.full_name, p.%s AS roll_number, %s AS cohort, a.id AS record_id, a.status, a.%s AS time_marked FROM %s p LEFT JOIN %s a ON a.%s = p.id AND a.date = $1 WHERE %s ORDER BY p.full_name ASC`,
		r.t.rollColumn, r.t.cohortExpr, r.t.displayTime, r.t.people, r.t.table, r.t.subjectColumn, strings.Join(conditions, " AND "))
	rows := make([]models.SnapshotEntry, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s attendance snapshot: %w", r.t.population, err)
	}
	return rows, nil
}

// Rollup counts active people and their records on day, grouped by dimension.
// Rows are returned unfinalized; see models.CohortRollup.Finalize.
func (r *AttendanceRepository) Rollup(ctx context.Context, day models.Day, dim CohortDimension) ([]models.CohortRollup, error) {
	expr, ok := r.t.dimensions[dim]
	if !ok {
		return nil, fmt.Errorf("unsupported %s cohort dimension %q", r.t.population, dim)
	}
	query := fmt.Sprintf(`SELECT %s AS cohort, COUNT(*) AS total, COUNT(a.id) AS marked, COUNT(*) FILTER (WHERE a.status = 'present') AS present, COUNT(*) FILTER (WHERE a.status = 'absent') AS absent FROM %s p LEFT JOIN %s a ON a.%s = p.id AND a.date = $1 WHERE p.is_active GROUP BY 1 ORDER BY 1`,
		expr, r.t.people, r.t.table, r.t.subjectColumn)
	rows := make([]models.CohortRollup, 0)
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("%s attendance rollup: %w", r.t.population, err)
	}
	return rows, nil
}

// DailyTotals returns one point per day in [start, end] that holds any record.
func (r *AttendanceRepository) DailyTotals(ctx context.Context, start, end models.Day) ([]models.TrendPoint, error) {
	query := fmt.Sprintf(`SELECT date, COUNT(*) FILTER (WHERE status = 'present') AS present, COUNT(*) FILTER (WHERE status = 'absent') AS absent FROM %s WHERE date BETWEEN $1 AND $2 GROUP BY date ORDER BY date ASC`,
		r.t.table)
	points := make([]models.TrendPoint, 0)
	if err := r.db.SelectContext(ctx, &points, query, start, end); err != nil {
		return nil, fmt.Errorf("%s attendance trend: %w", r.t.population, err)
	}
	return points, nil
}

// SubjectTotals counts marked days per active person in [start, end]. Only
// people holding at least one record in the range are returned.
func (r *AttendanceRepository) SubjectTotals(ctx context.Context, start, end models.Day, filter models.CohortFilter) ([]models.SubjectTotals, error) {
	conditions, args := r.t.cohortConditions(filter, []interface{}{start, end})
	query := fmt.Sprintf(`SELECT p.id AS subject_id, p.full_name, p.%s AS roll_number, %s AS cohort, COUNT(*) FILTER (WHERE a.status = 'present') AS present, COUNT(*) FILTER (WHERE a.status = 'absent') AS absent FROM %s a JOIN %s p ON p.id = a.%s WHERE a.date BETWEEN $1 AND $2 AND %s GROUP BY p.id ORDER BY p.full_name ASC`,
		r.t.rollColumn, r.t.cohortExpr, r.t.table, r.t.people, r.t.subjectColumn, strings.Join(conditions, " AND "))
	rows := make([]models.SubjectTotals, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s attendance totals: %w", r.t.population, err)
	}
	return rows, nil
}
