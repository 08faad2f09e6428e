package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyUniqueViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "student_attendance_subject_day_key"}
	err := classify("mark attendance", pqErr)
	assert.ErrorIs(t, err, ErrDuplicate)

	var dup *DuplicateError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "student_attendance_subject_day_key", dup.Constraint)

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "teacher_attendance_subject_day_key"}
	assert.ErrorIs(t, classify("mark attendance", pgErr), ErrDuplicate)
}

func TestClassifyOtherErrors(t *testing.T) {
	err := classify("mark attendance", &pq.Error{Code: "23503"})
	assert.False(t, errors.Is(err, ErrDuplicate))

	plain := errors.New("connection reset")
	err = classify("mark attendance", plain)
	assert.ErrorIs(t, err, plain)
	assert.False(t, errors.Is(err, ErrDuplicate))
}

func TestClassifyMalformedKey(t *testing.T) {
	assert.ErrorIs(t, classify("find student", &pq.Error{Code: "22P02"}), sql.ErrNoRows)
	assert.ErrorIs(t, classify("find student", &pgconn.PgError{Code: "22P02"}), sql.ErrNoRows)

	assert.Equal(t, sql.ErrNoRows, missingIfMalformed(&pq.Error{Code: "22P02"}))
	other := &pq.Error{Code: "23503"}
	assert.Equal(t, error(other), missingIfMalformed(other))
	assert.Nil(t, missingIfMalformed(nil))
}
