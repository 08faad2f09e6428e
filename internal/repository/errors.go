package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	uniqueViolationCode           = "23505"
	invalidTextRepresentationCode = "22P02"
)

// ErrDuplicate matches any DuplicateError via errors.Is.
var ErrDuplicate = errors.New("duplicate record")

// DuplicateError reports the unique constraint that rejected a write.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record (%s): %v", e.Constraint, e.Err)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// Is lets callers test errors.Is(err, ErrDuplicate).
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// pgError extracts the SQLSTATE code and constraint from either driver's error type.
func pgError(err error) (code, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// uniqueConstraint reports the violated constraint when err is a unique violation.
func uniqueConstraint(err error) (string, bool) {
	code, constraint := pgError(err)
	return constraint, code == uniqueViolationCode
}

// isMalformedKey reports whether Postgres rejected a key value it could not parse,
// such as a non-UUID id.
func isMalformedKey(err error) bool {
	code, _ := pgError(err)
	return code == invalidTextRepresentationCode
}

// missingIfMalformed maps a malformed key to sql.ErrNoRows since no row can match it.
func missingIfMalformed(err error) error {
	if isMalformedKey(err) {
		return sql.ErrNoRows
	}
	return err
}

// classify wraps err with op context, promoting unique violations to DuplicateError
// and malformed keys to sql.ErrNoRows.
func classify(op string, err error) error {
	if constraint, ok := uniqueConstraint(err); ok {
		return fmt.Errorf("%s: %w", op, &DuplicateError{Constraint: constraint, Err: err})
	}
	if isMalformedKey(err) {
		return sql.ErrNoRows
	}
	return fmt.Errorf("%s: %w", op, err)
}
