package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

func TestProgressLogLatestMentor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProgressLogRepository(db)

	query := regexp.QuoteMeta("SELECT mentor FROM progress_logs WHERE student_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1")
	mock.ExpectQuery(query).WithArgs("s1").WillReturnRows(sqlmock.NewRows([]string{"mentor"}).AddRow("Mr. Rao"))
	mock.ExpectQuery(query).WithArgs("s2").WillReturnRows(sqlmock.NewRows([]string{"mentor"}).AddRow(nil))
	mock.ExpectQuery(query).WithArgs("s3").WillReturnError(sql.ErrNoRows)

	mentor, err := repo.LatestMentor(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, mentor)
	assert.Equal(t, "Mr. Rao", *mentor)

	mentor, err = repo.LatestMentor(context.Background(), "s2")
	require.NoError(t, err)
	assert.Nil(t, mentor)

	mentor, err = repo.LatestMentor(context.Background(), "s3")
	require.NoError(t, err)
	assert.Nil(t, mentor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressLogCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProgressLogRepository(db)

	mentor := "Mr. Rao"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO progress_logs")).
		WithArgs(sqlmock.AnyArg(), "s1", "t1", "Improving", mentor, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM progress_logs l LEFT JOIN teachers t").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "teacher_id", "teacher_name", "note", "mentor", "created_at"}).
			AddRow("l1", "s1", "t1", "Teacher A", "Improving", mentor, time.Now()))

	require.NoError(t, repo.Create(context.Background(), &models.ProgressLog{StudentID: "s1", TeacherID: "t1", Note: "Improving", Mentor: &mentor}))
	logs, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Improving", logs[0].Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}
