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

func TestContributorRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + contributorColumns + " FROM contributors WHERE is_active ORDER BY display_order ASC, name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role", "description", "image_url", "display_order", "is_active", "created_at", "updated_at"}).
			AddRow("c1", "Asha", "Design", "", nil, 1, true, now, now))

	items, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].DisplayOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	mock.ExpectExec("UPDATE contributors SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Contributor{ID: "missing", Name: "X"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreateSendsJSONAsText(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	actor := "t1"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(sqlmock.AnyArg(), actor, models.AuditActionLogin, "auth", nil, nil, `{"status":200}`, "127.0.0.1", "test", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.AuditLog{
		ActorID:   &actor,
		Action:    models.AuditActionLogin,
		Resource:  "auth",
		NewValues: []byte(`{"status":200}`),
		IPAddress: "127.0.0.1",
		UserAgent: "test",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitRepositoryWithoutClient(t *testing.T) {
	repo := NewRateLimitRepository(nil, nil)
	count, ttl, err := repo.Hit(context.Background(), "login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, ttl)
	assert.NoError(t, repo.Close())
}
