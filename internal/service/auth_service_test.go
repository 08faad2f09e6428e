package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type mockTeacherRepo struct {
	byID        map[string]*models.Teacher
	createErr   error
	lastLoginAt time.Time
}

func newMockTeacherRepo(teachers ...*models.Teacher) *mockTeacherRepo {
	repo := &mockTeacherRepo{byID: map[string]*models.Teacher{}}
	for _, t := range teachers {
		repo.byID[t.ID] = t
	}
	return repo
}

func (m *mockTeacherRepo) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	for _, t := range m.byID {
		if t.Email == email {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.createErr != nil {
		return m.createErr
	}
	teacher.ID = uuid.NewString()
	m.byID[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	m.lastLoginAt = at
	return nil
}

func (m *mockTeacherRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	t, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.PasswordHash = hash
	return nil
}

type mockAuditRecorder struct {
	logs []*models.AuditLog
}

func (m *mockAuditRecorder) Create(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRecorder) actions() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

func hashPassword(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthServiceForTest(repo *mockTeacherRepo, audit *mockAuditRecorder) *AuthService {
	var recorder auditRecorder
	if audit != nil {
		recorder = audit
	}
	return NewAuthService(repo, recorder, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "test",
		BcryptCost:        bcrypt.MinCost,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Email: "asha@example.com", PasswordHash: hashPassword(t, "password1"), IsActive: true, IsVerified: true}
	repo := newMockTeacherRepo(teacher)
	audit := &mockAuditRecorder{}
	svc := newAuthServiceForTest(repo, audit)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "t-1", res.Teacher.ID)
	assert.False(t, repo.lastLoginAt.IsZero())
	assert.Equal(t, []string{models.AuditActionLogin}, audit.actions())

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t-1", claims.TeacherID)
	assert.True(t, claims.IsVerified)
}

func TestAuthServiceLoginUnverifiedStillIssuesToken(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Email: "new@example.com", PasswordHash: hashPassword(t, "password1"), IsActive: true}
	svc := newAuthServiceForTest(newMockTeacherRepo(teacher), nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "new@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.False(t, res.Teacher.IsVerified)
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Email: "asha@example.com", PasswordHash: hashPassword(t, "password1"), IsActive: true}
	svc := newAuthServiceForTest(newMockTeacherRepo(teacher), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Email: "gone@example.com", PasswordHash: hashPassword(t, "password1"), IsVerified: true}
	svc := newAuthServiceForTest(newMockTeacherRepo(teacher), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "gone@example.com", Password: "password1"})
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceRegisterCreatesUnverifiedTeacher(t *testing.T) {
	repo := newMockTeacherRepo()
	audit := &mockAuditRecorder{}
	svc := newAuthServiceForTest(repo, audit)

	teacher, err := svc.Register(context.Background(), models.RegisterTeacherRequest{
		RollNo:     "T-01",
		EmployeeID: "E-01",
		Email:      "Ravi@Example.com",
		Password:   "password1",
		FullName:   "Ravi Kumar",
		Department: "Science",
		Subject:    "Physics",
	})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", teacher.Email)
	assert.True(t, teacher.IsActive)
	assert.False(t, teacher.IsVerified)
	assert.False(t, teacher.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("password1")))
	assert.Equal(t, []string{models.AuditActionRegister}, audit.actions())
}

func TestAuthServiceRegisterConflict(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.createErr = &repository.DuplicateError{Constraint: repository.TeacherEmailKey}
	svc := newAuthServiceForTest(repo, nil)

	_, err := svc.Register(context.Background(), models.RegisterTeacherRequest{
		RollNo: "T-01", EmployeeID: "E-01", Email: "ravi@example.com", Password: "password1",
		FullName: "Ravi Kumar", Department: "Science", Subject: "Physics",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, "email is already registered", appErr.Message)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := newAuthServiceForTest(newMockTeacherRepo(), nil)

	_, err := svc.Register(context.Background(), models.RegisterTeacherRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceResolvePrincipalRevocation(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Email: "asha@example.com", PasswordHash: hashPassword(t, "password1"), IsActive: true, IsVerified: true}
	repo := newMockTeacherRepo(teacher)
	svc := newAuthServiceForTest(repo, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "password1"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)

	principal, err := svc.ResolvePrincipal(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "t-1", principal.ID)

	teacher.IsActive = false
	_, err = svc.ResolvePrincipal(context.Background(), claims)
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)

	delete(repo.byID, "t-1")
	_, err = svc.ResolvePrincipal(context.Background(), claims)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Email: "asha@example.com", PasswordHash: hashPassword(t, "password1"), IsActive: true}
	svc := newAuthServiceForTest(newMockTeacherRepo(teacher), nil)
	issued := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "password1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = svc.ValidateToken(res.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(newMockTeacherRepo(), nil, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	other.now = func() time.Time { return issued }
	_, err = other.ValidateToken(res.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceChangePassword(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Email: "asha@example.com", PasswordHash: hashPassword(t, "password1"), IsActive: true}
	audit := &mockAuditRecorder{}
	svc := newAuthServiceForTest(newMockTeacherRepo(teacher), audit)

	err := svc.ChangePassword(context.Background(), "t-1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "password2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.ChangePassword(context.Background(), "t-1", models.ChangePasswordRequest{OldPassword: "password1", NewPassword: "password2"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("password2")))
	assert.Equal(t, []string{models.AuditActionPasswordChange}, audit.actions())
}
