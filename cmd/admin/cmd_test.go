package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

type teacherStoreStub struct {
	byEmail  map[string]*models.Teacher
	promoted map[string]string
	findErr  error
}

func newTeacherStoreStub(teachers ...*models.Teacher) *teacherStoreStub {
	s := &teacherStoreStub{byEmail: map[string]*models.Teacher{}, promoted: map[string]string{}}
	for _, t := range teachers {
		s.byEmail[t.Email] = t
	}
	return s
}

func (s *teacherStoreStub) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	t, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (s *teacherStoreStub) Create(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = uuid.NewString()
	s.byEmail[teacher.Email] = teacher
	return nil
}

func (s *teacherStoreStub) Promote(ctx context.Context, id, hash string) error {
	s.promoted[id] = hash
	return nil
}

func newCLI(store *teacherStoreStub) (*commandLine, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &commandLine{teachers: store, logger: zap.NewNop(), out: out, bcryptCost: bcrypt.MinCost}, out
}

func withPassword(t *testing.T, pwd string) {
	t.Helper()
	original := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = original })
}

func TestRunPrintsUsage(t *testing.T) {
	cli, out := newCLI(newTeacherStoreStub())

	assert.Equal(t, errHelp, cli.run([]string{"admin"}))
	assert.Equal(t, errHelp, cli.run([]string{"admin", "lol"}))
	assert.Equal(t, errHelp, cli.run([]string{"admin", "migrate"}))
	assert.Equal(t, errHelp, cli.run([]string{"admin", "createadmin"}))
	assert.Contains(t, out.String(), "Usage:")
}

func TestMigratePassesCommandToGoose(t *testing.T) {
	original := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = original })

	var gotCommand, gotDir string
	var gotArgs []string
	gooseRunFunc = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		gotCommand, gotDir, gotArgs = command, dir, args
		return nil
	}

	cli, _ := newCLI(newTeacherStoreStub())
	require.NoError(t, cli.run([]string{"admin", "migrate", "up-to", "3"}))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, ".", gotDir)
	assert.Equal(t, []string{"3"}, gotArgs)

	gooseRunFunc = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		return errors.New(`"lol": no such command`)
	}
	assert.EqualError(t, cli.run([]string{"admin", "migrate", "lol"}), `"lol": no such command`)
}

func TestCreateAdminInsertsVerifiedAdmin(t *testing.T) {
	withPassword(t, "password1")
	store := newTeacherStoreStub()
	cli, out := newCLI(store)

	require.NoError(t, cli.run([]string{"admin", "createadmin", "-email", "Head@Example.com", "-name", "Head Teacher"}))

	created := store.byEmail["head@example.com"]
	require.NotNil(t, created)
	assert.True(t, created.IsAdmin)
	assert.True(t, created.IsVerified)
	assert.True(t, created.IsActive)
	assert.Equal(t, "ADMIN-HEAD", created.RollNo)
	assert.Equal(t, "ADMIN-HEAD", created.EmployeeID)
	assert.Equal(t, "Administration", created.Department)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password1")))
	assert.Contains(t, out.String(), "created admin head@example.com")
}

func TestCreateAdminPromotesExistingTeacher(t *testing.T) {
	withPassword(t, "password1")
	existing := &models.Teacher{ID: "t-1", Email: "ravi@example.com", IsActive: true}
	store := newTeacherStoreStub(existing)
	cli, out := newCLI(store)

	require.NoError(t, cli.run([]string{"admin", "createadmin", "-email", "ravi@example.com"}))
	hash, ok := store.promoted["t-1"]
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("password1")))
	assert.Contains(t, out.String(), "promoted ravi@example.com")
}

func TestCreateAdminRejectsShortPasswordAndMissingName(t *testing.T) {
	store := newTeacherStoreStub()
	cli, _ := newCLI(store)

	withPassword(t, "short")
	err := cli.run([]string{"admin", "createadmin", "-email", "new@example.com", "-name", "New"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8")

	withPassword(t, "password1")
	err = cli.run([]string{"admin", "createadmin", "-email", "new@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-name is required")
	assert.Empty(t, store.byEmail)
}

func TestCreateAdminSurfacesLookupErrors(t *testing.T) {
	withPassword(t, "password1")
	store := newTeacherStoreStub()
	store.findErr = errors.New("connection refused")
	cli, _ := newCLI(store)

	err := cli.run([]string{"admin", "createadmin", "-email", "new@example.com", "-name", "New"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
