package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type authTeacherRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	BcryptCost        int
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authTeacherRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authTeacherRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		repo:      repo,
		audit:     audit,
		validator: defaultValidator(validate),
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates a teacher and returns a signed access token. Unverified
// teachers may log in; the summary tells the client to show the pending state.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	teacher, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch teacher")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if !teacher.CanAuthenticate() {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	issuedAt := s.now()
	token, err := s.generateAccessToken(teacher, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	if err := s.repo.UpdateLastLogin(ctx, teacher.ID, issuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.String("teacher_id", teacher.ID), zap.Error(err))
	}

	s.record(ctx, &models.AuditLog{
		ActorID:    &teacher.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: &teacher.ID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		Teacher:     teacher.Summary(),
	}, nil
}

// Register creates an unverified, non-admin, active teacher.
func (s *AuthService) Register(ctx context.Context, req models.RegisterTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	teacher := &models.Teacher{
		RollNo:       strings.TrimSpace(req.RollNo),
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Department:   strings.TrimSpace(req.Department),
		Subject:      strings.TrimSpace(req.Subject),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, teacherConflictMessage(err))
		}
		return nil, appErrors.Internal(err, "failed to create teacher")
	}

	s.record(ctx, &models.AuditLog{
		ActorID:    &teacher.ID,
		Action:     models.AuditActionRegister,
		Resource:   "teachers",
		ResourceID: &teacher.ID,
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})
	return teacher, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ResolvePrincipal loads the current teacher row for validated claims. The
// flags in the token are ignored; a deactivated or deleted teacher is rejected
// on the very next request.
func (s *AuthService) ResolvePrincipal(ctx context.Context, claims *models.JWTClaims) (*models.Teacher, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	teacher, err := s.repo.FindByID(ctx, claims.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	if !teacher.CanAuthenticate() {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	return teacher, nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, teacherID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}

	teacher, err := s.repo.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Internal(err, "failed to load teacher")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.BcryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, teacherID, string(newHash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Internal(err, "failed to update password")
	}

	s.record(ctx, &models.AuditLog{
		ActorID:    &teacherID,
		Action:     models.AuditActionPasswordChange,
		Resource:   "auth",
		ResourceID: &teacherID,
		NewValues:  []byte(`{"status":"changed"}`),
	})
	return nil
}

func (s *AuthService) generateAccessToken(teacher *models.Teacher, issuedAt time.Time) (string, error) {
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		TeacherID:  teacher.ID,
		Email:      teacher.Email,
		IsAdmin:    teacher.IsAdmin,
		IsVerified: teacher.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   teacher.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) record(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func teacherConflictMessage(err error) string {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		switch dup.Constraint {
		case repository.TeacherEmailKey:
			return "email is already registered"
		case repository.TeacherRollNoKey:
			return "roll number is already registered"
		case repository.TeacherEmployeeIDKey:
			return "employee id is already registered"
		}
	}
	return "teacher already exists"
}
