package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a teacher.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and the principal summary.
type LoginResponse struct {
	AccessToken string         `json:"token"`
	TokenType   string         `json:"tokenType"`
	ExpiresIn   int64          `json:"expiresIn"`
	IssuedAt    time.Time      `json:"issuedAt"`
	Teacher     TeacherSummary `json:"teacher"`
}

// RegisterTeacherRequest is the self-registration payload.
type RegisterTeacherRequest struct {
	RollNo     string  `json:"rollNo" validate:"required,max=32"`
	EmployeeID string  `json:"employeeId" validate:"required,max=32"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	FullName   string  `json:"fullName" validate:"required,max=120"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Department string  `json:"department" validate:"required,max=60"`
	Subject    string  `json:"subject" validate:"required,max=60"`
	IP         string  `json:"-"`
	UserAgent  string  `json:"-"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// TeacherSummary is the principal view returned by login and /auth/me.
type TeacherSummary struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	FullName   string  `json:"fullName"`
	Department string  `json:"department"`
	AvatarURL  *string `json:"avatarUrl,omitempty"`
	IsVerified bool    `json:"isVerified"`
	IsAdmin    bool    `json:"isAdmin"`
	IsActive   bool    `json:"isActive"`
}

// Summary projects a teacher onto its principal summary.
func (t *Teacher) Summary() TeacherSummary {
	return TeacherSummary{
		ID:         t.ID,
		Email:      t.Email,
		FullName:   t.FullName,
		Department: t.Department,
		AvatarURL:  t.AvatarURL,
		IsVerified: t.IsVerified,
		IsAdmin:    t.IsAdmin,
		IsActive:   t.IsActive,
	}
}

// JWTClaims is the bearer token payload. The flags are informational; every
// request re-reads the teacher row before authorising.
type JWTClaims struct {
	TeacherID  string `json:"teacher_id"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"is_admin"`
	IsVerified bool   `json:"is_verified"`
	jwt.RegisteredClaims
}
