package models

import "time"

// Teacher is both a staff record and the authenticated principal. The three
// flags are independent capabilities: IsActive gates authentication, IsVerified
// gates cohort data, IsAdmin gates administration.
type Teacher struct {
	ID           string     `db:"id" json:"id"`
	RollNo       string     `db:"roll_no" json:"rollNo"`
	EmployeeID   string     `db:"employee_id" json:"employeeId"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Department   string     `db:"department" json:"department"`
	Subject      string     `db:"subject" json:"subject"`
	AvatarURL    *string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	IsVerified   bool       `db:"is_verified" json:"isVerified"`
	IsAdmin      bool       `db:"is_admin" json:"isAdmin"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// CanAuthenticate reports whether the account may hold a session at all.
func (t *Teacher) CanAuthenticate() bool {
	return t != nil && t.IsActive
}

// CanAccessCohortData reports whether the account may read or write student,
// attendance and homework data. Admins are implicitly verified.
func (t *Teacher) CanAccessCohortData() bool {
	return t.CanAuthenticate() && (t.IsVerified || t.IsAdmin)
}

// CanAdminister reports whether the account may perform admin actions.
func (t *Teacher) CanAdminister() bool {
	return t.CanAuthenticate() && t.IsAdmin
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search     string
	Department string
	Verified   *bool
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
