package models

import "time"

// StudentGroup is the cohort a student and their homework belong to.
type StudentGroup string

const (
	GroupA StudentGroup = "A"
	GroupB StudentGroup = "B"
	GroupC StudentGroup = "C"
)

// Valid returns true for the supported groups.
func (g StudentGroup) Valid() bool {
	switch g {
	case GroupA, GroupB, GroupC:
		return true
	default:
		return false
	}
}

// Student represents a learner registered at the center.
type Student struct {
	ID          string       `db:"id" json:"id"`
	RollNumber  string       `db:"roll_number" json:"rollNumber"`
	FullName    string       `db:"full_name" json:"fullName"`
	Phone       *string      `db:"phone" json:"phone,omitempty"`
	ParentPhone *string      `db:"parent_phone" json:"parentPhone,omitempty"`
	Grade       string       `db:"grade" json:"grade"`
	Group       StudentGroup `db:"student_group" json:"group"`
	AvatarURL   *string      `db:"avatar_url" json:"avatarUrl,omitempty"`
	IsActive    bool         `db:"is_active" json:"isActive"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     string
	Group     StudentGroup
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
