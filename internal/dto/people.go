package dto

import "github.com/noah-isme/tuition-center-api/internal/models"

// CreateStudentRequest registers a student.
type CreateStudentRequest struct {
	RollNumber  string              `json:"rollNumber" validate:"required,max=32"`
	FullName    string              `json:"fullName" validate:"required,max=120"`
	Phone       *string             `json:"phone" validate:"omitempty,max=20"`
	ParentPhone *string             `json:"parentPhone" validate:"omitempty,max=20"`
	Grade       string              `json:"grade" validate:"required,max=20"`
	Group       models.StudentGroup `json:"group" validate:"required,student_group"`
	AvatarURL   *string             `json:"avatarUrl" validate:"omitempty,max=500"`
}

// UpdateStudentRequest replaces a student's editable attributes.
type UpdateStudentRequest struct {
	RollNumber  string              `json:"rollNumber" validate:"required,max=32"`
	FullName    string              `json:"fullName" validate:"required,max=120"`
	Phone       *string             `json:"phone" validate:"omitempty,max=20"`
	ParentPhone *string             `json:"parentPhone" validate:"omitempty,max=20"`
	Grade       string              `json:"grade" validate:"required,max=20"`
	Group       models.StudentGroup `json:"group" validate:"required,student_group"`
	AvatarURL   *string             `json:"avatarUrl" validate:"omitempty,max=500"`
	IsActive    *bool               `json:"isActive"`
}

// UpdateProfileRequest edits the caller's own teacher profile. Nil fields are unchanged.
type UpdateProfileRequest struct {
	FullName   *string `json:"fullName" validate:"omitempty,min=1,max=120"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Department *string `json:"department" validate:"omitempty,min=1,max=60"`
	Subject    *string `json:"subject" validate:"omitempty,min=1,max=60"`
	AvatarURL  *string `json:"avatarUrl" validate:"omitempty,max=500"`
}

// CreateProgressLogRequest appends a progress note. Mentor is optional and sticky.
type CreateProgressLogRequest struct {
	Note   string  `json:"note" validate:"required,max=4000"`
	Mentor *string `json:"mentor" validate:"omitempty,max=120"`
}

// ContributorRequest creates or replaces a contributor.
type ContributorRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Role         string  `json:"role" validate:"max=120"`
	Description  string  `json:"description" validate:"max=2000"`
	ImageURL     *string `json:"imageUrl" validate:"omitempty,max=500"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
}

// UploadResponse is returned after storing an avatar.
type UploadResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
