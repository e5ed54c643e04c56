// internal/models/assignment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	BaseModel
	CourseID    uuid.UUID  `json:"course_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	DueAt       *time.Time `json:"due_at"`
	MaxScore    int        `json:"max_score" gorm:"default:100"`

	// Relationships
	Course      Course                 `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Submissions []AssignmentSubmission `json:"submissions,omitempty" gorm:"foreignKey:AssignmentID"`
}

type AssignmentSubmission struct {
	BaseModel
	AssignmentID uuid.UUID  `json:"assignment_id" gorm:"type:uuid;not null;uniqueIndex:idx_submissions_assignment_user"`
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_submissions_assignment_user"`
	FileURL      string     `json:"file_url" gorm:"size:500"`
	S3Key        string     `json:"s3_key" gorm:"size:500"`
	SubmittedAt  time.Time  `json:"submitted_at" gorm:"not null"`
	Score        *int       `json:"score"`
	Feedback     string     `json:"feedback,omitempty" gorm:"type:text"`
	GradedAt     *time.Time `json:"graded_at"`

	// Relationships
	Assignment Assignment `json:"assignment,omitempty" gorm:"foreignKey:AssignmentID"`
	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
