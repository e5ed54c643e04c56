// internal/models/course.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	BaseModel
	InstructorID uuid.UUID    `json:"instructor_id" gorm:"type:uuid;not null;index"`
	Title        string       `json:"title" gorm:"size:255;not null"`
	Description  string       `json:"description" gorm:"type:text"`
	Category     string       `json:"category" gorm:"size:50;index"`
	Price        int64        `json:"price" gorm:"not null;default:0"` // KRW
	ThumbnailURL string       `json:"thumbnail_url" gorm:"size:500"`
	StartDate    *time.Time   `json:"start_date"`
	EndDate      *time.Time   `json:"end_date"`
	Capacity     int          `json:"capacity" gorm:"default:0"` // 0 = unlimited
	Status       CourseStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	// Relationships
	Instructor  User             `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
	Lessons     []Lesson         `json:"lessons,omitempty" gorm:"foreignKey:CourseID"`
	Schedules   []CourseSchedule `json:"schedules,omitempty" gorm:"foreignKey:CourseID"`
	Tags        []Tag            `json:"tags,omitempty" gorm:"many2many:course_tags;"`
	Enrollments []Enrollment     `json:"enrollments,omitempty" gorm:"foreignKey:CourseID"`
	Reviews     []Review         `json:"reviews,omitempty" gorm:"foreignKey:CourseID"`
}

type Lesson struct {
	BaseModel
	CourseID   uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	OrderIndex int       `json:"order_index" gorm:"not null;default:0"`
	VideoURL   string    `json:"video_url" gorm:"size:500"`
	Duration   int       `json:"duration"` // seconds

	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

type CourseSchedule struct {
	BaseModel
	CourseID  uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`
	DayOfWeek int       `json:"day_of_week" gorm:"not null"` // 0 = Sunday
	StartTime string    `json:"start_time" gorm:"size:5"`    // "19:00"
	EndTime   string    `json:"end_time" gorm:"size:5"`
}

type Tag struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;size:50;not null"`

	Courses []Course `json:"courses,omitempty" gorm:"many2many:course_tags;"`
}

type Review struct {
	BaseModel
	CourseID uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_course_user"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_course_user"`
	Rating   int       `json:"rating" gorm:"not null"`
	Content  string    `json:"content" gorm:"type:text"`

	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
