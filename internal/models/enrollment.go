// internal/models/enrollment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	BaseModel
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course"`
	CourseID    uuid.UUID  `json:"course_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_enrollments_user_course"`
	PaymentID   *uuid.UUID `json:"payment_id,omitempty" gorm:"type:uuid;index"`
	EnrolledAt  time.Time  `json:"enrolled_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`

	// Relationships
	User    User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course  Course   `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Payment *Payment `json:"payment,omitempty" gorm:"foreignKey:PaymentID"`
	Coupon  *Coupon  `json:"coupon,omitempty" gorm:"foreignKey:EnrollmentID"`
}
