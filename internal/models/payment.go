// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	BaseModel
	UserID           uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	CourseID         uuid.UUID     `json:"course_id" gorm:"type:uuid;not null;index"`
	Amount           int64         `json:"amount" gorm:"not null"` // KRW, after discount
	DiscountAmount   int64         `json:"discount_amount" gorm:"not null;default:0"`
	CouponID         *uuid.UUID    `json:"coupon_id,omitempty" gorm:"type:uuid;index"`
	PaymentMethod    string        `json:"payment_method" gorm:"size:50"`
	PaymentReference string        `json:"payment_reference" gorm:"size:255"` // stripe payment intent id
	Status           PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ProcessedAt      *time.Time    `json:"processed_at"`
	RefundedAt       *time.Time    `json:"refunded_at"`
	RefundReason     string        `json:"refund_reason,omitempty" gorm:"type:text"`

	// Relationships
	User   User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course Course  `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Coupon *Coupon `json:"coupon,omitempty" gorm:"foreignKey:CouponID"`
}
