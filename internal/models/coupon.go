// internal/models/coupon.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	BaseModel
	UserID       uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	EnrollmentID *uuid.UUID   `json:"enrollment_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	Code         string       `json:"code" gorm:"uniqueIndex;size:12;not null"`
	Amount       int64        `json:"amount" gorm:"not null"` // KRW, fixed at issuance
	Status       CouponStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	ExpiresAt    time.Time    `json:"expires_at" gorm:"not null"`
	UsedAt       *time.Time   `json:"used_at"`

	// Relationships
	User       User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Enrollment *Enrollment `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

// IsExpired reports whether the coupon is past its expiry regardless of stored status.
func (c *Coupon) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

type ReferralReward struct {
	BaseModel
	ReferrerID  uuid.UUID    `json:"referrer_id" gorm:"type:uuid;not null;index"`
	RefereeID   uuid.UUID    `json:"referee_id" gorm:"type:uuid;not null;uniqueIndex:idx_rewards_referee_type"`
	RewardType  RewardType   `json:"reward_type" gorm:"type:varchar(20);not null;uniqueIndex:idx_rewards_referee_type"`
	Amount      int64        `json:"amount" gorm:"not null"`
	Status      RewardStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ConfirmedAt *time.Time   `json:"confirmed_at"`
	PaidAt      *time.Time   `json:"paid_at"`

	// Relationships
	Referrer User `json:"referrer,omitempty" gorm:"foreignKey:ReferrerID"`
	Referee  User `json:"referee,omitempty" gorm:"foreignKey:RefereeID"`
}
