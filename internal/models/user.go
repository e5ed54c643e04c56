// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username        string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string     `json:"-" gorm:"size:255;not null"`
	Role            UserRole   `json:"role" gorm:"type:varchar(20);not null"`
	Status          UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	ProfileData     JSONB      `json:"profile_data" gorm:"type:jsonb"`
	ReferralCode    string     `json:"referral_code" gorm:"uniqueIndex;size:12;not null"`
	ReferredBy      *uuid.UUID `json:"referred_by,omitempty" gorm:"type:uuid;index"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	// Relationships
	Courses     []Course     `json:"courses,omitempty" gorm:"foreignKey:InstructorID"`
	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:UserID"`
	Payments    []Payment    `json:"payments,omitempty" gorm:"foreignKey:UserID"`
	Coupons     []Coupon     `json:"coupons,omitempty" gorm:"foreignKey:UserID"`
	Referrer    *User        `json:"referrer,omitempty" gorm:"foreignKey:ReferredBy"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) IsInstructor() bool {
	return u.Role == UserRoleInstructor
}
