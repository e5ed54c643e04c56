// internal/services/coupon_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/database"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

// User-facing coupon validation messages.
const (
	MsgCouponNotFound = "존재하지 않는 쿠폰입니다."
	MsgCouponUsed     = "이미 사용된 쿠폰입니다."
	MsgCouponExpired  = "만료된 쿠폰입니다."
)

type CouponService struct {
	db                  *gorm.DB
	cfg                 *config.Config
	notificationService *NotificationService
}

type CouponValidationResult struct {
	Valid  bool           `json:"valid"`
	Error  string         `json:"error,omitempty"`
	Coupon *models.Coupon `json:"coupon,omitempty"`
}

type SweepResult struct {
	Scanned int `json:"scanned"`
	Issued  int `json:"issued"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func NewCouponService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService) *CouponService {
	return &CouponService{
		db:                  db,
		cfg:                 cfg,
		notificationService: notificationService,
	}
}

// Validate checks a coupon code for the given user. An active coupon past its
// expiry is marked expired on the spot.
func (s *CouponService) Validate(userID uuid.UUID, code string) (*CouponValidationResult, error) {
	var coupon models.Coupon
	if err := s.db.Where("code = ? AND user_id = ?", code, userID).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CouponValidationResult{Valid: false, Error: MsgCouponNotFound}, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()

	switch coupon.Status {
	case models.CouponStatusUsed:
		return &CouponValidationResult{Valid: false, Error: MsgCouponUsed}, nil
	case models.CouponStatusExpired:
		return &CouponValidationResult{Valid: false, Error: MsgCouponExpired}, nil
	}

	if coupon.IsExpired(now) {
		coupon.Status = models.CouponStatusExpired
		if err := s.db.Save(&coupon).Error; err != nil {
			logrus.WithError(err).WithField("coupon_id", coupon.ID).
				Warn("Failed to persist coupon expiry")
		}
		return &CouponValidationResult{Valid: false, Error: MsgCouponExpired}, nil
	}

	return &CouponValidationResult{Valid: true, Coupon: &coupon}, nil
}

// Redeem marks an active coupon used inside the caller's transaction and
// returns its amount. Used during payment confirmation.
func (s *CouponService) Redeem(tx *gorm.DB, userID, couponID uuid.UUID) (int64, error) {
	var coupon models.Coupon
	if err := tx.Where("id = ? AND user_id = ?", couponID, userID).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.New(MsgCouponNotFound)
		}
		return 0, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	if coupon.Status == models.CouponStatusUsed {
		return 0, errors.New(MsgCouponUsed)
	}
	if coupon.Status == models.CouponStatusExpired || coupon.IsExpired(now) {
		return 0, errors.New(MsgCouponExpired)
	}

	coupon.Status = models.CouponStatusUsed
	coupon.UsedAt = &now
	if err := tx.Save(&coupon).Error; err != nil {
		return 0, fmt.Errorf("failed to redeem coupon: %w", err)
	}

	return coupon.Amount, nil
}

// Issue creates a coupon with a collision-checked random code. Amount and
// expiry are fixed at issuance.
func (s *CouponService) Issue(tx *gorm.DB, userID uuid.UUID, enrollmentID *uuid.UUID, amount int64, expiresAt time.Time) (*models.Coupon, error) {
	code, err := s.generateCode(tx)
	if err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		UserID:       userID,
		EnrollmentID: enrollmentID,
		Code:         code,
		Amount:       amount,
		Status:       models.CouponStatusActive,
		ExpiresAt:    expiresAt,
	}

	if err := tx.Create(coupon).Error; err != nil {
		if isUniqueViolation(err) && enrollmentID != nil {
			return nil, errors.New("coupon already issued for this enrollment")
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return coupon, nil
}

func (s *CouponService) GetUserCoupons(userID uuid.UUID, params utils.PaginationParams) ([]models.Coupon, int64, error) {
	query := s.db.Model(&models.Coupon{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	allowedSortFields := []string{"created_at", "expires_at", "amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var coupons []models.Coupon
	if err := query.Find(&coupons).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch coupons: %w", err)
	}

	return coupons, total, nil
}

// RunCompletionSweep issues completion coupons for enrollments whose course
// end date has passed and which have none yet. Invoked by the cron endpoint.
// Each enrollment is handled in its own transaction; the unique enrollment_id
// index on coupons backs the "no coupon yet" check against concurrent sweeps.
func (s *CouponService) RunCompletionSweep() (*SweepResult, error) {
	now := time.Now()
	result := &SweepResult{}

	var enrollments []models.Enrollment
	err := s.db.
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.end_date IS NOT NULL AND courses.end_date < ?", now).
		Where("NOT EXISTS (SELECT 1 FROM coupons WHERE coupons.enrollment_id = enrollments.id)").
		Preload("User").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan enrollments: %w", err)
	}

	result.Scanned = len(enrollments)

	for i := range enrollments {
		enrollment := &enrollments[i]

		// Completion credit requires a completed, non-refunded payment.
		// Refunds flip the status off completed, so they fail this check.
		var paid int64
		s.db.Model(&models.Payment{}).
			Where("user_id = ? AND course_id = ? AND status = ?",
				enrollment.UserID, enrollment.CourseID, models.PaymentStatusCompleted).
			Count(&paid)
		if paid == 0 {
			result.Skipped++
			continue
		}

		var coupon *models.Coupon
		expiresAt := now.AddDate(0, s.cfg.Coupon.ExpiryMonths, 0)
		err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
			var issueErr error
			coupon, issueErr = s.Issue(tx, enrollment.UserID, &enrollment.ID, s.cfg.Coupon.DefaultAmount, expiresAt)
			return issueErr
		})
		if err != nil {
			logrus.WithError(err).WithField("enrollment_id", enrollment.ID).
				Error("Failed to issue completion coupon")
			result.Failed++
			continue
		}

		result.Issued++

		go func(user models.User, c models.Coupon) {
			if err := s.notificationService.SendCouponIssued(&user, &c); err != nil {
				logrus.WithError(err).Warn("Failed to send coupon notification")
			}
		}(enrollment.User, *coupon)
	}

	logrus.WithFields(logrus.Fields{
		"scanned": result.Scanned,
		"issued":  result.Issued,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Coupon completion sweep finished")

	return result, nil
}

// ExpireOverdue marks expired active coupons. Invoked by the cron endpoint.
func (s *CouponService) ExpireOverdue() (int64, error) {
	result := s.db.Model(&models.Coupon{}).
		Where("status = ? AND expires_at < ?", models.CouponStatusActive, time.Now()).
		Update("status", models.CouponStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire coupons: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *CouponService) generateCode(tx *gorm.DB) (string, error) {
	for i := 0; i < s.cfg.Coupon.MaxCodeRetries; i++ {
		code, err := utils.GenerateCouponCode(s.cfg.Coupon.CodeLength)
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&models.Coupon{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique coupon code")
}
