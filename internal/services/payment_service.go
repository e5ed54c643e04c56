// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentNotPending   = errors.New("payment is not pending")
	ErrPaymentNotCompleted = errors.New("only completed payments can be refunded")
)

type PaymentService struct {
	db                  *gorm.DB
	config              *config.Config
	couponService       *CouponService
	referralService     *ReferralService
	enrollmentService   *EnrollmentService
	notificationService *NotificationService
}

type CreatePaymentIntentRequest struct {
	CourseID   uuid.UUID `json:"course_id" validate:"required"`
	CouponCode string    `json:"coupon_code,omitempty" validate:"omitempty,coupon_code"`
}

type PaymentIntentResponse struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	ClientSecret   string    `json:"client_secret"`
	Amount         int64     `json:"amount"`
	DiscountAmount int64     `json:"discount_amount"`
	Status         string    `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentID       uuid.UUID `json:"payment_id" validate:"required"`
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
}

type RefundRequest struct {
	PaymentID uuid.UUID `json:"payment_id" validate:"required"`
	Reason    string    `json:"reason" validate:"required,max=1000"`
}

func NewPaymentService(
	db *gorm.DB,
	cfg *config.Config,
	couponService *CouponService,
	referralService *ReferralService,
	enrollmentService *EnrollmentService,
	notificationService *NotificationService,
) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:                  db,
		config:              cfg,
		couponService:       couponService,
		referralService:     referralService,
		enrollmentService:   enrollmentService,
		notificationService: notificationService,
	}
}

// CreatePaymentIntent prices the course, applies an optional coupon as a
// discount and opens a pending payment backed by a Stripe PaymentIntent.
// The coupon is only reserved here; redemption happens at confirmation.
func (s *PaymentService) CreatePaymentIntent(userID uuid.UUID, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var course models.Course
	if err := s.db.First(&course, req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if course.Status != models.CourseStatusPublished {
		return nil, ErrCourseNotOpen
	}
	if course.Price <= 0 {
		return nil, errors.New("free courses do not require payment")
	}

	var alreadyEnrolled int64
	s.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, course.ID).
		Count(&alreadyEnrolled)
	if alreadyEnrolled > 0 {
		return nil, ErrAlreadyEnrolled
	}

	var couponID *uuid.UUID
	var discount int64
	if req.CouponCode != "" {
		result, err := s.couponService.Validate(userID, req.CouponCode)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, errors.New(result.Error)
		}
		couponID = &result.Coupon.ID
		discount = result.Coupon.Amount
		if discount > course.Price {
			discount = course.Price
		}
	}

	amount := course.Price - discount

	payment := &models.Payment{
		UserID:         userID,
		CourseID:       course.ID,
		Amount:         amount,
		DiscountAmount: discount,
		CouponID:       couponID,
		PaymentMethod:  "card",
		Status:         models.PaymentStatusPending,
	}

	if err := s.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	// KRW is a zero-decimal currency in Stripe, the amount is passed as is
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("payment_id", payment.ID.String())
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("course_id", course.ID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	payment.PaymentReference = pi.ID
	if err := s.db.Save(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	return &PaymentIntentResponse{
		PaymentID:      payment.ID,
		ClientSecret:   pi.ClientSecret,
		Amount:         amount,
		DiscountAmount: discount,
		Status:         string(pi.Status),
	}, nil
}

// ConfirmPayment verifies the PaymentIntent with Stripe, and on success
// completes the payment, redeems the coupon, creates the enrollment and
// issues the referrer's first purchase reward in one transaction.
func (s *PaymentService) ConfirmPayment(userID uuid.UUID, req *ConfirmPaymentRequest) (*models.Payment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var payment models.Payment
	if err := s.db.Preload("Course").First(&payment, req.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payment.UserID != userID {
		return nil, errors.New("payment belongs to another user")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, ErrPaymentNotPending
	}
	if payment.PaymentReference != req.PaymentIntentID {
		return nil, errors.New("payment intent mismatch")
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		// fall through to completion below
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
		return nil, errors.New("payment has not completed yet")
	default:
		payment.Status = models.PaymentStatusFailed
		if err := s.db.Save(&payment).Error; err != nil {
			return nil, fmt.Errorf("failed to update payment: %w", err)
		}
		return nil, errors.New("payment failed")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		payment.Status = models.PaymentStatusCompleted
		payment.ProcessedAt = &now
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to complete payment: %w", err)
		}

		if payment.CouponID != nil {
			if _, err := s.couponService.Redeem(tx, userID, *payment.CouponID); err != nil {
				return err
			}
		}

		if _, err := s.enrollmentService.CreateEnrollment(tx, userID, &payment.Course, &payment.ID); err != nil {
			return err
		}

		return s.issueReferralReward(tx, &user)
	})
	if err != nil {
		return nil, err
	}

	go func() {
		if err := s.notificationService.SendEnrollmentConfirmation(&user, &payment.Course); err != nil {
			logrus.WithError(err).Warn("Failed to send enrollment confirmation")
		}
	}()

	return &payment, nil
}

// issueReferralReward records the referee's first-purchase reward inside the
// confirm transaction. Only the first purchase earns one; later purchases
// hit the unique index and must not fail the payment.
func (s *PaymentService) issueReferralReward(tx *gorm.DB, user *models.User) error {
	if err := s.referralService.IssueFirstPurchaseReward(tx, user); err != nil &&
		!errors.Is(err, ErrRewardAlreadyIssued) {
		return err
	}
	return nil
}

// ProcessRefund refunds a completed payment via Stripe and removes the
// associated enrollment.
func (s *PaymentService) ProcessRefund(req *RefundRequest, adminID uuid.UUID) (*models.Payment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var payment models.Payment
	if err := s.db.Preload("User").First(&payment, req.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payment.Status != models.PaymentStatusCompleted {
		return nil, ErrPaymentNotCompleted
	}

	if payment.PaymentReference != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(payment.PaymentReference),
			Amount:        stripe.Int64(payment.Amount),
			Reason:        stripe.String("requested_by_customer"),
		}
		if _, err := refund.New(params); err != nil {
			return nil, fmt.Errorf("failed to process refund: %w", err)
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		payment.Status = models.PaymentStatusRefunded
		payment.RefundedAt = &now
		payment.RefundReason = req.Reason
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return s.enrollmentService.RemoveForRefund(tx, payment.ID)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"admin_id":   adminID,
	}).Info("Payment refunded")

	go func() {
		if err := s.notificationService.SendPaymentRefunded(&payment.User, &payment); err != nil {
			logrus.WithError(err).Warn("Failed to send refund notification")
		}
	}()

	return &payment, nil
}

func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error) {
	query := s.db.Model(&models.Payment{}).
		Where("user_id = ?", userID).
		Preload("Course")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, total, nil
}

func (s *PaymentService) ListAll(params utils.PaginationParams, status *models.PaymentStatus) ([]models.Payment, int64, error) {
	query := s.db.Model(&models.Payment{}).
		Preload("User").
		Preload("Course")

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, total, nil
}
