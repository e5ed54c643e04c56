// internal/services/payment_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	service  *PaymentService
	referrer *models.User
	referee  *models.User
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	cfg := testConfig()
	notificationService := NewNotificationService(s.db, cfg)
	referralService := NewReferralService(s.db, cfg, notificationService)
	couponService := NewCouponService(s.db, cfg, notificationService)
	enrollmentService := NewEnrollmentService(s.db, notificationService)
	s.service = NewPaymentService(s.db, cfg, couponService, referralService, enrollmentService, notificationService)

	s.referrer = createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.referee = createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.referee.ReferredBy = &s.referrer.ID
	s.Require().NoError(s.db.Save(s.referee).Error)
}

// A referred user's second purchase must complete even though the
// first-purchase reward already exists.
func (s *PaymentServiceTestSuite) TestSecondPurchaseSurvivesExistingReward() {
	instructor := createTestUser(s.T(), s.db, models.UserRoleInstructor)

	buy := func(title string) error {
		course := createTestCourse(s.T(), s.db, instructor.ID, 50000, models.CourseStatusPublished)
		course.Title = title
		s.Require().NoError(s.db.Save(course).Error)

		return s.db.Transaction(func(tx *gorm.DB) error {
			payment := &models.Payment{
				UserID:      s.referee.ID,
				CourseID:    course.ID,
				Amount:      course.Price,
				Status:      models.PaymentStatusCompleted,
				ProcessedAt: func() *time.Time { t := time.Now(); return &t }(),
			}
			if err := tx.Create(payment).Error; err != nil {
				return err
			}
			return s.service.issueReferralReward(tx, s.referee)
		})
	}

	s.Require().NoError(buy("첫 번째 클래스"))
	s.Require().NoError(buy("두 번째 클래스"))

	var rewards int64
	s.db.Model(&models.ReferralReward{}).
		Where("referee_id = ? AND reward_type = ?", s.referee.ID, models.RewardTypeFirstPurchase).
		Count(&rewards)
	s.Equal(int64(1), rewards)

	var payments int64
	s.db.Model(&models.Payment{}).Where("user_id = ?", s.referee.ID).Count(&payments)
	s.Equal(int64(2), payments)
}

func (s *PaymentServiceTestSuite) TestRewardStillIssuedOnFirstPurchase() {
	s.Require().NoError(s.db.Transaction(func(tx *gorm.DB) error {
		return s.service.issueReferralReward(tx, s.referee)
	}))

	var reward models.ReferralReward
	s.Require().NoError(s.db.
		Where("referee_id = ? AND reward_type = ?", s.referee.ID, models.RewardTypeFirstPurchase).
		First(&reward).Error)
	s.Equal(models.RewardStatusConfirmed, reward.Status)
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
