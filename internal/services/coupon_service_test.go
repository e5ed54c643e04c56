// internal/services/coupon_service_test.go
package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

type CouponServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *CouponService
	user    *models.User
}

func (s *CouponServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	cfg := testConfig()
	notificationService := NewNotificationService(s.db, cfg)
	s.service = NewCouponService(s.db, cfg, notificationService)
	s.user = createTestUser(s.T(), s.db, models.UserRoleStudent)
}

func (s *CouponServiceTestSuite) issueActiveCoupon(expiresAt time.Time) *models.Coupon {
	coupon, err := s.service.Issue(s.db, s.user.ID, nil, 30000, expiresAt)
	s.Require().NoError(err)
	return coupon
}

func (s *CouponServiceTestSuite) TestValidateUnknownCode() {
	result, err := s.service.Validate(s.user.ID, "NOSUCHCODE12")
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("존재하지 않는 쿠폰입니다.", result.Error)
}

func (s *CouponServiceTestSuite) TestValidateUsedCoupon() {
	coupon := s.issueActiveCoupon(time.Now().AddDate(0, 3, 0))
	_, err := s.service.Redeem(s.db, s.user.ID, coupon.ID)
	s.Require().NoError(err)

	result, err := s.service.Validate(s.user.ID, coupon.Code)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("이미 사용된 쿠폰입니다.", result.Error)
}

func (s *CouponServiceTestSuite) TestValidateExpiredCoupon() {
	coupon := s.issueActiveCoupon(time.Now().Add(-time.Hour))

	result, err := s.service.Validate(s.user.ID, coupon.Code)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("만료된 쿠폰입니다.", result.Error)

	// Expiry is persisted on validation
	var stored models.Coupon
	s.Require().NoError(s.db.First(&stored, coupon.ID).Error)
	s.Equal(models.CouponStatusExpired, stored.Status)
}

func (s *CouponServiceTestSuite) TestValidateActiveCoupon() {
	coupon := s.issueActiveCoupon(time.Now().AddDate(0, 3, 0))

	result, err := s.service.Validate(s.user.ID, coupon.Code)
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Empty(result.Error)
	s.Equal(coupon.ID, result.Coupon.ID)
	s.Equal(int64(30000), result.Coupon.Amount)
}

func (s *CouponServiceTestSuite) TestValidateOtherUsersCoupon() {
	other := createTestUser(s.T(), s.db, models.UserRoleStudent)
	coupon, err := s.service.Issue(s.db, other.ID, nil, 30000, time.Now().AddDate(0, 3, 0))
	s.Require().NoError(err)

	result, err := s.service.Validate(s.user.ID, coupon.Code)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("존재하지 않는 쿠폰입니다.", result.Error)
}

func (s *CouponServiceTestSuite) TestRedeemTwiceFails() {
	coupon := s.issueActiveCoupon(time.Now().AddDate(0, 3, 0))

	amount, err := s.service.Redeem(s.db, s.user.ID, coupon.ID)
	s.Require().NoError(err)
	s.Equal(int64(30000), amount)

	_, err = s.service.Redeem(s.db, s.user.ID, coupon.ID)
	s.Require().Error(err)
	s.Equal("이미 사용된 쿠폰입니다.", err.Error())
}

func (s *CouponServiceTestSuite) TestIssueCodeFormat() {
	coupon := s.issueActiveCoupon(time.Now().AddDate(0, 3, 0))

	s.Len(coupon.Code, 12)
	s.Regexp(regexp.MustCompile(`^[A-HJ-NP-Z2-9]+$`), coupon.Code)
}

func (s *CouponServiceTestSuite) endedCourse(price int64) *models.Course {
	instructor := createTestUser(s.T(), s.db, models.UserRoleInstructor)
	endDate := time.Now().Add(-24 * time.Hour)
	course := &models.Course{
		InstructorID: instructor.ID,
		Title:        "끝난 클래스",
		Price:        price,
		Status:       models.CourseStatusPublished,
		EndDate:      &endDate,
	}
	s.Require().NoError(s.db.Create(course).Error)
	return course
}

func (s *CouponServiceTestSuite) completedPayment(courseID uuid.UUID, amount int64) {
	now := time.Now()
	s.Require().NoError(s.db.Create(&models.Payment{
		UserID:      s.user.ID,
		CourseID:    courseID,
		Amount:      amount,
		Status:      models.PaymentStatusCompleted,
		ProcessedAt: &now,
	}).Error)
}

func (s *CouponServiceTestSuite) TestCompletionSweepIssuesCoupon() {
	course := s.endedCourse(50000)
	s.completedPayment(course.ID, 50000)
	enrollment := createTestEnrollment(s.T(), s.db, s.user.ID, course.ID)

	result, err := s.service.RunCompletionSweep()
	s.Require().NoError(err)
	s.Equal(1, result.Scanned)
	s.Equal(1, result.Issued)

	var coupon models.Coupon
	s.Require().NoError(s.db.Where("enrollment_id = ?", enrollment.ID).First(&coupon).Error)
	s.Equal(int64(30000), coupon.Amount)
	s.Equal(models.CouponStatusActive, coupon.Status)

	// Expiry is three months out
	expected := time.Now().AddDate(0, 3, 0)
	s.WithinDuration(expected, coupon.ExpiresAt, time.Minute)
}

func (s *CouponServiceTestSuite) TestCompletionSweepIsIdempotent() {
	course := s.endedCourse(50000)
	s.completedPayment(course.ID, 50000)
	createTestEnrollment(s.T(), s.db, s.user.ID, course.ID)

	first, err := s.service.RunCompletionSweep()
	s.Require().NoError(err)
	s.Equal(1, first.Issued)

	second, err := s.service.RunCompletionSweep()
	s.Require().NoError(err)
	s.Equal(0, second.Scanned)
	s.Equal(0, second.Issued)

	var count int64
	s.db.Model(&models.Coupon{}).Where("user_id = ?", s.user.ID).Count(&count)
	s.Equal(int64(1), count)
}

func (s *CouponServiceTestSuite) TestCompletionSweepSkipsUnpaidCourse() {
	course := s.endedCourse(50000)
	createTestEnrollment(s.T(), s.db, s.user.ID, course.ID)

	result, err := s.service.RunCompletionSweep()
	s.Require().NoError(err)
	s.Equal(1, result.Scanned)
	s.Equal(0, result.Issued)
	s.Equal(1, result.Skipped)
}

func (s *CouponServiceTestSuite) TestCompletionSweepSkipsFreeCourse() {
	course := s.endedCourse(0)
	createTestEnrollment(s.T(), s.db, s.user.ID, course.ID)

	result, err := s.service.RunCompletionSweep()
	s.Require().NoError(err)
	s.Equal(1, result.Scanned)
	s.Equal(0, result.Issued)
	s.Equal(1, result.Skipped)
}

func (s *CouponServiceTestSuite) TestCompletionSweepSkipsRefundedPayment() {
	course := s.endedCourse(50000)
	now := time.Now()
	s.Require().NoError(s.db.Create(&models.Payment{
		UserID:      s.user.ID,
		CourseID:    course.ID,
		Amount:      50000,
		Status:      models.PaymentStatusRefunded,
		ProcessedAt: &now,
		RefundedAt:  &now,
	}).Error)
	createTestEnrollment(s.T(), s.db, s.user.ID, course.ID)

	result, err := s.service.RunCompletionSweep()
	s.Require().NoError(err)
	s.Equal(1, result.Scanned)
	s.Equal(0, result.Issued)
	s.Equal(1, result.Skipped)
}

func (s *CouponServiceTestSuite) TestCompletionSweepIgnoresRunningCourse() {
	instructor := createTestUser(s.T(), s.db, models.UserRoleInstructor)
	endDate := time.Now().Add(24 * time.Hour)
	course := &models.Course{
		InstructorID: instructor.ID,
		Title:        "진행중 클래스",
		Status:       models.CourseStatusPublished,
		EndDate:      &endDate,
	}
	s.Require().NoError(s.db.Create(course).Error)
	createTestEnrollment(s.T(), s.db, s.user.ID, course.ID)

	result, err := s.service.RunCompletionSweep()
	s.Require().NoError(err)
	s.Equal(0, result.Scanned)
}

func (s *CouponServiceTestSuite) TestExpireOverdue() {
	s.issueActiveCoupon(time.Now().Add(-time.Hour))
	s.issueActiveCoupon(time.Now().AddDate(0, 3, 0))

	expired, err := s.service.ExpireOverdue()
	s.Require().NoError(err)
	s.Equal(int64(1), expired)

	var active int64
	s.db.Model(&models.Coupon{}).Where("status = ?", models.CouponStatusActive).Count(&active)
	s.Equal(int64(1), active)
}

func TestCouponServiceSuite(t *testing.T) {
	suite.Run(t, new(CouponServiceTestSuite))
}
