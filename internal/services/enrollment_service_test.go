// internal/services/enrollment_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

type EnrollmentServiceTestSuite struct {
	suite.Suite
	db         *gorm.DB
	service    *EnrollmentService
	instructor *models.User
	student    *models.User
}

func (s *EnrollmentServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	cfg := testConfig()
	s.service = NewEnrollmentService(s.db, NewNotificationService(s.db, cfg))

	s.instructor = createTestUser(s.T(), s.db, models.UserRoleInstructor)
	s.student = createTestUser(s.T(), s.db, models.UserRoleStudent)
}

func (s *EnrollmentServiceTestSuite) TestEnrollFreeCourse() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)

	enrollment, err := s.service.EnrollFree(s.student.ID, course.ID)
	s.Require().NoError(err)

	s.Equal(s.student.ID, enrollment.UserID)
	s.Equal(course.ID, enrollment.CourseID)
	s.Nil(enrollment.PaymentID)
}

func (s *EnrollmentServiceTestSuite) TestDuplicateEnrollmentRejected() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)

	_, err := s.service.EnrollFree(s.student.ID, course.ID)
	s.Require().NoError(err)

	_, err = s.service.EnrollFree(s.student.ID, course.ID)
	s.Require().ErrorIs(err, ErrAlreadyEnrolled)
}

func (s *EnrollmentServiceTestSuite) TestPaidCourseRequiresPayment() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 50000, models.CourseStatusPublished)

	_, err := s.service.EnrollFree(s.student.ID, course.ID)
	s.Require().ErrorIs(err, ErrPaymentRequired)
}

func (s *EnrollmentServiceTestSuite) TestDraftCourseNotOpen() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusDraft)

	_, err := s.service.EnrollFree(s.student.ID, course.ID)
	s.Require().ErrorIs(err, ErrCourseNotOpen)
}

func (s *EnrollmentServiceTestSuite) TestUnknownCourse() {
	_, err := s.service.EnrollFree(s.student.ID, s.student.ID)
	s.Require().ErrorIs(err, ErrCourseNotFound)
}

func (s *EnrollmentServiceTestSuite) TestCapacityEnforced() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
	course.Capacity = 1
	s.Require().NoError(s.db.Save(course).Error)

	_, err := s.service.EnrollFree(s.student.ID, course.ID)
	s.Require().NoError(err)

	late := createTestUser(s.T(), s.db, models.UserRoleStudent)
	_, err = s.service.EnrollFree(late.ID, course.ID)
	s.Require().ErrorIs(err, ErrCourseFull)
}

func (s *EnrollmentServiceTestSuite) TestMarkCompletedIsIdempotent() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
	enrollment := createTestEnrollment(s.T(), s.db, s.student.ID, course.ID)

	first, err := s.service.MarkCompleted(enrollment.ID, s.instructor.ID, false)
	s.Require().NoError(err)
	s.Require().NotNil(first.CompletedAt)

	second, err := s.service.MarkCompleted(enrollment.ID, s.instructor.ID, false)
	s.Require().NoError(err)
	s.Equal(first.CompletedAt.Unix(), second.CompletedAt.Unix())
}

func (s *EnrollmentServiceTestSuite) TestMarkCompletedRequiresOwner() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
	enrollment := createTestEnrollment(s.T(), s.db, s.student.ID, course.ID)

	_, err := s.service.MarkCompleted(enrollment.ID, s.student.ID, false)
	s.Require().ErrorIs(err, ErrNotCourseOwner)
}

func (s *EnrollmentServiceTestSuite) TestRemoveForRefund() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 50000, models.CourseStatusPublished)
	payment := &models.Payment{
		UserID:   s.student.ID,
		CourseID: course.ID,
		Amount:   course.Price,
		Status:   models.PaymentStatusCompleted,
	}
	s.Require().NoError(s.db.Create(payment).Error)

	enrollment := &models.Enrollment{
		UserID:     s.student.ID,
		CourseID:   course.ID,
		PaymentID:  &payment.ID,
		EnrolledAt: time.Now(),
	}
	s.Require().NoError(s.db.Create(enrollment).Error)

	s.Require().NoError(s.service.RemoveForRefund(s.db, payment.ID))

	var count int64
	s.db.Model(&models.Enrollment{}).Where("user_id = ?", s.student.ID).Count(&count)
	s.Equal(int64(0), count)
}

func TestEnrollmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentServiceTestSuite))
}
