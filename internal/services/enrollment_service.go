// internal/services/enrollment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

var (
	ErrAlreadyEnrolled    = errors.New("user is already enrolled in this course")
	ErrCourseFull         = errors.New("course has reached its capacity")
	ErrCourseNotOpen      = errors.New("course is not open for enrollment")
	ErrPaymentRequired    = errors.New("this course requires payment")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

type EnrollmentService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

func NewEnrollmentService(db *gorm.DB, notificationService *NotificationService) *EnrollmentService {
	return &EnrollmentService{
		db:                  db,
		notificationService: notificationService,
	}
}

// EnrollFree enrolls a user into a free course. Paid courses go through the
// payment flow, which calls CreateEnrollment inside the payment transaction.
func (s *EnrollmentService) EnrollFree(userID, courseID uuid.UUID) (*models.Enrollment, error) {
	var course models.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if course.Price > 0 {
		return nil, ErrPaymentRequired
	}

	var enrollment *models.Enrollment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		enrollment, err = s.CreateEnrollment(tx, userID, &course, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	go func() {
		var user models.User
		if err := s.db.First(&user, userID).Error; err == nil {
			if err := s.notificationService.SendEnrollmentConfirmation(&user, &course); err != nil {
				logrus.WithError(err).Warn("Failed to send enrollment confirmation")
			}
		}
	}()

	return enrollment, nil
}

// CreateEnrollment inserts the enrollment row with capacity and duplicate
// checks, inside the caller's transaction. The unique index on
// (user_id, course_id) is the final arbiter under concurrency.
func (s *EnrollmentService) CreateEnrollment(tx *gorm.DB, userID uuid.UUID, course *models.Course, paymentID *uuid.UUID) (*models.Enrollment, error) {
	if course.Status != models.CourseStatusPublished {
		return nil, ErrCourseNotOpen
	}

	if course.Capacity > 0 {
		var count int64
		if err := tx.Model(&models.Enrollment{}).
			Where("course_id = ?", course.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count enrollments: %w", err)
		}
		if count >= int64(course.Capacity) {
			return nil, ErrCourseFull
		}
	}

	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   course.ID,
		PaymentID:  paymentID,
		EnrolledAt: time.Now(),
	}

	if err := tx.Create(enrollment).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return enrollment, nil
}

func (s *EnrollmentService) GetUserEnrollments(userID uuid.UUID, params utils.PaginationParams) ([]models.Enrollment, int64, error) {
	query := s.db.Model(&models.Enrollment{}).
		Where("user_id = ?", userID).
		Preload("Course").
		Preload("Course.Instructor")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	allowedSortFields := []string{"enrolled_at", "created_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var enrollments []models.Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch enrollments: %w", err)
	}

	return enrollments, total, nil
}

func (s *EnrollmentService) GetCourseEnrollments(courseID, actorID uuid.UUID, isAdmin bool, params utils.PaginationParams) ([]models.Enrollment, int64, error) {
	var course models.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrCourseNotFound
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	if course.InstructorID != actorID && !isAdmin {
		return nil, 0, ErrNotCourseOwner
	}

	query := s.db.Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Preload("User")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = utils.ApplyPagination(query.Order("enrolled_at DESC"), params)

	var enrollments []models.Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch enrollments: %w", err)
	}

	return enrollments, total, nil
}

// MarkCompleted stamps completed_at once. Completion feeds the coupon sweep,
// which also accepts course end dates in the past.
func (s *EnrollmentService) MarkCompleted(enrollmentID, actorID uuid.UUID, isAdmin bool) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := s.db.Preload("Course").First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if enrollment.Course.InstructorID != actorID && !isAdmin {
		return nil, ErrNotCourseOwner
	}

	if enrollment.CompletedAt != nil {
		return &enrollment, nil
	}

	now := time.Now()
	enrollment.CompletedAt = &now
	if err := s.db.Save(&enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to mark enrollment completed: %w", err)
	}

	return &enrollment, nil
}

// RemoveForRefund deletes the enrollment tied to a refunded payment, inside
// the refund transaction.
func (s *EnrollmentService) RemoveForRefund(tx *gorm.DB, paymentID uuid.UUID) error {
	return tx.Where("payment_id = ?", paymentID).Delete(&models.Enrollment{}).Error
}
