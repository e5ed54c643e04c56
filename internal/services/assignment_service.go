// internal/services/assignment_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("assignment already submitted")
	ErrPastDue            = errors.New("assignment due date has passed")
)

type AssignmentService struct {
	db             *gorm.DB
	storageService *StorageService
}

type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	MaxScore    int        `json:"max_score" validate:"min=1,max=1000"`
}

type GradeSubmissionRequest struct {
	Score    int    `json:"score" validate:"min=0"`
	Feedback string `json:"feedback,omitempty" validate:"max=5000"`
}

func NewAssignmentService(db *gorm.DB, storageService *StorageService) *AssignmentService {
	return &AssignmentService{
		db:             db,
		storageService: storageService,
	}
}

func (s *AssignmentService) Create(courseID, actorID uuid.UUID, isAdmin bool, req *CreateAssignmentRequest) (*models.Assignment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var course models.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if course.InstructorID != actorID && !isAdmin {
		return nil, ErrNotCourseOwner
	}

	assignment := &models.Assignment{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
		MaxScore:    req.MaxScore,
	}

	if err := s.db.Create(assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	return assignment, nil
}

func (s *AssignmentService) ListForCourse(courseID uuid.UUID, params utils.PaginationParams) ([]models.Assignment, int64, error) {
	query := s.db.Model(&models.Assignment{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	query = utils.ApplyPagination(query.Order("due_at ASC, created_at ASC"), params)

	var assignments []models.Assignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	return assignments, total, nil
}

func (s *AssignmentService) Get(assignmentID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := s.db.Preload("Course").First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &assignment, nil
}

// Submit uploads the file and records the submission. One submission per
// student per assignment; late submissions are rejected when a due date is
// set.
func (s *AssignmentService) Submit(assignmentID, userID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.AssignmentSubmission, error) {
	assignment, err := s.Get(assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.DueAt != nil && time.Now().After(*assignment.DueAt) {
		return nil, ErrPastDue
	}

	var enrolled int64
	s.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, assignment.CourseID).
		Count(&enrolled)
	if enrolled == 0 {
		return nil, ErrNotEnrolled
	}

	uploadOptions := s.storageService.GetDefaultUploadOptions("submissions")
	result, err := s.storageService.UploadFile(file, header, uploadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to upload submission: %w", err)
	}

	submission := &models.AssignmentSubmission{
		AssignmentID: assignmentID,
		UserID:       userID,
		FileURL:      result.URL,
		S3Key:        result.Key,
		SubmittedAt:  time.Now(),
	}

	if err := s.db.Create(submission).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	return submission, nil
}

func (s *AssignmentService) ListSubmissions(assignmentID, actorID uuid.UUID, isAdmin bool, params utils.PaginationParams) ([]models.AssignmentSubmission, int64, error) {
	assignment, err := s.Get(assignmentID)
	if err != nil {
		return nil, 0, err
	}

	if assignment.Course.InstructorID != actorID && !isAdmin {
		return nil, 0, ErrNotCourseOwner
	}

	query := s.db.Model(&models.AssignmentSubmission{}).
		Where("assignment_id = ?", assignmentID).
		Preload("User")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = utils.ApplyPagination(query.Order("submitted_at ASC"), params)

	var submissions []models.AssignmentSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	return submissions, total, nil
}

func (s *AssignmentService) GetMySubmission(assignmentID, userID uuid.UUID) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := s.db.Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &submission, nil
}

func (s *AssignmentService) Grade(submissionID, actorID uuid.UUID, isAdmin bool, req *GradeSubmissionRequest) (*models.AssignmentSubmission, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var submission models.AssignmentSubmission
	err := s.db.Preload("Assignment").Preload("Assignment.Course").
		First(&submission, submissionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if submission.Assignment.Course.InstructorID != actorID && !isAdmin {
		return nil, ErrNotCourseOwner
	}

	if req.Score > submission.Assignment.MaxScore {
		return nil, fmt.Errorf("score cannot exceed %d", submission.Assignment.MaxScore)
	}

	now := time.Now()
	submission.Score = &req.Score
	submission.Feedback = req.Feedback
	submission.GradedAt = &now

	if err := s.db.Save(&submission).Error; err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	return &submission, nil
}
