// internal/services/course_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrNotCourseOwner  = errors.New("only the course instructor or an admin may modify this course")
	ErrCourseNotDraft  = errors.New("only draft courses can be published")
	ErrCoursePublished = errors.New("published courses cannot be deleted")
)

type CourseService struct {
	db *gorm.DB
}

type CreateCourseRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty" validate:"omitempty,max=50"`
	Price       int64      `json:"price" validate:"min=0"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Capacity    int        `json:"capacity" validate:"min=0"`
	Tags        []string   `json:"tags,omitempty" validate:"max=10"`
}

type UpdateCourseRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	Price       *int64     `json:"price,omitempty" validate:"omitempty,min=0"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Capacity    *int       `json:"capacity,omitempty" validate:"omitempty,min=0"`
	Tags        []string   `json:"tags,omitempty" validate:"max=10"`
}

type CourseSearchParams struct {
	utils.PaginationParams
	Query        string               `json:"q,omitempty"`
	Category     string               `json:"category,omitempty"`
	Status       *models.CourseStatus `json:"status,omitempty"`
	InstructorID *uuid.UUID           `json:"instructor_id,omitempty"`
	MinPrice     *int64               `json:"min_price,omitempty"`
	MaxPrice     *int64               `json:"max_price,omitempty"`
	Tag          string               `json:"tag,omitempty"`
}

type CreateLessonRequest struct {
	Title      string `json:"title" validate:"required,max=255"`
	OrderIndex int    `json:"order_index" validate:"min=0"`
	VideoURL   string `json:"video_url,omitempty" validate:"omitempty,url,max=500"`
	Duration   int    `json:"duration" validate:"min=0"`
}

type CreateScheduleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time" validate:"required,len=5"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content,omitempty" validate:"max=2000"`
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

func (s *CourseService) Create(instructorID uuid.UUID, req *CreateCourseRequest) (*models.Course, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, errors.New("end date must be after start date")
	}

	course := &models.Course{
		InstructorID: instructorID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Capacity:     req.Capacity,
		Status:       models.CourseStatusDraft,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return fmt.Errorf("failed to create course: %w", err)
		}
		return s.replaceTags(tx, course, req.Tags)
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(course.ID)
}

func (s *CourseService) GetByID(courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := s.db.Preload("Instructor").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Schedules").
		Preload("Tags").
		First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &course, nil
}

func (s *CourseService) Search(params CourseSearchParams) ([]models.Course, int64, error) {
	query := s.db.Model(&models.Course{}).Preload("Instructor").Preload("Tags")

	if params.Status != nil {
		query = query.Where("courses.status = ?", *params.Status)
	} else {
		query = query.Where("courses.status = ?", models.CourseStatusPublished)
	}

	if params.Query != "" {
		searchTerm := "%" + params.Query + "%"
		query = query.Where("courses.title ILIKE ? OR courses.description ILIKE ?", searchTerm, searchTerm)
	}
	if params.Category != "" {
		query = query.Where("courses.category = ?", params.Category)
	}
	if params.InstructorID != nil {
		query = query.Where("courses.instructor_id = ?", *params.InstructorID)
	}
	if params.MinPrice != nil {
		query = query.Where("courses.price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("courses.price <= ?", *params.MaxPrice)
	}
	if params.Tag != "" {
		query = query.Joins("JOIN course_tags ON course_tags.course_id = courses.id").
			Joins("JOIN tags ON tags.id = course_tags.tag_id").
			Where("tags.name = ?", params.Tag)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "title", "start_date"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search courses: %w", err)
	}

	return courses, total, nil
}

func (s *CourseService) Update(courseID, actorID uuid.UUID, isAdmin bool, req *UpdateCourseRequest) (*models.Course, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	course, err := s.getOwnedCourse(courseID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(course).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update course: %w", err)
			}
		}
		if req.Tags != nil {
			return s.replaceTags(tx, course, req.Tags)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(courseID)
}

// Publish transitions draft → published. A course needs a price decision and
// at least a title before it can take enrollments.
func (s *CourseService) Publish(courseID, actorID uuid.UUID, isAdmin bool) (*models.Course, error) {
	course, err := s.getOwnedCourse(courseID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	if course.Status != models.CourseStatusDraft {
		return nil, ErrCourseNotDraft
	}

	course.Status = models.CourseStatusPublished
	if err := s.db.Save(course).Error; err != nil {
		return nil, fmt.Errorf("failed to publish course: %w", err)
	}

	return course, nil
}

// Close stops further enrollments without touching existing ones.
func (s *CourseService) Close(courseID, actorID uuid.UUID, isAdmin bool) (*models.Course, error) {
	course, err := s.getOwnedCourse(courseID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	if course.Status != models.CourseStatusPublished {
		return nil, errors.New("only published courses can be closed")
	}

	course.Status = models.CourseStatusClosed
	if err := s.db.Save(course).Error; err != nil {
		return nil, fmt.Errorf("failed to close course: %w", err)
	}

	return course, nil
}

func (s *CourseService) Delete(courseID, actorID uuid.UUID, isAdmin bool) error {
	course, err := s.getOwnedCourse(courseID, actorID, isAdmin)
	if err != nil {
		return err
	}

	if course.Status == models.CourseStatusPublished && !isAdmin {
		return ErrCoursePublished
	}

	var enrollmentCount int64
	s.db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&enrollmentCount)
	if enrollmentCount > 0 {
		return errors.New("courses with enrollments cannot be deleted")
	}

	if err := s.db.Delete(course).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

func (s *CourseService) AddLesson(courseID, actorID uuid.UUID, isAdmin bool, req *CreateLessonRequest) (*models.Lesson, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.getOwnedCourse(courseID, actorID, isAdmin); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:   courseID,
		Title:      req.Title,
		OrderIndex: req.OrderIndex,
		VideoURL:   req.VideoURL,
		Duration:   req.Duration,
	}
	if err := s.db.Create(lesson).Error; err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return lesson, nil
}

func (s *CourseService) DeleteLesson(lessonID, actorID uuid.UUID, isAdmin bool) error {
	var lesson models.Lesson
	if err := s.db.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("lesson not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if _, err := s.getOwnedCourse(lesson.CourseID, actorID, isAdmin); err != nil {
		return err
	}

	return s.db.Delete(&lesson).Error
}

func (s *CourseService) AddSchedule(courseID, actorID uuid.UUID, isAdmin bool, req *CreateScheduleRequest) (*models.CourseSchedule, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.getOwnedCourse(courseID, actorID, isAdmin); err != nil {
		return nil, err
	}

	schedule := &models.CourseSchedule{
		CourseID:  courseID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.db.Create(schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return schedule, nil
}

// AddReview requires the reviewer to be enrolled; one review per user per
// course, enforced by a unique index.
func (s *CourseService) AddReview(courseID, userID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var enrolled int64
	s.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&enrolled)
	if enrolled == 0 {
		return nil, ErrNotEnrolled
	}

	review := &models.Review{
		CourseID: courseID,
		UserID:   userID,
		Rating:   req.Rating,
		Content:  req.Content,
	}
	if err := s.db.Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("you have already reviewed this course")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

func (s *CourseService) GetReviews(courseID uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	query := s.db.Model(&models.Review{}).Where("course_id = ?", courseID).Preload("User")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query = utils.ApplyPagination(query.Order("created_at DESC"), params)

	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return reviews, total, nil
}

func (s *CourseService) SetThumbnail(courseID, actorID uuid.UUID, isAdmin bool, url string) error {
	course, err := s.getOwnedCourse(courseID, actorID, isAdmin)
	if err != nil {
		return err
	}
	return s.db.Model(course).Update("thumbnail_url", url).Error
}

func (s *CourseService) getOwnedCourse(courseID, actorID uuid.UUID, isAdmin bool) (*models.Course, error) {
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

	return &course, nil
}

func (s *CourseService) replaceTags(tx *gorm.DB, course *models.Course, names []string) error {
	if names == nil {
		return nil
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		var tag models.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}

	if err := tx.Model(course).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}
	return nil
}
