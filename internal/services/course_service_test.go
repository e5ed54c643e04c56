// internal/services/course_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

type CourseServiceTestSuite struct {
	suite.Suite
	db         *gorm.DB
	service    *CourseService
	instructor *models.User
	student    *models.User
}

func (s *CourseServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.service = NewCourseService(s.db)

	s.instructor = createTestUser(s.T(), s.db, models.UserRoleInstructor)
	s.student = createTestUser(s.T(), s.db, models.UserRoleStudent)
}

func (s *CourseServiceTestSuite) TestCreateStartsAsDraft() {
	course, err := s.service.Create(s.instructor.ID, &CreateCourseRequest{
		Title: "기초 프로그래밍",
		Price: 50000,
		Tags:  []string{"coding", "beginner"},
	})
	s.Require().NoError(err)

	s.Equal(models.CourseStatusDraft, course.Status)
	s.Equal(s.instructor.ID, course.InstructorID)
	s.Len(course.Tags, 2)
}

func (s *CourseServiceTestSuite) TestPublishDraft() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusDraft)

	published, err := s.service.Publish(course.ID, s.instructor.ID, false)
	s.Require().NoError(err)
	s.Equal(models.CourseStatusPublished, published.Status)
}

func (s *CourseServiceTestSuite) TestPublishTwiceRejected() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)

	_, err := s.service.Publish(course.ID, s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrCourseNotDraft)
}

func (s *CourseServiceTestSuite) TestPublishByNonOwnerRejected() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusDraft)

	_, err := s.service.Publish(course.ID, s.student.ID, false)
	s.Require().ErrorIs(err, ErrNotCourseOwner)
}

func (s *CourseServiceTestSuite) TestCloseKeepsEnrollments() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
	createTestEnrollment(s.T(), s.db, s.student.ID, course.ID)

	closed, err := s.service.Close(course.ID, s.instructor.ID, false)
	s.Require().NoError(err)
	s.Equal(models.CourseStatusClosed, closed.Status)

	var count int64
	s.db.Model(&models.Enrollment{}).Where("course_id = ?", course.ID).Count(&count)
	s.Equal(int64(1), count)
}

func (s *CourseServiceTestSuite) TestDeletePublishedRejectedForInstructor() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)

	err := s.service.Delete(course.ID, s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrCoursePublished)
}

func (s *CourseServiceTestSuite) TestDeleteWithEnrollmentsRejected() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
	createTestEnrollment(s.T(), s.db, s.student.ID, course.ID)

	err := s.service.Delete(course.ID, s.instructor.ID, true)
	s.Require().Error(err)
	s.Contains(err.Error(), "enrollments")
}

func (s *CourseServiceTestSuite) TestUpdateRevertsNothingWhenFieldsNil() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 30000, models.CourseStatusDraft)

	newTitle := "심화 프로그래밍"
	updated, err := s.service.Update(course.ID, s.instructor.ID, false, &UpdateCourseRequest{
		Title: &newTitle,
	})
	s.Require().NoError(err)
	s.Equal("심화 프로그래밍", updated.Title)
	s.Equal(int64(30000), updated.Price)
}

func (s *CourseServiceTestSuite) TestGetByIDPreloadsRelations() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
	_, err := s.service.AddLesson(course.ID, s.instructor.ID, false, &CreateLessonRequest{
		Title:      "오리엔테이션",
		OrderIndex: 0,
	})
	s.Require().NoError(err)

	got, err := s.service.GetByID(course.ID)
	s.Require().NoError(err)
	s.Equal(s.instructor.ID, got.Instructor.ID)
	s.Len(got.Lessons, 1)
}

func (s *CourseServiceTestSuite) TestAddReviewRequiresEnrollment() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)

	_, err := s.service.AddReview(course.ID, s.student.ID, &CreateReviewRequest{Rating: 5})
	s.Require().ErrorIs(err, ErrNotEnrolled)

	createTestEnrollment(s.T(), s.db, s.student.ID, course.ID)

	review, err := s.service.AddReview(course.ID, s.student.ID, &CreateReviewRequest{
		Rating:  5,
		Content: "정말 좋은 수업이었습니다.",
	})
	s.Require().NoError(err)
	s.Equal(5, review.Rating)

	_, err = s.service.AddReview(course.ID, s.student.ID, &CreateReviewRequest{Rating: 4})
	s.Require().Error(err)
	s.Contains(err.Error(), "already reviewed")
}

func (s *CourseServiceTestSuite) TestAddLessonOrdering() {
	course := createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusDraft)

	for i, title := range []string{"오리엔테이션", "1주차", "2주차"} {
		_, err := s.service.AddLesson(course.ID, s.instructor.ID, false, &CreateLessonRequest{
			Title:      title,
			OrderIndex: i,
		})
		s.Require().NoError(err)
	}

	var lessons []models.Lesson
	s.Require().NoError(s.db.Where("course_id = ?", course.ID).Order("order_index").Find(&lessons).Error)
	s.Require().Len(lessons, 3)
	s.Equal("오리엔테이션", lessons[0].Title)
}

func (s *CourseServiceTestSuite) TestUnknownCourseNotFound() {
	_, err := s.service.Publish(uuid.New(), s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrCourseNotFound)
}

func TestCourseServiceSuite(t *testing.T) {
	suite.Run(t, new(CourseServiceTestSuite))
}
