// internal/services/assignment_service_test.go
package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

// memFile adapts a byte slice to the multipart.File interface.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func submissionFile(name string, content []byte) (multipart.File, *multipart.FileHeader) {
	header := &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(content)),
		Header:   textproto.MIMEHeader{"Content-Type": []string{"application/pdf"}},
	}
	return memFile{bytes.NewReader(content)}, header
}

type AssignmentServiceTestSuite struct {
	suite.Suite
	db         *gorm.DB
	service    *AssignmentService
	instructor *models.User
	student    *models.User
	course     *models.Course
}

func (s *AssignmentServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	storageService, err := NewStorageService(testConfig())
	s.Require().NoError(err)
	s.service = NewAssignmentService(s.db, storageService)

	s.instructor = createTestUser(s.T(), s.db, models.UserRoleInstructor)
	s.student = createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.course = createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
}

func (s *AssignmentServiceTestSuite) createAssignment(dueAt *time.Time) *models.Assignment {
	assignment := &models.Assignment{
		CourseID: s.course.ID,
		Title:    "1주차 과제",
		DueAt:    dueAt,
		MaxScore: 100,
	}
	s.Require().NoError(s.db.Create(assignment).Error)
	return assignment
}

func (s *AssignmentServiceTestSuite) TestCreateRequiresCourseOwner() {
	_, err := s.service.Create(s.course.ID, s.student.ID, false, &CreateAssignmentRequest{
		Title:    "1주차 과제",
		MaxScore: 100,
	})
	s.Require().ErrorIs(err, ErrNotCourseOwner)

	assignment, err := s.service.Create(s.course.ID, s.instructor.ID, false, &CreateAssignmentRequest{
		Title:    "1주차 과제",
		MaxScore: 100,
	})
	s.Require().NoError(err)
	s.Equal(s.course.ID, assignment.CourseID)
}

func (s *AssignmentServiceTestSuite) TestSubmit() {
	assignment := s.createAssignment(nil)
	createTestEnrollment(s.T(), s.db, s.student.ID, s.course.ID)

	file, header := submissionFile("homework.pdf", []byte("answer"))
	submission, err := s.service.Submit(assignment.ID, s.student.ID, file, header)
	s.Require().NoError(err)

	s.NotEmpty(submission.FileURL)
	s.WithinDuration(time.Now(), submission.SubmittedAt, time.Minute)
}

func (s *AssignmentServiceTestSuite) TestSubmitTwiceRejected() {
	assignment := s.createAssignment(nil)
	createTestEnrollment(s.T(), s.db, s.student.ID, s.course.ID)

	file, header := submissionFile("homework.pdf", []byte("answer"))
	_, err := s.service.Submit(assignment.ID, s.student.ID, file, header)
	s.Require().NoError(err)

	file, header = submissionFile("homework-v2.pdf", []byte("better answer"))
	_, err = s.service.Submit(assignment.ID, s.student.ID, file, header)
	s.Require().ErrorIs(err, ErrAlreadySubmitted)
}

func (s *AssignmentServiceTestSuite) TestSubmitPastDueRejected() {
	due := time.Now().Add(-time.Hour)
	assignment := s.createAssignment(&due)
	createTestEnrollment(s.T(), s.db, s.student.ID, s.course.ID)

	file, header := submissionFile("homework.pdf", []byte("late"))
	_, err := s.service.Submit(assignment.ID, s.student.ID, file, header)
	s.Require().ErrorIs(err, ErrPastDue)
}

func (s *AssignmentServiceTestSuite) TestSubmitRequiresEnrollment() {
	assignment := s.createAssignment(nil)

	file, header := submissionFile("homework.pdf", []byte("answer"))
	_, err := s.service.Submit(assignment.ID, s.student.ID, file, header)
	s.Require().ErrorIs(err, ErrNotEnrolled)
}

func (s *AssignmentServiceTestSuite) TestGrade() {
	assignment := s.createAssignment(nil)
	submission := &models.AssignmentSubmission{
		AssignmentID: assignment.ID,
		UserID:       s.student.ID,
		SubmittedAt:  time.Now(),
	}
	s.Require().NoError(s.db.Create(submission).Error)

	_, err := s.service.Grade(submission.ID, s.student.ID, false, &GradeSubmissionRequest{Score: 90})
	s.Require().ErrorIs(err, ErrNotCourseOwner)

	_, err = s.service.Grade(submission.ID, s.instructor.ID, false, &GradeSubmissionRequest{Score: 200})
	s.Require().Error(err)
	s.Contains(err.Error(), "cannot exceed")

	graded, err := s.service.Grade(submission.ID, s.instructor.ID, false, &GradeSubmissionRequest{
		Score:    90,
		Feedback: "잘했습니다",
	})
	s.Require().NoError(err)
	s.Require().NotNil(graded.Score)
	s.Equal(90, *graded.Score)
	s.NotNil(graded.GradedAt)
}

func TestAssignmentServiceSuite(t *testing.T) {
	suite.Run(t, new(AssignmentServiceTestSuite))
}
