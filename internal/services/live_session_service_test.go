// internal/services/live_session_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type LiveSessionServiceTestSuite struct {
	suite.Suite
	db         *gorm.DB
	service    *LiveSessionService
	instructor *models.User
	student    *models.User
	course     *models.Course
	ctx        context.Context
}

func (s *LiveSessionServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	cfg := testConfig()
	notificationService := NewNotificationService(s.db, cfg)
	s.service = NewLiveSessionService(s.db, NewVideoService(cfg), notificationService)
	s.ctx = context.Background()

	s.instructor = createTestUser(s.T(), s.db, models.UserRoleInstructor)
	s.student = createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.course = createTestCourse(s.T(), s.db, s.instructor.ID, 0, models.CourseStatusPublished)
}

func (s *LiveSessionServiceTestSuite) TestStartScheduledSession() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusScheduled)

	started, err := s.service.Start(s.ctx, session.ID, s.instructor.ID, false)
	s.Require().NoError(err)

	s.Equal(models.SessionStatusLive, started.Status)
	s.Require().NotNil(started.StartedAt)
	s.WithinDuration(time.Now(), *started.StartedAt, time.Minute)
}

func (s *LiveSessionServiceTestSuite) TestStartLiveSessionRejected() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	_, err := s.service.Start(s.ctx, session.ID, s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrInvalidTransition)
}

func (s *LiveSessionServiceTestSuite) TestStartEndedSessionRejected() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusEnded)

	_, err := s.service.Start(s.ctx, session.ID, s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrInvalidTransition)
}

func (s *LiveSessionServiceTestSuite) TestStartByNonOwnerRejected() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusScheduled)

	_, err := s.service.Start(s.ctx, session.ID, s.student.ID, false)
	s.Require().ErrorIs(err, ErrNotSessionOwner)
}

func (s *LiveSessionServiceTestSuite) TestAdminCanStartAnySession() {
	admin := createTestUser(s.T(), s.db, models.UserRoleAdmin)
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusScheduled)

	started, err := s.service.Start(s.ctx, session.ID, admin.ID, true)
	s.Require().NoError(err)
	s.Equal(models.SessionStatusLive, started.Status)
}

func (s *LiveSessionServiceTestSuite) TestEndLiveSession() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)
	participant := &models.SessionParticipant{
		SessionID: session.ID,
		UserID:    s.student.ID,
		Identity:  s.student.ID.String(),
		JoinedAt:  time.Now().Add(-20 * time.Minute),
	}
	s.Require().NoError(s.db.Create(participant).Error)

	ended, err := s.service.End(s.ctx, session.ID, s.instructor.ID, false)
	s.Require().NoError(err)

	s.Equal(models.SessionStatusEnded, ended.Status)
	s.Require().NotNil(ended.EndedAt)
	s.InDelta(1800, ended.Duration, 60) // started 30 minutes ago

	var closed models.SessionParticipant
	s.Require().NoError(s.db.First(&closed, participant.ID).Error)
	s.NotNil(closed.LeftAt)
}

func (s *LiveSessionServiceTestSuite) TestEndScheduledSessionRejected() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusScheduled)

	_, err := s.service.End(s.ctx, session.ID, s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrInvalidTransition)
}

func (s *LiveSessionServiceTestSuite) TestCancelScheduledSession() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusScheduled)

	cancelled, err := s.service.Cancel(session.ID, s.instructor.ID, false)
	s.Require().NoError(err)
	s.Equal(models.SessionStatusCancelled, cancelled.Status)
}

func (s *LiveSessionServiceTestSuite) TestCancelEndedSessionRejected() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusEnded)

	_, err := s.service.Cancel(session.ID, s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrInvalidTransition)
}

func (s *LiveSessionServiceTestSuite) TestDeleteLiveSessionRejected() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	err := s.service.Delete(session.ID, s.instructor.ID, false)
	s.Require().ErrorIs(err, ErrInvalidTransition)
}

func (s *LiveSessionServiceTestSuite) TestJoinRequiresLiveSession() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusScheduled)
	createTestEnrollment(s.T(), s.db, s.student.ID, s.course.ID)

	_, _, err := s.service.JoinToken(session.ID, s.student.ID, false)
	s.Require().ErrorIs(err, ErrSessionNotLive)
}

func (s *LiveSessionServiceTestSuite) TestJoinRequiresEnrollment() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	_, _, err := s.service.JoinToken(session.ID, s.student.ID, false)
	s.Require().ErrorIs(err, ErrNotEnrolled)
}

func (s *LiveSessionServiceTestSuite) TestJoinIssuesToken() {
	cfg := testConfig()
	cfg.LiveKit = config.LiveKitConfig{
		Host:      "https://livekit.example.com",
		APIKey:    "test-api-key",
		APISecret: "test-api-secret-test-api-secret!",
	}
	service := NewLiveSessionService(s.db, NewVideoService(cfg), NewNotificationService(s.db, cfg))

	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)
	createTestEnrollment(s.T(), s.db, s.student.ID, s.course.ID)

	token, got, err := service.JoinToken(session.ID, s.student.ID, false)
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal(session.RoomName, got.RoomName)
}

func (s *LiveSessionServiceTestSuite) TestParticipantBookkeeping() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)
	identity := s.student.ID.String()

	s.Require().NoError(s.service.HandleParticipantJoined(session.RoomName, identity))

	var participant models.SessionParticipant
	s.Require().NoError(s.db.Where("session_id = ?", session.ID).First(&participant).Error)
	s.Equal(identity, participant.Identity)
	s.Nil(participant.LeftAt)

	s.Require().NoError(s.service.HandleParticipantLeft(session.RoomName, identity))

	s.Require().NoError(s.db.First(&participant, participant.ID).Error)
	s.NotNil(participant.LeftAt)
}

func (s *LiveSessionServiceTestSuite) TestNonUserIdentityIgnored() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	s.Require().NoError(s.service.HandleParticipantJoined(session.RoomName, "EG_recorder"))

	var count int64
	s.db.Model(&models.SessionParticipant{}).Where("session_id = ?", session.ID).Count(&count)
	s.Equal(int64(0), count)
}

func (s *LiveSessionServiceTestSuite) TestRoomFinishedEndsLiveSession() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	s.Require().NoError(s.service.HandleRoomFinished(s.ctx, session.RoomName))

	var reloaded models.LiveSession
	s.Require().NoError(s.db.First(&reloaded, session.ID).Error)
	s.Equal(models.SessionStatusEnded, reloaded.Status)
	s.NotNil(reloaded.EndedAt)
}

func (s *LiveSessionServiceTestSuite) TestRoomFinishedAfterEndIsNoop() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)
	_, err := s.service.End(s.ctx, session.ID, s.instructor.ID, false)
	s.Require().NoError(err)

	s.Require().NoError(s.service.HandleRoomFinished(s.ctx, session.RoomName))
}

func (s *LiveSessionServiceTestSuite) TestEgressEndedMarksRecordingReady() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)
	recording := &models.SessionRecording{
		SessionID: session.ID,
		EgressID:  "EG_" + uuid.NewString()[:8],
		Status:    models.RecordingStatusProcessing,
	}
	s.Require().NoError(s.db.Create(recording).Error)

	err := s.service.HandleEgressEnded(recording.EgressID, true, "https://cdn.example.com/rec.mp4", 3600, 1024*1024)
	s.Require().NoError(err)

	s.Require().NoError(s.db.First(recording, recording.ID).Error)
	s.Equal(models.RecordingStatusReady, recording.Status)
	s.Equal("https://cdn.example.com/rec.mp4", recording.FileURL)
	s.Equal(3600, recording.Duration)
	s.Equal(int64(1024*1024), recording.FileSize)
}

func (s *LiveSessionServiceTestSuite) TestEgressEndedMarksRecordingFailed() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)
	recording := &models.SessionRecording{
		SessionID: session.ID,
		EgressID:  "EG_" + uuid.NewString()[:8],
		Status:    models.RecordingStatusProcessing,
	}
	s.Require().NoError(s.db.Create(recording).Error)

	s.Require().NoError(s.service.HandleEgressEnded(recording.EgressID, false, "", 0, 0))

	s.Require().NoError(s.db.First(recording, recording.ID).Error)
	s.Equal(models.RecordingStatusFailed, recording.Status)
}

func (s *LiveSessionServiceTestSuite) TestChatRequiresLiveSession() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusScheduled)

	_, err := s.service.AddChatMessage(session.ID, s.student.ID, "안녕하세요")
	s.Require().ErrorIs(err, ErrSessionNotLive)
}

func (s *LiveSessionServiceTestSuite) TestQuestionAnsweredByInstructor() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	question, err := s.service.AddQuestion(session.ID, s.student.ID, "과제 범위가 어디까지인가요?")
	s.Require().NoError(err)

	_, err = s.service.AnswerQuestion(question.ID, s.student.ID, false, "3장까지입니다")
	s.Require().ErrorIs(err, ErrNotSessionOwner)

	answered, err := s.service.AnswerQuestion(question.ID, s.instructor.ID, false, "3장까지입니다")
	s.Require().NoError(err)
	s.True(answered.Answered)
	s.Equal("3장까지입니다", answered.Answer)
}

func (s *LiveSessionServiceTestSuite) TestChatHistoryInSendOrder() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	for _, content := range []string{"첫 번째", "두 번째", "세 번째"} {
		_, err := s.service.AddChatMessage(session.ID, s.student.ID, content)
		s.Require().NoError(err)
	}

	messages, total, err := s.service.ListChatMessages(session.ID, utils.PaginationParams{Page: 1, Limit: 20})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(messages, 3)
	s.Equal("첫 번째", messages[0].Content)
	s.Equal("세 번째", messages[2].Content)
}

func (s *LiveSessionServiceTestSuite) TestChatHistorySurvivesSessionEnd() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)
	_, err := s.service.AddChatMessage(session.ID, s.student.ID, "기록")
	s.Require().NoError(err)

	_, err = s.service.End(s.ctx, session.ID, s.instructor.ID, false)
	s.Require().NoError(err)

	messages, total, err := s.service.ListChatMessages(session.ID, utils.PaginationParams{Page: 1, Limit: 20})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(messages, 1)
}

func (s *LiveSessionServiceTestSuite) TestListQuestions() {
	session := createTestSession(s.T(), s.db, s.course.ID, s.instructor.ID, models.SessionStatusLive)

	question, err := s.service.AddQuestion(session.ID, s.student.ID, "숙제 마감이 언제인가요?")
	s.Require().NoError(err)
	_, err = s.service.AnswerQuestion(question.ID, s.instructor.ID, false, "일요일까지입니다")
	s.Require().NoError(err)

	questions, total, err := s.service.ListQuestions(session.ID, utils.PaginationParams{Page: 1, Limit: 20})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(questions, 1)
	s.True(questions[0].Answered)
	s.Equal("일요일까지입니다", questions[0].Answer)
}

func (s *LiveSessionServiceTestSuite) TestListChatForUnknownSession() {
	_, _, err := s.service.ListChatMessages(uuid.New(), utils.PaginationParams{Page: 1, Limit: 20})
	s.Require().ErrorIs(err, ErrSessionNotFound)
}

func TestLiveSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(LiveSessionServiceTestSuite))
}
