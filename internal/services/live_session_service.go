// internal/services/live_session_service.go
package services

import (
	"context"
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
	ErrSessionNotFound   = errors.New("live session not found")
	ErrNotSessionOwner   = errors.New("only the assigned instructor or an admin may manage this session")
	ErrInvalidTransition = errors.New("invalid session status transition")
	ErrNotEnrolled       = errors.New("user is not enrolled in this course")
	ErrSessionNotLive    = errors.New("session is not live")
)

type LiveSessionService struct {
	db                  *gorm.DB
	videoService        *VideoService
	notificationService *NotificationService
}

type CreateSessionRequest struct {
	CourseID    uuid.UUID `json:"course_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

type SessionSearchParams struct {
	utils.PaginationParams
	CourseID *uuid.UUID            `json:"course_id,omitempty"`
	Status   *models.SessionStatus `json:"status,omitempty"`
}

func NewLiveSessionService(db *gorm.DB, videoService *VideoService, notificationService *NotificationService) *LiveSessionService {
	return &LiveSessionService{
		db:                  db,
		videoService:        videoService,
		notificationService: notificationService,
	}
}

func (s *LiveSessionService) Create(instructorID uuid.UUID, isAdmin bool, req *CreateSessionRequest) (*models.LiveSession, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var course models.Course
	if err := s.db.First(&course, req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("course not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if course.InstructorID != instructorID && !isAdmin {
		return nil, ErrNotSessionOwner
	}

	session := &models.LiveSession{
		CourseID:     course.ID,
		InstructorID: course.InstructorID,
		Title:        req.Title,
		Description:  req.Description,
		RoomName:     fmt.Sprintf("session-%s", uuid.New().String()[:13]),
		ScheduledAt:  req.ScheduledAt,
		Status:       models.SessionStatusScheduled,
	}

	if err := s.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Start transitions scheduled → live. Room creation is best-effort: the room
// may already exist, so a LiveKit failure is logged and the transition
// proceeds.
func (s *LiveSessionService) Start(ctx context.Context, sessionID, actorID uuid.UUID, isAdmin bool) (*models.LiveSession, error) {
	session, err := s.getOwnedSession(sessionID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionStatusScheduled {
		return nil, fmt.Errorf("%w: cannot start a session in status %s", ErrInvalidTransition, session.Status)
	}

	if err := s.videoService.EnsureRoom(ctx, session.RoomName); err != nil {
		logrus.WithError(err).WithField("room", session.RoomName).
			Warn("Room creation failed, continuing")
	}

	now := time.Now()
	session.Status = models.SessionStatusLive
	session.StartedAt = &now

	if err := s.db.Save(session).Error; err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	go s.notifyEnrolled(session)

	return session, nil
}

// End transitions live → ended: stamps endedAt, computes duration, closes open
// participant records and requests room deletion best-effort.
func (s *LiveSessionService) End(ctx context.Context, sessionID, actorID uuid.UUID, isAdmin bool) (*models.LiveSession, error) {
	session, err := s.getOwnedSession(sessionID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	return s.endSession(ctx, session)
}

func (s *LiveSessionService) endSession(ctx context.Context, session *models.LiveSession) (*models.LiveSession, error) {
	if session.Status != models.SessionStatusLive {
		return nil, fmt.Errorf("%w: cannot end a session in status %s", ErrInvalidTransition, session.Status)
	}

	now := time.Now()
	session.Status = models.SessionStatusEnded
	session.EndedAt = &now
	if session.StartedAt != nil {
		session.Duration = int(now.Sub(*session.StartedAt).Seconds())
	}

	if err := s.db.Save(session).Error; err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	// Close participant records still open
	if err := s.db.Model(&models.SessionParticipant{}).
		Where("session_id = ? AND left_at IS NULL", session.ID).
		Update("left_at", now).Error; err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).
			Warn("Failed to close participant records")
	}

	// Stop any still-processing recording, then drop the room; both best-effort
	var recordings []models.SessionRecording
	s.db.Where("session_id = ? AND status = ?", session.ID, models.RecordingStatusProcessing).Find(&recordings)
	for _, rec := range recordings {
		if err := s.videoService.StopRecording(ctx, rec.EgressID); err != nil {
			logrus.WithError(err).WithField("egress_id", rec.EgressID).
				Warn("Failed to stop egress, continuing")
		}
	}

	if err := s.videoService.DeleteRoom(ctx, session.RoomName); err != nil {
		logrus.WithError(err).WithField("room", session.RoomName).
			Warn("Room deletion failed, continuing")
	}

	return session, nil
}

// Cancel transitions scheduled → cancelled.
func (s *LiveSessionService) Cancel(sessionID, actorID uuid.UUID, isAdmin bool) (*models.LiveSession, error) {
	session, err := s.getOwnedSession(sessionID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionStatusScheduled {
		return nil, fmt.Errorf("%w: cannot cancel a session in status %s", ErrInvalidTransition, session.Status)
	}

	session.Status = models.SessionStatusCancelled
	if err := s.db.Save(session).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}

	return session, nil
}

func (s *LiveSessionService) Delete(sessionID, actorID uuid.UUID, isAdmin bool) error {
	session, err := s.getOwnedSession(sessionID, actorID, isAdmin)
	if err != nil {
		return err
	}

	if session.Status == models.SessionStatusLive {
		return fmt.Errorf("%w: cannot delete a live session", ErrInvalidTransition)
	}

	if err := s.db.Delete(session).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// JoinToken returns a LiveKit access token. The session must be live and the
// caller must be enrolled in the course, its instructor, or an admin.
func (s *LiveSessionService) JoinToken(sessionID, userID uuid.UUID, isAdmin bool) (string, *models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrSessionNotFound
		}
		return "", nil, fmt.Errorf("database error: %w", err)
	}

	if session.Status != models.SessionStatusLive {
		return "", nil, ErrSessionNotLive
	}

	if session.InstructorID != userID && !isAdmin {
		var enrolled int64
		s.db.Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, session.CourseID).
			Count(&enrolled)
		if enrolled == 0 {
			return "", nil, ErrNotEnrolled
		}
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return "", nil, errors.New("user not found")
	}

	token, err := s.videoService.JoinToken(session.RoomName, userID.String(), user.Username, 2*time.Hour)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate join token: %w", err)
	}

	return token, &session, nil
}

// StartRecording begins a room-composite egress for a live session.
func (s *LiveSessionService) StartRecording(ctx context.Context, sessionID, actorID uuid.UUID, isAdmin bool) (*models.SessionRecording, error) {
	session, err := s.getOwnedSession(sessionID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionStatusLive {
		return nil, ErrSessionNotLive
	}

	s3Key := RecordingKey(session.ID.String())
	egressID, err := s.videoService.StartRecording(ctx, session.RoomName, s3Key)
	if err != nil {
		return nil, fmt.Errorf("failed to start recording: %w", err)
	}

	recording := &models.SessionRecording{
		SessionID: session.ID,
		EgressID:  egressID,
		Status:    models.RecordingStatusProcessing,
		S3Key:     s3Key,
	}

	if err := s.db.Create(recording).Error; err != nil {
		return nil, fmt.Errorf("failed to create recording record: %w", err)
	}

	return recording, nil
}

func (s *LiveSessionService) Get(sessionID uuid.UUID) (*models.LiveSession, error) {
	var session models.LiveSession
	err := s.db.Preload("Course").
		Preload("Instructor").
		Preload("Participants").
		Preload("Recordings").
		First(&session, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &session, nil
}

func (s *LiveSessionService) Search(params SessionSearchParams) ([]models.LiveSession, int64, error) {
	query := s.db.Model(&models.LiveSession{}).Preload("Course")

	if params.CourseID != nil {
		query = query.Where("course_id = ?", *params.CourseID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	allowedSortFields := []string{"scheduled_at", "created_at", "status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var sessions []models.LiveSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	return sessions, total, nil
}

// AddChatMessage stores a message for a live or ended session.
func (s *LiveSessionService) AddChatMessage(sessionID, userID uuid.UUID, content string) (*models.SessionChatMessage, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusLive {
		return nil, ErrSessionNotLive
	}

	msg := &models.SessionChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Content:   content,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}
	return msg, nil
}

func (s *LiveSessionService) AddQuestion(sessionID, userID uuid.UUID, content string) (*models.SessionQuestion, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusLive {
		return nil, ErrSessionNotLive
	}

	question := &models.SessionQuestion{
		SessionID: sessionID,
		UserID:    userID,
		Content:   content,
	}
	if err := s.db.Create(question).Error; err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

func (s *LiveSessionService) AnswerQuestion(questionID, actorID uuid.UUID, isAdmin bool, answer string) (*models.SessionQuestion, error) {
	var question models.SessionQuestion
	if err := s.db.Preload("Session").First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("question not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if question.Session.InstructorID != actorID && !isAdmin {
		return nil, ErrNotSessionOwner
	}

	question.Answered = true
	question.Answer = answer
	if err := s.db.Save(&question).Error; err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}
	return &question, nil
}

// ListChatMessages returns a session's chat history in send order.
func (s *LiveSessionService) ListChatMessages(sessionID uuid.UUID, params utils.PaginationParams) ([]models.SessionChatMessage, int64, error) {
	var session models.LiveSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSessionNotFound
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	query := s.db.Model(&models.SessionChatMessage{}).Where("session_id = ?", sessionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count chat messages: %w", err)
	}

	query = utils.ApplyPagination(query, params)

	var messages []models.SessionChatMessage
	if err := query.Preload("User").Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch chat messages: %w", err)
	}

	return messages, total, nil
}

// ListQuestions returns a session's questions, oldest first.
func (s *LiveSessionService) ListQuestions(sessionID uuid.UUID, params utils.PaginationParams) ([]models.SessionQuestion, int64, error) {
	var session models.LiveSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSessionNotFound
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	query := s.db.Model(&models.SessionQuestion{}).Where("session_id = ?", sessionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = utils.ApplyPagination(query, params)

	var questions []models.SessionQuestion
	if err := query.Preload("User").Order("created_at ASC").Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch questions: %w", err)
	}

	return questions, total, nil
}

// Webhook handlers, driven by the LiveKit webhook receiver.

func (s *LiveSessionService) HandleParticipantJoined(roomName, identity string) error {
	session, err := s.getByRoom(roomName)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(identity)
	if err != nil {
		// Non-user identities (e.g. egress) are ignored
		return nil
	}

	participant := &models.SessionParticipant{
		SessionID: session.ID,
		UserID:    userID,
		Identity:  identity,
		JoinedAt:  time.Now(),
	}
	if err := s.db.Create(participant).Error; err != nil {
		return fmt.Errorf("failed to record participant join: %w", err)
	}
	return nil
}

func (s *LiveSessionService) HandleParticipantLeft(roomName, identity string) error {
	session, err := s.getByRoom(roomName)
	if err != nil {
		return err
	}

	return s.db.Model(&models.SessionParticipant{}).
		Where("session_id = ? AND identity = ? AND left_at IS NULL", session.ID, identity).
		Update("left_at", time.Now()).Error
}

// HandleRoomFinished ends a session that is still marked live when LiveKit
// reports the room closed.
func (s *LiveSessionService) HandleRoomFinished(ctx context.Context, roomName string) error {
	session, err := s.getByRoom(roomName)
	if err != nil {
		return err
	}

	if session.Status != models.SessionStatusLive {
		return nil
	}

	_, err = s.endSession(ctx, session)
	return err
}

// HandleEgressEnded finalizes a recording row from egress results.
func (s *LiveSessionService) HandleEgressEnded(egressID string, succeeded bool, fileURL string, durationSec int, size int64) error {
	var recording models.SessionRecording
	if err := s.db.Where("egress_id = ?", egressID).First(&recording).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("recording not found for egress %s", egressID)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if succeeded {
		recording.Status = models.RecordingStatusReady
		recording.FileURL = fileURL
		recording.Duration = durationSec
		recording.FileSize = size
	} else {
		recording.Status = models.RecordingStatusFailed
	}

	if err := s.db.Save(&recording).Error; err != nil {
		return fmt.Errorf("failed to update recording: %w", err)
	}
	return nil
}

func (s *LiveSessionService) getOwnedSession(sessionID, actorID uuid.UUID, isAdmin bool) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if session.InstructorID != actorID && !isAdmin {
		return nil, ErrNotSessionOwner
	}

	return &session, nil
}

func (s *LiveSessionService) getByRoom(roomName string) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.Where("room_name = ?", roomName).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &session, nil
}

func (s *LiveSessionService) notifyEnrolled(session *models.LiveSession) {
	var enrollments []models.Enrollment
	if err := s.db.Where("course_id = ?", session.CourseID).Preload("User").Find(&enrollments).Error; err != nil {
		logrus.WithError(err).Warn("Failed to load enrollments for session notification")
		return
	}

	for i := range enrollments {
		if err := s.notificationService.SendSessionStarting(&enrollments[i].User, session); err != nil {
			logrus.WithError(err).Warn("Failed to send session notification")
		}
	}
}
