// internal/services/notification_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/models"
)

type NotificationService struct {
	db       *gorm.DB
	config   *config.Config
	sgClient *sendgrid.Client
	from     *sgmail.Email
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	svc := &NotificationService{
		db:     db,
		config: cfg,
		from:   sgmail.NewEmail(cfg.Email.FromName, cfg.Email.FromEmail),
	}

	if cfg.Email.SendGridAPIKey != "" {
		svc.sgClient = sendgrid.NewSendClient(cfg.Email.SendGridAPIKey)
	}

	return svc
}

// notify persists an in-app notification and sends the email best-effort.
func (s *NotificationService) notify(user *models.User, notifType, title, message, resourceType string, resourceID *uuid.UUID) error {
	notification := &models.Notification{
		UserID:              user.ID,
		Type:                notifType,
		Title:               title,
		Message:             message,
		RelatedResourceType: resourceType,
		RelatedResourceID:   resourceID,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.sendEmail(user.Email, title, message)
	return nil
}

func (s *NotificationService) sendEmail(to, subject, body string) {
	if s.sgClient == nil {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).
			Debug("SendGrid not configured, skipping email")
		return
	}

	msg := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail("", to), body, body)
	resp, err := s.sgClient.Send(msg)
	if err != nil {
		logrus.WithError(err).WithField("to", to).Error("Failed to send email")
		return
	}
	if resp.StatusCode >= 400 {
		logrus.WithFields(logrus.Fields{"to": to, "status": resp.StatusCode, "body": resp.Body}).
			Error("SendGrid rejected email")
	}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User) error {
	title := "모두의클래스에 오신 것을 환영합니다"
	message := fmt.Sprintf("%s님, 가입을 환영합니다. 지금 바로 강의를 둘러보세요: %s",
		user.Username, s.config.Frontend.BaseURL)
	return s.notify(user, "welcome", title, message, "user", &user.ID)
}

func (s *NotificationService) SendEnrollmentConfirmation(user *models.User, course *models.Course) error {
	title := "수강 신청 완료 - " + course.Title
	message := fmt.Sprintf("%s님, '%s' 수강 신청이 완료되었습니다.", user.Username, course.Title)
	return s.notify(user, "enrollment", title, message, "course", &course.ID)
}

func (s *NotificationService) SendCouponIssued(user *models.User, coupon *models.Coupon) error {
	title := "수강 완료 쿠폰이 도착했습니다"
	message := fmt.Sprintf("%s님, %d원 쿠폰(%s)이 발급되었습니다. 유효기간: %s",
		user.Username, coupon.Amount, coupon.Code, coupon.ExpiresAt.Format("2006-01-02"))
	return s.notify(user, "coupon", title, message, "coupon", &coupon.ID)
}

func (s *NotificationService) SendSessionStarting(user *models.User, session *models.LiveSession) error {
	title := "라이브 세션이 시작되었습니다 - " + session.Title
	message := fmt.Sprintf("'%s' 라이브 세션이 시작되었습니다. 지금 참여하세요: %s/live/%s",
		session.Title, s.config.Frontend.BaseURL, session.ID)
	return s.notify(user, "live_session", title, message, "live_session", &session.ID)
}

func (s *NotificationService) SendReferralRewardConfirmed(user *models.User, reward *models.ReferralReward) error {
	title := "친구 추천 보상이 확정되었습니다"
	message := fmt.Sprintf("%s님, 추천 보상 %d원이 확정되었습니다.", user.Username, reward.Amount)
	return s.notify(user, "referral", title, message, "referral_reward", &reward.ID)
}

func (s *NotificationService) SendPaymentRefunded(user *models.User, payment *models.Payment) error {
	title := "환불이 완료되었습니다"
	message := fmt.Sprintf("%s님, %d원 환불 처리가 완료되었습니다.", user.Username, payment.Amount)
	return s.notify(user, "payment", title, message, "payment", &payment.ID)
}

func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *NotificationService) ListForUser(userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
