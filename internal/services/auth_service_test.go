// internal/services/auth_service_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	cfg := testConfig()
	notificationService := NewNotificationService(s.db, cfg)
	referralService := NewReferralService(s.db, cfg, notificationService)
	s.service = NewAuthService(s.db, cfg, referralService, notificationService)
}

func (s *AuthServiceTestSuite) registerRequest() *RegisterRequest {
	suffix := uuid.NewString()[:8]
	return &RegisterRequest{
		Username: "student_" + suffix,
		Email:    fmt.Sprintf("student-%s@example.com", suffix),
		Password: "SecurePass123",
	}
}

func (s *AuthServiceTestSuite) TestRegisterIssuesTokens() {
	resp, err := s.service.Register(s.registerRequest())
	s.Require().NoError(err)

	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(models.UserRoleStudent, resp.User.Role)
	s.NotEmpty(resp.User.ReferralCode)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmailRejected() {
	req := s.registerRequest()
	_, err := s.service.Register(req)
	s.Require().NoError(err)

	dup := s.registerRequest()
	dup.Email = req.Email
	_, err = s.service.Register(dup)
	s.Require().Error(err)
	s.Contains(err.Error(), "already exists")
}

func (s *AuthServiceTestSuite) TestRegisterWeakPasswordRejected() {
	req := s.registerRequest()
	req.Password = "short"

	_, err := s.service.Register(req)
	s.Require().Error(err)
	s.Contains(err.Error(), "validation failed")
}

func (s *AuthServiceTestSuite) TestRegisterInvalidReferralCodeRejected() {
	req := s.registerRequest()
	req.ReferralCode = "NOSUCHCODE"

	_, err := s.service.Register(req)
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid referral code")
}

func (s *AuthServiceTestSuite) TestRegisterWithReferralCreatesPendingReward() {
	referrer := createTestUser(s.T(), s.db, models.UserRoleStudent)

	req := s.registerRequest()
	req.ReferralCode = referrer.ReferralCode
	resp, err := s.service.Register(req)
	s.Require().NoError(err)
	s.Require().NotNil(resp.User.ReferredBy)
	s.Equal(referrer.ID, *resp.User.ReferredBy)

	var reward models.ReferralReward
	s.Require().NoError(s.db.Where("referee_id = ?", resp.User.ID).First(&reward).Error)
	s.Equal(models.RewardStatusPending, reward.Status)
	s.Equal(referrer.ID, reward.ReferrerID)
}

func (s *AuthServiceTestSuite) TestFirstLoginConfirmsSignupReward() {
	referrer := createTestUser(s.T(), s.db, models.UserRoleStudent)

	req := s.registerRequest()
	req.ReferralCode = referrer.ReferralCode
	resp, err := s.service.Register(req)
	s.Require().NoError(err)

	_, err = s.service.Login(&LoginRequest{Email: req.Email, Password: req.Password})
	s.Require().NoError(err)

	var reward models.ReferralReward
	s.Require().NoError(s.db.Where("referee_id = ?", resp.User.ID).First(&reward).Error)
	s.Equal(models.RewardStatusConfirmed, reward.Status)
	s.NotNil(reward.ConfirmedAt)

	// A second login leaves the reward as is
	_, err = s.service.Login(&LoginRequest{Email: req.Email, Password: req.Password})
	s.Require().NoError(err)

	var count int64
	s.db.Model(&models.ReferralReward{}).Where("referee_id = ?", resp.User.ID).Count(&count)
	s.Equal(int64(1), count)
}

func (s *AuthServiceTestSuite) TestLoginWrongPassword() {
	req := s.registerRequest()
	_, err := s.service.Register(req)
	s.Require().NoError(err)

	_, err = s.service.Login(&LoginRequest{Email: req.Email, Password: "WrongPass123"})
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid email or password")
}

func (s *AuthServiceTestSuite) TestLoginSuspendedAccountRejected() {
	req := s.registerRequest()
	resp, err := s.service.Register(req)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(resp.User).Update("status", models.UserStatusSuspended).Error)

	_, err = s.service.Login(&LoginRequest{Email: req.Email, Password: req.Password})
	s.Require().Error(err)
	s.Contains(err.Error(), "not active")
}

func (s *AuthServiceTestSuite) TestRefreshToken() {
	resp, err := s.service.Register(s.registerRequest())
	s.Require().NoError(err)

	refreshed, err := s.service.RefreshToken(resp.RefreshToken)
	s.Require().NoError(err)
	s.NotEmpty(refreshed.AccessToken)
	s.Equal(resp.User.ID, refreshed.User.ID)

	_, err = s.service.RefreshToken("not-a-token")
	s.Require().Error(err)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
