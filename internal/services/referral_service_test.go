// internal/services/referral_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

type ReferralServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	service  *ReferralService
	referrer *models.User
	referee  *models.User
}

func (s *ReferralServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	cfg := testConfig()
	notificationService := NewNotificationService(s.db, cfg)
	s.service = NewReferralService(s.db, cfg, notificationService)

	s.referrer = createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.referee = createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.referee.ReferredBy = &s.referrer.ID
	s.Require().NoError(s.db.Save(s.referee).Error)
}

func (s *ReferralServiceTestSuite) TestSignupRewardStartsPending() {
	reward, err := s.service.CreateSignupReward(s.referrer.ID, s.referee.ID)
	s.Require().NoError(err)

	s.Equal(models.RewardStatusPending, reward.Status)
	s.Equal(int64(10000), reward.Amount)
	s.Nil(reward.ConfirmedAt)
}

func (s *ReferralServiceTestSuite) TestSignupRewardDoubleIssueRejected() {
	_, err := s.service.CreateSignupReward(s.referrer.ID, s.referee.ID)
	s.Require().NoError(err)

	_, err = s.service.CreateSignupReward(s.referrer.ID, s.referee.ID)
	s.Require().ErrorIs(err, ErrRewardAlreadyIssued)
}

func (s *ReferralServiceTestSuite) TestConfirmSignupReward() {
	_, err := s.service.CreateSignupReward(s.referrer.ID, s.referee.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.service.ConfirmSignupReward(s.referee.ID))

	var reward models.ReferralReward
	s.Require().NoError(s.db.Where("referee_id = ?", s.referee.ID).First(&reward).Error)
	s.Equal(models.RewardStatusConfirmed, reward.Status)
	s.NotNil(reward.ConfirmedAt)
}

func (s *ReferralServiceTestSuite) TestConfirmWithoutPendingIsNoop() {
	s.Require().NoError(s.service.ConfirmSignupReward(s.referee.ID))

	var count int64
	s.db.Model(&models.ReferralReward{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *ReferralServiceTestSuite) TestFirstPurchaseRewardConfirmedImmediately() {
	s.Require().NoError(s.service.IssueFirstPurchaseReward(s.db, s.referee))

	var reward models.ReferralReward
	s.Require().NoError(s.db.
		Where("referee_id = ? AND reward_type = ?", s.referee.ID, models.RewardTypeFirstPurchase).
		First(&reward).Error)
	s.Equal(models.RewardStatusConfirmed, reward.Status)
	s.Equal(int64(20000), reward.Amount)
	s.NotNil(reward.ConfirmedAt)
}

func (s *ReferralServiceTestSuite) TestFirstPurchaseRewardOnlyOnce() {
	s.Require().NoError(s.service.IssueFirstPurchaseReward(s.db, s.referee))

	err := s.service.IssueFirstPurchaseReward(s.db, s.referee)
	s.Require().ErrorIs(err, ErrRewardAlreadyIssued)
}

func (s *ReferralServiceTestSuite) TestFirstPurchaseWithoutReferrerIsNoop() {
	loner := createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.Require().NoError(s.service.IssueFirstPurchaseReward(s.db, loner))

	var count int64
	s.db.Model(&models.ReferralReward{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *ReferralServiceTestSuite) TestMarkRewardPaidRequiresConfirmed() {
	reward, err := s.service.CreateSignupReward(s.referrer.ID, s.referee.ID)
	s.Require().NoError(err)

	_, err = s.service.MarkRewardPaid(reward.ID)
	s.Require().Error(err)

	s.Require().NoError(s.service.ConfirmSignupReward(s.referee.ID))

	paid, err := s.service.MarkRewardPaid(reward.ID)
	s.Require().NoError(err)
	s.Equal(models.RewardStatusPaid, paid.Status)
	s.NotNil(paid.PaidAt)
}

func (s *ReferralServiceTestSuite) TestStats() {
	_, err := s.service.CreateSignupReward(s.referrer.ID, s.referee.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.service.ConfirmSignupReward(s.referee.ID))
	s.Require().NoError(s.service.IssueFirstPurchaseReward(s.db, s.referee))

	stats, err := s.service.GetStats(s.referrer.ID)
	s.Require().NoError(err)
	s.Equal(s.referrer.ReferralCode, stats.ReferralCode)
	s.Equal(int64(1), stats.TotalReferrals)
	s.Equal(int64(2), stats.ConfirmedRewards)
	s.Equal(int64(30000), stats.TotalAmount)
}

func TestReferralServiceSuite(t *testing.T) {
	suite.Run(t, new(ReferralServiceTestSuite))
}
