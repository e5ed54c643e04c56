// internal/services/referral_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

var ErrRewardAlreadyIssued = errors.New("reward already issued for this referee")

type ReferralService struct {
	db                  *gorm.DB
	cfg                 *config.Config
	notificationService *NotificationService
}

type ReferralStats struct {
	ReferralCode     string `json:"referral_code"`
	TotalReferrals   int64  `json:"total_referrals"`
	PendingRewards   int64  `json:"pending_rewards"`
	ConfirmedRewards int64  `json:"confirmed_rewards"`
	PaidRewards      int64  `json:"paid_rewards"`
	TotalAmount      int64  `json:"total_amount"` // confirmed + paid
}

func NewReferralService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService) *ReferralService {
	return &ReferralService{
		db:                  db,
		cfg:                 cfg,
		notificationService: notificationService,
	}
}

// CreateSignupReward records a pending signup reward for the referrer. The
// unique (referee_id, reward_type) index rejects double issuance.
func (s *ReferralService) CreateSignupReward(referrerID, refereeID uuid.UUID) (*models.ReferralReward, error) {
	reward := &models.ReferralReward{
		ReferrerID: referrerID,
		RefereeID:  refereeID,
		RewardType: models.RewardTypeSignup,
		Amount:     s.cfg.Referral.SignupRewardAmount,
		Status:     models.RewardStatusPending,
	}

	if err := s.db.Create(reward).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRewardAlreadyIssued
		}
		return nil, fmt.Errorf("failed to create signup reward: %w", err)
	}

	return reward, nil
}

// ConfirmSignupReward flips the referee's pending signup reward to confirmed.
func (s *ReferralService) ConfirmSignupReward(refereeID uuid.UUID) error {
	return s.confirmReward(refereeID, models.RewardTypeSignup)
}

// IssueFirstPurchaseReward creates and immediately confirms the first-purchase
// reward for the referee's referrer, if any. Called from payment confirmation;
// repeated purchases are rejected by the unique index.
func (s *ReferralService) IssueFirstPurchaseReward(tx *gorm.DB, referee *models.User) error {
	if referee.ReferredBy == nil {
		return nil
	}

	now := time.Now()
	reward := &models.ReferralReward{
		ReferrerID:  *referee.ReferredBy,
		RefereeID:   referee.ID,
		RewardType:  models.RewardTypeFirstPurchase,
		Amount:      s.cfg.Referral.FirstPurchaseRewardAmount,
		Status:      models.RewardStatusConfirmed,
		ConfirmedAt: &now,
	}

	if err := tx.Create(reward).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrRewardAlreadyIssued
		}
		return fmt.Errorf("failed to create first purchase reward: %w", err)
	}

	go s.notifyRewardConfirmed(reward)
	return nil
}

func (s *ReferralService) confirmReward(refereeID uuid.UUID, rewardType models.RewardType) error {
	var reward models.ReferralReward
	if err := s.db.Where("referee_id = ? AND reward_type = ? AND status = ?",
		refereeID, rewardType, models.RewardStatusPending).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // nothing pending
		}
		return fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	reward.Status = models.RewardStatusConfirmed
	reward.ConfirmedAt = &now
	if err := s.db.Save(&reward).Error; err != nil {
		return fmt.Errorf("failed to confirm reward: %w", err)
	}

	go s.notifyRewardConfirmed(&reward)
	return nil
}

func (s *ReferralService) notifyRewardConfirmed(reward *models.ReferralReward) {
	var referrer models.User
	if err := s.db.First(&referrer, reward.ReferrerID).Error; err != nil {
		return
	}
	if err := s.notificationService.SendReferralRewardConfirmed(&referrer, reward); err != nil {
		logrus.WithError(err).Warn("Failed to send reward notification")
	}
}

// MarkRewardPaid transitions a confirmed reward to paid (admin operation).
func (s *ReferralService) MarkRewardPaid(rewardID uuid.UUID) (*models.ReferralReward, error) {
	var reward models.ReferralReward
	if err := s.db.First(&reward, rewardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("reward not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if reward.Status != models.RewardStatusConfirmed {
		return nil, errors.New("only confirmed rewards can be paid")
	}

	now := time.Now()
	reward.Status = models.RewardStatusPaid
	reward.PaidAt = &now
	if err := s.db.Save(&reward).Error; err != nil {
		return nil, fmt.Errorf("failed to mark reward paid: %w", err)
	}

	return &reward, nil
}

func (s *ReferralService) GetStats(userID uuid.UUID) (*ReferralStats, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	stats := &ReferralStats{ReferralCode: user.ReferralCode}

	s.db.Model(&models.User{}).Where("referred_by = ?", userID).Count(&stats.TotalReferrals)

	counts := []struct {
		status models.RewardStatus
		dest   *int64
	}{
		{models.RewardStatusPending, &stats.PendingRewards},
		{models.RewardStatusConfirmed, &stats.ConfirmedRewards},
		{models.RewardStatusPaid, &stats.PaidRewards},
	}
	for _, c := range counts {
		s.db.Model(&models.ReferralReward{}).
			Where("referrer_id = ? AND status = ?", userID, c.status).
			Count(c.dest)
	}

	s.db.Model(&models.ReferralReward{}).
		Where("referrer_id = ? AND status IN (?, ?)", userID, models.RewardStatusConfirmed, models.RewardStatusPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalAmount)

	return stats, nil
}

func (s *ReferralService) GetRewards(userID uuid.UUID, params utils.PaginationParams) ([]models.ReferralReward, int64, error) {
	query := s.db.Model(&models.ReferralReward{}).
		Where("referrer_id = ?", userID).
		Preload("Referee")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rewards: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var rewards []models.ReferralReward
	if err := query.Find(&rewards).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch rewards: %w", err)
	}

	return rewards, total, nil
}

// isUniqueViolation matches both PostgreSQL and the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
