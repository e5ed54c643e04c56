// internal/services/admin_service.go
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

type AdminService struct {
	db                  *gorm.DB
	referralService     *ReferralService
	notificationService *NotificationService
}

type AdminDashboardStats struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveUsers       int64 `json:"active_users"`
	NewUsersThisMonth int64 `json:"new_users_this_month"`
	TotalCourses      int64 `json:"total_courses"`
	PublishedCourses  int64 `json:"published_courses"`
	TotalEnrollments  int64 `json:"total_enrollments"`
	TotalRevenue      int64 `json:"total_revenue"`
	MonthlyRevenue    int64 `json:"monthly_revenue"`
	LiveSessionsNow   int64 `json:"live_sessions_now"`
	SessionsThisMonth int64 `json:"sessions_this_month"`
	ActiveCoupons     int64 `json:"active_coupons"`
	PendingRewards    int64 `json:"pending_rewards"`
	ConfirmedRewards  int64 `json:"confirmed_rewards"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role          *models.UserRole   `json:"role,omitempty"`
	Status        *models.UserStatus `json:"status,omitempty"`
	Query         string             `json:"q,omitempty"`
	CreatedAfter  *time.Time         `json:"created_after,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
}

type AuditLogFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	Action       string     `json:"action,omitempty"`
	After        *time.Time `json:"after,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
}

func NewAdminService(db *gorm.DB, referralService *ReferralService, notificationService *NotificationService) *AdminService {
	return &AdminService{
		db:                  db,
		referralService:     referralService,
		notificationService: notificationService,
	}
}

func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	s.db.Model(&models.Course{}).Count(&stats.TotalCourses)
	s.db.Model(&models.Course{}).Where("status = ?", models.CourseStatusPublished).Count(&stats.PublishedCourses)
	s.db.Model(&models.Enrollment{}).Count(&stats.TotalEnrollments)

	s.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalRevenue)
	s.db.Model(&models.Payment{}).
		Where("status = ? AND created_at >= ?", models.PaymentStatusCompleted, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.MonthlyRevenue)

	s.db.Model(&models.LiveSession{}).
		Where("status = ?", models.SessionStatusLive).Count(&stats.LiveSessionsNow)
	s.db.Model(&models.LiveSession{}).
		Where("scheduled_at >= ?", monthStart).Count(&stats.SessionsThisMonth)

	s.db.Model(&models.Coupon{}).
		Where("status = ?", models.CouponStatusActive).Count(&stats.ActiveCoupons)
	s.db.Model(&models.ReferralReward{}).
		Where("status = ?", models.RewardStatusPending).Count(&stats.PendingRewards)
	s.db.Model(&models.ReferralReward{}).
		Where("status = ?", models.RewardStatusConfirmed).Count(&stats.ConfirmedRewards)

	return stats, nil
}

func (s *AdminService) ListUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Query != "" {
		searchTerm := "%" + filter.Query + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "username", "email", "role", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserStatus(userID uuid.UUID, status models.UserStatus, adminID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.ID == adminID {
		return nil, errors.New("cannot change your own status")
	}

	user.Status = status
	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	return &user, nil
}

func (s *AdminService) UpdateUserRole(userID uuid.UUID, role models.UserRole, adminID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.ID == adminID {
		return nil, errors.New("cannot change your own role")
	}

	user.Role = role
	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	return &user, nil
}

// PayReferralReward settles a confirmed reward.
func (s *AdminService) PayReferralReward(rewardID uuid.UUID) (*models.ReferralReward, error) {
	return s.referralService.MarkRewardPaid(rewardID)
}

func (s *AdminService) ListPendingRewards(params utils.PaginationParams) ([]models.ReferralReward, int64, error) {
	query := s.db.Model(&models.ReferralReward{}).
		Where("status = ?", models.RewardStatusConfirmed).
		Preload("Referrer").
		Preload("Referee")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rewards: %w", err)
	}

	query = utils.ApplyPagination(query.Order("confirmed_at ASC"), params)

	var rewards []models.ReferralReward
	if err := query.Find(&rewards).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch rewards: %w", err)
	}

	return rewards, total, nil
}

func (s *AdminService) GetAuditLogs(filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.After != nil {
		query = query.Where("created_at >= ?", *filter.After)
	}
	if filter.Before != nil {
		query = query.Where("created_at <= ?", *filter.Before)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = utils.ApplyPagination(query.Order("created_at DESC"), filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}
