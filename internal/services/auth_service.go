// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type AuthService struct {
	db                  *gorm.DB
	cfg                 *config.Config
	referralService     *ReferralService
	notificationService *NotificationService
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username     string                 `json:"username" validate:"required,username"`
	Email        string                 `json:"email" validate:"required,email"`
	Password     string                 `json:"password" validate:"required,strong_password"`
	Role         models.UserRole        `json:"role" validate:"omitempty,oneof=student instructor"`
	ReferralCode string                 `json:"referral_code,omitempty"`
	ProfileData  map[string]interface{} `json:"profile_data,omitempty"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config, referralService *ReferralService, notificationService *NotificationService) *AuthService {
	return &AuthService{
		db:                  db,
		cfg:                 cfg,
		referralService:     referralService,
		notificationService: notificationService,
	}
}

func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Check for existing account
	var existing models.User
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).
		First(&existing).Error; err == nil {
		return nil, errors.New("an account with this email or username already exists")
	}

	role := req.Role
	if role == "" {
		role = models.UserRoleStudent
	}

	// Resolve referrer before creating the user
	var referrer *models.User
	if req.ReferralCode != "" {
		var u models.User
		if err := s.db.Where("referral_code = ?", req.ReferralCode).First(&u).Error; err != nil {
			return nil, errors.New("invalid referral code")
		}
		referrer = &u
	}

	referralCode, err := s.generateReferralCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate referral code: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		Role:         role,
		Status:       models.UserStatusActive,
		ReferralCode: referralCode,
		ProfileData:  models.JSONB(req.ProfileData),
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Record the signup reward; confirmation happens on the referee's first login
	if referrer != nil {
		if _, err := s.referralService.CreateSignupReward(referrer.ID, user.ID); err != nil {
			logrus.WithError(err).WithField("referrer_id", referrer.ID).
				Warn("Failed to create signup reward")
		}
	}

	go func() {
		if err := s.notificationService.SendWelcomeEmail(user); err != nil {
			logrus.WithError(err).Error("Failed to send welcome email")
		}
	}()

	return s.buildAuthResponse(user)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	if user.Status != models.UserStatusActive {
		return nil, errors.New("account is not active")
	}

	firstLogin := user.LastLoginAt == nil

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).Warn("Failed to update last login timestamp")
	}

	// The referee's first login confirms the referrer's signup reward
	if firstLogin && user.ReferredBy != nil {
		if err := s.referralService.ConfirmSignupReward(user.ID); err != nil {
			logrus.WithError(err).WithField("referee_id", user.ID).
				Warn("Failed to confirm signup reward")
		}
	}

	return s.buildAuthResponse(&user)
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	if user.Status != models.UserStatusActive {
		return nil, errors.New("account is not active")
	}

	return s.buildAuthResponse(&user)
}

func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *AuthService) buildAuthResponse(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

// generateReferralCode retries on the unique index until a free code is found.
func (s *AuthService) generateReferralCode() (string, error) {
	for i := 0; i < 5; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.db.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}
