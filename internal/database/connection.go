// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Lesson{},
		&models.CourseSchedule{},
		&models.Tag{},
		&models.Review{},
		&models.Enrollment{},
		&models.Payment{},
		&models.LiveSession{},
		&models.SessionParticipant{},
		&models.SessionChatMessage{},
		&models.SessionQuestion{},
		&models.SessionRecording{},
		&models.Coupon{},
		&models.ReferralReward{},
		&models.Post{},
		&models.Comment{},
		&models.Assignment{},
		&models.AssignmentSubmission{},
		&models.AuditLog{},
		&models.Notification{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_status ON users(role, status)",
		"CREATE INDEX IF NOT EXISTS idx_users_referral_code ON users(referral_code)",

		// Course indexes
		"CREATE INDEX IF NOT EXISTS idx_courses_instructor ON courses(instructor_id)",
		"CREATE INDEX IF NOT EXISTS idx_courses_category_status ON courses(category, status)",
		"CREATE INDEX IF NOT EXISTS idx_courses_end_date ON courses(end_date)",
		"CREATE INDEX IF NOT EXISTS idx_courses_created_at ON courses(created_at DESC)",

		// Enrollment indexes
		"CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id)",
		"CREATE INDEX IF NOT EXISTS idx_enrollments_completed ON enrollments(completed_at)",

		// Payment indexes
		"CREATE INDEX IF NOT EXISTS idx_payments_user_status ON payments(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at DESC)",

		// Live session indexes
		"CREATE INDEX IF NOT EXISTS idx_live_sessions_course_status ON live_sessions(course_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_live_sessions_scheduled ON live_sessions(scheduled_at)",
		"CREATE INDEX IF NOT EXISTS idx_session_participants_open ON session_participants(session_id) WHERE left_at IS NULL",

		// Coupon indexes
		"CREATE INDEX IF NOT EXISTS idx_coupons_user_status ON coupons(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_coupons_expires_at ON coupons(expires_at)",

		// Reward indexes
		"CREATE INDEX IF NOT EXISTS idx_referral_rewards_referrer ON referral_rewards(referrer_id, status)",

		// Board indexes
		"CREATE INDEX IF NOT EXISTS idx_posts_category_created ON posts(category, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// Full-text search indexes
		"CREATE INDEX IF NOT EXISTS idx_courses_search ON courses USING GIN(to_tsvector('simple', title || ' ' || description))",
		"CREATE INDEX IF NOT EXISTS idx_posts_search ON posts USING GIN(to_tsvector('simple', title || ' ' || content))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username:     "admin",
			Email:        "admin@modooclass.com",
			Role:         models.UserRoleAdmin,
			Status:       models.UserStatusActive,
			ReferralCode: "ADMIN000",
			ProfileData: models.JSONB{
				"display_name": "운영자",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	defaultTags := []string{"프로그래밍", "디자인", "외국어", "음악", "커리어"}
	for _, name := range defaultTags {
		var count int64
		db.Model(&models.Tag{}).Where("name = ?", name).Count(&count)
		if count == 0 {
			if err := db.Create(&models.Tag{Name: name}).Error; err != nil {
				log.Printf("Warning: Failed to create tag %s: %v", name, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
