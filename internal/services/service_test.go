// internal/services/service_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/models"
)

// setupTestDB opens a private in-memory database per test. cache=shared keeps
// the database alive across the pool's connections.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
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
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 1,
		},
		Payment: config.PaymentConfig{
			Currency: "krw",
		},
		Referral: config.ReferralConfig{
			SignupRewardAmount:        10000,
			FirstPurchaseRewardAmount: 20000,
		},
		Coupon: config.CouponConfig{
			DefaultAmount:  30000,
			ExpiryMonths:   3,
			CodeLength:     12,
			MaxCodeRetries: 5,
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	user := &models.User{
		Username:     "user" + suffix,
		Email:        fmt.Sprintf("user-%s@example.com", suffix),
		Role:         role,
		Status:       models.UserStatusActive,
		ReferralCode: "R" + suffix[:7],
	}
	require.NoError(t, user.SetPassword("TestPass123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestCourse(t *testing.T, db *gorm.DB, instructorID uuid.UUID, price int64, status models.CourseStatus) *models.Course {
	t.Helper()

	course := &models.Course{
		InstructorID: instructorID,
		Title:        "테스트 클래스",
		Price:        price,
		Status:       status,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func createTestEnrollment(t *testing.T, db *gorm.DB, userID, courseID uuid.UUID) *models.Enrollment {
	t.Helper()

	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	}
	require.NoError(t, db.Create(enrollment).Error)
	return enrollment
}

func createTestSession(t *testing.T, db *gorm.DB, courseID, instructorID uuid.UUID, status models.SessionStatus) *models.LiveSession {
	t.Helper()

	session := &models.LiveSession{
		CourseID:     courseID,
		InstructorID: instructorID,
		Title:        "라이브 수업",
		RoomName:     "session-" + uuid.NewString()[:13],
		ScheduledAt:  time.Now().Add(time.Hour),
		Status:       status,
	}
	if status == models.SessionStatusLive {
		started := time.Now().Add(-30 * time.Minute)
		session.StartedAt = &started
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

// The schema must migrate cleanly on the test driver and IDs must be
// generated client-side, with no reliance on database defaults.
func TestMigrationsAssignClientSideIDs(t *testing.T) {
	db := setupTestDB(t)

	user := createTestUser(t, db, models.UserRoleStudent)
	require.NotEqual(t, uuid.Nil, user.ID)

	course := createTestCourse(t, db, user.ID, 0, models.CourseStatusDraft)
	require.NotEqual(t, uuid.Nil, course.ID)
}
