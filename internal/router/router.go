// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/config"
	"github.com/modooclass/modoo-backend/internal/handlers"
	"github.com/modooclass/modoo-backend/internal/middleware"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	videoService := services.NewVideoService(cfg)

	referralService := services.NewReferralService(db, cfg, notificationService)
	authService := services.NewAuthService(db, cfg, referralService, notificationService)
	courseService := services.NewCourseService(db)
	enrollmentService := services.NewEnrollmentService(db, notificationService)
	couponService := services.NewCouponService(db, cfg, notificationService)
	paymentService := services.NewPaymentService(db, cfg, couponService, referralService, enrollmentService, notificationService)
	sessionService := services.NewLiveSessionService(db, videoService, notificationService)
	boardService := services.NewBoardService(db)
	assignmentService := services.NewAssignmentService(db, storageService)
	adminService := services.NewAdminService(db, referralService, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	courseHandler := handlers.NewCourseHandler(courseService, storageService)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	couponHandler := handlers.NewCouponHandler(couponService)
	referralHandler := handlers.NewReferralHandler(referralService)
	sessionHandler := handlers.NewLiveSessionHandler(sessionService)
	boardHandler := handlers.NewBoardHandler(boardService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	adminHandler := handlers.NewAdminHandler(adminService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(videoService, sessionService)
	cronHandler := handlers.NewCronHandler(couponService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// LiveKit webhooks (signature-verified, no user auth)
	r.POST("/webhooks/livekit", webhookHandler.LiveKit)

	// Cron jobs (bearer secret)
	cron := r.Group("/cron")
	cron.Use(middleware.CronAuthRequired(cfg.Cron.Secret))
	{
		cron.POST("/coupon-sweep", cronHandler.CouponSweep)
		cron.POST("/expire-coupons", cronHandler.ExpireCoupons)
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Course catalog
		courses := v1.Group("/courses")
		{
			courses.GET("", middleware.OptionalAuth(), courseHandler.Search)
			courses.GET("/:id", middleware.OptionalAuth(), courseHandler.Get)
			courses.GET("/:id/reviews", courseHandler.GetReviews)
			courses.GET("/:id/assignments", middleware.AuthRequired(), assignmentHandler.ListForCourse)

			// Instructor routes
			staff := courses.Group("")
			staff.Use(middleware.AuthRequired(), middleware.InstructorRequired())
			{
				staff.POST("", courseHandler.Create)
				staff.PUT("/:id", courseHandler.Update)
				staff.DELETE("/:id", courseHandler.Delete)
				staff.POST("/:id/publish", courseHandler.Publish)
				staff.POST("/:id/close", courseHandler.Close)
				staff.POST("/:id/lessons", courseHandler.AddLesson)
				staff.POST("/:id/schedules", courseHandler.AddSchedule)
				staff.POST("/:id/assignments", assignmentHandler.Create)
				staff.POST("/:id/thumbnail", middleware.UploadRateLimit(), courseHandler.UploadThumbnail)
				staff.GET("/:id/enrollments", enrollmentHandler.ListForCourse)
			}

			// Student routes
			protected := courses.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/:id/enroll", enrollmentHandler.Enroll)
				protected.POST("/:id/reviews", courseHandler.AddReview)
			}
		}

		lessons := v1.Group("/lessons")
		lessons.Use(middleware.AuthRequired(), middleware.InstructorRequired())
		{
			lessons.DELETE("/:id", courseHandler.DeleteLesson)
		}

		// Enrollments
		enrollments := v1.Group("/enrollments")
		enrollments.Use(middleware.AuthRequired())
		{
			enrollments.GET("", enrollmentHandler.ListMine)
			enrollments.POST("/:id/complete", middleware.InstructorRequired(), enrollmentHandler.MarkCompleted)
		}

		// Payments
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intent", paymentHandler.CreateIntent)
			payments.POST("/confirm", paymentHandler.Confirm)
			payments.GET("/history", paymentHandler.History)
		}

		// Coupons
		coupons := v1.Group("/coupons")
		coupons.Use(middleware.AuthRequired())
		{
			coupons.GET("", couponHandler.ListMine)
			coupons.POST("/validate", couponHandler.Validate)
		}

		// Referrals
		referrals := v1.Group("/referrals")
		referrals.Use(middleware.AuthRequired())
		{
			referrals.GET("/stats", referralHandler.Stats)
			referrals.GET("/rewards", referralHandler.Rewards)
		}

		// Live sessions
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", middleware.OptionalAuth(), sessionHandler.Search)
			sessions.GET("/:id", middleware.OptionalAuth(), sessionHandler.Get)

			protected := sessions.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/:id/join", sessionHandler.Join)
				protected.GET("/:id/chat", sessionHandler.ListChatMessages)
				protected.POST("/:id/chat", sessionHandler.AddChatMessage)
				protected.GET("/:id/questions", sessionHandler.ListQuestions)
				protected.POST("/:id/questions", sessionHandler.AddQuestion)
			}

			staff := sessions.Group("")
			staff.Use(middleware.AuthRequired(), middleware.InstructorRequired())
			{
				staff.POST("", sessionHandler.Create)
				staff.POST("/:id/start", sessionHandler.Start)
				staff.POST("/:id/end", sessionHandler.End)
				staff.POST("/:id/cancel", sessionHandler.Cancel)
				staff.DELETE("/:id", sessionHandler.Delete)
				staff.POST("/:id/recordings", sessionHandler.StartRecording)
			}
		}

		questions := v1.Group("/questions")
		questions.Use(middleware.AuthRequired(), middleware.InstructorRequired())
		{
			questions.POST("/:id/answer", sessionHandler.AnswerQuestion)
		}

		// Community board
		posts := v1.Group("/posts")
		{
			posts.GET("", boardHandler.Search)
			posts.GET("/:id", boardHandler.Get)

			protected := posts.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", boardHandler.Create)
				protected.PUT("/:id", boardHandler.Update)
				protected.DELETE("/:id", boardHandler.Delete)
				protected.POST("/:id/comments", boardHandler.CreateComment)
			}
		}

		comments := v1.Group("/comments")
		comments.Use(middleware.AuthRequired())
		{
			comments.DELETE("/:id", boardHandler.DeleteComment)
		}

		// Assignments
		assignments := v1.Group("/assignments")
		assignments.Use(middleware.AuthRequired())
		{
			assignments.GET("/:id", assignmentHandler.Get)
			assignments.POST("/:id/submissions", middleware.UploadRateLimit(), assignmentHandler.Submit)
			assignments.GET("/:id/submissions", middleware.InstructorRequired(), assignmentHandler.ListSubmissions)
			assignments.GET("/:id/submissions/me", assignmentHandler.GetMySubmission)
		}

		submissions := v1.Group("/submissions")
		submissions.Use(middleware.AuthRequired(), middleware.InstructorRequired())
		{
			submissions.POST("/:id/grade", assignmentHandler.Grade)
		}

		// Notifications
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.ListMine)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.ListUsers)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
				adminUsers.PUT("/:id/role", adminHandler.UpdateUserRole)
			}

			adminPayments := admin.Group("/payments")
			{
				adminPayments.GET("", paymentHandler.ListAll)
				adminPayments.POST("/refund", paymentHandler.Refund)
			}

			adminRewards := admin.Group("/rewards")
			{
				adminRewards.GET("", adminHandler.ListPendingRewards)
				adminRewards.POST("/:id/pay", adminHandler.PayReward)
			}

			admin.GET("/audit-logs", adminHandler.AuditLogs)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
