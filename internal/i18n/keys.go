// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAccessDenied           = "auth.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserProfileUpdated = "user.profile_updated"

	// Courses
	KeyCourseCreated  = "course.created"
	KeyCourseUpdated  = "course.updated"
	KeyCourseDeleted  = "course.deleted"
	KeyCourseNotFound = "course.not_found"

	// Enrollments
	KeyEnrollmentCreated   = "enrollment.created"
	KeyEnrollmentDuplicate = "enrollment.duplicate"
	KeyEnrollmentNotFound  = "enrollment.not_found"
	KeyEnrollmentCompleted = "enrollment.completed"

	// Payments
	KeyPaymentSuccess  = "payment.success"
	KeyPaymentFailed   = "payment.failed"
	KeyPaymentRefunded = "payment.refunded"
	KeyPaymentNotFound = "payment.not_found"

	// Live sessions
	KeySessionCreated   = "session.created"
	KeySessionStarted   = "session.started"
	KeySessionEnded     = "session.ended"
	KeySessionCancelled = "session.cancelled"
	KeySessionNotFound  = "session.not_found"

	// Coupons
	KeyCouponIssued   = "coupon.issued"
	KeyCouponNotFound = "coupon.not_found"

	// Referrals
	KeyReferralRewardPaid = "referral.reward_paid"
	KeyReferralNotFound   = "referral.not_found"

	// Board
	KeyPostCreated  = "post.created"
	KeyPostUpdated  = "post.updated"
	KeyPostDeleted  = "post.deleted"
	KeyPostNotFound = "post.not_found"

	// Assignments
	KeyAssignmentSubmitted = "assignment.submitted"
	KeyAssignmentGraded    = "assignment.graded"
	KeyAssignmentNotFound  = "assignment.not_found"
)
