// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

// currentUserID reads the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	return userID, true
}

func isAdmin(c *gin.Context) bool {
	role, _ := utils.GetUserRoleFromContext(c)
	return role == "admin"
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service sentinel errors onto HTTP statuses.
// Ownership failures are 403, missing resources 404, and everything else is
// 400: bad state transitions, duplicate enrollments and submissions included.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrEnrollmentNotFound),
		errors.Is(err, services.ErrPaymentNotFound):
		utils.NotFoundResponse(c, resourceKey(err))
	case errors.Is(err, services.ErrNotSessionOwner),
		errors.Is(err, services.ErrNotCourseOwner),
		errors.Is(err, services.ErrNotAuthor),
		errors.Is(err, services.ErrNotEnrolled):
		utils.ForbiddenResponse(c, err.Error())
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}

func resourceKey(err error) string {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return "session"
	case errors.Is(err, services.ErrCourseNotFound):
		return "course"
	case errors.Is(err, services.ErrPostNotFound):
		return "post"
	case errors.Is(err, services.ErrAssignmentNotFound), errors.Is(err, services.ErrSubmissionNotFound):
		return "assignment"
	case errors.Is(err, services.ErrEnrollmentNotFound):
		return "enrollment"
	case errors.Is(err, services.ErrPaymentNotFound):
		return "payment"
	default:
		return "resource"
	}
}
