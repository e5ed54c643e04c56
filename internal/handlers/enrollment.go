// internal/handlers/enrollment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/modooclass/modoo-backend/internal/i18n"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
	}
}

// POST /courses/:id/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.EnrollFree(userID, courseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyEnrollmentCreated),
		"enrollment": enrollment,
	})
}

// GET /enrollments
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	enrollments, total, err := h.enrollmentService.GetUserEnrollments(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(enrollments, total, params))
}

// GET /courses/:id/enrollments
func (h *EnrollmentHandler) ListForCourse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	enrollments, total, err := h.enrollmentService.GetCourseEnrollments(courseID, userID, isAdmin(c), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(enrollments, total, params))
}

// POST /enrollments/:id/complete
func (h *EnrollmentHandler) MarkCompleted(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrollmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.MarkCompleted(enrollmentID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyEnrollmentCompleted),
		"enrollment": enrollment,
	})
}
