// internal/handlers/assignment.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/modooclass/modoo-backend/internal/i18n"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type AssignmentHandler struct {
	assignmentService *services.AssignmentService
}

func NewAssignmentHandler(assignmentService *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
	}
}

// POST /courses/:id/assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	assignment, err := h.assignmentService.Create(courseID, userID, isAdmin(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"assignment": assignment})
}

// GET /courses/:id/assignments
func (h *AssignmentHandler) ListForCourse(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	assignments, total, err := h.assignmentService.ListForCourse(courseID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(assignments, total, params))
}

// GET /assignments/:id
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.Get(assignmentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"assignment": assignment})
}

// POST /assignments/:id/submissions
func (h *AssignmentHandler) Submit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "File is required", err.Error())
		return
	}
	defer file.Close()

	submission, err := h.assignmentService.Submit(assignmentID, userID, file, header)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentSubmitted),
		"submission": submission,
	})
}

// GET /assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	submissions, total, err := h.assignmentService.ListSubmissions(assignmentID, userID, isAdmin(c), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(submissions, total, params))
}

// GET /assignments/:id/submissions/me
func (h *AssignmentHandler) GetMySubmission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	submission, err := h.assignmentService.GetMySubmission(assignmentID, userID)
	if err != nil {
		if errors.Is(err, services.ErrSubmissionNotFound) {
			utils.NotFoundResponse(c, "assignment")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"submission": submission})
}

// POST /submissions/:id/grade
func (h *AssignmentHandler) Grade(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	submission, err := h.assignmentService.Grade(submissionID, userID, isAdmin(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentGraded),
		"submission": submission,
	})
}
