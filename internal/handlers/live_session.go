// internal/handlers/live_session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modooclass/modoo-backend/internal/i18n"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type LiveSessionHandler struct {
	sessionService *services.LiveSessionService
}

func NewLiveSessionHandler(sessionService *services.LiveSessionService) *LiveSessionHandler {
	return &LiveSessionHandler{
		sessionService: sessionService,
	}
}

// POST /sessions
func (h *LiveSessionHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	session, err := h.sessionService.Create(userID, isAdmin(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySessionCreated),
		"session": session,
	})
}

// GET /sessions
func (h *LiveSessionHandler) Search(c *gin.Context) {
	params := services.SessionSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if courseStr := c.Query("course_id"); courseStr != "" {
		if id, err := uuid.Parse(courseStr); err == nil {
			params.CourseID = &id
		}
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.SessionStatus(statusStr)
		params.Status = &status
	}

	sessions, total, err := h.sessionService.Search(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(sessions, total, params.PaginationParams))
}

// GET /sessions/:id
func (h *LiveSessionHandler) Get(c *gin.Context) {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Get(sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"session": session})
}

// POST /sessions/:id/start
func (h *LiveSessionHandler) Start(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), sessionID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySessionStarted),
		"session": session,
	})
}

// POST /sessions/:id/end
func (h *LiveSessionHandler) End(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.End(c.Request.Context(), sessionID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySessionEnded),
		"session": session,
	})
}

// POST /sessions/:id/cancel
func (h *LiveSessionHandler) Cancel(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Cancel(sessionID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySessionCancelled),
		"session": session,
	})
}

// DELETE /sessions/:id
func (h *LiveSessionHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.Delete(sessionID, userID, isAdmin(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// POST /sessions/:id/join
func (h *LiveSessionHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	token, session, err := h.sessionService.JoinToken(sessionID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"token":     token,
		"room_name": session.RoomName,
	})
}

// POST /sessions/:id/recordings
func (h *LiveSessionHandler) StartRecording(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recording, err := h.sessionService.StartRecording(c.Request.Context(), sessionID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"recording": recording})
}

// POST /sessions/:id/chat
func (h *LiveSessionHandler) AddChatMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" validate:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	msg, err := h.sessionService.AddChatMessage(sessionID, userID, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"chat_message": msg})
}

// POST /sessions/:id/questions
func (h *LiveSessionHandler) AddQuestion(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" validate:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	question, err := h.sessionService.AddQuestion(sessionID, userID, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"question": question})
}

// GET /sessions/:id/chat
func (h *LiveSessionHandler) ListChatMessages(c *gin.Context) {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	messages, total, err := h.sessionService.ListChatMessages(sessionID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(messages, total, params))
}

// GET /sessions/:id/questions
func (h *LiveSessionHandler) ListQuestions(c *gin.Context) {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	questions, total, err := h.sessionService.ListQuestions(sessionID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(questions, total, params))
}

// POST /questions/:id/answer
func (h *LiveSessionHandler) AnswerQuestion(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Answer string `json:"answer" validate:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	question, err := h.sessionService.AnswerQuestion(questionID, userID, isAdmin(c), req.Answer)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"question": question})
}
