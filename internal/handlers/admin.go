// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modooclass/modoo-backend/internal/i18n"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := services.AdminUserFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Query:            c.Query("q"),
	}

	if roleStr := c.Query("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		filter.Role = &role
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.UserStatus(statusStr)
		filter.Status = &status
	}

	users, total, err := h.adminService.ListUsers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, filter.PaginationParams))
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" validate:"required,oneof=active suspended banned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	user, err := h.adminService.UpdateUserStatus(userID, req.Status, adminID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// PUT /admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role models.UserRole `json:"role" validate:"required,oneof=student instructor admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	user, err := h.adminService.UpdateUserRole(userID, req.Role, adminID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// GET /admin/rewards
func (h *AdminHandler) ListPendingRewards(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	rewards, total, err := h.adminService.ListPendingRewards(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(rewards, total, params))
}

// POST /admin/rewards/:id/pay
func (h *AdminHandler) PayReward(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	rewardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reward, err := h.adminService.PayReferralReward(rewardID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyReferralRewardPaid),
		"reward":  reward,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	filter := services.AuditLogFilter{
		PaginationParams: utils.GetPaginationParams(c),
		ResourceType:     c.Query("resource_type"),
		Action:           c.Query("action"),
	}

	if userStr := c.Query("user_id"); userStr != "" {
		if id, err := uuid.Parse(userStr); err == nil {
			filter.UserID = &id
		}
	}

	logs, total, err := h.adminService.GetAuditLogs(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, filter.PaginationParams))
}
