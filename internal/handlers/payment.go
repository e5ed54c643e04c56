// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/modooclass/modoo-backend/internal/i18n"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /payments/intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	resp, err := h.paymentService.CreatePaymentIntent(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// POST /payments/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	payment, err := h.paymentService.ConfirmPayment(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentSuccess),
		"payment": payment,
	})
}

// GET /payments
func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	payments, total, err := h.paymentService.GetPaymentHistory(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payments, total, params))
}

// POST /admin/payments/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	payment, err := h.paymentService.ProcessRefund(&req, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentRefunded),
		"payment": payment,
	})
}

// GET /admin/payments
func (h *PaymentHandler) ListAll(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var status *models.PaymentStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.PaymentStatus(statusStr)
		status = &s
	}

	payments, total, err := h.paymentService.ListAll(params, status)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payments, total, params))
}
