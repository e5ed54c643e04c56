// internal/handlers/cron.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

// CronHandler exposes scheduled maintenance jobs. Routes are protected by the
// cron bearer secret, not user auth.
type CronHandler struct {
	couponService *services.CouponService
}

func NewCronHandler(couponService *services.CouponService) *CronHandler {
	return &CronHandler{
		couponService: couponService,
	}
}

// POST /cron/coupon-sweep
func (h *CronHandler) CouponSweep(c *gin.Context) {
	result, err := h.couponService.RunCompletionSweep()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	logrus.WithFields(logrus.Fields{
		"scanned": result.Scanned,
		"issued":  result.Issued,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Coupon sweep finished")

	utils.SuccessResponse(c, result)
}

// POST /cron/expire-coupons
func (h *CronHandler) ExpireCoupons(c *gin.Context) {
	expired, err := h.couponService.ExpireOverdue()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"expired": expired})
}
