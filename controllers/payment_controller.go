package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rakeshsingh12700/dearstudent62-storefront/middleware"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
)

// PaymentController handles gateway order creation and confirmation.
type PaymentController struct {
	payments services.PaymentService
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(payments services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// CreateOrder handles POST /payments/orders.
func (pc *PaymentController) CreateOrder(ctx *gin.Context) {
	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	order, svcErr := pc.payments.CreatePaymentOrder(ctx.Request.Context(), &req, middleware.GetBuyer(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"ok": true, "order": order})
}

// Confirm handles POST /payments/confirm.
func (pc *PaymentController) Confirm(ctx *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, svcErr := pc.payments.ConfirmPayment(ctx.Request.Context(), &req, middleware.GetBuyer(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "payment": resp})
}
