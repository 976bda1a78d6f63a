package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rakeshsingh12700/dearstudent62-storefront/middleware"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
)

// CheckoutController prices carts and checks coupons against them.
type CheckoutController struct {
	checkout services.CheckoutService
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(checkout services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

// Quote handles POST /checkout/quote.
func (cc *CheckoutController) Quote(ctx *gin.Context) {
	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	quote, svcErr := cc.checkout.QuoteCheckout(ctx.Request.Context(), &req, middleware.GetBuyer(ctx), false)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "quote": quote})
}

// ValidateCoupon handles POST /coupons/validate.
func (cc *CheckoutController) ValidateCoupon(ctx *gin.Context) {
	var req models.ValidateCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	quote, svcErr := cc.checkout.QuoteCheckout(ctx.Request.Context(), req.CheckoutRequest(), middleware.GetBuyer(ctx), req.AllowZeroFinalAmount)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "coupon": quote.Coupon, "quote": quote})
}

// AvailableCoupons handles POST /coupons/available.
func (cc *CheckoutController) AvailableCoupons(ctx *gin.Context) {
	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	coupons, svcErr := cc.checkout.AvailableCoupons(ctx.Request.Context(), &req, middleware.GetBuyer(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "coupons": coupons})
}
