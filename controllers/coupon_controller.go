package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rakeshsingh12700/dearstudent62-storefront/middleware"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
)

// CouponController handles admin coupon management.
type CouponController struct {
	couponService services.CouponService
}

// NewCouponController creates a new CouponController.
func NewCouponController(couponService services.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

// CreateCoupon handles POST /admin/coupons.
func (cc *CouponController) CreateCoupon(ctx *gin.Context) {
	var req models.CreateCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	coupon, svcErr := cc.couponService.CreateCoupon(ctx.Request.Context(), &req, middleware.GetBuyer(ctx).Email)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"ok": true, "coupon": coupon})
}

// ListCoupons handles GET /admin/coupons.
func (cc *CouponController) ListCoupons(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	coupons, total, svcErr := cc.couponService.ListCoupons(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "coupons": coupons, "meta": paginationMeta(page, limit, total)})
}

// GetCoupon handles GET /admin/coupons/:id.
func (cc *CouponController) GetCoupon(ctx *gin.Context) {
	id, ok := couponID(ctx)
	if !ok {
		return
	}

	coupon, svcErr := cc.couponService.GetCoupon(ctx.Request.Context(), id)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "coupon": coupon})
}

// DisableCoupon handles POST /admin/coupons/:id/disable.
func (cc *CouponController) DisableCoupon(ctx *gin.Context) {
	cc.updateCoupon(ctx, cc.couponService.DisableCoupon)
}

// EnableCoupon handles POST /admin/coupons/:id/enable.
func (cc *CouponController) EnableCoupon(ctx *gin.Context) {
	cc.updateCoupon(ctx, cc.couponService.EnableCoupon)
}

// ResetCouponUsage handles POST /admin/coupons/:id/reset.
func (cc *CouponController) ResetCouponUsage(ctx *gin.Context) {
	cc.updateCoupon(ctx, cc.couponService.ResetCouponUsage)
}

func (cc *CouponController) updateCoupon(ctx *gin.Context, update func(context.Context, uuid.UUID, string) (*models.CouponView, *services.ServiceError)) {
	id, ok := couponID(ctx)
	if !ok {
		return
	}

	coupon, svcErr := update(ctx.Request.Context(), id, middleware.GetBuyer(ctx).Email)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "coupon": coupon})
}

// ListCouponUsages handles GET /admin/coupons/:id/usages.
func (cc *CouponController) ListCouponUsages(ctx *gin.Context) {
	id, ok := couponID(ctx)
	if !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	usages, total, svcErr := cc.couponService.ListCouponUsages(ctx.Request.Context(), id, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "usages": usages, "meta": paginationMeta(page, limit, total)})
}

// GenerateCode handles POST /admin/coupons/generate-code.
func (cc *CouponController) GenerateCode(ctx *gin.Context) {
	var req struct {
		Prefix string `json:"prefix" binding:"max=32"`
	}
	// An empty body generates an unprefixed code.
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			respondBindError(ctx, err)
			return
		}
	}

	code, svcErr := cc.couponService.GenerateUniqueCode(ctx.Request.Context(), req.Prefix)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "code": code})
}

func couponID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid coupon id", "code": services.CodeInvalidRequest})
		return uuid.Nil, false
	}
	return id, true
}
