package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rakeshsingh12700/dearstudent62-storefront/controllers"
	"github.com/rakeshsingh12700/dearstudent62-storefront/middleware"
)

// Controllers groups the handlers mounted by RegisterRoutes.
type Controllers struct {
	Pricing  *controllers.PricingController
	Checkout *controllers.CheckoutController
	Coupons  *controllers.CouponController
	Payments *controllers.PaymentController
	Download *controllers.DownloadController
}

// RegisterRoutes sets up the storefront API. validateLimit is applied to
// every public endpoint that checks a coupon code, to slow down code guessing.
func RegisterRoutes(r *gin.Engine, c Controllers, auth *middleware.Authenticator, validateLimit gin.HandlerFunc) {
	pricingRoutes := r.Group("/pricing")
	pricingRoutes.GET("/quote", c.Pricing.Quote)
	pricingRoutes.GET("/products/:id", c.Pricing.ProductPrice)

	r.POST("/checkout/quote", validateLimit, auth.OptionalAuth(), c.Checkout.Quote)

	couponRoutes := r.Group("/coupons")
	couponRoutes.Use(validateLimit)
	couponRoutes.POST("/validate", auth.OptionalAuth(), c.Checkout.ValidateCoupon)
	couponRoutes.POST("/available", auth.RequireAuth(), c.Checkout.AvailableCoupons)

	paymentRoutes := r.Group("/payments")
	paymentRoutes.Use(auth.RequireAuth())
	paymentRoutes.POST("/orders", c.Payments.CreateOrder)
	paymentRoutes.POST("/confirm", c.Payments.Confirm)

	r.GET("/downloads/:token", c.Download.Redeem)

	// Admin-only routes
	adminRoutes := r.Group("/admin/coupons")
	adminRoutes.Use(auth.RequireAuth(), auth.AdminOnly())
	adminRoutes.POST("", c.Coupons.CreateCoupon)
	adminRoutes.GET("", c.Coupons.ListCoupons)
	adminRoutes.POST("/generate-code", c.Coupons.GenerateCode)
	adminRoutes.GET("/:id", c.Coupons.GetCoupon)
	adminRoutes.POST("/:id/disable", c.Coupons.DisableCoupon)
	adminRoutes.POST("/:id/enable", c.Coupons.EnableCoupon)
	adminRoutes.POST("/:id/reset", c.Coupons.ResetCouponUsage)
	adminRoutes.GET("/:id/usages", c.Coupons.ListCouponUsages)
}
