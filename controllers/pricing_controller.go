package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
)

// PricingController serves regional price quotes.
type PricingController struct {
	calc     *pricing.Calculator
	checkout services.CheckoutService
}

// NewPricingController creates a new PricingController.
func NewPricingController(calc *pricing.Calculator, checkout services.CheckoutService) *PricingController {
	return &PricingController{calc: calc, checkout: checkout}
}

// Quote handles GET /pricing/quote?price=&country=&currency=&quantity=.
func (pc *PricingController) Quote(ctx *gin.Context) {
	price, err := strconv.ParseFloat(ctx.Query("price"), 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "price must be a non-negative number", "code": services.CodeInvalidRequest})
		return
	}

	quote := pc.calc.CalculatePrice(price, ctx.Query("country"), ctx.Query("currency"))
	resp := gin.H{"ok": true, "quote": quote}

	if q := ctx.Query("quantity"); q != "" {
		qty, err := strconv.Atoi(q)
		if err != nil || qty < 1 {
			ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "quantity must be a positive integer", "code": services.CodeInvalidRequest})
			return
		}
		rate := pricing.LaunchDiscountRate(qty)
		resp["launch_discount_rate"] = rate
		resp["discounted_amount"] = pricing.ApplyLaunchDiscount(quote.Amount, rate, quote.Currency)
	}

	ctx.JSON(http.StatusOK, resp)
}

// ProductPrice handles GET /pricing/products/:id.
func (pc *PricingController) ProductPrice(ctx *gin.Context) {
	product, quote, svcErr := pc.checkout.PriceProduct(ctx.Request.Context(), ctx.Param("id"), ctx.Query("country"), ctx.Query("currency"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"product_id": product.ID,
		"title":      product.Title,
		"quote":      quote,
	})
}
