package controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rakeshsingh12700/dearstudent62-storefront/controllers"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCheckoutRouter(svc services.CheckoutService, signedIn bool) *gin.Engine {
	r := gin.New()
	if signedIn {
		withBuyer(r)
	}
	cc := controllers.NewCheckoutController(svc)
	r.POST("/checkout/quote", cc.Quote)
	r.POST("/coupons/validate", cc.ValidateCoupon)
	r.POST("/coupons/available", cc.AvailableCoupons)
	return r
}

func sampleQuote(final float64, coupon *models.CouponSummary) *models.CheckoutQuote {
	return &models.CheckoutQuote{
		Pricing:     &models.CheckoutPricing{OrderCurrency: "INR", TotalAmount: 449},
		Coupon:      coupon,
		FinalAmount: final,
	}
}

func TestController_CheckoutQuote(t *testing.T) {
	svc := &mockCheckoutService{
		quoteFn: func(_ context.Context, req *models.CheckoutRequest, buyer models.Buyer, allowZero bool) (*models.CheckoutQuote, *services.ServiceError) {
			assert.Len(t, req.Items, 1)
			assert.Equal(t, "IN", req.Country)
			assert.Equal(t, models.Buyer{}, buyer)
			assert.False(t, allowZero)
			return sampleQuote(449, nil), nil
		},
	}
	r := setupCheckoutRouter(svc, false)

	w := doJSON(r, http.MethodPost, "/checkout/quote", gin.H{
		"items":   []gin.H{{"product_id": "p1", "quantity": 1}},
		"country": "IN",
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(w)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(449), resp["quote"].(map[string]interface{})["final_amount"])
}

func TestController_CheckoutQuote_BadRequest(t *testing.T) {
	r := setupCheckoutRouter(&mockCheckoutService{}, false)

	w := doJSON(r, http.MethodPost, "/checkout/quote", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(w)
	assert.Equal(t, "Invalid request", resp["error"])
	assert.Equal(t, false, resp["ok"])
}

func TestController_CheckoutQuote_ServiceError(t *testing.T) {
	svc := &mockCheckoutService{
		quoteFn: func(context.Context, *models.CheckoutRequest, models.Buyer, bool) (*models.CheckoutQuote, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: http.StatusBadRequest, Code: services.CodeMixedCurrencies, Message: "Mixed currencies in cart"}
		},
	}
	r := setupCheckoutRouter(svc, false)

	w := doJSON(r, http.MethodPost, "/checkout/quote", gin.H{"items": []gin.H{{"product_id": "p1", "quantity": 1}}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(w)
	assert.Equal(t, "Mixed currencies in cart", resp["error"])
	assert.Equal(t, services.CodeMixedCurrencies, resp["code"])
}

func TestController_ValidateCoupon_PassesBuyerAndFlags(t *testing.T) {
	svc := &mockCheckoutService{
		quoteFn: func(_ context.Context, req *models.CheckoutRequest, buyer models.Buyer, allowZero bool) (*models.CheckoutQuote, *services.ServiceError) {
			assert.Equal(t, "SAVE20", req.CouponCode)
			assert.Equal(t, testBuyerEmail, buyer.Email)
			assert.Equal(t, testBuyerID, buyer.UserID)
			assert.True(t, allowZero)
			return sampleQuote(359, &models.CouponSummary{Code: "SAVE20", DiscountAmount: 90, FinalAmount: 359}), nil
		},
	}
	r := setupCheckoutRouter(svc, true)

	w := doJSON(r, http.MethodPost, "/coupons/validate", gin.H{
		"code":                    "SAVE20",
		"items":                   []gin.H{{"product_id": "p1", "quantity": 1}},
		"allow_zero_final_amount": true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	coupon := decode(w)["coupon"].(map[string]interface{})
	assert.Equal(t, "SAVE20", coupon["code"])
	assert.Equal(t, float64(90), coupon["discount_amount"])
}

func TestController_ValidateCoupon_Rejected(t *testing.T) {
	svc := &mockCheckoutService{
		quoteFn: func(context.Context, *models.CheckoutRequest, models.Buyer, bool) (*models.CheckoutQuote, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: http.StatusForbidden, Code: services.CodeCouponRestricted, Message: "This coupon is restricted to another account"}
		},
	}
	r := setupCheckoutRouter(svc, true)

	w := doJSON(r, http.MethodPost, "/coupons/validate", gin.H{"code": "VIP", "items": []gin.H{{"product_id": "p1", "quantity": 1}}})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.CodeCouponRestricted, decode(w)["code"])
}

func TestController_ValidateCoupon_MissingCode(t *testing.T) {
	r := setupCheckoutRouter(&mockCheckoutService{}, false)

	w := doJSON(r, http.MethodPost, "/coupons/validate", gin.H{"items": []gin.H{{"product_id": "p1", "quantity": 1}}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestController_AvailableCoupons(t *testing.T) {
	svc := &mockCheckoutService{
		availableFn: func(_ context.Context, _ *models.CheckoutRequest, buyer models.Buyer) ([]models.CouponSummary, *services.ServiceError) {
			assert.Equal(t, testBuyerEmail, buyer.Email)
			return []models.CouponSummary{{Code: "BIG", DiscountAmount: 100}, {Code: "SMALL", DiscountAmount: 10}}, nil
		},
	}
	r := setupCheckoutRouter(svc, true)

	w := doJSON(r, http.MethodPost, "/coupons/available", gin.H{"items": []gin.H{{"product_id": "p1", "quantity": 1}}})

	require.Equal(t, http.StatusOK, w.Code)
	coupons := decode(w)["coupons"].([]interface{})
	require.Len(t, coupons, 2)
	assert.Equal(t, "BIG", coupons[0].(map[string]interface{})["code"])
}
