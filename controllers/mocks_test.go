package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rakeshsingh12700/dearstudent62-storefront/controllers"
	"github.com/rakeshsingh12700/dearstudent62-storefront/middleware"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := controllers.RegisterValidators(); err != nil {
		panic(err)
	}
}

// --- Mock CheckoutService ---

type mockCheckoutService struct {
	pricingFn   func(ctx context.Context, items []models.CheckoutItem, country, currency string) (*models.CheckoutPricing, *services.ServiceError)
	quoteFn     func(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer, allowZeroFinal bool) (*models.CheckoutQuote, *services.ServiceError)
	availableFn func(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) ([]models.CouponSummary, *services.ServiceError)
	productFn   func(ctx context.Context, productID, country, currency string) (*models.Product, *pricing.Quote, *services.ServiceError)
}

func (m *mockCheckoutService) ComputeCheckoutPricing(ctx context.Context, items []models.CheckoutItem, country, currency string) (*models.CheckoutPricing, *services.ServiceError) {
	return m.pricingFn(ctx, items, country, currency)
}
func (m *mockCheckoutService) QuoteCheckout(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer, allowZeroFinal bool) (*models.CheckoutQuote, *services.ServiceError) {
	return m.quoteFn(ctx, req, buyer, allowZeroFinal)
}
func (m *mockCheckoutService) AvailableCoupons(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) ([]models.CouponSummary, *services.ServiceError) {
	return m.availableFn(ctx, req, buyer)
}
func (m *mockCheckoutService) PriceProduct(ctx context.Context, productID, country, currency string) (*models.Product, *pricing.Quote, *services.ServiceError) {
	return m.productFn(ctx, productID, country, currency)
}

// --- Mock CouponService ---

type mockCouponService struct {
	validateFn func(ctx context.Context, in models.ValidateCouponInput) (*models.CouponSummary, *services.ServiceError)
	visibleFn  func(ctx context.Context, in models.ValidateCouponInput) ([]models.CouponSummary, *services.ServiceError)
	consumeFn  func(ctx context.Context, in models.ConsumeCouponInput) (*models.ConsumeCouponResult, *services.ServiceError)
	createFn   func(ctx context.Context, req *models.CreateCouponRequest, adminEmail string) (*models.CouponView, *services.ServiceError)
	listFn     func(ctx context.Context, page, limit int) ([]models.CouponView, int64, *services.ServiceError)
	getFn      func(ctx context.Context, id uuid.UUID) (*models.CouponView, *services.ServiceError)
	disableFn  func(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *services.ServiceError)
	enableFn   func(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *services.ServiceError)
	resetFn    func(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *services.ServiceError)
	usagesFn   func(ctx context.Context, id uuid.UUID, page, limit int) ([]models.CouponUsage, int64, *services.ServiceError)
	generateFn func(ctx context.Context, prefix string) (string, *services.ServiceError)
}

func (m *mockCouponService) ValidateCouponForCheckout(ctx context.Context, in models.ValidateCouponInput) (*models.CouponSummary, *services.ServiceError) {
	return m.validateFn(ctx, in)
}
func (m *mockCouponService) ListCheckoutVisibleCoupons(ctx context.Context, in models.ValidateCouponInput) ([]models.CouponSummary, *services.ServiceError) {
	return m.visibleFn(ctx, in)
}
func (m *mockCouponService) ConsumeCouponUsage(ctx context.Context, in models.ConsumeCouponInput) (*models.ConsumeCouponResult, *services.ServiceError) {
	return m.consumeFn(ctx, in)
}
func (m *mockCouponService) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest, adminEmail string) (*models.CouponView, *services.ServiceError) {
	return m.createFn(ctx, req, adminEmail)
}
func (m *mockCouponService) ListCoupons(ctx context.Context, page, limit int) ([]models.CouponView, int64, *services.ServiceError) {
	return m.listFn(ctx, page, limit)
}
func (m *mockCouponService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.CouponView, *services.ServiceError) {
	return m.getFn(ctx, id)
}
func (m *mockCouponService) DisableCoupon(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *services.ServiceError) {
	return m.disableFn(ctx, id, adminEmail)
}
func (m *mockCouponService) EnableCoupon(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *services.ServiceError) {
	return m.enableFn(ctx, id, adminEmail)
}
func (m *mockCouponService) ResetCouponUsage(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *services.ServiceError) {
	return m.resetFn(ctx, id, adminEmail)
}
func (m *mockCouponService) ListCouponUsages(ctx context.Context, id uuid.UUID, page, limit int) ([]models.CouponUsage, int64, *services.ServiceError) {
	return m.usagesFn(ctx, id, page, limit)
}
func (m *mockCouponService) GenerateUniqueCode(ctx context.Context, prefix string) (string, *services.ServiceError) {
	return m.generateFn(ctx, prefix)
}

// --- Mock PaymentService ---

type mockPaymentService struct {
	createFn  func(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) (*models.CreatePaymentOrderResponse, *services.ServiceError)
	confirmFn func(ctx context.Context, req *models.ConfirmPaymentRequest, buyer models.Buyer) (*models.ConfirmPaymentResponse, *services.ServiceError)
}

func (m *mockPaymentService) CreatePaymentOrder(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) (*models.CreatePaymentOrderResponse, *services.ServiceError) {
	return m.createFn(ctx, req, buyer)
}
func (m *mockPaymentService) ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest, buyer models.Buyer) (*models.ConfirmPaymentResponse, *services.ServiceError) {
	return m.confirmFn(ctx, req, buyer)
}

// --- Mock DownloadService ---

type mockDownloadService struct {
	issueFn  func(ctx context.Context, orderID, email string, items []models.PurchaseItem) ([]models.DownloadGrant, *services.ServiceError)
	redeemFn func(ctx context.Context, token string) (*models.DownloadLink, *services.ServiceError)
}

func (m *mockDownloadService) IssueGrants(ctx context.Context, orderID, email string, items []models.PurchaseItem) ([]models.DownloadGrant, *services.ServiceError) {
	return m.issueFn(ctx, orderID, email, items)
}
func (m *mockDownloadService) Redeem(ctx context.Context, token string) (*models.DownloadLink, *services.ServiceError) {
	return m.redeemFn(ctx, token)
}

// --- Helpers ---

const (
	testBuyerEmail = "asha@example.com"
	testBuyerID    = "user-test-id"
)

// withBuyer plays the role of the auth middleware.
func withBuyer(r *gin.Engine) *gin.Engine {
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, testBuyerID)
		c.Set(middleware.EmailKey, testBuyerEmail)
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}
