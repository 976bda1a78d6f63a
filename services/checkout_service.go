package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	aws_pkg "github.com/rakeshsingh12700/dearstudent62-storefront/pkg/aws"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
	"github.com/rakeshsingh12700/dearstudent62-storefront/repository"
	"go.uber.org/zap"
)

const (
	MaxItemQuantity  = 20
	MaxCheckoutItems = 25
)

// CheckoutService prices carts and applies coupons to them.
type CheckoutService interface {
	ComputeCheckoutPricing(ctx context.Context, items []models.CheckoutItem, country, currency string) (*models.CheckoutPricing, *ServiceError)
	QuoteCheckout(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer, allowZeroFinal bool) (*models.CheckoutQuote, *ServiceError)
	AvailableCoupons(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) ([]models.CouponSummary, *ServiceError)
	PriceProduct(ctx context.Context, productID, country, currency string) (*models.Product, *pricing.Quote, *ServiceError)
}

type checkoutServiceImpl struct {
	products repository.ProductRepository
	coupons  CouponService
	calc     *pricing.Calculator
	logger   *zap.Logger
	opts     serviceOptions
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	products repository.ProductRepository,
	coupons CouponService,
	calc *pricing.Calculator,
	logger *zap.Logger,
	opts ...Option,
) CheckoutService {
	return &checkoutServiceImpl{
		products: products,
		coupons:  coupons,
		calc:     calc,
		logger:   logger,
		opts:     buildOptions(opts),
	}
}

// NormalizeCheckoutItems drops lines without a product id or with a quantity
// outside 1..MaxItemQuantity, keeps the first occurrence of each product and
// caps the cart at MaxCheckoutItems lines.
func NormalizeCheckoutItems(items []models.CheckoutItem) []models.CheckoutItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.CheckoutItem, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" || it.Quantity < 1 || it.Quantity > MaxItemQuantity {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, models.CheckoutItem{ProductID: id, Quantity: it.Quantity})
		if len(out) == MaxCheckoutItems {
			break
		}
	}
	return out
}

func (s *checkoutServiceImpl) ComputeCheckoutPricing(ctx context.Context, items []models.CheckoutItem, country, currency string) (*models.CheckoutPricing, *ServiceError) {
	valid := NormalizeCheckoutItems(items)
	if len(valid) == 0 {
		return nil, newError(http.StatusBadRequest, CodeNoValidItems, "No valid items in cart")
	}

	ids := make([]string, 0, len(valid))
	for _, it := range valid {
		ids = append(ids, it.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load products", zap.Strings("product_ids", ids), zap.Error(err))
		return nil, internalError
	}

	result := &models.CheckoutPricing{}
	for _, it := range valid {
		product, ok := catalog[it.ProductID]
		if !ok || !product.Purchasable() {
			s.logger.Debug("Skipping unpriced product", zap.String("product_id", it.ProductID))
			continue
		}

		quote := s.calc.CalculatePrice(product.PriceINR, country, currency)
		if quote.Amount <= 0 {
			continue
		}
		if result.OrderCurrency == "" {
			result.OrderCurrency = quote.Currency
			result.Symbol = quote.Symbol
			result.Locale = quote.Locale
			result.Tier = quote.Tier
			result.Country = quote.Country
		} else if quote.Currency != result.OrderCurrency {
			return nil, newError(http.StatusBadRequest, CodeMixedCurrencies, "Mixed currencies in cart")
		}

		result.Items = append(result.Items, models.PricedItem{
			ProductID:     product.ID,
			Title:         product.Title,
			Quantity:      it.Quantity,
			BasePriceINR:  product.PriceINR,
			RegionalPrice: quote.Amount,
		})
		result.TotalQuantity += it.Quantity
	}

	if len(result.Items) == 0 {
		return nil, newError(http.StatusBadRequest, CodeNoPricedItems, "None of the requested items could be priced")
	}

	cur := result.OrderCurrency
	result.LaunchDiscountRate = pricing.LaunchDiscountRate(result.TotalQuantity)

	var subtotal, total float64
	for i := range result.Items {
		it := &result.Items[i]
		it.UnitPrice = pricing.ApplyLaunchDiscount(it.RegionalPrice, result.LaunchDiscountRate, cur)
		it.LineTotal = pricing.RoundMoney(it.UnitPrice*float64(it.Quantity), cur)
		subtotal += it.RegionalPrice * float64(it.Quantity)
		total += it.LineTotal
	}
	result.SubtotalAmount = pricing.RoundMoney(subtotal, cur)
	result.TotalAmount = pricing.RoundMoney(total, cur)
	result.LaunchDiscountAmount = pricing.RoundMoney(result.SubtotalAmount-result.TotalAmount, cur)

	if result.TotalAmount <= 0 {
		return nil, newError(http.StatusBadRequest, CodeInvalidTotal, "Order total must be positive")
	}
	return result, nil
}

// QuoteCheckout prices the cart and, when a coupon code is given, validates
// it against the priced total.
func (s *checkoutServiceImpl) QuoteCheckout(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer, allowZeroFinal bool) (*models.CheckoutQuote, *ServiceError) {
	priced, svcErr := s.ComputeCheckoutPricing(ctx, req.Items, req.Country, req.Currency)
	if svcErr != nil {
		return nil, svcErr
	}

	quote := &models.CheckoutQuote{Pricing: priced, FinalAmount: priced.TotalAmount}
	if strings.TrimSpace(req.CouponCode) != "" {
		summary, svcErr := s.coupons.ValidateCouponForCheckout(ctx, s.couponInput(priced, req.CouponCode, buyer, allowZeroFinal))
		if svcErr != nil {
			return nil, svcErr
		}
		quote.Coupon = summary
		quote.FinalAmount = summary.FinalAmount
	}

	s.opts.record(aws_pkg.MetricCheckoutQuotes, map[string]string{"Currency": priced.OrderCurrency})
	return quote, nil
}

// AvailableCoupons lists the coupons the buyer could apply to this cart.
func (s *checkoutServiceImpl) AvailableCoupons(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) ([]models.CouponSummary, *ServiceError) {
	priced, svcErr := s.ComputeCheckoutPricing(ctx, req.Items, req.Country, req.Currency)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.coupons.ListCheckoutVisibleCoupons(ctx, s.couponInput(priced, "", buyer, false))
}

// PriceProduct returns the unit quote for a single catalog product.
func (s *checkoutServiceImpl) PriceProduct(ctx context.Context, productID, country, currency string) (*models.Product, *pricing.Quote, *ServiceError) {
	product, err := s.products.FindByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, newError(http.StatusNotFound, CodeNotFound, "Product not found")
		}
		s.logger.Error("Failed to load product", zap.String("product_id", productID), zap.Error(err))
		return nil, nil, internalError
	}
	if !product.Purchasable() {
		return nil, nil, newError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	quote := s.calc.CalculatePrice(product.PriceINR, country, currency)
	return product, &quote, nil
}

func (s *checkoutServiceImpl) couponInput(priced *models.CheckoutPricing, code string, buyer models.Buyer, allowZeroFinal bool) models.ValidateCouponInput {
	return models.ValidateCouponInput{
		Code:                 code,
		Email:                buyer.Email,
		UserID:               buyer.UserID,
		OrderAmount:          priced.TotalAmount,
		Currency:             priced.OrderCurrency,
		Items:                priced.CouponItems(),
		AllowZeroFinalAmount: allowZeroFinal,
	}
}
