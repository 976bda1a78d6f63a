package models

import "github.com/rakeshsingh12700/dearstudent62-storefront/pricing"

// CheckoutItem is a requested cart line.
type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest is the body shared by the quote, coupon and payment endpoints.
type CheckoutRequest struct {
	Items      []CheckoutItem `json:"items" binding:"required"`
	Country    string         `json:"country"`
	Currency   string         `json:"currency"`
	CouponCode string         `json:"coupon_code"`
}

// PricedItem is a cart line after regional pricing and the launch discount.
type PricedItem struct {
	ProductID     string  `json:"product_id"`
	Title         string  `json:"title"`
	Quantity      int     `json:"quantity"`
	BasePriceINR  float64 `json:"base_price_inr"`
	RegionalPrice float64 `json:"regional_price"`
	UnitPrice     float64 `json:"unit_price"`
	LineTotal     float64 `json:"line_total"`
}

// CheckoutPricing is the priced order before any coupon.
type CheckoutPricing struct {
	OrderCurrency        string       `json:"order_currency"`
	Symbol               string       `json:"symbol"`
	Locale               string       `json:"locale"`
	Tier                 pricing.Tier `json:"tier"`
	Country              string       `json:"country"`
	Items                []PricedItem `json:"items"`
	TotalQuantity        int          `json:"total_quantity"`
	LaunchDiscountRate   float64      `json:"launch_discount_rate"`
	SubtotalAmount       float64      `json:"subtotal_amount"`
	LaunchDiscountAmount float64      `json:"launch_discount_amount"`
	TotalAmount          float64      `json:"total_amount"`
}

// CouponItems converts priced lines into coupon engine input.
func (p *CheckoutPricing) CouponItems() []CouponItem {
	items := make([]CouponItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, CouponItem{ProductID: it.ProductID, UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return items
}

// CheckoutQuote is a priced order with an optional coupon applied.
type CheckoutQuote struct {
	Pricing     *CheckoutPricing `json:"pricing"`
	Coupon      *CouponSummary   `json:"coupon,omitempty"`
	FinalAmount float64          `json:"final_amount"`
}

// Buyer identifies the signed-in customer, when there is one.
type Buyer struct {
	Email  string
	UserID string
}

// ValidateCouponRequest is the body of the public coupon check. The order is
// priced server-side from Items.
type ValidateCouponRequest struct {
	Code                 string         `json:"code" binding:"required"`
	Items                []CheckoutItem `json:"items" binding:"required"`
	Country              string         `json:"country"`
	Currency             string         `json:"currency"`
	AllowZeroFinalAmount bool           `json:"allow_zero_final_amount"`
}

// CheckoutRequest returns the order part of the request.
func (r *ValidateCouponRequest) CheckoutRequest() *CheckoutRequest {
	return &CheckoutRequest{Items: r.Items, Country: r.Country, Currency: r.Currency, CouponCode: r.Code}
}
