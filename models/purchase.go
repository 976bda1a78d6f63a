package models

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseStatusCreated PurchaseStatus = "created"
	PurchaseStatusPaid    PurchaseStatus = "paid"
)

// PurchaseItem is a product bought as part of an order.
type PurchaseItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Purchase tracks a gateway order from creation to payment.
type Purchase struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_id"`
	PaymentID        *string        `gorm:"type:varchar(64);uniqueIndex" json:"payment_id,omitempty"`
	Email            string         `gorm:"type:varchar(255);index" json:"email"`
	UserID           string         `gorm:"type:varchar(128);index" json:"user_id"`
	Amount           float64        `gorm:"not null" json:"amount"`
	Currency         string         `gorm:"type:varchar(3);not null" json:"currency"`
	Status           PurchaseStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CouponID         *uuid.UUID     `gorm:"type:uuid" json:"coupon_id,omitempty"`
	CouponCode       string         `gorm:"type:varchar(32)" json:"coupon_code,omitempty"`
	DiscountAmount   float64        `gorm:"not null;default:0" json:"discount_amount"`
	ItemQuantityUsed int            `gorm:"not null;default:0" json:"item_quantity_used"`
	Items            []PurchaseItem `gorm:"type:jsonb;serializer:json" json:"items"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreatePaymentOrderResponse is returned to the browser to open the gateway checkout.
type CreatePaymentOrderResponse struct {
	OrderID     string         `json:"order_id"`
	KeyID       string         `json:"key_id"`
	Amount      float64        `json:"amount"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    string         `json:"currency"`
	Quote       *CheckoutQuote `json:"quote"`
}

// ConfirmPaymentRequest carries the gateway's checkout callback fields.
type ConfirmPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// ConfirmPaymentResponse lists download links for a paid order.
type ConfirmPaymentResponse struct {
	OrderID        string          `json:"order_id"`
	PaymentID      string          `json:"payment_id"`
	Status         PurchaseStatus  `json:"status"`
	CouponApplied  bool            `json:"coupon_applied"`
	AlreadyApplied bool            `json:"already_applied,omitempty"`
	Downloads      []DownloadGrant `json:"downloads"`
}

// PaymentConfirmedEvent is published to SNS when a purchase is marked paid.
type PaymentConfirmedEvent struct {
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	PaymentID  string    `json:"payment_id"`
	Email      string    `json:"email,omitempty"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	CouponCode string    `json:"coupon_code,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
