package models

import (
	"time"

	"github.com/google/uuid"
)

const CouponUsageStatusApplied = "applied"

// CouponUsage records one redemption. The ID is "<paymentID>_<couponID>" so a
// payment can consume a given coupon at most once.
type CouponUsage struct {
	ID               string    `gorm:"type:varchar(160);primaryKey" json:"id"`
	CouponID         uuid.UUID `gorm:"type:uuid;index;not null" json:"coupon_id"`
	CouponCode       string    `gorm:"type:varchar(32);not null" json:"coupon_code"`
	Email            string    `gorm:"type:varchar(255);index" json:"email,omitempty"`
	UserID           string    `gorm:"type:varchar(128);index" json:"user_id,omitempty"`
	OrderID          string    `gorm:"type:varchar(64);not null" json:"order_id"`
	PaymentID        string    `gorm:"type:varchar(64);not null" json:"payment_id"`
	OrderAmount      float64   `gorm:"not null" json:"order_amount"`
	DiscountAmount   float64   `gorm:"not null" json:"discount_amount"`
	Currency         string    `gorm:"type:varchar(3);not null" json:"currency"`
	ItemQuantityUsed int       `gorm:"not null;default:0" json:"item_quantity_used"`
	Status           string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CouponUsageID builds the idempotency key for a payment/coupon pair.
func CouponUsageID(paymentID string, couponID uuid.UUID) string {
	return paymentID + "_" + couponID.String()
}

// ConsumeCouponInput is passed once a payment has been confirmed.
type ConsumeCouponInput struct {
	CouponID         uuid.UUID
	PaymentID        string
	OrderID          string
	Email            string
	UserID           string
	OrderAmount      float64
	DiscountAmount   float64
	Currency         string
	ItemQuantityUsed int
}

// ConsumeCouponResult reports the outcome of a consume. AlreadyApplied is a success.
type ConsumeCouponResult struct {
	OK             bool   `json:"ok"`
	AlreadyApplied bool   `json:"already_applied,omitempty"`
	UsageID        string `json:"usage_id"`
}

// CouponUsageRecordedEvent is published to SNS after a usage is written.
type CouponUsageRecordedEvent struct {
	EventType      string    `json:"event_type"`
	UsageID        string    `json:"usage_id"`
	CouponID       string    `json:"coupon_id"`
	CouponCode     string    `json:"coupon_code"`
	OrderID        string    `json:"order_id"`
	PaymentID      string    `json:"payment_id"`
	Email          string    `json:"email,omitempty"`
	DiscountAmount float64   `json:"discount_amount"`
	Currency       string    `json:"currency"`
	Timestamp      time.Time `json:"timestamp"`
}
