package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType is how a coupon reduces the order total.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
	DiscountFreeItem   DiscountType = "free_item"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFlat, DiscountFreeItem:
		return true
	}
	return false
}

// PerUserMode selects what the per-user limit counts.
type PerUserMode string

const (
	PerUserOneItem   PerUserMode = "one_item"
	PerUserOneOrder  PerUserMode = "one_order"
	PerUserMultiple  PerUserMode = "multiple"
	PerUserUnlimited PerUserMode = "unlimited"
)

// Valid reports whether m is a known per-user mode.
func (m PerUserMode) Valid() bool {
	switch m {
	case PerUserOneItem, PerUserOneOrder, PerUserMultiple, PerUserUnlimited:
		return true
	}
	return false
}

// Visibility controls who can see and redeem a coupon.
type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityUserSpecific Visibility = "user_specific"
	VisibilityHidden       Visibility = "hidden"
)

// Valid reports whether v is a known visibility scope.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityUserSpecific, VisibilityHidden:
		return true
	}
	return false
}

// CouponStatus is computed from flags and dates on every read; it is never stored.
type CouponStatus string

const (
	CouponStatusActive    CouponStatus = "active"
	CouponStatusDisabled  CouponStatus = "disabled"
	CouponStatusScheduled CouponStatus = "scheduled"
	CouponStatusExpired   CouponStatus = "expired"
)

// Coupon is a discount code stored in Postgres. Coupons are disabled, never deleted.
type Coupon struct {
	ID                uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code              string       `gorm:"type:varchar(32);not null;index;uniqueIndex:idx_coupons_active_code,where:is_active = true" json:"code"`
	Description       string       `gorm:"type:varchar(255)" json:"description,omitempty"`
	DiscountType      DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue     float64      `gorm:"not null" json:"discount_value"`
	Currency          string       `gorm:"type:varchar(3)" json:"currency,omitempty"` // empty = any currency
	IsActive          bool         `gorm:"not null;default:true" json:"is_active"`
	TotalUsageLimit   *int         `json:"total_usage_limit"` // nil = unlimited
	UsedCount         int          `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit      *int         `json:"per_user_limit"`
	PerUserMode       PerUserMode  `gorm:"type:varchar(20);not null;default:'unlimited'" json:"per_user_mode"`
	MinOrderAmount    float64      `gorm:"not null;default:0" json:"min_order_amount"`
	FirstPurchaseOnly bool         `gorm:"not null;default:false" json:"first_purchase_only"`
	Visibility        Visibility   `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`
	BoundEmail        string       `gorm:"type:varchar(255);index" json:"bound_email,omitempty"`
	StartsAt          *time.Time   `json:"starts_at,omitempty"`
	ExpiresAt         *time.Time   `json:"expires_at,omitempty"`
	CreatedBy         string       `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	DisabledBy        string       `gorm:"type:varchar(255)" json:"disabled_by,omitempty"`
	DisabledAt        *time.Time   `json:"disabled_at,omitempty"`
	ResetBy           string       `gorm:"type:varchar(255)" json:"reset_by,omitempty"`
	ResetAt           *time.Time   `json:"reset_at,omitempty"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// CouponView is an admin-facing coupon with its computed status.
type CouponView struct {
	Coupon
	Status CouponStatus `json:"status"`
}

// CreateCouponRequest is the admin payload for a new coupon. An empty code
// is generated from CodePrefix.
type CreateCouponRequest struct {
	Code              string       `json:"code" binding:"omitempty,max=32,couponcode"`
	CodePrefix        string       `json:"code_prefix" binding:"omitempty,max=12"`
	Description       string       `json:"description" binding:"max=255"`
	DiscountType      DiscountType `json:"discount_type" binding:"required,oneof=percentage flat free_item"`
	DiscountValue     float64      `json:"discount_value" binding:"gte=0"`
	Currency          string       `json:"currency" binding:"omitempty,len=3"`
	TotalUsageLimit   *int         `json:"total_usage_limit" binding:"omitempty,gt=0"`
	PerUserLimit      *int         `json:"per_user_limit" binding:"omitempty,gt=0"`
	PerUserMode       PerUserMode  `json:"per_user_mode" binding:"omitempty,oneof=one_item one_order multiple unlimited"`
	MinOrderAmount    float64      `json:"min_order_amount" binding:"gte=0"`
	FirstPurchaseOnly bool         `json:"first_purchase_only"`
	Visibility        Visibility   `json:"visibility" binding:"omitempty,oneof=public user_specific hidden"`
	BoundEmail        string       `json:"bound_email" binding:"omitempty,email"`
	StartsAt          *time.Time   `json:"starts_at"`
	ExpiresAt         *time.Time   `json:"expires_at"`
}

// CouponItem is a priced line the coupon engine evaluates against.
type CouponItem struct {
	ProductID string  `json:"product_id"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// ValidateCouponInput is everything needed to check a coupon against an order.
type ValidateCouponInput struct {
	Code                 string
	Email                string
	UserID               string
	OrderAmount          float64
	Currency             string
	Items                []CouponItem
	AllowZeroFinalAmount bool
}

// CouponSummary describes a coupon applied to a specific order.
type CouponSummary struct {
	CouponID         uuid.UUID    `json:"coupon_id"`
	Code             string       `json:"code"`
	Description      string       `json:"description,omitempty"`
	DiscountType     DiscountType `json:"discount_type"`
	DiscountValue    float64      `json:"discount_value"`
	PerUserMode      PerUserMode  `json:"per_user_mode"`
	Visibility       Visibility   `json:"visibility"`
	Currency         string       `json:"currency"`
	OrderAmount      float64      `json:"order_amount"`
	DiscountAmount   float64      `json:"discount_amount"`
	FinalAmount      float64      `json:"final_amount"`
	ItemQuantityUsed int          `json:"item_quantity_used"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
}

// CouponUsageStats aggregates a user's past redemptions of one coupon.
type CouponUsageStats struct {
	Usages int64
	Orders int64
	Items  int64
}
