package services

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
)

// CouponRuntimeStatus derives a coupon's status at now.
// Precedence: disabled, scheduled, expired, active.
func CouponRuntimeStatus(c *models.Coupon, now time.Time) models.CouponStatus {
	switch {
	case !c.IsActive:
		return models.CouponStatusDisabled
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return models.CouponStatusScheduled
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return models.CouponStatusExpired
	}
	return models.CouponStatusActive
}

func statusError(status models.CouponStatus) *ServiceError {
	switch status {
	case models.CouponStatusDisabled:
		return newError(http.StatusBadRequest, CodeCouponDisabled, "This coupon is disabled")
	case models.CouponStatusScheduled:
		return newError(http.StatusBadRequest, CodeCouponScheduled, "This coupon is not active yet")
	case models.CouponStatusExpired:
		return newError(http.StatusBadRequest, CodeCouponExpired, "This coupon has expired")
	}
	return nil
}

// visibilityAllows reports whether email may use the coupon. Hidden coupons
// are usable by anyone who knows the code; they are only kept out of listings.
func visibilityAllows(c *models.Coupon, email string) bool {
	if c.Visibility != models.VisibilityUserSpecific {
		return true
	}
	return email != "" && strings.EqualFold(strings.TrimSpace(c.BoundEmail), strings.TrimSpace(email))
}

func totalLimitReached(c *models.Coupon) bool {
	return c.TotalUsageLimit != nil && c.UsedCount >= *c.TotalUsageLimit
}

// perUserLimitError checks the per-user cap for the coupon's mode. Modes are
// matched exhaustively; an unknown mode is a configuration error.
func perUserLimitError(c *models.Coupon, stats models.CouponUsageStats) *ServiceError {
	limit := func(def int) int64 {
		if c.PerUserLimit != nil && *c.PerUserLimit > 0 {
			return int64(*c.PerUserLimit)
		}
		return int64(def)
	}

	switch c.PerUserMode {
	case models.PerUserUnlimited, "":
		return nil
	case models.PerUserOneItem:
		if stats.Items >= limit(1) {
			return newError(http.StatusBadRequest, CodePerUserLimitReached, "Per-user item limit reached for this coupon")
		}
		return nil
	case models.PerUserOneOrder:
		if stats.Orders >= limit(1) {
			return newError(http.StatusBadRequest, CodePerUserLimitReached, "Per-user order limit reached for this coupon")
		}
		return nil
	case models.PerUserMultiple:
		if c.PerUserLimit != nil && stats.Usages >= limit(0) {
			return newError(http.StatusBadRequest, CodePerUserLimitReached, "Per-user usage limit reached for this coupon")
		}
		return nil
	}
	return newError(http.StatusInternalServerError, CodeInvalidCouponMode, "Coupon is misconfigured")
}

func highestUnitPrice(items []models.CouponItem) float64 {
	var max float64
	for _, it := range items {
		if it.Quantity > 0 && it.UnitPrice > max {
			max = it.UnitPrice
		}
	}
	return max
}

func totalQuantity(items []models.CouponItem) int {
	n := 0
	for _, it := range items {
		if it.Quantity > 0 {
			n += it.Quantity
		}
	}
	return n
}

// scopedBaseAmount is what a percentage or flat coupon discounts: the single
// highest item in one_item mode, otherwise the whole order.
func scopedBaseAmount(c *models.Coupon, orderAmount float64, items []models.CouponItem) float64 {
	if c.PerUserMode == models.PerUserOneItem {
		if top := highestUnitPrice(items); top > 0 && top < orderAmount {
			return top
		}
	}
	return orderAmount
}

// ComputeCouponDiscount returns the rounded discount for an order. flatValue
// is the flat amount already expressed in the order currency.
func ComputeCouponDiscount(c *models.Coupon, orderAmount, flatValue float64, currency string, items []models.CouponItem) float64 {
	if orderAmount <= 0 {
		return 0
	}

	var base, discount float64
	switch c.DiscountType {
	case models.DiscountFreeItem:
		base = highestUnitPrice(items)
		discount = base
	case models.DiscountPercentage:
		base = scopedBaseAmount(c, orderAmount, items)
		pct := c.DiscountValue
		if pct > 100 {
			pct = 100
		}
		discount = base * pct / 100
	case models.DiscountFlat:
		base = scopedBaseAmount(c, orderAmount, items)
		discount = flatValue
	default:
		return 0
	}

	if base > orderAmount {
		base = orderAmount
	}
	if discount > base {
		discount = base
	}
	if discount < 0 {
		discount = 0
	}
	return pricing.RoundMoney(discount, currency)
}

// itemQuantityUsed is how many items a redemption counts against one_item limits.
func itemQuantityUsed(c *models.Coupon, items []models.CouponItem) int {
	if c.DiscountType == models.DiscountFreeItem || c.PerUserMode == models.PerUserOneItem {
		return 1
	}
	return totalQuantity(items)
}

func formatAmount(amount float64, currency string) string {
	if currency == pricing.HomeCurrency {
		return fmt.Sprintf("%s %.0f", currency, amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}
