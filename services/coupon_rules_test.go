package services_test

import (
	"testing"

	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
	"github.com/stretchr/testify/assert"
)

func TestGenerateCouponCode_RoundTrip(t *testing.T) {
	for _, prefix := range []string{"", "summer", "Back 2 School!", "averyveryverylongprefix"} {
		code, err := services.GenerateCouponCode(prefix)
		assert.NoError(t, err)
		assert.Equal(t, code, services.NormalizeCouponCode(code), prefix)
		assert.True(t, services.IsValidCouponCode(code), "%q gave %q", prefix, code)
	}
}

func TestGenerateCouponCode_PrefixHandling(t *testing.T) {
	code, err := services.GenerateCouponCode("Back 2 School!")
	assert.NoError(t, err)
	assert.Regexp(t, `^BACK2SCHOOL-[A-HJ-NP-Z2-9]{8}$`, code)

	code, err = services.GenerateCouponCode("averyveryverylongprefix")
	assert.NoError(t, err)
	assert.Regexp(t, `^AVERYVERYVER-[A-HJ-NP-Z2-9]{8}$`, code)
}

func TestComputeCouponDiscount(t *testing.T) {
	items := []models.CouponItem{
		{ProductID: "p1", UnitPrice: 449, Quantity: 2},
		{ProductID: "p2", UnitPrice: 299, Quantity: 1},
	}

	tests := []struct {
		name   string
		coupon models.Coupon
		flat   float64
		want   float64
	}{
		{"percentage of order", models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: 10}, 0, 120},
		{"percentage over 100 caps", models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: 150}, 0, 1197},
		{"percentage one_item", models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: 10, PerUserMode: models.PerUserOneItem}, 0, 45},
		{"flat", models.Coupon{DiscountType: models.DiscountFlat}, 100, 100},
		{"flat capped at one item", models.Coupon{DiscountType: models.DiscountFlat, PerUserMode: models.PerUserOneItem}, 1000, 449},
		{"free item", models.Coupon{DiscountType: models.DiscountFreeItem}, 0, 449},
		{"unknown type", models.Coupon{DiscountType: "bogo"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.coupon
			assert.Equal(t, tt.want, services.ComputeCouponDiscount(&c, 1197, tt.flat, "INR", items))
		})
	}
}

func TestComputeCouponDiscount_ForeignRounding(t *testing.T) {
	c := &models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: 15}
	items := []models.CouponItem{{ProductID: "p1", UnitPrice: 22.09, Quantity: 1}}

	assert.InDelta(t, 3.31, services.ComputeCouponDiscount(c, 22.09, 0, "USD", items), 1e-9)
	assert.Equal(t, float64(0), services.ComputeCouponDiscount(c, 0, 0, "USD", items))
}
