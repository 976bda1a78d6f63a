package pricing

// LaunchDiscountRate returns the multi-buy rate for a cart's total quantity.
// Tiers are not cumulative.
func LaunchDiscountRate(totalQuantity int) float64 {
	switch {
	case totalQuantity <= 0:
		return 0
	case totalQuantity == 1:
		return 0.10
	default:
		return 0.20
	}
}

// ApplyLaunchDiscount discounts a regional unit price and re-rounds it.
// The result never exceeds price.
func ApplyLaunchDiscount(price, rate float64, currency string) float64 {
	p := toDecimal(price)
	if !p.IsPositive() {
		return 0
	}
	if rate <= 0 {
		return price
	}
	if rate > 1 {
		rate = 1
	}

	discounted := p.Mul(decOne.Sub(toDecimal(rate)))
	rounded := launchRound(discounted, currency)
	if rounded.GreaterThan(p) {
		return price
	}
	return rounded.InexactFloat64()
}
