package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	decOne       = decimal.NewFromInt(1)
	decTen       = decimal.NewFromInt(10)
	decCent      = decimal.RequireFromString("0.01")
	decCharmTail = decimal.RequireFromString("0.49")
	decCharmMin  = decimal.RequireFromString("0.99")
	decCharmEdge = decimal.RequireFromString("1.5")
	decLaunchMin = decimal.RequireFromString("0.09")
)

func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// psychologicalRound snaps a converted price to a charm ending:
// INR to the nearest ten minus one (minimum 1), other currencies to
// whole+0.49 (0.99 below 1.5).
func psychologicalRound(amount decimal.Decimal, currency string) decimal.Decimal {
	if currency == HomeCurrency {
		r := amount.Div(decTen).Round(0).Mul(decTen).Sub(decOne)
		if r.LessThan(decOne) {
			return decOne
		}
		return r
	}
	if amount.LessThan(decCharmEdge) {
		return decCharmMin
	}
	return amount.Floor().Add(decCharmTail)
}

// launchRound re-rounds a discounted unit price. INR goes to the nearest
// rupee; other currencies snap to a .X9 ending with a floor of 0.09.
func launchRound(amount decimal.Decimal, currency string) decimal.Decimal {
	if currency == HomeCurrency {
		return amount.Round(0)
	}
	r := amount.Add(decCent).Mul(decTen).Round(0).Div(decTen).Sub(decCent)
	if r.LessThan(decLaunchMin) {
		return decLaunchMin
	}
	return r
}

// RoundMoney rounds an amount for storage or display: whole rupees for INR,
// two decimals for everything else.
func RoundMoney(amount float64, currency string) float64 {
	d := toDecimal(amount)
	if currency == HomeCurrency {
		return d.Round(0).InexactFloat64()
	}
	return d.Round(2).InexactFloat64()
}

// MinorUnits converts an amount to the smallest currency unit (paise, cents).
func MinorUnits(amount float64) int64 {
	return toDecimal(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
