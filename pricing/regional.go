package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quote is a regionally priced amount for a single unit.
type Quote struct {
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Symbol         string  `json:"symbol"`
	Locale         string  `json:"locale"`
	Tier           Tier    `json:"tier"`
	Country        string  `json:"country"`
	Multiplier     float64 `json:"multiplier"`
	TieredPriceINR float64 `json:"tiered_price_inr"`
}

// Calculator converts INR base prices into regional display prices.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a Calculator. Zero-valued fields fall back to DefaultConfig.
func NewCalculator(cfg Config) *Calculator {
	def := DefaultConfig()
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = def.DefaultCountry
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = def.DefaultCurrency
	}
	if cfg.InternationalMultiplier <= 0 {
		cfg.InternationalMultiplier = def.InternationalMultiplier
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = def.Currencies
	}
	if len(cfg.CountryCurrency) == 0 {
		cfg.CountryCurrency = def.CountryCurrency
	}
	if _, ok := cfg.Currencies[cfg.DefaultCurrency]; !ok {
		cfg.DefaultCurrency = def.DefaultCurrency
	}
	return &Calculator{cfg: cfg}
}

// NormalizeCountry returns an uppercase ISO alpha-2 code, or the default
// country when the input is not one.
func (c *Calculator) NormalizeCountry(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) != 2 {
		return c.cfg.DefaultCountry
	}
	for _, r := range country {
		if r < 'A' || r > 'Z' {
			return c.cfg.DefaultCountry
		}
	}
	return country
}

// IsSupportedCurrency reports whether code has a configured rate.
func (c *Calculator) IsSupportedCurrency(code string) bool {
	_, ok := c.cfg.Currencies[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// ResolveCurrency picks the currency for a country, honouring a supported
// override. Unsupported overrides and unmapped countries get the default.
func (c *Calculator) ResolveCurrency(country, override string) string {
	override = strings.ToUpper(strings.TrimSpace(override))
	if override != "" {
		if _, ok := c.cfg.Currencies[override]; ok {
			return override
		}
		return c.cfg.DefaultCurrency
	}
	if code, ok := c.cfg.CountryCurrency[country]; ok {
		if _, supported := c.cfg.Currencies[code]; supported {
			return code
		}
	}
	return c.cfg.DefaultCurrency
}

// TierFor returns the tier and price multiplier for a normalized country.
func (c *Calculator) TierFor(country string) (Tier, float64) {
	if country == HomeCountry {
		return TierDomestic, 1
	}
	return TierInternational, c.cfg.InternationalMultiplier
}

// ConvertFromINR converts an INR amount at the fixed rate without charm
// rounding. Unsupported currencies convert at the default currency's rate.
func (c *Calculator) ConvertFromINR(amountINR float64, currency string) float64 {
	code := c.ResolveCurrency(c.cfg.DefaultCountry, currency)
	if code == HomeCurrency {
		return RoundMoney(amountINR, code)
	}
	rate := c.cfg.Currencies[code].RateFromINR
	converted := toDecimal(amountINR).Mul(decimal.NewFromFloat(rate))
	return RoundMoney(converted.InexactFloat64(), code)
}

// CalculatePrice prices basePriceINR for the given country. A non-positive
// base price yields a zero amount rather than an error.
func (c *Calculator) CalculatePrice(basePriceINR float64, countryCode, currencyOverride string) Quote {
	country := c.NormalizeCountry(countryCode)
	code := c.ResolveCurrency(country, currencyOverride)
	cur := c.cfg.Currencies[code]
	tier, multiplier := c.TierFor(country)

	q := Quote{
		Currency:   code,
		Symbol:     cur.Symbol,
		Locale:     cur.Locale,
		Tier:       tier,
		Country:    country,
		Multiplier: multiplier,
	}

	base := toDecimal(basePriceINR)
	if !base.IsPositive() {
		return q
	}

	tiered := base.Mul(decimal.NewFromFloat(multiplier))
	converted := tiered.Mul(decimal.NewFromFloat(cur.RateFromINR))

	q.TieredPriceINR = tiered.InexactFloat64()
	q.Amount = psychologicalRound(converted, code).InexactFloat64()
	return q
}
