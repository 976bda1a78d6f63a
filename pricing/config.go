package pricing

// Base prices are stored in INR and India is the home market.
const (
	HomeCountry  = "IN"
	HomeCurrency = "INR"
)

// Tier is the pricing bucket derived from the buyer's country.
type Tier string

const (
	TierDomestic      Tier = "domestic"
	TierInternational Tier = "international"
)

// Currency describes a supported display currency and its fixed INR rate.
type Currency struct {
	Code        string
	Symbol      string
	Locale      string
	RateFromINR float64
}

// Config holds the static tables used by the Calculator.
type Config struct {
	DefaultCountry          string
	DefaultCurrency         string
	InternationalMultiplier float64
	Currencies              map[string]Currency
	CountryCurrency         map[string]string
}

// DefaultConfig returns the storefront's built-in rates and country mapping.
// Rates are fixed and refreshed by hand, not fetched live.
func DefaultConfig() Config {
	return Config{
		DefaultCountry:          "US",
		DefaultCurrency:         "USD",
		InternationalMultiplier: 4,
		Currencies: map[string]Currency{
			"INR": {Code: "INR", Symbol: "₹", Locale: "en-IN", RateFromINR: 1},
			"USD": {Code: "USD", Symbol: "$", Locale: "en-US", RateFromINR: 0.012},
			"EUR": {Code: "EUR", Symbol: "€", Locale: "de-DE", RateFromINR: 0.011},
			"GBP": {Code: "GBP", Symbol: "£", Locale: "en-GB", RateFromINR: 0.0095},
			"AUD": {Code: "AUD", Symbol: "A$", Locale: "en-AU", RateFromINR: 0.018},
			"CAD": {Code: "CAD", Symbol: "C$", Locale: "en-CA", RateFromINR: 0.016},
			"SGD": {Code: "SGD", Symbol: "S$", Locale: "en-SG", RateFromINR: 0.016},
			"AED": {Code: "AED", Symbol: "AED ", Locale: "en-AE", RateFromINR: 0.044},
		},
		CountryCurrency: map[string]string{
			"IN": "INR",
			"US": "USD",
			"GB": "GBP",
			"AU": "AUD",
			"CA": "CAD",
			"SG": "SGD",
			"AE": "AED",
			"DE": "EUR",
			"FR": "EUR",
			"IT": "EUR",
			"ES": "EUR",
			"NL": "EUR",
			"IE": "EUR",
			"BE": "EUR",
			"AT": "EUR",
			"PT": "EUR",
			"FI": "EUR",
		},
	}
}
