package models

// Product is a printable worksheet in the DynamoDB catalog.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	PriceINR float64 `json:"price_inr"`
	FileKey  string  `json:"file_key,omitempty"`
	IsActive bool    `json:"is_active"`
}

// Purchasable reports whether the product can be priced and sold.
func (p *Product) Purchasable() bool {
	return p != nil && p.IsActive && p.PriceINR > 0
}
