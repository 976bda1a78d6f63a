package models

import "time"

// DownloadClaim is what a download token resolves to.
type DownloadClaim struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	Email     string `json:"email,omitempty"`
}

// DownloadGrant is a single-use token handed to the buyer.
type DownloadGrant struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadLink is the presigned object URL a token is exchanged for.
type DownloadLink struct {
	ProductID string    `json:"product_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
