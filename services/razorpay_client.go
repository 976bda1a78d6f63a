package services

import (
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// PaymentGateway creates gateway orders and verifies checkout callbacks.
type PaymentGateway interface {
	KeyID() string
	CreateOrder(amountMinor int64, currency, receipt string, notes map[string]string) (string, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

// ErrGatewayNotConfigured is returned when the Razorpay keys are missing.
var ErrGatewayNotConfigured = errors.New("payment gateway not configured")

type RazorpayGateway struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

func (g *RazorpayGateway) CreateOrder(amountMinor int64, currency, receipt string, notes map[string]string) (string, error) {
	if g.keyID == "" || g.keySecret == "" {
		return "", ErrGatewayNotConfigured
	}
	data := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", err
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order response missing id")
	}
	return id, nil
}

// VerifyPaymentSignature checks the HMAC-SHA256 of "order_id|payment_id".
func (g *RazorpayGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if g.keySecret == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, g.keySecret)
}
