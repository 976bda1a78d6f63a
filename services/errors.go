package services

import (
	"context"
	"time"

	aws_pkg "github.com/rakeshsingh12700/dearstudent62-storefront/pkg/aws"
)

// ServiceError represents a typed error with an HTTP status code and a
// machine-readable code.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func newError(status int, code, message string) *ServiceError {
	return &ServiceError{StatusCode: status, Code: code, Message: message}
}

// Error codes returned to clients.
const (
	CodeInvalidRequest      = "invalid_request"
	CodeInvalidCouponCode   = "invalid_coupon_code"
	CodeCouponNotFound      = "coupon_not_found"
	CodeCouponDisabled      = "coupon_disabled"
	CodeCouponScheduled     = "coupon_scheduled"
	CodeCouponExpired       = "coupon_expired"
	CodeCouponNotActive     = "coupon_not_active"
	CodeCouponRestricted    = "coupon_restricted"
	CodeCurrencyMismatch    = "currency_mismatch"
	CodeTotalLimitReached   = "total_limit_reached"
	CodeMinOrderNotMet      = "min_order_not_met"
	CodePerUserLimitReached = "per_user_limit_reached"
	CodeFirstPurchaseOnly   = "first_purchase_only"
	CodeNoDiscount          = "no_discount"
	CodeZeroFinalAmount     = "zero_final_amount"
	CodeInvalidCouponMode   = "invalid_coupon_mode"
	CodeDuplicateCode       = "duplicate_code"
	CodeNoValidItems        = "no_valid_items"
	CodeNoPricedItems       = "no_priced_items"
	CodeMixedCurrencies     = "mixed_currencies"
	CodeInvalidTotal        = "invalid_total"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeInvalidSignature    = "invalid_signature"
	CodeAlreadyPaid         = "already_paid"
	CodeGatewayError        = "gateway_error"
	CodeTokenInvalid        = "token_invalid"
	CodeInternal            = "internal_error"
)

// Option configures optional collaborators shared by the services.
type Option func(*serviceOptions)

type serviceOptions struct {
	now     func() time.Time
	metrics aws_pkg.MetricsRecorder
}

func buildOptions(opts []Option) serviceOptions {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics sends business counters to m.
func WithMetrics(m aws_pkg.MetricsRecorder) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

// record emits a counter in the background so request latency is unaffected.
func (o serviceOptions) record(name string, dims map[string]string) {
	if o.metrics == nil || !o.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.metrics.RecordCount(ctx, name, dims)
	}()
}
