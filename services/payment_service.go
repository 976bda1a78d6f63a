package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	aws_pkg "github.com/rakeshsingh12700/dearstudent62-storefront/pkg/aws"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
	"github.com/rakeshsingh12700/dearstudent62-storefront/repository"
	"go.uber.org/zap"
)

// PaymentService opens gateway orders and settles them once paid.
type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) (*models.CreatePaymentOrderResponse, *ServiceError)
	ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest, buyer models.Buyer) (*models.ConfirmPaymentResponse, *ServiceError)
}

type paymentServiceImpl struct {
	checkout    CheckoutService
	coupons     CouponService
	downloads   DownloadService
	purchases   repository.PurchaseRepository
	gateway     PaymentGateway
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
	opts        serviceOptions
}

func NewPaymentService(
	checkout CheckoutService,
	coupons CouponService,
	downloads DownloadService,
	purchases repository.PurchaseRepository,
	gateway PaymentGateway,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
	opts ...Option,
) PaymentService {
	return &paymentServiceImpl{
		checkout:    checkout,
		coupons:     coupons,
		downloads:   downloads,
		purchases:   purchases,
		gateway:     gateway,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
		opts:        buildOptions(opts),
	}
}

// CreatePaymentOrder re-prices the cart server side, re-validates the coupon
// for the signed-in buyer and opens a gateway order for the final amount.
func (s *paymentServiceImpl) CreatePaymentOrder(ctx context.Context, req *models.CheckoutRequest, buyer models.Buyer) (*models.CreatePaymentOrderResponse, *ServiceError) {
	if buyer.Email == "" && buyer.UserID == "" {
		return nil, newError(http.StatusUnauthorized, CodeUnauthorized, "Sign in to place an order")
	}

	quote, svcErr := s.checkout.QuoteCheckout(ctx, req, buyer, false)
	if svcErr != nil {
		return nil, svcErr
	}

	currency := quote.Pricing.OrderCurrency
	amount := pricing.RoundMoney(quote.FinalAmount, currency)
	amountMinor := pricing.MinorUnits(amount)
	if amountMinor <= 0 {
		return nil, newError(http.StatusBadRequest, CodeInvalidTotal, "Order total must be positive")
	}

	receipt := "ds_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	notes := map[string]string{"email": buyer.Email}
	if quote.Coupon != nil {
		notes["coupon_code"] = quote.Coupon.Code
	}

	orderID, err := s.gateway.CreateOrder(amountMinor, currency, receipt, notes)
	if err != nil {
		s.logger.Error("Failed to create gateway order",
			zap.String("currency", currency),
			zap.Int64("amount_minor", amountMinor),
			zap.Error(err),
		)
		if errors.Is(err, ErrGatewayNotConfigured) {
			return nil, internalError
		}
		return nil, newError(http.StatusBadGateway, CodeGatewayError, "Payment gateway is unavailable, please try again")
	}

	purchase := &models.Purchase{
		OrderID:  orderID,
		Email:    strings.ToLower(strings.TrimSpace(buyer.Email)),
		UserID:   buyer.UserID,
		Amount:   amount,
		Currency: currency,
		Status:   models.PurchaseStatusCreated,
	}
	for _, it := range quote.Pricing.Items {
		purchase.Items = append(purchase.Items, models.PurchaseItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	if c := quote.Coupon; c != nil {
		id := c.CouponID
		purchase.CouponID = &id
		purchase.CouponCode = c.Code
		purchase.DiscountAmount = c.DiscountAmount
		purchase.ItemQuantityUsed = c.ItemQuantityUsed
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		s.logger.Error("Failed to store purchase", zap.String("order_id", orderID), zap.Error(err))
		return nil, internalError
	}

	s.logger.Info("Payment order created",
		zap.String("order_id", orderID),
		zap.String("currency", currency),
		zap.Float64("amount", amount),
		zap.String("coupon_code", purchase.CouponCode),
	)
	s.opts.record(aws_pkg.MetricPaymentOrders, map[string]string{"Currency": currency})

	return &models.CreatePaymentOrderResponse{
		OrderID:     orderID,
		KeyID:       s.gateway.KeyID(),
		Amount:      amount,
		AmountMinor: amountMinor,
		Currency:    currency,
		Quote:       quote,
	}, nil
}

// ConfirmPayment verifies the gateway callback, marks the purchase paid,
// records the coupon redemption and issues download tokens. Replaying the
// same callback is safe.
func (s *paymentServiceImpl) ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest, buyer models.Buyer) (*models.ConfirmPaymentResponse, *ServiceError) {
	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("Payment signature mismatch", zap.String("order_id", req.OrderID))
		return nil, newError(http.StatusBadRequest, CodeInvalidSignature, "Payment signature verification failed")
	}

	purchase, svcErr := s.loadPurchase(ctx, req.OrderID)
	if svcErr != nil {
		return nil, svcErr
	}
	if !ownsPurchase(purchase, buyer) {
		return nil, newError(http.StatusForbidden, CodeForbidden, "This order belongs to another account")
	}

	newlyPaid := false
	if purchase.Status != models.PurchaseStatusPaid {
		updated, err := s.purchases.MarkPaid(ctx, req.OrderID, req.PaymentID, s.opts.now())
		if err != nil && !errors.Is(err, repository.ErrDuplicate) {
			s.logger.Error("Failed to mark purchase paid", zap.String("order_id", req.OrderID), zap.Error(err))
			return nil, internalError
		}
		if updated {
			newlyPaid = true
			paymentID := req.PaymentID
			purchase.PaymentID = &paymentID
			purchase.Status = models.PurchaseStatusPaid
		} else if purchase, svcErr = s.loadPurchase(ctx, req.OrderID); svcErr != nil {
			return nil, svcErr
		}
	}
	if purchase.PaymentID == nil || *purchase.PaymentID != req.PaymentID {
		return nil, newError(http.StatusConflict, CodeAlreadyPaid, "This order was already paid with a different payment")
	}

	resp := &models.ConfirmPaymentResponse{
		OrderID:   purchase.OrderID,
		PaymentID: req.PaymentID,
		Status:    models.PurchaseStatusPaid,
	}

	if purchase.CouponID != nil {
		result, svcErr := s.coupons.ConsumeCouponUsage(ctx, models.ConsumeCouponInput{
			CouponID:         *purchase.CouponID,
			PaymentID:        req.PaymentID,
			OrderID:          purchase.OrderID,
			Email:            purchase.Email,
			UserID:           purchase.UserID,
			OrderAmount:      pricing.RoundMoney(purchase.Amount+purchase.DiscountAmount, purchase.Currency),
			DiscountAmount:   purchase.DiscountAmount,
			Currency:         purchase.Currency,
			ItemQuantityUsed: purchase.ItemQuantityUsed,
		})
		if svcErr != nil {
			// The buyer has paid; the order stands even if the redemption cannot be recorded.
			s.logger.Warn("Coupon usage not recorded for paid order",
				zap.String("order_id", purchase.OrderID),
				zap.String("coupon_code", purchase.CouponCode),
				zap.String("reason", svcErr.Code),
			)
			s.opts.record(aws_pkg.MetricCouponOverruns, map[string]string{"Reason": svcErr.Code})
		} else {
			resp.CouponApplied = true
			resp.AlreadyApplied = result.AlreadyApplied
		}
	}

	grants, svcErr := s.downloads.IssueGrants(ctx, purchase.OrderID, purchase.Email, purchase.Items)
	if svcErr != nil {
		return nil, svcErr
	}
	resp.Downloads = grants

	if newlyPaid {
		s.logger.Info("Payment confirmed",
			zap.String("order_id", purchase.OrderID),
			zap.String("payment_id", req.PaymentID),
			zap.Float64("amount", purchase.Amount),
			zap.String("currency", purchase.Currency),
		)
		s.opts.record(aws_pkg.MetricPaymentsConfirmed, map[string]string{"Currency": purchase.Currency})
		s.publishPaymentConfirmedEvent(ctx, purchase, req.PaymentID)
	}
	return resp, nil
}

func (s *paymentServiceImpl) loadPurchase(ctx context.Context, orderID string) (*models.Purchase, *ServiceError) {
	purchase, err := s.purchases.FindByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(http.StatusNotFound, CodeNotFound, "Order not found")
	}
	if err != nil {
		s.logger.Error("Failed to load purchase", zap.String("order_id", orderID), zap.Error(err))
		return nil, internalError
	}
	return purchase, nil
}

func ownsPurchase(p *models.Purchase, buyer models.Buyer) bool {
	if buyer.UserID != "" && p.UserID == buyer.UserID {
		return true
	}
	return buyer.Email != "" && strings.EqualFold(p.Email, strings.TrimSpace(buyer.Email))
}

func (s *paymentServiceImpl) publishPaymentConfirmedEvent(ctx context.Context, p *models.Purchase, paymentID string) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Debug("SNS client not configured, skipping payment_confirmed event")
		return
	}

	payload, err := json.Marshal(models.PaymentConfirmedEvent{
		EventType:  "payment_confirmed",
		OrderID:    p.OrderID,
		PaymentID:  paymentID,
		Email:      p.Email,
		Amount:     p.Amount,
		Currency:   p.Currency,
		CouponCode: p.CouponCode,
		Timestamp:  s.opts.now(),
	})
	if err != nil {
		s.logger.Error("Failed to marshal payment_confirmed event", zap.Error(err))
		return
	}
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, payload); err != nil {
		s.logger.Error("Failed to publish payment_confirmed event", zap.Error(err))
	}
}
