package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	aws_pkg "github.com/rakeshsingh12700/dearstudent62-storefront/pkg/aws"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
	"github.com/rakeshsingh12700/dearstudent62-storefront/repository"
	"go.uber.org/zap"
)

// MaxVisibleCoupons caps the checkout coupon list.
const MaxVisibleCoupons = 20

// CouponService defines the interface for coupon business logic.
type CouponService interface {
	ValidateCouponForCheckout(ctx context.Context, in models.ValidateCouponInput) (*models.CouponSummary, *ServiceError)
	ListCheckoutVisibleCoupons(ctx context.Context, in models.ValidateCouponInput) ([]models.CouponSummary, *ServiceError)
	ConsumeCouponUsage(ctx context.Context, in models.ConsumeCouponInput) (*models.ConsumeCouponResult, *ServiceError)

	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest, adminEmail string) (*models.CouponView, *ServiceError)
	ListCoupons(ctx context.Context, page, limit int) ([]models.CouponView, int64, *ServiceError)
	GetCoupon(ctx context.Context, id uuid.UUID) (*models.CouponView, *ServiceError)
	DisableCoupon(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *ServiceError)
	EnableCoupon(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *ServiceError)
	ResetCouponUsage(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *ServiceError)
	ListCouponUsages(ctx context.Context, id uuid.UUID, page, limit int) ([]models.CouponUsage, int64, *ServiceError)
	GenerateUniqueCode(ctx context.Context, prefix string) (string, *ServiceError)
}

type couponServiceImpl struct {
	repo        repository.CouponRepository
	purchases   repository.PurchaseRepository
	calc        *pricing.Calculator
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
	opts        serviceOptions
}

// NewCouponService creates a new CouponService.
func NewCouponService(
	repo repository.CouponRepository,
	purchases repository.PurchaseRepository,
	calc *pricing.Calculator,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
	opts ...Option,
) CouponService {
	return &couponServiceImpl{
		repo:        repo,
		purchases:   purchases,
		calc:        calc,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
		opts:        buildOptions(opts),
	}
}

var internalError = newError(http.StatusInternalServerError, CodeInternal, "Something went wrong, please try again")

// ValidateCouponForCheckout looks up a code and runs every eligibility check
// against the order.
func (s *couponServiceImpl) ValidateCouponForCheckout(ctx context.Context, in models.ValidateCouponInput) (*models.CouponSummary, *ServiceError) {
	code := NormalizeCouponCode(in.Code)
	if !IsValidCouponCode(code) {
		return nil, newError(http.StatusBadRequest, CodeInvalidCouponCode, "Invalid coupon code")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		s.opts.record(aws_pkg.MetricCouponRejections, map[string]string{"Reason": CodeCouponNotFound})
		return nil, newError(http.StatusNotFound, CodeCouponNotFound, "Coupon not found")
	}
	if err != nil {
		s.logger.Error("Failed to look up coupon", zap.String("code", code), zap.Error(err))
		return nil, internalError
	}

	summary, svcErr := s.evaluate(ctx, coupon, in)
	if svcErr != nil {
		s.opts.record(aws_pkg.MetricCouponRejections, map[string]string{"Reason": svcErr.Code})
		return nil, svcErr
	}
	s.opts.record(aws_pkg.MetricCouponValidations, map[string]string{"Currency": summary.Currency})
	return summary, nil
}

// evaluate runs the eligibility checks in order, stopping at the first failure.
func (s *couponServiceImpl) evaluate(ctx context.Context, c *models.Coupon, in models.ValidateCouponInput) (*models.CouponSummary, *ServiceError) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if svcErr := statusError(CouponRuntimeStatus(c, s.opts.now())); svcErr != nil {
		return nil, svcErr
	}

	if !visibilityAllows(c, email) {
		return nil, newError(http.StatusForbidden, CodeCouponRestricted, "This coupon is restricted to another account")
	}

	if c.Currency != "" && !strings.EqualFold(c.Currency, currency) {
		return nil, newError(http.StatusBadRequest, CodeCurrencyMismatch,
			fmt.Sprintf("This coupon is only valid for %s orders", strings.ToUpper(c.Currency)))
	}

	if totalLimitReached(c) {
		return nil, newError(http.StatusBadRequest, CodeTotalLimitReached, "Coupon usage limit reached")
	}

	if minimum := s.inOrderCurrency(c, c.MinOrderAmount, currency); minimum > 0 && in.OrderAmount < minimum {
		return nil, newError(http.StatusBadRequest, CodeMinOrderNotMet,
			fmt.Sprintf("Minimum order amount of %s required", formatAmount(minimum, currency)))
	}

	stats, err := s.repo.UsageStats(ctx, c.ID, email, in.UserID, c.ResetAt)
	if err != nil {
		s.logger.Error("Failed to load coupon usage stats", zap.String("coupon_id", c.ID.String()), zap.Error(err))
		return nil, internalError
	}
	if svcErr := perUserLimitError(c, stats); svcErr != nil {
		return nil, svcErr
	}

	if c.FirstPurchaseOnly {
		if email == "" && in.UserID == "" {
			return nil, newError(http.StatusBadRequest, CodeFirstPurchaseOnly, "Sign in to use this first-purchase coupon")
		}
		has, err := s.purchases.HasPaidPurchase(ctx, email, in.UserID)
		if err != nil {
			s.logger.Error("Failed to check purchase history", zap.Error(err))
			return nil, internalError
		}
		if has {
			return nil, newError(http.StatusBadRequest, CodeFirstPurchaseOnly, "This coupon is only valid on your first purchase")
		}
	}

	discount := ComputeCouponDiscount(c, in.OrderAmount, s.inOrderCurrency(c, c.DiscountValue, currency), currency, in.Items)
	if discount <= 0 {
		return nil, newError(http.StatusBadRequest, CodeNoDiscount, "Coupon does not apply to this order")
	}

	final := pricing.RoundMoney(in.OrderAmount-discount, currency)
	if final < 0 {
		final = 0
	}
	if final <= 0 && !in.AllowZeroFinalAmount {
		return nil, newError(http.StatusBadRequest, CodeZeroFinalAmount, "Coupon cannot make the order free")
	}

	return &models.CouponSummary{
		CouponID:         c.ID,
		Code:             c.Code,
		Description:      c.Description,
		DiscountType:     c.DiscountType,
		DiscountValue:    c.DiscountValue,
		PerUserMode:      c.PerUserMode,
		Visibility:       c.Visibility,
		Currency:         currency,
		OrderAmount:      in.OrderAmount,
		DiscountAmount:   discount,
		FinalAmount:      final,
		ItemQuantityUsed: itemQuantityUsed(c, in.Items),
		ExpiresAt:        c.ExpiresAt,
	}, nil
}

// inOrderCurrency expresses a coupon's monetary field in the order currency.
// Coupons without a currency are priced in INR.
func (s *couponServiceImpl) inOrderCurrency(c *models.Coupon, amount float64, orderCurrency string) float64 {
	if amount <= 0 {
		return 0
	}
	if c.Currency != "" || orderCurrency == pricing.HomeCurrency {
		return amount
	}
	return s.calc.ConvertFromINR(amount, orderCurrency)
}

// ListCheckoutVisibleCoupons returns the public and account-bound coupons the
// order qualifies for, best discount first.
func (s *couponServiceImpl) ListCheckoutVisibleCoupons(ctx context.Context, in models.ValidateCouponInput) ([]models.CouponSummary, *ServiceError) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	candidates, err := s.repo.FindCheckoutCandidates(ctx, email)
	if err != nil {
		s.logger.Error("Failed to list checkout coupons", zap.Error(err))
		return nil, internalError
	}

	result := make([]models.CouponSummary, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.Visibility == models.VisibilityHidden {
			continue
		}
		summary, svcErr := s.evaluate(ctx, c, in)
		if svcErr != nil {
			if svcErr.StatusCode >= http.StatusInternalServerError {
				return nil, svcErr
			}
			continue
		}
		result = append(result, *summary)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DiscountAmount != result[j].DiscountAmount {
			return result[i].DiscountAmount > result[j].DiscountAmount
		}
		return result[i].Code < result[j].Code
	})
	if len(result) > MaxVisibleCoupons {
		result = result[:MaxVisibleCoupons]
	}
	return result, nil
}

var (
	errCouponGone     = errors.New("coupon not found")
	errCouponInactive = errors.New("coupon not active")
	errUsageLimitHit  = errors.New("total limit reached")
)

// ConsumeCouponUsage records a redemption exactly once per payment. The
// coupon row is locked for the duration so the usage record and used_count
// change together.
func (s *couponServiceImpl) ConsumeCouponUsage(ctx context.Context, in models.ConsumeCouponInput) (*models.ConsumeCouponResult, *ServiceError) {
	if in.CouponID == uuid.Nil || strings.TrimSpace(in.PaymentID) == "" {
		return nil, newError(http.StatusBadRequest, CodeInvalidRequest, "couponId and paymentId are required")
	}

	usageID := models.CouponUsageID(in.PaymentID, in.CouponID)
	result := &models.ConsumeCouponResult{OK: true, UsageID: usageID}
	var usage *models.CouponUsage

	err := s.repo.WithTransaction(ctx, func(tx repository.CouponTx) error {
		coupon, err := tx.LockCoupon(in.CouponID)
		if errors.Is(err, repository.ErrNotFound) {
			return errCouponGone
		}
		if err != nil {
			return err
		}

		exists, err := tx.UsageExists(usageID)
		if err != nil {
			return err
		}
		if exists {
			result.AlreadyApplied = true
			return nil
		}

		if CouponRuntimeStatus(coupon, s.opts.now()) != models.CouponStatusActive {
			return errCouponInactive
		}
		if totalLimitReached(coupon) {
			return errUsageLimitHit
		}

		if err := tx.IncrementUsedCount(coupon.ID); err != nil {
			return err
		}
		usage = &models.CouponUsage{
			ID:               usageID,
			CouponID:         coupon.ID,
			CouponCode:       coupon.Code,
			Email:            strings.ToLower(strings.TrimSpace(in.Email)),
			UserID:           in.UserID,
			OrderID:          in.OrderID,
			PaymentID:        in.PaymentID,
			OrderAmount:      in.OrderAmount,
			DiscountAmount:   in.DiscountAmount,
			Currency:         strings.ToUpper(in.Currency),
			ItemQuantityUsed: in.ItemQuantityUsed,
			Status:           models.CouponUsageStatusApplied,
			CreatedAt:        s.opts.now(),
		}
		return tx.CreateUsage(usage)
	})

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicate):
		// A concurrent confirmation for the same payment committed first.
		return &models.ConsumeCouponResult{OK: true, AlreadyApplied: true, UsageID: usageID}, nil
	case errors.Is(err, errCouponGone):
		return nil, newError(http.StatusNotFound, CodeCouponNotFound, "Coupon not found")
	case errors.Is(err, errCouponInactive):
		return nil, newError(http.StatusConflict, CodeCouponNotActive, "Coupon is no longer active")
	case errors.Is(err, errUsageLimitHit):
		return nil, newError(http.StatusConflict, CodeTotalLimitReached, "Coupon usage limit reached")
	default:
		s.logger.Error("Coupon usage transaction failed",
			zap.String("coupon_id", in.CouponID.String()),
			zap.String("payment_id", in.PaymentID),
			zap.Error(err),
		)
		return nil, internalError
	}

	if result.AlreadyApplied {
		s.logger.Info("Coupon usage already recorded", zap.String("usage_id", usageID))
		return result, nil
	}

	s.logger.Info("Coupon usage recorded",
		zap.String("usage_id", usageID),
		zap.String("coupon_code", usage.CouponCode),
		zap.Float64("discount", usage.DiscountAmount),
	)
	s.opts.record(aws_pkg.MetricCouponRedemptions, map[string]string{"Currency": usage.Currency})
	s.publishUsageRecordedEvent(ctx, usage)
	return result, nil
}

// CreateCoupon creates a new coupon on behalf of an admin.
func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest, adminEmail string) (*models.CouponView, *ServiceError) {
	code := NormalizeCouponCode(req.Code)
	if code == "" {
		generated, svcErr := s.GenerateUniqueCode(ctx, req.CodePrefix)
		if svcErr != nil {
			return nil, svcErr
		}
		code = generated
	}
	if !IsValidCouponCode(code) {
		return nil, newError(http.StatusBadRequest, CodeInvalidCouponCode,
			"Coupon code must be 3-32 characters of A-Z, 0-9, '-' or '_'")
	}

	coupon := &models.Coupon{
		Code:              code,
		Description:       strings.TrimSpace(req.Description),
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		Currency:          strings.ToUpper(strings.TrimSpace(req.Currency)),
		IsActive:          true,
		TotalUsageLimit:   req.TotalUsageLimit,
		PerUserLimit:      req.PerUserLimit,
		PerUserMode:       req.PerUserMode,
		MinOrderAmount:    req.MinOrderAmount,
		FirstPurchaseOnly: req.FirstPurchaseOnly,
		Visibility:        req.Visibility,
		BoundEmail:        strings.ToLower(strings.TrimSpace(req.BoundEmail)),
		StartsAt:          req.StartsAt,
		ExpiresAt:         req.ExpiresAt,
		CreatedBy:         adminEmail,
	}
	if coupon.PerUserMode == "" {
		coupon.PerUserMode = models.PerUserUnlimited
	}
	if coupon.Visibility == "" {
		coupon.Visibility = models.VisibilityPublic
	}
	if svcErr := s.checkDefinition(coupon); svcErr != nil {
		return nil, svcErr
	}

	exists, err := s.repo.ActiveCodeExists(ctx, code, uuid.Nil)
	if err != nil {
		s.logger.Error("Failed to check coupon code", zap.Error(err))
		return nil, internalError
	}
	if exists {
		return nil, newError(http.StatusConflict, CodeDuplicateCode, "An active coupon with this code already exists")
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(http.StatusConflict, CodeDuplicateCode, "An active coupon with this code already exists")
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, internalError
	}

	s.logger.Info("Coupon created",
		zap.String("code", coupon.Code),
		zap.String("type", string(coupon.DiscountType)),
		zap.String("created_by", adminEmail),
	)
	return s.view(coupon), nil
}

func (s *couponServiceImpl) checkDefinition(c *models.Coupon) *ServiceError {
	bad := func(msg string) *ServiceError { return newError(http.StatusBadRequest, CodeInvalidRequest, msg) }

	if !c.DiscountType.Valid() {
		return bad("Unknown discount type")
	}
	switch c.DiscountType {
	case models.DiscountPercentage:
		if c.DiscountValue <= 0 || c.DiscountValue > 100 {
			return bad("Percentage discount must be between 0 and 100")
		}
	case models.DiscountFlat:
		if c.DiscountValue <= 0 {
			return bad("Flat discount must be positive")
		}
	case models.DiscountFreeItem:
		c.DiscountValue = 0
	}
	if !c.PerUserMode.Valid() {
		return bad("Unknown per-user mode")
	}
	if !c.Visibility.Valid() {
		return bad("Unknown visibility")
	}
	if c.Visibility == models.VisibilityUserSpecific && c.BoundEmail == "" {
		return bad("User-specific coupons need a bound email")
	}
	if c.Currency != "" && !s.calc.IsSupportedCurrency(c.Currency) {
		return bad("Unsupported coupon currency")
	}
	if c.ExpiresAt != nil {
		if !c.ExpiresAt.After(s.opts.now()) {
			return bad("Expiry date must be in the future")
		}
		if c.StartsAt != nil && !c.ExpiresAt.After(*c.StartsAt) {
			return bad("Expiry date must be after the start date")
		}
	}
	return nil
}

func (s *couponServiceImpl) view(c *models.Coupon) *models.CouponView {
	return &models.CouponView{Coupon: *c, Status: CouponRuntimeStatus(c, s.opts.now())}
}

func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.CouponView, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, internalError
	}
	views := make([]models.CouponView, 0, len(coupons))
	for i := range coupons {
		views = append(views, *s.view(&coupons[i]))
	}
	return views, total, nil
}

func (s *couponServiceImpl) GetCoupon(ctx context.Context, id uuid.UUID) (*models.CouponView, *ServiceError) {
	coupon, svcErr := s.load(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.view(coupon), nil
}

func (s *couponServiceImpl) load(ctx context.Context, id uuid.UUID) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(http.StatusNotFound, CodeCouponNotFound, "Coupon not found")
	}
	if err != nil {
		s.logger.Error("Failed to load coupon", zap.String("coupon_id", id.String()), zap.Error(err))
		return nil, internalError
	}
	return coupon, nil
}

func (s *couponServiceImpl) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.CouponView, *ServiceError) {
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(http.StatusNotFound, CodeCouponNotFound, "Coupon not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, newError(http.StatusConflict, CodeDuplicateCode, "An active coupon with this code already exists")
		}
		s.logger.Error("Failed to update coupon", zap.String("coupon_id", id.String()), zap.Error(err))
		return nil, internalError
	}
	return s.GetCoupon(ctx, id)
}

// DisableCoupon turns a coupon off. Disabling twice is a no-op.
func (s *couponServiceImpl) DisableCoupon(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *ServiceError) {
	coupon, svcErr := s.load(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if !coupon.IsActive {
		return s.view(coupon), nil
	}

	view, svcErr := s.update(ctx, id, map[string]interface{}{
		"is_active":   false,
		"disabled_by": adminEmail,
		"disabled_at": s.opts.now(),
	})
	if svcErr == nil {
		s.logger.Info("Coupon disabled", zap.String("code", coupon.Code), zap.String("by", adminEmail))
	}
	return view, svcErr
}

// EnableCoupon re-activates a coupon unless another active coupon now holds its code.
func (s *couponServiceImpl) EnableCoupon(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *ServiceError) {
	coupon, svcErr := s.load(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if coupon.IsActive {
		return s.view(coupon), nil
	}

	exists, err := s.repo.ActiveCodeExists(ctx, coupon.Code, coupon.ID)
	if err != nil {
		s.logger.Error("Failed to check coupon code", zap.Error(err))
		return nil, internalError
	}
	if exists {
		return nil, newError(http.StatusConflict, CodeDuplicateCode, "An active coupon with this code already exists")
	}

	view, svcErr := s.update(ctx, id, map[string]interface{}{
		"is_active":   true,
		"disabled_by": "",
		"disabled_at": nil,
	})
	if svcErr == nil {
		s.logger.Info("Coupon enabled", zap.String("code", coupon.Code), zap.String("by", adminEmail))
	}
	return view, svcErr
}

// ResetCouponUsage zeroes used_count. Per-user counts restart from the reset
// time; usage records are kept.
func (s *couponServiceImpl) ResetCouponUsage(ctx context.Context, id uuid.UUID, adminEmail string) (*models.CouponView, *ServiceError) {
	coupon, svcErr := s.load(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}

	view, svcErr := s.update(ctx, id, map[string]interface{}{
		"used_count": 0,
		"reset_by":   adminEmail,
		"reset_at":   s.opts.now(),
	})
	if svcErr == nil {
		s.logger.Info("Coupon usage reset",
			zap.String("code", coupon.Code),
			zap.Int("previous_used_count", coupon.UsedCount),
			zap.String("by", adminEmail),
		)
	}
	return view, svcErr
}

func (s *couponServiceImpl) ListCouponUsages(ctx context.Context, id uuid.UUID, page, limit int) ([]models.CouponUsage, int64, *ServiceError) {
	if _, svcErr := s.load(ctx, id); svcErr != nil {
		return nil, 0, svcErr
	}
	usages, total, err := s.repo.FindUsages(ctx, id, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupon usages", zap.Error(err))
		return nil, 0, internalError
	}
	return usages, total, nil
}

// GenerateUniqueCode generates a code not held by any active coupon.
func (s *couponServiceImpl) GenerateUniqueCode(ctx context.Context, prefix string) (string, *ServiceError) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := GenerateCouponCode(prefix)
		if err != nil {
			s.logger.Error("Failed to generate coupon code", zap.Error(err))
			return "", internalError
		}
		exists, err := s.repo.ActiveCodeExists(ctx, code, uuid.Nil)
		if err != nil {
			s.logger.Error("Failed to check coupon code", zap.Error(err))
			return "", internalError
		}
		if !exists {
			return code, nil
		}
	}
	return "", newError(http.StatusConflict, CodeDuplicateCode, "Could not generate a unique code, try another prefix")
}

func (s *couponServiceImpl) publishUsageRecordedEvent(ctx context.Context, usage *models.CouponUsage) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Debug("SNS client not configured, skipping coupon_usage_recorded event")
		return
	}

	event := models.CouponUsageRecordedEvent{
		EventType:      "coupon_usage_recorded",
		UsageID:        usage.ID,
		CouponID:       usage.CouponID.String(),
		CouponCode:     usage.CouponCode,
		OrderID:        usage.OrderID,
		PaymentID:      usage.PaymentID,
		Email:          usage.Email,
		DiscountAmount: usage.DiscountAmount,
		Currency:       usage.Currency,
		Timestamp:      s.opts.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal coupon_usage_recorded event", zap.Error(err))
		return
	}
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, payload); err != nil {
		s.logger.Error("Failed to publish coupon_usage_recorded event", zap.Error(err))
	}
}
