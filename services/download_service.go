package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	aws_pkg "github.com/rakeshsingh12700/dearstudent62-storefront/pkg/aws"
	"github.com/rakeshsingh12700/dearstudent62-storefront/repository"
	"github.com/rakeshsingh12700/dearstudent62-storefront/tokenstore"
	"go.uber.org/zap"
)

const (
	DefaultDownloadTokenTTL = 15 * time.Minute
	DefaultPresignTTL       = 5 * time.Minute
)

// ObjectPresigner signs temporary GET URLs for stored files.
type ObjectPresigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// DownloadService hands out single-use download tokens for paid products and
// exchanges them for object URLs.
type DownloadService interface {
	IssueGrants(ctx context.Context, orderID, email string, items []models.PurchaseItem) ([]models.DownloadGrant, *ServiceError)
	Redeem(ctx context.Context, token string) (*models.DownloadLink, *ServiceError)
}

type downloadServiceImpl struct {
	tokens     tokenstore.Store
	products   repository.ProductRepository
	presigner  ObjectPresigner
	tokenTTL   time.Duration
	presignTTL time.Duration
	logger     *zap.Logger
	opts       serviceOptions
}

// NewDownloadService creates a DownloadService. Non-positive durations use
// the package defaults.
func NewDownloadService(
	tokens tokenstore.Store,
	products repository.ProductRepository,
	presigner ObjectPresigner,
	tokenTTL, presignTTL time.Duration,
	logger *zap.Logger,
	opts ...Option,
) DownloadService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultDownloadTokenTTL
	}
	if presignTTL <= 0 {
		presignTTL = DefaultPresignTTL
	}
	return &downloadServiceImpl{
		tokens:     tokens,
		products:   products,
		presigner:  presigner,
		tokenTTL:   tokenTTL,
		presignTTL: presignTTL,
		logger:     logger,
		opts:       buildOptions(opts),
	}
}

// IssueGrants creates one token per purchased product.
func (s *downloadServiceImpl) IssueGrants(ctx context.Context, orderID, email string, items []models.PurchaseItem) ([]models.DownloadGrant, *ServiceError) {
	grants := make([]models.DownloadGrant, 0, len(items))
	for _, it := range items {
		payload, err := json.Marshal(models.DownloadClaim{ProductID: it.ProductID, OrderID: orderID, Email: email})
		if err != nil {
			s.logger.Error("Failed to marshal download claim", zap.Error(err))
			return nil, internalError
		}
		token, err := s.tokens.Issue(ctx, payload, s.tokenTTL)
		if err != nil {
			s.logger.Error("Failed to issue download token",
				zap.String("order_id", orderID),
				zap.String("product_id", it.ProductID),
				zap.Error(err),
			)
			return nil, internalError
		}
		grants = append(grants, models.DownloadGrant{
			ProductID: it.ProductID,
			Title:     it.Title,
			Token:     token,
			ExpiresAt: s.opts.now().Add(s.tokenTTL),
		})
	}
	if len(grants) > 0 {
		s.opts.record(aws_pkg.MetricDownloadsIssued, nil)
	}
	return grants, nil
}

// Redeem consumes a token and returns a presigned URL for its product file.
func (s *downloadServiceImpl) Redeem(ctx context.Context, token string) (*models.DownloadLink, *ServiceError) {
	raw, err := s.tokens.Redeem(ctx, token)
	if errors.Is(err, tokenstore.ErrTokenNotFound) {
		return nil, newError(http.StatusGone, CodeTokenInvalid, "Download link is invalid or has expired")
	}
	if err != nil {
		s.logger.Error("Failed to redeem download token", zap.Error(err))
		return nil, internalError
	}

	var claim models.DownloadClaim
	if err := json.Unmarshal(raw, &claim); err != nil || claim.ProductID == "" {
		s.logger.Warn("Malformed download claim", zap.Error(err))
		return nil, newError(http.StatusGone, CodeTokenInvalid, "Download link is invalid or has expired")
	}

	product, err := s.products.FindByID(ctx, claim.ProductID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && product.FileKey == "") {
		return nil, newError(http.StatusNotFound, CodeNotFound, "File not available for this product")
	}
	if err != nil {
		s.logger.Error("Failed to load product for download", zap.String("product_id", claim.ProductID), zap.Error(err))
		return nil, internalError
	}

	url, err := s.presigner.PresignGet(ctx, product.FileKey, s.presignTTL)
	if err != nil {
		s.logger.Error("Failed to presign download", zap.String("product_id", product.ID), zap.Error(err))
		return nil, internalError
	}

	s.logger.Info("Download redeemed", zap.String("order_id", claim.OrderID), zap.String("product_id", product.ID))
	s.opts.record(aws_pkg.MetricDownloadsRedeemed, nil)
	return &models.DownloadLink{
		ProductID: product.ID,
		URL:       url,
		ExpiresAt: s.opts.now().Add(s.presignTTL),
	}, nil
}
