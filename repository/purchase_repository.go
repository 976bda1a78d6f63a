package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *models.Purchase) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Purchase, error)
	HasPaidPurchase(ctx context.Context, email, userID string) (bool, error)
	MarkPaid(ctx context.Context, orderID, paymentID string, paidAt time.Time) (bool, error)
}

type gormPurchaseRepo struct {
	db *gorm.DB
}

func NewGormPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &gormPurchaseRepo{db: db}
}

func (r *gormPurchaseRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	return translate(r.db.WithContext(ctx).Create(purchase).Error)
}

func (r *gormPurchaseRepo) FindByOrderID(ctx context.Context, orderID string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&purchase).Error; err != nil {
		return nil, translate(err)
	}
	return &purchase, nil
}

// HasPaidPurchase reports whether the buyer, by email or user id, has any paid order.
func (r *gormPurchaseRepo) HasPaidPurchase(ctx context.Context, email, userID string) (bool, error) {
	if email == "" && userID == "" {
		return false, nil
	}

	var count int64
	q := r.db.WithContext(ctx).Model(&models.Purchase{}).Where("status = ?", models.PurchaseStatusPaid)
	switch {
	case email != "" && userID != "":
		q = q.Where("(email = ? OR user_id = ?)", strings.ToLower(email), userID)
	case email != "":
		q = q.Where("email = ?", strings.ToLower(email))
	default:
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkPaid moves a created purchase to paid. It returns false when no row
// in the created state matched.
func (r *gormPurchaseRepo) MarkPaid(ctx context.Context, orderID, paymentID string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("order_id = ? AND status = ?", orderID, models.PurchaseStatusCreated).
		Updates(map[string]interface{}{
			"status":     models.PurchaseStatusPaid,
			"payment_id": paymentID,
			"paid_at":    paidAt,
		})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected > 0, nil
}
