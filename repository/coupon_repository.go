package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	ActiveCodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error)
	FindCheckoutCandidates(ctx context.Context, email string) ([]models.Coupon, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UsageStats(ctx context.Context, couponID uuid.UUID, email, userID string, since *time.Time) (models.CouponUsageStats, error)
	FindUsages(ctx context.Context, couponID uuid.UUID, page, limit int) ([]models.CouponUsage, int64, error)
	WithTransaction(ctx context.Context, fn func(tx CouponTx) error) error
}

// CouponTx is the set of operations available inside a consume transaction.
type CouponTx interface {
	LockCoupon(id uuid.UUID) (*models.Coupon, error)
	UsageExists(id string) (bool, error)
	IncrementUsedCount(id uuid.UUID) error
	CreateUsage(usage *models.CouponUsage) error
}

// GormCouponRepository implements CouponRepository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository.
func NewGormCouponRepository(db *gorm.DB) CouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return translate(r.db.WithContext(ctx).Create(coupon).Error)
}

func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

// FindByCode returns the active coupon holding code, or the most recently
// updated inactive one so callers can report why it is unusable.
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Order("is_active DESC").
		Order("updated_at DESC").
		First(&coupon).Error
	if err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

func (r *GormCouponRepository) ActiveCodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ? AND is_active = ?", code, true)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll retrieves paginated coupons, newest first.
func (r *GormCouponRepository) FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// FindCheckoutCandidates returns active public coupons plus those bound to email.
// Hidden coupons are never returned.
func (r *GormCouponRepository) FindCheckoutCandidates(ctx context.Context, email string) ([]models.Coupon, error) {
	var coupons []models.Coupon
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if email != "" {
		q = q.Where("visibility = ? OR (visibility = ? AND LOWER(bound_email) = ?)",
			models.VisibilityPublic, models.VisibilityUserSpecific, strings.ToLower(email))
	} else {
		q = q.Where("visibility = ?", models.VisibilityPublic)
	}
	if err := q.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// UpdateFields writes only the given columns so concurrent used_count
// increments are not overwritten.
func (r *GormCouponRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UsageStats counts a user's redemptions of a coupon, matching on email or user id.
// When since is set only usages after it are counted.
func (r *GormCouponRepository) UsageStats(ctx context.Context, couponID uuid.UUID, email, userID string, since *time.Time) (models.CouponUsageStats, error) {
	var stats models.CouponUsageStats
	if email == "" && userID == "" {
		return stats, nil
	}

	q := r.db.WithContext(ctx).Model(&models.CouponUsage{}).
		Select("COUNT(*) AS usages, COUNT(DISTINCT order_id) AS orders, COALESCE(SUM(item_quantity_used), 0) AS items").
		Where("coupon_id = ?", couponID)

	switch {
	case email != "" && userID != "":
		q = q.Where("(email = ? OR user_id = ?)", strings.ToLower(email), userID)
	case email != "":
		q = q.Where("email = ?", strings.ToLower(email))
	default:
		q = q.Where("user_id = ?", userID)
	}
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}

	if err := q.Scan(&stats).Error; err != nil {
		return stats, fmt.Errorf("coupon usage stats: %w", err)
	}
	return stats, nil
}

func (r *GormCouponRepository) FindUsages(ctx context.Context, couponID uuid.UUID, page, limit int) ([]models.CouponUsage, int64, error) {
	var usages []models.CouponUsage
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CouponUsage{}).Where("coupon_id = ?", couponID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}

// WithTransaction runs fn inside a database transaction. Returning an error
// from fn rolls it back.
func (r *GormCouponRepository) WithTransaction(ctx context.Context, fn func(tx CouponTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCouponTx{tx: tx})
	})
}

type gormCouponTx struct {
	tx *gorm.DB
}

// LockCoupon reads the coupon with SELECT ... FOR UPDATE, serializing
// concurrent consumers of the same coupon.
func (t *gormCouponTx) LockCoupon(id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&coupon).Error
	if err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

func (t *gormCouponTx) UsageExists(id string) (bool, error) {
	var count int64
	if err := t.tx.Model(&models.CouponUsage{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *gormCouponTx) IncrementUsedCount(id uuid.UUID) error {
	return t.tx.Model(&models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).
		Error
}

func (t *gormCouponTx) CreateUsage(usage *models.CouponUsage) error {
	return translate(t.tx.Create(usage).Error)
}
