package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
	"github.com/rakeshsingh12700/dearstudent62-storefront/repository"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
	"github.com/rakeshsingh12700/dearstudent62-storefront/tokenstore"
	"go.uber.org/zap"
)

// --- Mock Coupon Repository ---

// mockCouponRepo keeps coupons and usages in memory. Transactions hold the
// mutex for their whole duration and only apply staged writes on success.
type mockCouponRepo struct {
	mu      sync.Mutex
	coupons map[uuid.UUID]*models.Coupon
	usages  map[string]*models.CouponUsage
	failTx  error
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{
		coupons: make(map[uuid.UUID]*models.Coupon),
		usages:  make(map[string]*models.CouponUsage),
	}
}

func (m *mockCouponRepo) put(c *models.Coupon) *models.Coupon {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.coupons[c.ID] = c
	return c
}

func (m *mockCouponRepo) usedCount(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coupons[id].UsedCount
}

func (m *mockCouponRepo) usageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.usages)
}

func (m *mockCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.coupons[c.ID] = &cp
	return nil
}

func (m *mockCouponRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Coupon
	for _, c := range m.coupons {
		if c.Code != code {
			continue
		}
		if found == nil || (c.IsActive && !found.IsActive) {
			found = c
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockCouponRepo) ActiveCodeExists(_ context.Context, code string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.Code == code && c.IsActive && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCouponRepo) FindAll(_ context.Context, _, _ int) ([]models.Coupon, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Coupon
	for _, c := range m.coupons {
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

func (m *mockCouponRepo) FindCheckoutCandidates(_ context.Context, email string) ([]models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Coupon
	for _, c := range m.coupons {
		if !c.IsActive {
			continue
		}
		if c.Visibility == models.VisibilityPublic ||
			(c.Visibility == models.VisibilityUserSpecific && email != "" && strings.EqualFold(c.BoundEmail, email)) {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCouponRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "is_active":
			c.IsActive = v.(bool)
		case "disabled_by":
			c.DisabledBy = v.(string)
		case "disabled_at":
			if t, ok := v.(time.Time); ok {
				c.DisabledAt = &t
			} else {
				c.DisabledAt = nil
			}
		case "used_count":
			c.UsedCount = v.(int)
		case "reset_by":
			c.ResetBy = v.(string)
		case "reset_at":
			t := v.(time.Time)
			c.ResetAt = &t
		default:
			return fmt.Errorf("unexpected field %q", k)
		}
	}
	return nil
}

func (m *mockCouponRepo) UsageStats(_ context.Context, couponID uuid.UUID, email, userID string, since *time.Time) (models.CouponUsageStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats models.CouponUsageStats
	if email == "" && userID == "" {
		return stats, nil
	}
	orders := map[string]struct{}{}
	for _, u := range m.usages {
		if u.CouponID != couponID {
			continue
		}
		if !((email != "" && u.Email == strings.ToLower(email)) || (userID != "" && u.UserID == userID)) {
			continue
		}
		if since != nil && !u.CreatedAt.After(*since) {
			continue
		}
		stats.Usages++
		stats.Items += int64(u.ItemQuantityUsed)
		orders[u.OrderID] = struct{}{}
	}
	stats.Orders = int64(len(orders))
	return stats, nil
}

func (m *mockCouponRepo) FindUsages(_ context.Context, couponID uuid.UUID, _, _ int) ([]models.CouponUsage, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.CouponUsage
	for _, u := range m.usages {
		if u.CouponID == couponID {
			result = append(result, *u)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockCouponRepo) WithTransaction(_ context.Context, fn func(tx repository.CouponTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTx != nil {
		return m.failTx
	}
	tx := &mockCouponTx{repo: m, increments: map[uuid.UUID]int{}}
	if err := fn(tx); err != nil {
		return err
	}
	for id, n := range tx.increments {
		m.coupons[id].UsedCount += n
	}
	for _, u := range tx.created {
		m.usages[u.ID] = u
	}
	return nil
}

type mockCouponTx struct {
	repo       *mockCouponRepo
	increments map[uuid.UUID]int
	created    []*models.CouponUsage
}

func (t *mockCouponTx) LockCoupon(id uuid.UUID) (*models.Coupon, error) {
	c, ok := t.repo.coupons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (t *mockCouponTx) UsageExists(id string) (bool, error) {
	_, ok := t.repo.usages[id]
	return ok, nil
}

func (t *mockCouponTx) IncrementUsedCount(id uuid.UUID) error {
	t.increments[id]++
	return nil
}

func (t *mockCouponTx) CreateUsage(u *models.CouponUsage) error {
	if _, ok := t.repo.usages[u.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *u
	t.created = append(t.created, &cp)
	return nil
}

// --- Mock Purchase Repository ---

type mockPurchaseRepo struct {
	mu        sync.Mutex
	purchases map[string]*models.Purchase
	paidBy    map[string]bool
	createErr error
}

func newMockPurchaseRepo() *mockPurchaseRepo {
	return &mockPurchaseRepo{purchases: map[string]*models.Purchase{}, paidBy: map[string]bool{}}
}

func (m *mockPurchaseRepo) Create(_ context.Context, p *models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.purchases[p.OrderID] = &cp
	return nil
}

func (m *mockPurchaseRepo) FindByOrderID(_ context.Context, orderID string) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPurchaseRepo) HasPaidPurchase(_ context.Context, email, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paidBy[strings.ToLower(email)] || m.paidBy[userID] {
		return true, nil
	}
	for _, p := range m.purchases {
		if p.Status == models.PurchaseStatusPaid && ((email != "" && p.Email == strings.ToLower(email)) || (userID != "" && p.UserID == userID)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPurchaseRepo) MarkPaid(_ context.Context, orderID, paymentID string, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[orderID]
	if !ok || p.Status != models.PurchaseStatusCreated {
		return false, nil
	}
	p.Status = models.PurchaseStatusPaid
	p.PaymentID = &paymentID
	p.PaidAt = &paidAt
	return true, nil
}

// --- Mock Product Repository ---

type mockProductRepo struct {
	products map[string]*models.Product
	err      error
}

func newMockProductRepo(products ...*models.Product) *mockProductRepo {
	m := &mockProductRepo{products: map[string]*models.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) FindByID(_ context.Context, id string) (*models.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) FindByIDs(_ context.Context, ids []string) (map[string]*models.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]*models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func product(id string, priceINR float64) *models.Product {
	return &models.Product{ID: id, Title: "Worksheet " + id, PriceINR: priceINR, FileKey: "worksheets/" + id + ".pdf", IsActive: true}
}

// --- Mock Token Store ---

type mockTokenStore struct {
	mu     sync.Mutex
	tokens map[string][]byte
	seq    int
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{tokens: map[string][]byte{}}
}

func (m *mockTokenStore) Issue(_ context.Context, payload []byte, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	token := fmt.Sprintf("tok-%d", m.seq)
	m.tokens[token] = payload
	return token, nil
}

func (m *mockTokenStore) Redeem(_ context.Context, token string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.tokens[token]
	if !ok {
		return nil, tokenstore.ErrTokenNotFound
	}
	delete(m.tokens, token)
	return payload, nil
}

func (m *mockTokenStore) claim(t string) models.DownloadClaim {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c models.DownloadClaim
	_ = json.Unmarshal(m.tokens[t], &c)
	return c
}

// --- Mock Presigner ---

type mockPresigner struct {
	keys []string
	err  error
}

func (m *mockPresigner) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return fmt.Sprintf("https://files.example.com/%s?expires=%d", key, int(expiry.Seconds())), nil
}

// --- Mock Payment Gateway ---

type mockGateway struct {
	orders    int
	lastMinor int64
	lastCur   string
	createErr error
	validSig  string
}

func (m *mockGateway) KeyID() string { return "rzp_test_key" }

func (m *mockGateway) CreateOrder(amountMinor int64, currency, _ string, _ map[string]string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.orders++
	m.lastMinor = amountMinor
	m.lastCur = currency
	return fmt.Sprintf("order_%d", m.orders), nil
}

func (m *mockGateway) VerifyPaymentSignature(_, _, signature string) bool {
	return signature == m.validSig
}

// --- Mock SNS Publisher ---

type mockSNSPublisher struct {
	mu        sync.Mutex
	published []string
}

func (m *mockSNSPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var envelope struct {
		EventType string `json:"event_type"`
	}
	_ = json.Unmarshal(message, &envelope)
	m.published = append(m.published, envelope.EventType)
	return nil
}

func (m *mockSNSPublisher) events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.published...)
}

// --- Helpers ---

const testTopicArn = "arn:aws:sns:ap-south-1:000000000000:storefront-events"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newCalculator() *pricing.Calculator {
	return pricing.NewCalculator(pricing.DefaultConfig())
}

func newTestCouponService(repo *mockCouponRepo, purchases *mockPurchaseRepo, sns *mockSNSPublisher) services.CouponService {
	return services.NewCouponService(repo, purchases, newCalculator(), sns, testTopicArn, zap.NewNop(), services.WithClock(clock))
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func activeCoupon(code string, discountType models.DiscountType, value float64) *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: value,
		IsActive:      true,
		PerUserMode:   models.PerUserUnlimited,
		Visibility:    models.VisibilityPublic,
		ExpiresAt:     timePtr(fixedNow.Add(24 * time.Hour)),
	}
}

func inrOrder(code string, amount float64, items ...models.CouponItem) models.ValidateCouponInput {
	if len(items) == 0 {
		items = []models.CouponItem{{ProductID: "p1", UnitPrice: amount, Quantity: 1}}
	}
	return models.ValidateCouponInput{
		Code:        code,
		OrderAmount: amount,
		Currency:    "INR",
		Items:       items,
	}
}

// --- Mock Metrics ---

type mockMetrics struct {
	enabled bool

	mu    sync.Mutex
	names []string
}

func (m *mockMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return nil
}

func (m *mockMetrics) IsEnabled() bool { return m.enabled }

func (m *mockMetrics) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}
