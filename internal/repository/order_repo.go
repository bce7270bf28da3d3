package repository

import (
	"context"
	"time"

	"github.com/sokoticket/checkout-service/internal/models"
	"gorm.io/gorm"
)

type OrderRepository interface {
	// Transaction runs fn inside a single database transaction; the
	// confirmation path uses it to make CAS + inventory + issuance atomic.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Create(ctx context.Context, tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	ListPendingByProvider(ctx context.Context, provider string) ([]models.Order, error)
	ListNeedsReview(ctx context.Context) ([]models.Order, error)

	SetPaymentSession(ctx context.Context, orderID, provider, sessionRef, intentID string) error

	// The guarded transitions. Each returns whether the update applied;
	// false means the order already left pending and the caller must skip
	// side effects.
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID, intentID string) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, orderID, reason string) (bool, error)
	FlagForReview(ctx context.Context, orderID, intentID, reason string) (bool, error)
	CancelStale(ctx context.Context, olderThan time.Time) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *orderRepository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListPendingByProvider(ctx context.Context, provider string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("provider = ? AND status = ? AND provider_session_ref <> ''", provider, models.OrderPending).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListNeedsReview(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("needs_review = ?", true).
		Order("updated_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) SetPaymentSession(ctx context.Context, orderID, provider, sessionRef, intentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"provider":             provider,
			"provider_session_ref": sessionRef,
			"payment_intent_id":    intentID,
		}).Error
}

func (r *orderRepository) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, intentID string) (bool, error) {
	return r.transition(ctx, tx, orderID, map[string]any{
		"status":            models.OrderPaid,
		"payment_intent_id": intentID,
	})
}

func (r *orderRepository) MarkFailed(ctx context.Context, tx *gorm.DB, orderID, reason string) (bool, error) {
	return r.transition(ctx, tx, orderID, map[string]any{
		"status":        models.OrderFailed,
		"review_reason": reason,
	})
}

// FlagForReview records a provider-confirmed payment whose inventory commit
// was rejected: the order becomes paid but ticketless, parked for a manual
// refund. Runs outside the confirmation transaction, after its rollback.
func (r *orderRepository) FlagForReview(ctx context.Context, orderID, intentID, reason string) (bool, error) {
	return r.transition(ctx, nil, orderID, map[string]any{
		"status":            models.OrderPaid,
		"payment_intent_id": intentID,
		"needs_review":      true,
		"review_reason":     reason,
	})
}

func (r *orderRepository) CancelStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderPending, olderThan).
		Updates(map[string]any{
			"status":        models.OrderCancelled,
			"review_reason": "expired without payment confirmation",
		})
	return res.RowsAffected, res.Error
}

// transition is the compare-and-swap all pending-exits go through: the
// update applies only while the row is still pending, so replays and races
// collapse to a zero-row no-op.
func (r *orderRepository) transition(ctx context.Context, tx *gorm.DB, orderID string, updates map[string]any) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
