package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// Repository persists orders and their line items. Settlement state moves
// through guarded updates so an order can never be paid out twice.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts an order together with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Find loads an order with its line items.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkDelivered moves a confirmed or processing order to delivered and stamps
// the delivery time. Zero rows affected means the order was not in a
// deliverable state.
func (r *Repository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []enums.OrderStatus{
			enums.OrderStatusConfirmed,
			enums.OrderStatusProcessing,
		}).
		Updates(map[string]any{
			"status":       enums.OrderStatusDelivered,
			"delivered_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected, res.Error
}

// ListDeliveredPending returns delivered orders inside the period that have
// not been claimed by any payout run, with line items preloaded.
func (r *Repository) ListDeliveredPending(ctx context.Context, periodStart, periodEnd time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", enums.OrderStatusDelivered).
		Where("payout_status = ?", enums.OrderPayoutStatusPending).
		Where("delivered_at >= ? AND delivered_at < ?", periodStart, periodEnd).
		Order("delivered_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// ClaimForPayout moves one order from pending to processing. Zero rows
// affected means another run claimed it first.
func (r *Repository) ClaimForPayout(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payout_status = ?", id, enums.OrderPayoutStatusPending).
		Updates(map[string]any{
			"payout_status": enums.OrderPayoutStatusProcessing,
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// MarkPayoutProcessed settles claimed orders once their payout row exists.
func (r *Repository) MarkPayoutProcessed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ? AND payout_status = ?", ids, enums.OrderPayoutStatusProcessing).
		Updates(map[string]any{
			"payout_status": enums.OrderPayoutStatusProcessed,
			"updated_at":    time.Now().UTC(),
		}).
		Error
}
