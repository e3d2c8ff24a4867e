package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// Repository persists stock reservations and moves offer stock. All stock
// movement goes through conditional updates so the column can never go
// negative under concurrency.
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

// DecrementStock subtracts quantity from an offer only when the offer is
// active and has at least that much stock. Returns rows affected; zero means
// the guard failed and no stock moved.
func (r *Repository) DecrementStock(ctx context.Context, offerID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SellerOffer{}).
		Where("id = ? AND is_active = ? AND stock >= ?", offerID, true, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// IncrementStock returns quantity to an offer. Used when a hold is cancelled
// or expires.
func (r *Repository) IncrementStock(ctx context.Context, offerID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerOffer{}).
		Where("id = ?", offerID).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": time.Now().UTC(),
		}).
		Error
}

// Create inserts a reservation row.
func (r *Repository) Create(ctx context.Context, row *models.StockReservation) (*models.StockReservation, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Find loads a reservation by id.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.StockReservation, error) {
	var row models.StockReservation
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUser returns a user's reservations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StockReservation, error) {
	var rows []models.StockReservation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// Transition moves a reservation out of the active state. The status guard
// makes terminal transitions first-writer-wins: zero rows affected means
// someone else already moved it.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, to enums.ReservationStatus, orderID *uuid.UUID) (int64, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if orderID != nil {
		updates["order_id"] = *orderID
	}
	res := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("id = ? AND status = ?", id, enums.ReservationStatusActive).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ListExpired returns active reservations whose hold has lapsed, oldest
// first, capped at limit.
func (r *Repository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.StockReservation, error) {
	var rows []models.StockReservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", enums.ReservationStatusActive, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
