package sellers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
)

// Repository persists sellers and their performance rows.
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

// FindSeller loads a seller by id.
func (r *Repository) FindSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// FindPerformance loads a seller's performance row if one exists.
func (r *Repository) FindPerformance(ctx context.Context, sellerID uuid.UUID) (*models.SellerPerformance, error) {
	var perf models.SellerPerformance
	if err := r.db.WithContext(ctx).First(&perf, "seller_id = ?", sellerID).Error; err != nil {
		return nil, err
	}
	return &perf, nil
}

// UpsertPerformance inserts or replaces the seller's performance row.
func (r *Repository) UpsertPerformance(ctx context.Context, perf *models.SellerPerformance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seller_id"}},
			UpdateAll: true,
		}).
		Create(perf).
		Error
}

// Suspend marks the performance row suspended. Returns the number of rows
// changed so callers can tell an already-suspended seller apart.
func (r *Repository) Suspend(ctx context.Context, sellerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SellerPerformance{}).
		Where("seller_id = ? AND is_suspended = ?", sellerID, false).
		Updates(map[string]any{"is_suspended": true, "suspended_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

// Reinstate clears the suspension flag.
func (r *Repository) Reinstate(ctx context.Context, sellerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SellerPerformance{}).
		Where("seller_id = ? AND is_suspended = ?", sellerID, true).
		Updates(map[string]any{"is_suspended": false, "suspended_at": nil, "updated_at": at})
	return res.RowsAffected, res.Error
}
