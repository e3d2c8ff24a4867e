package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// Repository persists commission configuration rows.
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

// FindActive loads the single active commission row.
func (r *Repository) FindActive(ctx context.Context) (*models.Commission, error) {
	var row models.Commission
	if err := r.db.WithContext(ctx).First(&row, "is_active = ?", true).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a commission row.
func (r *Repository) Create(ctx context.Context, row *models.Commission) (*models.Commission, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// DeactivateActive flips the currently active row off. Safe to call when no
// active row exists.
func (r *Repository) DeactivateActive(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("is_active = ?", true).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).
		Error
}

// ListTiers returns every tier override row.
func (r *Repository) ListTiers(ctx context.Context) ([]models.CommissionTier, error) {
	var rows []models.CommissionTier
	err := r.db.WithContext(ctx).Order("tier ASC").Find(&rows).Error
	return rows, err
}

// FindTier loads the override for one seller tier.
func (r *Repository) FindTier(ctx context.Context, tier enums.SellerTier) (*models.CommissionTier, error) {
	var row models.CommissionTier
	if err := r.db.WithContext(ctx).First(&row, "tier = ?", tier).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertTier inserts or replaces the override for a tier.
func (r *Repository) UpsertTier(ctx context.Context, row *models.CommissionTier) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "min_orders", "min_revenue_paise", "updated_at"}),
		}).
		Create(row).
		Error
}
