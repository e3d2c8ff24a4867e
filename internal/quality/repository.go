package quality

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// Repository persists quality complaints and refunds.
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

// CreateComplaint inserts a complaint row.
func (r *Repository) CreateComplaint(ctx context.Context, row *models.QualityComplaint) (*models.QualityComplaint, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindComplaint loads a complaint by id.
func (r *Repository) FindComplaint(ctx context.Context, id uuid.UUID) (*models.QualityComplaint, error) {
	var row models.QualityComplaint
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CountPriorCountable counts the seller's existing complaints that feed the
// penalty ladder.
func (r *Repository) CountPriorCountable(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QualityComplaint{}).
		Where("seller_id = ? AND status IN ?", sellerID, []enums.ComplaintStatus{
			enums.ComplaintStatusResolved,
			enums.ComplaintStatusInvestigating,
		}).
		Count(&count).
		Error
	return count, err
}

// UpdateComplaint applies the provided column updates.
func (r *Repository) UpdateComplaint(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.QualityComplaint{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// ListBySeller returns the seller's complaints, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.QualityComplaint, error) {
	var rows []models.QualityComplaint
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// CreateRefund appends a refund row. Refunds are never updated or deleted.
func (r *Repository) CreateRefund(ctx context.Context, row *models.Refund) (*models.Refund, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// SumRefunds totals the refunds recorded against an order.
func (r *Repository) SumRefunds(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(amount_paise), 0)").
		Scan(&total).
		Error
	return total, err
}

// SumPenalties totals penalties from complaints resolved inside the window.
// Feeds payout adjustments.
func (r *Repository) SumPenalties(ctx context.Context, sellerID uuid.UUID, periodStart, periodEnd time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.QualityComplaint{}).
		Where("seller_id = ? AND status = ?", sellerID, enums.ComplaintStatusResolved).
		Where("resolved_at >= ? AND resolved_at < ?", periodStart, periodEnd).
		Select("COALESCE(SUM(penalty_paise), 0)").
		Scan(&total).
		Error
	return total, err
}
