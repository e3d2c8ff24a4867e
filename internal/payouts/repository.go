package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// Repository persists payout batches.
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

// Create inserts a payout row. The unique (seller_id, period_start,
// period_end) index rejects a duplicate batch for the same window.
func (r *Repository) Create(ctx context.Context, row *models.Payout) (*models.Payout, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Find loads a payout by id.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var row models.Payout
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListBySeller returns a seller's payouts, newest period first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("period_start DESC").
		Find(&rows).
		Error
	return rows, err
}

// ExistsForPeriod reports whether any payout was already generated for the
// window.
func (r *Repository) ExistsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("period_start = ? AND period_end = ?", periodStart, periodEnd).
		Count(&count).
		Error
	return count > 0, err
}

// UpdateStatus moves a payout between settlement states. Completed payouts
// never move again; the guard excludes them.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, to enums.PayoutStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status <> ?", id, enums.PayoutStatusCompleted).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// AppendAuditNote adds a line to the payout's audit trail. Allowed in any
// state, including completed.
func (r *Repository) AppendAuditNote(ctx context.Context, id uuid.UUID, note string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"audit_notes": gorm.Expr("CASE WHEN audit_notes IS NULL THEN ? ELSE audit_notes || ? END", note, "\n"+note),
			"updated_at":  time.Now().UTC(),
		}).
		Error
}
