package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/freshlane/marketplace-backend/pkg/db/types"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	"github.com/freshlane/marketplace-backend/pkg/types"
)

// Payout is one seller's settlement batch for a period. Immutable once
// completed, except for appended audit notes.
type Payout struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID         uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index:idx_payouts_seller"`
	PeriodStart      time.Time          `gorm:"column:period_start;not null"`
	PeriodEnd        time.Time          `gorm:"column:period_end;not null"`
	OrderIDs         dbtypes.UUIDArray  `gorm:"column:order_ids;type:uuid[]"`
	GrossPaise       int64              `gorm:"column:gross_paise;not null"`
	CommissionRate   decimal.Decimal    `gorm:"column:commission_rate;type:numeric(5,2);not null"`
	CommissionPaise  int64              `gorm:"column:commission_paise;not null"`
	AdjustmentsPaise int64              `gorm:"column:adjustments_paise;not null;default:0"`
	NetPaise         int64              `gorm:"column:net_paise;not null"`
	Status           enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	BankDetails      *types.BankDetails `gorm:"column:bank_details;type:jsonb;serializer:json"`
	AuditNotes       *string            `gorm:"column:audit_notes"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
