package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// Commission is the platform markup configuration. At most one row may have
// is_active = true, enforced by a partial unique index in the schema.
type Commission struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Rate             decimal.Decimal `gorm:"column:rate;type:numeric(5,2);not null"`
	DeliveryFeePaise int64           `gorm:"column:delivery_fee_paise;not null"`
	UseTiers         bool            `gorm:"column:use_tiers;not null;default:false"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CommissionTier overrides the flat rate for a seller tier when the active
// commission has use_tiers set.
type CommissionTier struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Tier            enums.SellerTier `gorm:"column:tier;type:text;not null;uniqueIndex"`
	Rate            decimal.Decimal  `gorm:"column:rate;type:numeric(5,2);not null"`
	MinOrders       int              `gorm:"column:min_orders;not null;default:0"`
	MinRevenuePaise int64            `gorm:"column:min_revenue_paise;not null;default:0"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
