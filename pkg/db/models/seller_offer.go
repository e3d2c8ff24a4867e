package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SellerOffer is one seller's sellable listing of a catalog product. Stock is
// only ever moved through conditional updates; the column must never go
// negative. Offers are deactivated, never hard-deleted.
type SellerOffer struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index:idx_seller_offers_seller"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:idx_seller_offers_product"`
	PricePaise      int64           `gorm:"column:price_paise;not null"`
	UnitValue       decimal.Decimal `gorm:"column:unit_value;type:numeric(10,3);not null;default:1"`
	UnitMeasure     string          `gorm:"column:unit_measure;not null;default:'unit'"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	MinOrderQty     int             `gorm:"column:min_order_qty;not null;default:1"`
	MaxOrderQty     int             `gorm:"column:max_order_qty;not null;default:0"`
	DeliveryDays    int             `gorm:"column:delivery_days;not null;default:1"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
