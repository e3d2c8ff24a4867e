package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// Product is the admin-owned catalog entry. It never carries live price or
// stock; those belong to the SellerOffer rows referencing it.
type Product struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string            `gorm:"column:name;not null"`
	SKU              *string           `gorm:"column:sku;uniqueIndex"`
	Category         string            `gorm:"column:category;not null"`
	Subcategory      *string           `gorm:"column:subcategory"`
	Unit             enums.ProductUnit `gorm:"column:unit;type:text;not null"`
	Description      *string           `gorm:"column:description"`
	ImageURL         *string           `gorm:"column:image_url"`
	GSTRate          decimal.Decimal   `gorm:"column:gst_rate;type:numeric(5,2);not null;default:0"`
	HSNCode          *string           `gorm:"column:hsn_code"`
	LegacyPricePaise *int64            `gorm:"column:legacy_price_paise"`
	IsActive         bool              `gorm:"column:is_active;not null;default:true"`
	Offers           []SellerOffer     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
