package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// ProductDTO is the API shape for a catalog product.
type ProductDTO struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	SKU              *string           `json:"sku,omitempty"`
	Category         string            `json:"category"`
	Subcategory      *string           `json:"subcategory,omitempty"`
	Unit             enums.ProductUnit `json:"unit"`
	Description      *string           `json:"description,omitempty"`
	ImageURL         *string           `json:"image_url,omitempty"`
	GSTRate          decimal.Decimal   `json:"gst_rate"`
	HSNCode          *string           `json:"hsn_code,omitempty"`
	LegacyPricePaise *int64            `json:"legacy_price_paise,omitempty"`
	IsActive         bool              `json:"is_active"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// OfferDTO is the API shape for a seller offer.
type OfferDTO struct {
	ID              uuid.UUID       `json:"id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	PricePaise      int64           `json:"price_paise"`
	UnitValue       decimal.Decimal `json:"unit_value"`
	UnitMeasure     string          `json:"unit_measure"`
	Stock           int             `json:"stock"`
	IsActive        bool            `json:"is_active"`
	MinOrderQty     int             `json:"min_order_qty"`
	MaxOrderQty     int             `json:"max_order_qty"`
	DeliveryDays    int             `json:"delivery_days"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toProductDTO(p *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:               p.ID,
		Name:             p.Name,
		SKU:              p.SKU,
		Category:         p.Category,
		Subcategory:      p.Subcategory,
		Unit:             p.Unit,
		Description:      p.Description,
		ImageURL:         p.ImageURL,
		GSTRate:          p.GSTRate,
		HSNCode:          p.HSNCode,
		LegacyPricePaise: p.LegacyPricePaise,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toOfferDTO(o *models.SellerOffer) *OfferDTO {
	return &OfferDTO{
		ID:              o.ID,
		SellerID:        o.SellerID,
		ProductID:       o.ProductID,
		PricePaise:      o.PricePaise,
		UnitValue:       o.UnitValue,
		UnitMeasure:     o.UnitMeasure,
		Stock:           o.Stock,
		IsActive:        o.IsActive,
		MinOrderQty:     o.MinOrderQty,
		MaxOrderQty:     o.MaxOrderQty,
		DeliveryDays:    o.DeliveryDays,
		DiscountPercent: o.DiscountPercent,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
