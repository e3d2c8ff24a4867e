package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshlane/marketplace-backend/pkg/enums"
	"github.com/freshlane/marketplace-backend/pkg/types"
)

// Order is a placed purchase. TotalPaise is what was charged and is never
// mutated afterwards; refunds live in their own table and the displayed net
// is computed.
type Order struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index:idx_orders_user"`
	Status          enums.OrderStatus       `gorm:"column:status;type:text;not null;default:'pending';index:idx_orders_status"`
	TotalPaise      int64                   `gorm:"column:total_paise;not null"`
	DeliveryAddress *types.Address          `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	PaymentMethod   enums.PaymentMethod     `gorm:"column:payment_method;type:text;not null;default:'cod'"`
	PaymentStatus   enums.PaymentStatus     `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PayoutStatus    enums.OrderPayoutStatus `gorm:"column:payout_status;type:text;not null;default:'pending';index:idx_orders_payout_status"`
	DeliveredAt     *time.Time              `gorm:"column:delivered_at"`
	CancelledAt     *time.Time              `gorm:"column:cancelled_at"`
	Items           []OrderLineItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem snapshots product, seller and price at order time so payouts
// stay stable when offers change later.
type OrderLineItem struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index:idx_order_line_items_order"`
	ProductID     uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	SellerID      uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index:idx_order_line_items_seller"`
	SellerOfferID *uuid.UUID `gorm:"column:seller_offer_id;type:uuid"`
	Name          string     `gorm:"column:name;not null"`
	PricePaise    int64      `gorm:"column:price_paise;not null"`
	Quantity      int        `gorm:"column:quantity;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
