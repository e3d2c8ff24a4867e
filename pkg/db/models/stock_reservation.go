package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// StockReservation is a time-boxed hold against a seller offer's stock. The
// decrement happens when the row is created; completed reservations keep the
// stock, cancelled and expired ones return it.
type StockReservation struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index:idx_stock_reservations_user"`
	SellerOfferID uuid.UUID               `gorm:"column:seller_offer_id;type:uuid;not null;index:idx_stock_reservations_offer"`
	Quantity      int                     `gorm:"column:quantity;not null"`
	Status        enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'active';index:idx_stock_reservations_status"`
	OrderID       *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	ExpiresAt     time.Time               `gorm:"column:expires_at;not null;index:idx_stock_reservations_expiry"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
