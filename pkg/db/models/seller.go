package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshlane/marketplace-backend/pkg/types"
)

// Seller is the minimal identity row the core needs: routing eligibility and
// the bank details snapshotted into payouts. The account/auth surface lives
// in a separate system.
type Seller struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	Email       string             `gorm:"column:email;not null;uniqueIndex"`
	Phone       *string            `gorm:"column:phone"`
	BankDetails *types.BankDetails `gorm:"column:bank_details;type:jsonb;serializer:json"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
