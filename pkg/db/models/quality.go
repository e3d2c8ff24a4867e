package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshlane/marketplace-backend/pkg/enums"
)

// QualityComplaint is a buyer complaint against a seller for a delivered
// order. PenaltyPaise is fixed at recording time from the seller's prior
// complaint count.
type QualityComplaint struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID                `gorm:"column:order_id;type:uuid;not null;index:idx_quality_complaints_order"`
	SellerID     uuid.UUID                `gorm:"column:seller_id;type:uuid;not null;index:idx_quality_complaints_seller"`
	ProductID    uuid.UUID                `gorm:"column:product_id;type:uuid;not null"`
	IssueType    enums.ComplaintIssueType `gorm:"column:issue_type;type:text;not null"`
	Description  string                   `gorm:"column:description;not null"`
	Status       enums.ComplaintStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	PenaltyPaise int64                    `gorm:"column:penalty_paise;not null;default:0"`
	Resolution   *string                  `gorm:"column:resolution"`
	ResolvedAt   *time.Time               `gorm:"column:resolved_at"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// SellerPerformance aggregates a seller's quality signals. Tier feeds the
// commission override; IsSuspended removes the seller from routing.
type SellerPerformance struct {
	SellerID         uuid.UUID        `gorm:"column:seller_id;type:uuid;primaryKey"`
	Tier             enums.SellerTier `gorm:"column:tier;type:text;not null;default:'new'"`
	FulfillmentRate  decimal.Decimal  `gorm:"column:fulfillment_rate;type:numeric(5,2);not null;default:100"`
	CancellationRate decimal.Decimal  `gorm:"column:cancellation_rate;type:numeric(5,2);not null;default:0"`
	QualityScore     decimal.Decimal  `gorm:"column:quality_score;type:numeric(5,2);not null;default:100"`
	TotalOrders      int              `gorm:"column:total_orders;not null;default:0"`
	IsSuspended      bool             `gorm:"column:is_suspended;not null;default:false"`
	SuspendedAt      *time.Time       `gorm:"column:suspended_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Refund is an append-only adjustment against an order. The order total is
// never rewritten; net = total - sum(refunds).
type Refund struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index:idx_refunds_order"`
	ComplaintID *uuid.UUID `gorm:"column:complaint_id;type:uuid"`
	AmountPaise int64      `gorm:"column:amount_paise;not null"`
	Reason      string     `gorm:"column:reason;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
