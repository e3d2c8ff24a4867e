package quality

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/internal/orders"
	"github.com/freshlane/marketplace-backend/pkg/db"
	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

// Penalty ladder in paise, indexed by the seller's prior countable
// complaints. Once prior complaints reach suspendThreshold the repeat
// penalty applies and the seller is also suspended.
var penaltyLadder = []int64{0, 50000, 100000}

const (
	repeatPenaltyPaise = int64(200000)
	suspendThreshold   = 3
)

// RecordInput is a new buyer complaint.
type RecordInput struct {
	OrderID     uuid.UUID
	SellerID    uuid.UUID
	ProductID   uuid.UUID
	IssueType   enums.ComplaintIssueType
	Description string
}

// ResolveInput closes or advances a complaint.
type ResolveInput struct {
	Status      enums.ComplaintStatus
	Resolution  *string
	RefundPaise *int64
}

// OrderNetDTO is the computed settlement view of one order.
type OrderNetDTO struct {
	OrderID      uuid.UUID `json:"order_id"`
	TotalPaise   int64     `json:"total_paise"`
	RefundsPaise int64     `json:"refunds_paise"`
	NetPaise     int64     `json:"net_paise"`
}

// Service runs the complaint and penalty loop.
type Service interface {
	RecordComplaint(ctx context.Context, input RecordInput) (*models.QualityComplaint, error)
	ResolveComplaint(ctx context.Context, complaintID uuid.UUID, input ResolveInput) (*models.QualityComplaint, error)
	OrderNet(ctx context.Context, orderID uuid.UUID) (*OrderNetDTO, error)
	SumPenalties(ctx context.Context, sellerID uuid.UUID, periodStart, periodEnd time.Time) (int64, error)
}

type suspender interface {
	Suspend(ctx context.Context, sellerID uuid.UUID) error
}

type service struct {
	repo      *Repository
	orderRepo *orders.Repository
	dbClient  *db.Client
	sellers   suspender
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs a quality service instance.
func NewService(repo *Repository, orderRepo *orders.Repository, dbClient *db.Client, sellers suspender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quality repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller suspender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		dbClient:  dbClient,
		sellers:   sellers,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// penaltyFor maps a prior countable complaint count onto the ladder.
func penaltyFor(prior int64) int64 {
	if prior < int64(len(penaltyLadder)) {
		return penaltyLadder[prior]
	}
	return repeatPenaltyPaise
}

// RecordComplaint files a complaint against the seller of a delivered order.
// The penalty is fixed at recording time from the seller's prior countable
// complaints; crossing the repeat threshold also suspends the seller.
func (s *service) RecordComplaint(ctx context.Context, input RecordInput) (*models.QualityComplaint, error) {
	if !input.IssueType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid issue type")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}

	order, err := s.orderRepo.Find(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "complaints require a delivered order")
	}
	sellerOnOrder := false
	for _, item := range order.Items {
		if item.SellerID == input.SellerID {
			sellerOnOrder = true
			break
		}
	}
	if !sellerOnOrder {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller did not fulfil this order")
	}

	var created *models.QualityComplaint
	var suspend bool
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		prior, err := txRepo.CountPriorCountable(ctx, input.SellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count prior complaints")
		}

		row := &models.QualityComplaint{
			OrderID:      input.OrderID,
			SellerID:     input.SellerID,
			ProductID:    input.ProductID,
			IssueType:    input.IssueType,
			Description:  strings.TrimSpace(input.Description),
			Status:       enums.ComplaintStatusPending,
			PenaltyPaise: penaltyFor(prior),
		}
		created, err = txRepo.CreateComplaint(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert complaint")
		}
		suspend = prior >= suspendThreshold
		return nil
	}); err != nil {
		return nil, err
	}

	if suspend {
		if err := s.sellers.Suspend(ctx, input.SellerID); err != nil {
			s.logg.Error(ctx, "suspend seller after repeat complaints", err)
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"seller_id":     input.SellerID.String(),
		"order_id":      input.OrderID.String(),
		"penalty_paise": created.PenaltyPaise,
		"suspended":     suspend,
	}), "quality complaint recorded")
	return created, nil
}

// ResolveComplaint advances triage. A refund lands as an append-only Refund
// row against the order; the order total is never rewritten.
func (s *service) ResolveComplaint(ctx context.Context, complaintID uuid.UUID, input ResolveInput) (*models.QualityComplaint, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid complaint status")
	}
	if input.RefundPaise != nil && *input.RefundPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund_paise must be positive")
	}

	row, err := s.repo.FindComplaint(ctx, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "complaint not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load complaint")
	}
	if row.Status == enums.ComplaintStatusResolved || row.Status == enums.ComplaintStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "complaint is already closed")
	}

	updates := map[string]any{
		"status":     input.Status,
		"updated_at": s.now().UTC(),
	}
	if input.Resolution != nil {
		updates["resolution"] = *input.Resolution
	}
	if input.Status == enums.ComplaintStatusResolved || input.Status == enums.ComplaintStatusRejected {
		updates["resolved_at"] = s.now().UTC()
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateComplaint(ctx, complaintID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update complaint")
		}
		if input.RefundPaise != nil {
			refund := &models.Refund{
				OrderID:     row.OrderID,
				ComplaintID: &row.ID,
				AmountPaise: *input.RefundPaise,
				Reason:      fmt.Sprintf("complaint %s: %s", row.ID, row.IssueType),
			}
			if _, err := txRepo.CreateRefund(ctx, refund); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert refund")
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	fresh, err := s.repo.FindComplaint(ctx, complaintID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload complaint")
	}
	return fresh, nil
}

// OrderNet reports what the order is worth after refunds.
func (s *service) OrderNet(ctx context.Context, orderID uuid.UUID) (*OrderNetDTO, error) {
	order, err := s.orderRepo.Find(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}

	refunds, err := s.repo.SumRefunds(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum refunds")
	}

	return &OrderNetDTO{
		OrderID:      orderID,
		TotalPaise:   order.TotalPaise,
		RefundsPaise: refunds,
		NetPaise:     order.TotalPaise - refunds,
	}, nil
}

// SumPenalties exposes the period penalty total for payout adjustments.
func (s *service) SumPenalties(ctx context.Context, sellerID uuid.UUID, periodStart, periodEnd time.Time) (int64, error) {
	total, err := s.repo.SumPenalties(ctx, sellerID, periodStart, periodEnd)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum penalties")
	}
	return total, nil
}
