package payouts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/internal/orders"
	"github.com/freshlane/marketplace-backend/pkg/db"
	"github.com/freshlane/marketplace-backend/pkg/db/models"
	dbtypes "github.com/freshlane/marketplace-backend/pkg/db/types"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
	"github.com/freshlane/marketplace-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// GenerateResult summarizes one payout run.
type GenerateResult struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	OrderCount  int             `json:"order_count"`
	Payouts     []models.Payout `json:"payouts"`
}

// Service builds and manages seller settlement batches.
type Service interface {
	Generate(ctx context.Context, periodStart, periodEnd time.Time) (*GenerateResult, error)
	MarkStatus(ctx context.Context, payoutID uuid.UUID, status enums.PayoutStatus, note string) (*models.Payout, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error)
}

type rateResolver interface {
	RateForSeller(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error)
}

type sellerReader interface {
	IsEligibleToSell(ctx context.Context, sellerID uuid.UUID) (bool, error)
	GetSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error)
}

type penaltyReader interface {
	SumPenalties(ctx context.Context, sellerID uuid.UUID, periodStart, periodEnd time.Time) (int64, error)
}

type service struct {
	repo      *Repository
	orderRepo *orders.Repository
	dbClient  *db.Client
	rates     rateResolver
	sellers   sellerReader
	penalties penaltyReader
	logg      *logger.Logger
}

// NewService constructs a payouts service instance.
func NewService(repo *Repository, orderRepo *orders.Repository, dbClient *db.Client, rates rateResolver, sellers sellerReader, penalties penaltyReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller reader required")
	}
	if penalties == nil {
		return nil, fmt.Errorf("penalty reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		dbClient:  dbClient,
		rates:     rates,
		sellers:   sellers,
		penalties: penalties,
		logg:      logg,
	}, nil
}

type sellerBucket struct {
	sellerID uuid.UUID
	orderIDs map[uuid.UUID]struct{}
	gross    int64
}

// Generate settles every delivered, unclaimed order in the window. The whole
// run is one transaction: each order is claimed with a guarded update before
// it contributes, so a concurrent run for an overlapping window settles any
// order at most once. Any failure rolls back both the payout rows and the
// claims.
func (s *service) Generate(ctx context.Context, periodStart, periodEnd time.Time) (*GenerateResult, error) {
	if !periodEnd.After(periodStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period_end must be after period_start")
	}

	result := &GenerateResult{PeriodStart: periodStart, PeriodEnd: periodEnd}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		txPayouts := s.repo.WithTx(tx)

		candidates, err := txOrders.ListDeliveredPending(ctx, periodStart, periodEnd)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list settleable orders")
		}

		buckets := make(map[uuid.UUID]*sellerBucket)
		var claimed []uuid.UUID
		for i := range candidates {
			order := candidates[i]
			affected, err := txOrders.ClaimForPayout(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: claim order")
			}
			if affected == 0 {
				continue
			}
			claimed = append(claimed, order.ID)

			for _, item := range order.Items {
				bucket, ok := buckets[item.SellerID]
				if !ok {
					bucket = &sellerBucket{sellerID: item.SellerID, orderIDs: make(map[uuid.UUID]struct{})}
					buckets[item.SellerID] = bucket
				}
				bucket.orderIDs[order.ID] = struct{}{}
				bucket.gross += item.PricePaise * int64(item.Quantity)
			}
		}

		result.OrderCount = len(claimed)
		if len(claimed) == 0 {
			return nil
		}

		sellerIDs := make([]uuid.UUID, 0, len(buckets))
		for id := range buckets {
			sellerIDs = append(sellerIDs, id)
		}
		sort.Slice(sellerIDs, func(i, j int) bool { return sellerIDs[i].String() < sellerIDs[j].String() })

		for _, sellerID := range sellerIDs {
			bucket := buckets[sellerID]
			payout, err := s.buildPayout(ctx, bucket, periodStart, periodEnd)
			if err != nil {
				return err
			}
			if _, err := txPayouts.Create(ctx, payout); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert payout")
			}
			result.Payouts = append(result.Payouts, *payout)
		}

		if err := txOrders.MarkPayoutProcessed(ctx, claimed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: settle claimed orders")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"period_start": periodStart,
		"period_end":   periodEnd,
		"orders":       result.OrderCount,
		"payouts":      len(result.Payouts),
	}), "payout run generated")
	return result, nil
}

// buildPayout assembles one seller's batch. Penalties recorded in the window
// land as a negative adjustment; a seller suspended mid-period still gets
// the row, held instead of paid.
func (s *service) buildPayout(ctx context.Context, bucket *sellerBucket, periodStart, periodEnd time.Time) (*models.Payout, error) {
	rate, err := s.rates.RateForSeller(ctx, bucket.sellerID)
	if err != nil {
		return nil, err
	}

	gross := decimal.NewFromInt(bucket.gross)
	commission := gross.Mul(rate).Div(hundred).Round(0).IntPart()

	penalties, err := s.penalties.SumPenalties(ctx, bucket.sellerID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	adjustments := -penalties
	net := bucket.gross - commission + adjustments
	if net < 0 {
		net = 0
	}

	status := enums.PayoutStatusPending
	eligible, err := s.sellers.IsEligibleToSell(ctx, bucket.sellerID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		status = enums.PayoutStatusOnHold
	}

	// A vanished seller profile only costs the bank snapshot; a failing
	// lookup aborts the run rather than writing a payout with no account
	// to clear against.
	var bank *types.BankDetails
	seller, err := s.sellers.GetSeller(ctx, bucket.sellerID)
	switch {
	case err == nil:
		bank = seller.BankDetails
	case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
	default:
		return nil, err
	}

	orderIDs := make(dbtypes.UUIDArray, 0, len(bucket.orderIDs))
	for id := range bucket.orderIDs {
		orderIDs = append(orderIDs, id)
	}
	sort.Slice(orderIDs, func(i, j int) bool { return orderIDs[i].String() < orderIDs[j].String() })

	return &models.Payout{
		SellerID:         bucket.sellerID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		OrderIDs:         orderIDs,
		GrossPaise:       bucket.gross,
		CommissionRate:   rate,
		CommissionPaise:  commission,
		AdjustmentsPaise: adjustments,
		NetPaise:         net,
		Status:           status,
		BankDetails:      bank,
	}, nil
}

// MarkStatus moves a payout through the clearing flow. Completed payouts are
// immutable except for appended audit notes.
func (s *service) MarkStatus(ctx context.Context, payoutID uuid.UUID, status enums.PayoutStatus, note string) (*models.Payout, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status")
	}

	row, err := s.repo.Find(ctx, payoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payout")
	}

	if row.Status == enums.PayoutStatusCompleted {
		if status != enums.PayoutStatusCompleted || note == "" {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "completed payouts are immutable")
		}
	} else if row.Status != status {
		affected, err := s.repo.UpdateStatus(ctx, payoutID, status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update payout status")
		}
		if affected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "completed payouts are immutable")
		}
	}

	if note != "" {
		if err := s.repo.AppendAuditNote(ctx, payoutID, note); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append audit note")
		}
	}

	fresh, err := s.repo.Find(ctx, payoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload payout")
	}
	return fresh, nil
}

// ListBySeller returns a seller's settlement history.
func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list payouts")
	}
	return rows, nil
}
