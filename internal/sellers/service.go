package sellers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

// Service is the seller identity and standing surface the rest of the core
// depends on. Every routing or payout decision goes through IsEligibleToSell
// instead of reading flags off the model directly.
type Service interface {
	IsEligibleToSell(ctx context.Context, sellerID uuid.UUID) (bool, error)
	TierFor(ctx context.Context, sellerID uuid.UUID) (enums.SellerTier, error)
	GetSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error)
	GetPerformance(ctx context.Context, sellerID uuid.UUID) (*models.SellerPerformance, error)
	Suspend(ctx context.Context, sellerID uuid.UUID) error
	Reinstate(ctx context.Context, sellerID uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService constructs a sellers service instance.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// IsEligibleToSell reports whether a seller may be routed orders. A seller is
// eligible when the account is active and the performance row, if any, is not
// suspended. A missing performance row means a fresh seller and is eligible.
func (s *service) IsEligibleToSell(ctx context.Context, sellerID uuid.UUID) (bool, error) {
	seller, err := s.repo.FindSeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller")
	}
	if !seller.IsActive {
		return false, nil
	}

	perf, err := s.repo.FindPerformance(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller performance")
	}
	return !perf.IsSuspended, nil
}

// TierFor resolves the seller's commission tier, defaulting to New when no
// performance row exists yet.
func (s *service) TierFor(ctx context.Context, sellerID uuid.UUID) (enums.SellerTier, error) {
	perf, err := s.repo.FindPerformance(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.SellerTierNew, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller performance")
	}
	if !perf.Tier.IsValid() {
		return enums.SellerTierNew, nil
	}
	return perf.Tier, nil
}

// GetSeller loads the seller row.
func (s *service) GetSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	seller, err := s.repo.FindSeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller")
	}
	return seller, nil
}

// GetPerformance loads the performance row, materializing a default for fresh
// sellers so callers always get a value.
func (s *service) GetPerformance(ctx context.Context, sellerID uuid.UUID) (*models.SellerPerformance, error) {
	perf, err := s.repo.FindPerformance(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.SellerPerformance{SellerID: sellerID, Tier: enums.SellerTierNew}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller performance")
	}
	return perf, nil
}

// Suspend removes the seller from routing. Creates the performance row first
// when the seller has never accumulated one.
func (s *service) Suspend(ctx context.Context, sellerID uuid.UUID) error {
	now := s.now().UTC()

	affected, err := s.repo.Suspend(ctx, sellerID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: suspend seller")
	}
	if affected > 0 {
		s.logg.Info(s.logg.WithSellerID(ctx, sellerID.String()), "seller suspended")
		return nil
	}

	// No row updated: either already suspended or no performance row yet.
	if _, err := s.repo.FindPerformance(ctx, sellerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			perf := &models.SellerPerformance{
				SellerID:    sellerID,
				Tier:        enums.SellerTierNew,
				IsSuspended: true,
				SuspendedAt: &now,
			}
			if err := s.repo.UpsertPerformance(ctx, perf); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create suspended performance row")
			}
			s.logg.Info(s.logg.WithSellerID(ctx, sellerID.String()), "seller suspended")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller performance")
	}
	return nil
}

// Reinstate puts a suspended seller back into routing.
func (s *service) Reinstate(ctx context.Context, sellerID uuid.UUID) error {
	affected, err := s.repo.Reinstate(ctx, sellerID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reinstate seller")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "seller is not suspended")
	}
	s.logg.Info(s.logg.WithSellerID(ctx, sellerID.String()), "seller reinstated")
	return nil
}
