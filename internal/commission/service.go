package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db"
	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

// Defaults materialized when no commission config exists yet.
var (
	DefaultRate             = decimal.NewFromInt(10)
	DefaultDeliveryFeePaise = int64(3000)

	maxRate = decimal.NewFromInt(100)
)

// ConfigDTO is the resolved commission configuration.
type ConfigDTO struct {
	ID               uuid.UUID       `json:"id"`
	Rate             decimal.Decimal `json:"rate"`
	DeliveryFeePaise int64           `json:"delivery_fee_paise"`
	UseTiers         bool            `json:"use_tiers"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// UpdateInput replaces the active configuration.
type UpdateInput struct {
	Rate             decimal.Decimal
	DeliveryFeePaise int64
	UseTiers         bool
}

// TierInput upserts one seller-tier override.
type TierInput struct {
	Tier            enums.SellerTier
	Rate            decimal.Decimal
	MinOrders       int
	MinRevenuePaise int64
}

// Service resolves and manages the platform commission configuration.
type Service interface {
	GetActive(ctx context.Context) (*ConfigDTO, error)
	Update(ctx context.Context, input UpdateInput) (*ConfigDTO, error)
	ListTiers(ctx context.Context) ([]models.CommissionTier, error)
	UpsertTier(ctx context.Context, input TierInput) (*models.CommissionTier, error)
	RateForSeller(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error)
	DeliveryFeePaise(ctx context.Context) (int64, error)
}

type tierResolver interface {
	TierFor(ctx context.Context, sellerID uuid.UUID) (enums.SellerTier, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	tiers    tierResolver
	logg     *logger.Logger
}

// NewService constructs a commission service instance.
func NewService(repo *Repository, dbClient *db.Client, tiers tierResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if tiers == nil {
		return nil, fmt.Errorf("tier resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, tiers: tiers, logg: logg}, nil
}

// GetActive returns the active commission config, materializing the default
// row on first access. Concurrent first calls race on the partial unique
// index; the loser re-reads, so both return the same row.
func (s *service) GetActive(ctx context.Context) (*ConfigDTO, error) {
	row, err := s.repo.FindActive(ctx)
	if err == nil {
		return toConfigDTO(row), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load active commission")
	}

	created, err := s.repo.Create(ctx, &models.Commission{
		Rate:             DefaultRate,
		DeliveryFeePaise: DefaultDeliveryFeePaise,
		UseTiers:         false,
		IsActive:         true,
	})
	if err != nil {
		// Lost the insert race: another caller materialized the default.
		row, readErr := s.repo.FindActive(ctx)
		if readErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: materialize default commission")
		}
		return toConfigDTO(row), nil
	}

	s.logg.Info(ctx, "default commission config materialized")
	return toConfigDTO(created), nil
}

// Update atomically replaces the active configuration: the old row is
// deactivated and a new active row inserted in one transaction, preserving
// history.
func (s *service) Update(ctx context.Context, input UpdateInput) (*ConfigDTO, error) {
	if err := validateRate(input.Rate); err != nil {
		return nil, err
	}
	if input.DeliveryFeePaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery_fee_paise cannot be negative")
	}

	var created *models.Commission
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeactivateActive(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate commission")
		}
		row, err := txRepo.Create(ctx, &models.Commission{
			Rate:             input.Rate,
			DeliveryFeePaise: input.DeliveryFeePaise,
			UseTiers:         input.UseTiers,
			IsActive:         true,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert commission")
		}
		created = row
		return nil
	}); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "commission_rate", input.Rate.String()), "commission config updated")
	return toConfigDTO(created), nil
}

// ListTiers returns all tier overrides.
func (s *service) ListTiers(ctx context.Context) ([]models.CommissionTier, error) {
	rows, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list commission tiers")
	}
	return rows, nil
}

// UpsertTier creates or replaces the override for a seller tier.
func (s *service) UpsertTier(ctx context.Context, input TierInput) (*models.CommissionTier, error) {
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller tier")
	}
	if err := validateRate(input.Rate); err != nil {
		return nil, err
	}

	row := &models.CommissionTier{
		Tier:            input.Tier,
		Rate:            input.Rate,
		MinOrders:       input.MinOrders,
		MinRevenuePaise: input.MinRevenuePaise,
	}
	if err := s.repo.UpsertTier(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert commission tier")
	}

	fresh, err := s.repo.FindTier(ctx, input.Tier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload commission tier")
	}
	return fresh, nil
}

// RateForSeller resolves the effective commission percentage for one seller.
// The flat rate applies unless tiers are enabled and an override exists for
// the seller's tier.
func (s *service) RateForSeller(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error) {
	cfg, err := s.GetActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !cfg.UseTiers {
		return cfg.Rate, nil
	}

	tier, err := s.tiers.TierFor(ctx, sellerID)
	if err != nil {
		return decimal.Zero, err
	}
	override, err := s.repo.FindTier(ctx, tier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cfg.Rate, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load commission tier")
	}
	return override.Rate, nil
}

// DeliveryFeePaise returns the flat delivery fee from the active config.
func (s *service) DeliveryFeePaise(ctx context.Context) (int64, error) {
	cfg, err := s.GetActive(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.DeliveryFeePaise, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(maxRate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rate must be between 0 and 100")
	}
	return nil
}

func toConfigDTO(row *models.Commission) *ConfigDTO {
	return &ConfigDTO{
		ID:               row.ID,
		Rate:             row.Rate,
		DeliveryFeePaise: row.DeliveryFeePaise,
		UseTiers:         row.UseTiers,
		UpdatedAt:        row.UpdatedAt,
	}
}
