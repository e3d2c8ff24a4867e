package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db"
	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

// DefaultTTL is how long a hold lasts when the config does not override it.
const DefaultTTL = 15 * time.Minute

// sweepBatchSize caps how many lapsed holds one sweep pass processes.
const sweepBatchSize = 200

// ReserveItem is one requested hold line.
type ReserveItem struct {
	OfferID  uuid.UUID
	Quantity int
}

// ReservationDTO is the API shape of one hold.
type ReservationDTO struct {
	ID        uuid.UUID               `json:"id"`
	OfferID   uuid.UUID               `json:"offer_id"`
	Quantity  int                     `json:"quantity"`
	Status    enums.ReservationStatus `json:"status"`
	OrderID   *uuid.UUID              `json:"order_id,omitempty"`
	ExpiresAt time.Time               `json:"expires_at"`
	CreatedAt time.Time               `json:"created_at"`
}

// Service manages time-boxed stock holds.
type Service interface {
	Reserve(ctx context.Context, userID uuid.UUID, items []ReserveItem) ([]ReservationDTO, error)
	Finalize(ctx context.Context, userID, orderID uuid.UUID) ([]ReservationDTO, error)
	Release(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error)
	SweepExpired(ctx context.Context) (int, error)
}

type offerReader interface {
	FindOffer(ctx context.Context, id uuid.UUID) (*models.SellerOffer, error)
}

type service struct {
	repo     *Repository
	offers   offerReader
	dbClient *db.Client
	logg     *logger.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewService constructs a reservation service instance.
func NewService(repo *Repository, offers offerReader, dbClient *db.Client, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer reader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{
		repo:     repo,
		offers:   offers,
		dbClient: dbClient,
		logg:     logg,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Reserve places holds for every requested item or none of them. Each line
// decrements offer stock with a conditional update inside one transaction;
// the first line that cannot be satisfied rolls the whole request back.
func (s *service) Reserve(ctx context.Context, userID uuid.UUID, items []ReserveItem) ([]ReservationDTO, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, dup := seen[item.OfferID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate offer in request")
		}
		seen[item.OfferID] = struct{}{}
	}

	expiresAt := s.now().UTC().Add(s.ttl)
	created := make([]ReservationDTO, 0, len(items))

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, item := range items {
			offer, err := s.offers.FindOffer(ctx, item.OfferID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found").
						WithDetails(map[string]any{"offer_id": item.OfferID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load offer")
			}
			if item.Quantity < offer.MinOrderQty {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity below minimum order").
					WithDetails(map[string]any{"offer_id": offer.ID, "min_order_qty": offer.MinOrderQty})
			}
			if offer.MaxOrderQty > 0 && item.Quantity > offer.MaxOrderQty {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity above maximum order").
					WithDetails(map[string]any{"offer_id": offer.ID, "max_order_qty": offer.MaxOrderQty})
			}

			affected, err := txRepo.DecrementStock(ctx, item.OfferID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeInsufficient, "not enough stock for offer").
					WithDetails(map[string]any{"offer_id": item.OfferID, "requested": item.Quantity})
			}

			row, err := txRepo.Create(ctx, &models.StockReservation{
				UserID:        userID,
				SellerOfferID: item.OfferID,
				Quantity:      item.Quantity,
				Status:        enums.ReservationStatusActive,
				ExpiresAt:     expiresAt,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert reservation")
			}
			created = append(created, toDTO(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":    userID.String(),
		"item_count": len(created),
		"expires_at": expiresAt,
	}), "stock reserved")
	return created, nil
}

// Finalize converts the user's active holds into completed ones, attaching
// the order that consumed them. Stock stays decremented. A hold whose TTL
// has lapsed fails the whole call so the caller never ships unreserved
// stock; the guarded transition handles a sweep racing us the same way.
func (s *service) Finalize(ctx context.Context, userID, orderID uuid.UUID) ([]ReservationDTO, error) {
	active, err := s.activeForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active reservations")
	}

	now := s.now().UTC()
	for i := range active {
		if !active[i].ExpiresAt.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation has expired").
				WithDetails(map[string]any{"reservation_id": active[i].ID})
		}
	}

	out := make([]ReservationDTO, 0, len(active))
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for i := range active {
			affected, err := txRepo.Transition(ctx, active[i].ID, enums.ReservationStatusCompleted, &orderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete reservation")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is no longer active").
					WithDetails(map[string]any{"reservation_id": active[i].ID})
			}
			dto := toDTO(&active[i])
			dto.Status = enums.ReservationStatusCompleted
			dto.OrderID = &orderID
			out = append(out, dto)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":  userID.String(),
		"order_id": orderID.String(),
		"count":    len(out),
	}), "reservations finalized")
	return out, nil
}

// Release cancels the user's active holds and returns their stock.
func (s *service) Release(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error) {
	active, err := s.activeForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active reservations")
	}

	out := make([]ReservationDTO, 0, len(active))
	for i := range active {
		if err := s.release(ctx, &active[i], enums.ReservationStatusCancelled); err != nil {
			return nil, err
		}
		dto := toDTO(&active[i])
		dto.Status = enums.ReservationStatusCancelled
		out = append(out, dto)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"count":   len(out),
	}), "reservations released")
	return out, nil
}

// ListForUser returns the user's reservations.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reservations")
	}
	out := make([]ReservationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// SweepExpired expires lapsed holds and restores their stock. Each hold is
// handled in its own transaction so one failure does not block the batch,
// and the status guard keeps the sweep safe to run concurrently with
// Finalize and Release.
func (s *service) SweepExpired(ctx context.Context) (int, error) {
	lapsed, err := s.repo.ListExpired(ctx, s.now().UTC(), sweepBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list expired reservations")
	}

	swept := 0
	var errs []error
	for i := range lapsed {
		row := lapsed[i]
		if err := s.release(ctx, &row, enums.ReservationStatusExpired); err != nil {
			// A state conflict means Finalize or Release beat us to the
			// row, which is not a failure of the sweep.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				continue
			}
			errs = append(errs, err)
			continue
		}
		swept++
	}
	if swept > 0 {
		s.logg.Info(s.logg.WithField(ctx, "count", swept), "expired reservations released")
	}
	return swept, multierr.Combine(errs...)
}

// release transitions the hold to a terminal state and restocks in one
// transaction. The guarded transition wins or the whole thing is a no-op.
func (s *service) release(ctx context.Context, row *models.StockReservation, to enums.ReservationStatus) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		affected, err := txRepo.Transition(ctx, row.ID, to, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: transition reservation")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is no longer active")
		}
		if err := txRepo.IncrementStock(ctx, row.SellerOfferID, row.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restore stock")
		}
		return nil
	})
}

func (s *service) activeForUser(ctx context.Context, userID uuid.UUID) ([]models.StockReservation, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reservations")
	}
	active := rows[:0]
	for i := range rows {
		if rows[i].Status == enums.ReservationStatusActive {
			active = append(active, rows[i])
		}
	}
	return active, nil
}

func toDTO(row *models.StockReservation) ReservationDTO {
	return ReservationDTO{
		ID:        row.ID,
		OfferID:   row.SellerOfferID,
		Quantity:  row.Quantity,
		Status:    row.Status,
		OrderID:   row.OrderID,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}
}
