package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/freshlane/marketplace-backend/api/responses"
	"github.com/freshlane/marketplace-backend/api/validators"
	reservationsvc "github.com/freshlane/marketplace-backend/internal/reservation"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

type reserveItemRequest struct {
	OfferID  string `json:"offer_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type reserveRequest struct {
	UserID string               `json:"user_id" validate:"required,uuid"`
	Items  []reserveItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateReservations places stock holds for every requested item or none.
func CreateReservations(svc reservationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload reserveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, _ := uuid.Parse(payload.UserID)
		items := make([]reservationsvc.ReserveItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			offerID, err := uuid.Parse(item.OfferID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer_id"))
				return
			}
			items = append(items, reservationsvc.ReserveItem{OfferID: offerID, Quantity: item.Quantity})
		}

		created, err := svc.Reserve(r.Context(), userID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type updateReservationsRequest struct {
	UserID  string  `json:"user_id" validate:"required,uuid"`
	Status  string  `json:"status" validate:"required,oneof=completed cancelled"`
	OrderID *string `json:"order_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateReservations finalizes or releases the user's active holds.
func UpdateReservations(svc reservationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateReservationsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, _ := uuid.Parse(payload.UserID)

		switch enums.ReservationStatus(payload.Status) {
		case enums.ReservationStatusCompleted:
			if payload.OrderID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required to complete reservations"))
				return
			}
			orderID, err := uuid.Parse(*payload.OrderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
				return
			}
			updated, err := svc.Finalize(r.Context(), userID, orderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, updated)
		case enums.ReservationStatusCancelled:
			updated, err := svc.Release(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, updated)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "status must be completed or cancelled"))
		}
	}
}

// SweepExpiredReservations releases every lapsed hold.
func SweepExpiredReservations(svc reservationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cleaned, err := svc.SweepExpired(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"cleaned": cleaned})
	}
}
