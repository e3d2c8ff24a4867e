package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/freshlane/marketplace-backend/api/responses"
	"github.com/freshlane/marketplace-backend/api/validators"
	commissionsvc "github.com/freshlane/marketplace-backend/internal/commission"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

// GetCommission returns the active commission configuration.
func GetCommission(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := svc.GetActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

type updateCommissionRequest struct {
	Rate             string `json:"rate" validate:"required"`
	DeliveryFeePaise int64  `json:"delivery_fee_paise" validate:"min=0"`
	UseTiers         bool   `json:"use_tiers"`
}

// UpdateCommission replaces the active commission configuration.
func UpdateCommission(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateCommissionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rate, err := decimal.NewFromString(payload.Rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate"))
			return
		}

		cfg, err := svc.Update(r.Context(), commissionsvc.UpdateInput{
			Rate:             rate,
			DeliveryFeePaise: payload.DeliveryFeePaise,
			UseTiers:         payload.UseTiers,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

// ListCommissionTiers returns every tier override.
func ListCommissionTiers(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tiers, err := svc.ListTiers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tiers)
	}
}

type upsertTierRequest struct {
	Tier            string `json:"tier" validate:"required"`
	Rate            string `json:"rate" validate:"required"`
	MinOrders       int    `json:"min_orders" validate:"min=0"`
	MinRevenuePaise int64  `json:"min_revenue_paise" validate:"min=0"`
}

// UpsertCommissionTier creates or replaces one tier override.
func UpsertCommissionTier(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tier, err := enums.ParseSellerTier(payload.Tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
			return
		}
		rate, err := decimal.NewFromString(payload.Rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate"))
			return
		}

		row, err := svc.UpsertTier(r.Context(), commissionsvc.TierInput{
			Tier:            tier,
			Rate:            rate,
			MinOrders:       payload.MinOrders,
			MinRevenuePaise: payload.MinRevenuePaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
